package postgres

import (
	"context"
	"database/sql"
	"errors"

	"wearables/internal/domain"
)

const entryColumns = "id, record_key, period_from, period_to, steps, calories, distance, created_at, updated_at"

func scanEntry(row interface{ Scan(...any) error }) (domain.ActivityEntry, error) {
	var e domain.ActivityEntry
	err := row.Scan(&e.ID, &e.RecordKey, &e.PeriodFrom, &e.PeriodTo, &e.Steps, &e.Calories, &e.Distance, &e.CreatedAt, &e.UpdatedAt)
	e.PeriodFrom = e.PeriodFrom.UTC()
	e.PeriodTo = e.PeriodTo.UTC()
	return e, err
}

// FindEntry looks up an entry by its natural key.
func (s *store) FindEntry(ctx context.Context, key domain.EntryKey) (*domain.ActivityEntry, error) {
	e, err := scanEntry(s.q.QueryRowContext(ctx,
		"SELECT "+entryColumns+" FROM activity_entries WHERE record_key = $1 AND period_from = $2 AND period_to = $3",
		key.RecordKey, key.PeriodFrom, key.PeriodTo,
	))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &e, nil
}

// InsertEntry stores a new entry and returns it with its ID.
func (s *store) InsertEntry(ctx context.Context, e domain.ActivityEntry) (domain.ActivityEntry, error) {
	err := s.q.QueryRowContext(ctx,
		`INSERT INTO activity_entries (record_key, period_from, period_to, steps, calories, distance, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8) RETURNING id`,
		e.RecordKey, e.PeriodFrom, e.PeriodTo, e.Steps, e.Calories, e.Distance, e.CreatedAt, e.UpdatedAt,
	).Scan(&e.ID)
	if err != nil {
		return domain.ActivityEntry{}, err
	}
	return e, nil
}

// UpdateEntryTotals overwrites the metrics of an existing entry.
func (s *store) UpdateEntryTotals(ctx context.Context, e domain.ActivityEntry) error {
	_, err := s.q.ExecContext(ctx,
		"UPDATE activity_entries SET steps = $1, calories = $2, distance = $3, updated_at = $4 WHERE id = $5",
		e.Steps, e.Calories, e.Distance, e.UpdatedAt, e.ID,
	)
	return err
}

// ListEntries returns every entry of a record key ordered by period.
func (s *store) ListEntries(ctx context.Context, recordKey string) ([]domain.ActivityEntry, error) {
	rows, err := s.q.QueryContext(ctx,
		"SELECT "+entryColumns+" FROM activity_entries WHERE record_key = $1 ORDER BY period_from, period_to",
		recordKey,
	)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	var out []domain.ActivityEntry
	for rows.Next() {
		e, err := scanEntry(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	return out, rows.Err()
}
