package postgres

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"time"

	"wearables/internal/domain"
)

const dailyColumns = "record_key, summary_date, steps, calories, distance, created_at, updated_at"

func scanDaily(row interface{ Scan(...any) error }) (domain.DailySummary, error) {
	var d domain.DailySummary
	err := row.Scan(&d.RecordKey, &d.Date, &d.Steps, &d.Calories, &d.Distance, &d.CreatedAt, &d.UpdatedAt)
	d.Date = domain.CalendarDate(d.Date)
	return d, err
}

func (s *store) FindDailySummary(ctx context.Context, recordKey string, date time.Time) (*domain.DailySummary, error) {
	d, err := scanDaily(s.q.QueryRowContext(ctx,
		"SELECT "+dailyColumns+" FROM daily_summaries WHERE record_key = $1 AND summary_date = $2",
		recordKey, date.Format(domain.DateLayout),
	))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &d, nil
}

func (s *store) InsertDailySummary(ctx context.Context, d domain.DailySummary) error {
	_, err := s.q.ExecContext(ctx,
		`INSERT INTO daily_summaries (record_key, summary_date, steps, calories, distance, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		d.RecordKey, d.Date.Format(domain.DateLayout), d.Steps, d.Calories, d.Distance, d.CreatedAt, d.UpdatedAt,
	)
	return err
}

func (s *store) UpdateDailySummary(ctx context.Context, d domain.DailySummary) error {
	_, err := s.q.ExecContext(ctx,
		`UPDATE daily_summaries SET steps = $1, calories = $2, distance = $3, updated_at = $4
		 WHERE record_key = $5 AND summary_date = $6`,
		d.Steps, d.Calories, d.Distance, d.UpdatedAt, d.RecordKey, d.Date.Format(domain.DateLayout),
	)
	return err
}

// ListDailySummaries returns summaries ordered by date, optionally limited to
// a closed range.
func (s *store) ListDailySummaries(ctx context.Context, recordKey string, r *domain.DateRange) ([]domain.DailySummary, error) {
	var sb strings.Builder
	sb.WriteString("SELECT " + dailyColumns + " FROM daily_summaries WHERE record_key = $1")
	args := []any{recordKey}
	if r != nil {
		sb.WriteString(" AND summary_date BETWEEN $2 AND $3")
		args = append(args, r.Start.Format(domain.DateLayout), r.End.Format(domain.DateLayout))
	}
	sb.WriteString(" ORDER BY summary_date")

	rows, err := s.q.QueryContext(ctx, sb.String(), args...)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	var out []domain.DailySummary
	for rows.Next() {
		d, err := scanDaily(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, d)
	}
	return out, rows.Err()
}

const monthlyColumns = "record_key, summary_year, summary_month, steps, calories, distance, created_at, updated_at"

func scanMonthly(row interface{ Scan(...any) error }) (domain.MonthlySummary, error) {
	var m domain.MonthlySummary
	err := row.Scan(&m.RecordKey, &m.Year, &m.Month, &m.Steps, &m.Calories, &m.Distance, &m.CreatedAt, &m.UpdatedAt)
	return m, err
}

func (s *store) FindMonthlySummary(ctx context.Context, recordKey string, ym domain.YearMonth) (*domain.MonthlySummary, error) {
	m, err := scanMonthly(s.q.QueryRowContext(ctx,
		"SELECT "+monthlyColumns+" FROM monthly_summaries WHERE record_key = $1 AND summary_year = $2 AND summary_month = $3",
		recordKey, ym.Year, ym.Month,
	))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &m, nil
}

func (s *store) InsertMonthlySummary(ctx context.Context, m domain.MonthlySummary) error {
	_, err := s.q.ExecContext(ctx,
		`INSERT INTO monthly_summaries (record_key, summary_year, summary_month, steps, calories, distance, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		m.RecordKey, m.Year, m.Month, m.Steps, m.Calories, m.Distance, m.CreatedAt, m.UpdatedAt,
	)
	return err
}

func (s *store) UpdateMonthlySummary(ctx context.Context, m domain.MonthlySummary) error {
	_, err := s.q.ExecContext(ctx,
		`UPDATE monthly_summaries SET steps = $1, calories = $2, distance = $3, updated_at = $4
		 WHERE record_key = $5 AND summary_year = $6 AND summary_month = $7`,
		m.Steps, m.Calories, m.Distance, m.UpdatedAt, m.RecordKey, m.Year, m.Month,
	)
	return err
}

// ListMonthlySummaries returns summaries ordered by year and month,
// optionally limited to one year.
func (s *store) ListMonthlySummaries(ctx context.Context, recordKey string, year *int) ([]domain.MonthlySummary, error) {
	query := "SELECT " + monthlyColumns + " FROM monthly_summaries WHERE record_key = $1"
	args := []any{recordKey}
	if year != nil {
		query += " AND summary_year = $2"
		args = append(args, *year)
	}
	query += " ORDER BY summary_year, summary_month"

	rows, err := s.q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	var out []domain.MonthlySummary
	for rows.Next() {
		m, err := scanMonthly(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, m)
	}
	return out, rows.Err()
}
