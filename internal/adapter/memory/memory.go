// Package memory implements an in-memory repository for development and testing.
package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"wearables/internal/domain"
)

type instant [2]int64

func instantOf(t time.Time) instant { return instant{t.Unix(), int64(t.Nanosecond())} }

type entryKey struct {
	recordKey string
	from, to  instant
}

func keyOf(k domain.EntryKey) entryKey {
	return entryKey{recordKey: k.RecordKey, from: instantOf(k.PeriodFrom), to: instantOf(k.PeriodTo)}
}

type dailyKey struct {
	recordKey string
	date      instant
}

type monthlyKey struct {
	recordKey string
	ym        domain.YearMonth
}

// state is one consistent snapshot of the health data. It implements
// domain.HealthStore without locking; callers hold DB.mu or own the snapshot.
type state struct {
	entries map[entryKey]domain.ActivityEntry
	daily   map[dailyKey]domain.DailySummary
	monthly map[monthlyKey]domain.MonthlySummary
	entryID int64
}

func newState() *state {
	return &state{
		entries: make(map[entryKey]domain.ActivityEntry),
		daily:   make(map[dailyKey]domain.DailySummary),
		monthly: make(map[monthlyKey]domain.MonthlySummary),
	}
}

func (s *state) clone() *state {
	c := &state{
		entries: make(map[entryKey]domain.ActivityEntry, len(s.entries)),
		daily:   make(map[dailyKey]domain.DailySummary, len(s.daily)),
		monthly: make(map[monthlyKey]domain.MonthlySummary, len(s.monthly)),
		entryID: s.entryID,
	}
	for k, v := range s.entries {
		c.entries[k] = v
	}
	for k, v := range s.daily {
		c.daily[k] = v
	}
	for k, v := range s.monthly {
		c.monthly[k] = v
	}
	return c
}

// DB implements an in-memory database storage.
type DB struct {
	// txMu serializes units of work; mu guards the current snapshot and accounts.
	txMu sync.Mutex
	mu   sync.Mutex
	st   *state

	accounts  []*domain.Account
	accountID int64
}

// New creates a new in-memory database.
func New() *DB {
	return &DB{st: newState()}
}

// Ensure interfaces are met.
var _ domain.HealthStore = (*DB)(nil)
var _ domain.HealthStore = (*state)(nil)
var _ domain.UnitOfWork = (*DB)(nil)
var _ domain.AccountRepository = (*DB)(nil)

// WithinTx runs fn against a private copy of the data and publishes the copy
// only when fn succeeds.
func (db *DB) WithinTx(ctx context.Context, fn func(domain.HealthStore) error) error {
	db.txMu.Lock()
	defer db.txMu.Unlock()

	db.mu.Lock()
	snapshot := db.st.clone()
	db.mu.Unlock()

	if err := fn(snapshot); err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	db.mu.Lock()
	db.st = snapshot
	db.mu.Unlock()
	return nil
}

// --- EntryRepository ---

func (s *state) FindEntry(ctx context.Context, key domain.EntryKey) (*domain.ActivityEntry, error) {
	e, ok := s.entries[keyOf(key)]
	if !ok {
		return nil, nil
	}
	return &e, nil
}

func (s *state) InsertEntry(ctx context.Context, e domain.ActivityEntry) (domain.ActivityEntry, error) {
	k := keyOf(e.Key())
	if _, ok := s.entries[k]; ok {
		return domain.ActivityEntry{}, domain.ErrInternal.New("duplicate activity entry")
	}
	s.entryID++
	e.ID = s.entryID
	s.entries[k] = e
	return e, nil
}

func (s *state) UpdateEntryTotals(ctx context.Context, e domain.ActivityEntry) error {
	k := keyOf(e.Key())
	cur, ok := s.entries[k]
	if !ok {
		return domain.ErrInternal.Newf("activity entry %d not found", e.ID)
	}
	cur.Totals = e.Totals
	cur.UpdatedAt = e.UpdatedAt
	s.entries[k] = cur
	return nil
}

func (s *state) ListEntries(ctx context.Context, recordKey string) ([]domain.ActivityEntry, error) {
	var out []domain.ActivityEntry
	for _, e := range s.entries {
		if e.RecordKey == recordKey {
			out = append(out, e)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].PeriodFrom.Equal(out[j].PeriodFrom) {
			return out[i].PeriodFrom.Before(out[j].PeriodFrom)
		}
		return out[i].PeriodTo.Before(out[j].PeriodTo)
	})
	return out, nil
}

// --- SummaryRepository ---

func (s *state) FindDailySummary(ctx context.Context, recordKey string, date time.Time) (*domain.DailySummary, error) {
	d, ok := s.daily[dailyKey{recordKey, instantOf(date)}]
	if !ok {
		return nil, nil
	}
	return &d, nil
}

func (s *state) InsertDailySummary(ctx context.Context, d domain.DailySummary) error {
	k := dailyKey{d.RecordKey, instantOf(d.Date)}
	if _, ok := s.daily[k]; ok {
		return domain.ErrInternal.New("duplicate daily summary")
	}
	s.daily[k] = d
	return nil
}

func (s *state) UpdateDailySummary(ctx context.Context, d domain.DailySummary) error {
	k := dailyKey{d.RecordKey, instantOf(d.Date)}
	cur, ok := s.daily[k]
	if !ok {
		return domain.ErrInternal.New("daily summary not found")
	}
	cur.Totals = d.Totals
	cur.UpdatedAt = d.UpdatedAt
	s.daily[k] = cur
	return nil
}

func (s *state) ListDailySummaries(ctx context.Context, recordKey string, r *domain.DateRange) ([]domain.DailySummary, error) {
	var out []domain.DailySummary
	for _, d := range s.daily {
		if d.RecordKey != recordKey {
			continue
		}
		if r != nil && !r.Contains(d.Date) {
			continue
		}
		out = append(out, d)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Date.Before(out[j].Date) })
	return out, nil
}

func (s *state) FindMonthlySummary(ctx context.Context, recordKey string, ym domain.YearMonth) (*domain.MonthlySummary, error) {
	m, ok := s.monthly[monthlyKey{recordKey, ym}]
	if !ok {
		return nil, nil
	}
	return &m, nil
}

func (s *state) InsertMonthlySummary(ctx context.Context, m domain.MonthlySummary) error {
	k := monthlyKey{m.RecordKey, m.YearMonth}
	if _, ok := s.monthly[k]; ok {
		return domain.ErrInternal.New("duplicate monthly summary")
	}
	s.monthly[k] = m
	return nil
}

func (s *state) UpdateMonthlySummary(ctx context.Context, m domain.MonthlySummary) error {
	k := monthlyKey{m.RecordKey, m.YearMonth}
	cur, ok := s.monthly[k]
	if !ok {
		return domain.ErrInternal.New("monthly summary not found")
	}
	cur.Totals = m.Totals
	cur.UpdatedAt = m.UpdatedAt
	s.monthly[k] = cur
	return nil
}

func (s *state) ListMonthlySummaries(ctx context.Context, recordKey string, year *int) ([]domain.MonthlySummary, error) {
	var out []domain.MonthlySummary
	for _, m := range s.monthly {
		if m.RecordKey != recordKey {
			continue
		}
		if year != nil && m.Year != *year {
			continue
		}
		out = append(out, m)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].YearMonth.Before(out[j].YearMonth) })
	return out, nil
}

// --- HealthStore outside a unit of work ---

func (db *DB) FindEntry(ctx context.Context, key domain.EntryKey) (*domain.ActivityEntry, error) {
	db.mu.Lock()
	defer db.mu.Unlock()
	return db.st.FindEntry(ctx, key)
}

func (db *DB) InsertEntry(ctx context.Context, e domain.ActivityEntry) (domain.ActivityEntry, error) {
	db.mu.Lock()
	defer db.mu.Unlock()
	return db.st.InsertEntry(ctx, e)
}

func (db *DB) UpdateEntryTotals(ctx context.Context, e domain.ActivityEntry) error {
	db.mu.Lock()
	defer db.mu.Unlock()
	return db.st.UpdateEntryTotals(ctx, e)
}

func (db *DB) ListEntries(ctx context.Context, recordKey string) ([]domain.ActivityEntry, error) {
	db.mu.Lock()
	defer db.mu.Unlock()
	return db.st.ListEntries(ctx, recordKey)
}

func (db *DB) FindDailySummary(ctx context.Context, recordKey string, date time.Time) (*domain.DailySummary, error) {
	db.mu.Lock()
	defer db.mu.Unlock()
	return db.st.FindDailySummary(ctx, recordKey, date)
}

func (db *DB) InsertDailySummary(ctx context.Context, d domain.DailySummary) error {
	db.mu.Lock()
	defer db.mu.Unlock()
	return db.st.InsertDailySummary(ctx, d)
}

func (db *DB) UpdateDailySummary(ctx context.Context, d domain.DailySummary) error {
	db.mu.Lock()
	defer db.mu.Unlock()
	return db.st.UpdateDailySummary(ctx, d)
}

func (db *DB) ListDailySummaries(ctx context.Context, recordKey string, r *domain.DateRange) ([]domain.DailySummary, error) {
	db.mu.Lock()
	defer db.mu.Unlock()
	return db.st.ListDailySummaries(ctx, recordKey, r)
}

func (db *DB) FindMonthlySummary(ctx context.Context, recordKey string, ym domain.YearMonth) (*domain.MonthlySummary, error) {
	db.mu.Lock()
	defer db.mu.Unlock()
	return db.st.FindMonthlySummary(ctx, recordKey, ym)
}

func (db *DB) InsertMonthlySummary(ctx context.Context, m domain.MonthlySummary) error {
	db.mu.Lock()
	defer db.mu.Unlock()
	return db.st.InsertMonthlySummary(ctx, m)
}

func (db *DB) UpdateMonthlySummary(ctx context.Context, m domain.MonthlySummary) error {
	db.mu.Lock()
	defer db.mu.Unlock()
	return db.st.UpdateMonthlySummary(ctx, m)
}

func (db *DB) ListMonthlySummaries(ctx context.Context, recordKey string, year *int) ([]domain.MonthlySummary, error) {
	db.mu.Lock()
	defer db.mu.Unlock()
	return db.st.ListMonthlySummaries(ctx, recordKey, year)
}

// --- AccountRepository ---

// GetByEmail finds an account by email.
func (db *DB) GetByEmail(ctx context.Context, email string) (*domain.Account, error) {
	db.mu.Lock()
	defer db.mu.Unlock()
	for _, a := range db.accounts {
		if a.Email == email {
			cp := *a
			return &cp, nil
		}
	}
	return nil, nil
}

// GetByRecordKey finds an account by its record key.
func (db *DB) GetByRecordKey(ctx context.Context, recordKey string) (*domain.Account, error) {
	db.mu.Lock()
	defer db.mu.Unlock()
	for _, a := range db.accounts {
		if a.RecordKey == recordKey {
			cp := *a
			return &cp, nil
		}
	}
	return nil, nil
}

func (db *DB) ExistsByEmail(ctx context.Context, email string) (bool, error) {
	a, err := db.GetByEmail(ctx, email)
	return a != nil, err
}

func (db *DB) ExistsByNickname(ctx context.Context, nickname string) (bool, error) {
	db.mu.Lock()
	defer db.mu.Unlock()
	for _, a := range db.accounts {
		if a.Nickname == nickname {
			return true, nil
		}
	}
	return false, nil
}

func (db *DB) ExistsByRecordKey(ctx context.Context, recordKey string) (bool, error) {
	a, err := db.GetByRecordKey(ctx, recordKey)
	return a != nil, err
}

// Create stores a new account, enforcing the same uniqueness rules as the
// postgres schema.
func (db *DB) Create(ctx context.Context, a domain.Account) (*domain.Account, error) {
	db.mu.Lock()
	defer db.mu.Unlock()
	for _, cur := range db.accounts {
		switch {
		case cur.Email == a.Email:
			return nil, domain.ErrEmailTaken.New(a.Email)
		case cur.Nickname == a.Nickname:
			return nil, domain.ErrNicknameTaken.New(a.Nickname)
		case cur.RecordKey == a.RecordKey:
			return nil, domain.ErrRecordKeyLinked.New(a.RecordKey)
		}
	}
	db.accountID++
	now := time.Now().UTC()
	a.ID = db.accountID
	a.CreatedAt = now
	a.UpdatedAt = now
	db.accounts = append(db.accounts, &a)
	cp := a
	return &cp, nil
}
