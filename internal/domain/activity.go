// Package domain contains the core business entities, ports and the pure
// aggregation logic.
package domain

import (
	"context"
	"fmt"
	"time"
)

// DateLayout is the wire and storage format of a calendar date.
const DateLayout = "2006-01-02"

// Totals holds the three activity metrics for an entry or a bucket.
type Totals struct {
	Steps    int64   `json:"steps"`
	Calories float64 `json:"calories"`
	Distance float64 `json:"distance"`
}

// Add accumulates o into t.
func (t *Totals) Add(o Totals) {
	t.Steps += o.Steps
	t.Calories += o.Calories
	t.Distance += o.Distance
}

// EntryKey is the natural key of an activity entry.
type EntryKey struct {
	RecordKey  string
	PeriodFrom time.Time
	PeriodTo   time.Time
}

// ActivityEntry is one ingested measurement covering a bounded period.
type ActivityEntry struct {
	ID         int64
	RecordKey  string
	PeriodFrom time.Time
	PeriodTo   time.Time
	Totals
	CreatedAt time.Time
	UpdatedAt time.Time
}

// Key returns the entry's natural key.
func (e ActivityEntry) Key() EntryKey {
	return EntryKey{RecordKey: e.RecordKey, PeriodFrom: e.PeriodFrom, PeriodTo: e.PeriodTo}
}

// Date returns the calendar date of the period start.
func (e ActivityEntry) Date() time.Time {
	return CalendarDate(e.PeriodFrom)
}

// YearMonth identifies a calendar month.
type YearMonth struct {
	Year  int
	Month int
}

func (ym YearMonth) String() string {
	return fmt.Sprintf("%04d-%02d", ym.Year, ym.Month)
}

// Before orders year-months chronologically.
func (ym YearMonth) Before(o YearMonth) bool {
	if ym.Year != o.Year {
		return ym.Year < o.Year
	}
	return ym.Month < o.Month
}

// YearMonthOf returns the calendar month containing t.
func YearMonthOf(t time.Time) YearMonth {
	return YearMonth{Year: t.Year(), Month: int(t.Month())}
}

// CalendarDate truncates t to midnight of its own calendar day, in UTC.
func CalendarDate(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

// DailySummary is the derived per-day total for a record key.
type DailySummary struct {
	RecordKey string
	Date      time.Time
	Totals
	CreatedAt time.Time
	UpdatedAt time.Time
}

// MonthlySummary is the derived per-month total for a record key.
type MonthlySummary struct {
	RecordKey string
	YearMonth
	Totals
	CreatedAt time.Time
	UpdatedAt time.Time
}

// DateRange is a closed interval of calendar dates.
type DateRange struct {
	Start time.Time
	End   time.Time
}

// Contains reports whether date falls within the range, inclusive.
func (r DateRange) Contains(date time.Time) bool {
	return !date.Before(r.Start) && !date.After(r.End)
}

// EntryRepository is the port for raw activity entries.
type EntryRepository interface {
	FindEntry(ctx context.Context, key EntryKey) (*ActivityEntry, error)
	InsertEntry(ctx context.Context, e ActivityEntry) (ActivityEntry, error)
	UpdateEntryTotals(ctx context.Context, e ActivityEntry) error
	ListEntries(ctx context.Context, recordKey string) ([]ActivityEntry, error)
}

// SummaryRepository is the port for daily and monthly summaries. Find
// methods return (nil, nil) when no row exists.
type SummaryRepository interface {
	FindDailySummary(ctx context.Context, recordKey string, date time.Time) (*DailySummary, error)
	InsertDailySummary(ctx context.Context, s DailySummary) error
	UpdateDailySummary(ctx context.Context, s DailySummary) error
	ListDailySummaries(ctx context.Context, recordKey string, r *DateRange) ([]DailySummary, error)

	FindMonthlySummary(ctx context.Context, recordKey string, ym YearMonth) (*MonthlySummary, error)
	InsertMonthlySummary(ctx context.Context, s MonthlySummary) error
	UpdateMonthlySummary(ctx context.Context, s MonthlySummary) error
	ListMonthlySummaries(ctx context.Context, recordKey string, year *int) ([]MonthlySummary, error)
}

// HealthStore combines the repositories a unit of work operates on.
type HealthStore interface {
	EntryRepository
	SummaryRepository
}

// UnitOfWork runs fn against a transactional view of the store. Either every
// write made through the view is applied, or none is.
type UnitOfWork interface {
	WithinTx(ctx context.Context, fn func(HealthStore) error) error
}
