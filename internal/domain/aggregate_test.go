package domain_test

import (
	"testing"
	"time"

	"wearables/internal/domain"
)

func mkEntry(from string, steps int64, calories, distance float64) domain.ActivityEntry {
	start, err := time.Parse("2006-01-02T15:04:05", from)
	if err != nil {
		panic(err)
	}
	return domain.ActivityEntry{
		RecordKey:  "u1",
		PeriodFrom: start,
		PeriodTo:   start.Add(10 * time.Minute),
		Totals:     domain.Totals{Steps: steps, Calories: calories, Distance: distance},
	}
}

func TestAggregate(t *testing.T) {
	entries := []domain.ActivityEntry{
		mkEntry("2024-12-01T00:00:00", 7, 0.5, 0.01),
		mkEntry("2024-11-05T00:10:00", 50, 2.5, 0.04),
		mkEntry("2024-11-30T23:55:00", 20, 1, 0.02),
		mkEntry("2024-11-05T00:00:00", 100, 5, 0.08),
	}

	got := domain.Aggregate(entries)

	wantDays := []struct {
		date  string
		steps int64
	}{
		{"2024-11-05", 150},
		{"2024-11-30", 20},
		{"2024-12-01", 7},
	}
	if len(got.Days) != len(wantDays) {
		t.Fatalf("expected %d days, got %d", len(wantDays), len(got.Days))
	}
	for i, w := range wantDays {
		d := got.Days[i]
		if d.Date.Format(domain.DateLayout) != w.date || d.Steps != w.steps {
			t.Errorf("day %d = %s/%d; want %s/%d", i, d.Date.Format(domain.DateLayout), d.Steps, w.date, w.steps)
		}
	}
	if !almostEqual(got.Days[0].Calories, 7.5, 1e-9) || !almostEqual(got.Days[0].Distance, 0.12, 1e-9) {
		t.Errorf("unexpected 2024-11-05 totals: %+v", got.Days[0].Totals)
	}

	if len(got.Months) != 2 {
		t.Fatalf("expected 2 months, got %d", len(got.Months))
	}
	if got.Months[0].String() != "2024-11" || got.Months[0].Steps != 170 {
		t.Errorf("unexpected first month: %+v", got.Months[0])
	}
	if got.Months[1].String() != "2024-12" || got.Months[1].Steps != 7 {
		t.Errorf("unexpected second month: %+v", got.Months[1])
	}
}

func TestAggregateSumsMatch(t *testing.T) {
	var entries []domain.ActivityEntry
	var total domain.Totals
	for i := 0; i < 40; i++ {
		e := mkEntry(time.Date(2024, 1, 20, 0, 0, 0, 0, time.UTC).
			Add(time.Duration(i)*13*time.Hour).Format("2006-01-02T15:04:05"), int64(i*10), float64(i)/4, float64(i)/100)
		entries = append(entries, e)
		total.Add(e.Totals)
	}

	got := domain.Aggregate(entries)

	var days, months domain.Totals
	for _, d := range got.Days {
		days.Add(d.Totals)
	}
	for _, m := range got.Months {
		months.Add(m.Totals)
	}
	for name, sum := range map[string]domain.Totals{"days": days, "months": months} {
		if sum.Steps != total.Steps ||
			!almostEqual(sum.Calories, total.Calories, 1e-9) ||
			!almostEqual(sum.Distance, total.Distance, 1e-9) {
			t.Errorf("%s sum %+v; want %+v", name, sum, total)
		}
	}
}

func TestAggregateEmpty(t *testing.T) {
	got := domain.Aggregate(nil)
	if len(got.Days) != 0 || len(got.Months) != 0 {
		t.Fatalf("expected empty rollup, got %+v", got)
	}
}
