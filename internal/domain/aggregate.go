package domain

import (
	"sort"
	"time"
)

// DayBucket is the sum of all entries starting on one calendar date.
type DayBucket struct {
	Date time.Time
	Totals
}

// MonthBucket is the sum of all entries starting in one calendar month.
type MonthBucket struct {
	YearMonth
	Totals
}

// Rollup is the result of grouping a record key's entries.
type Rollup struct {
	Days   []DayBucket
	Months []MonthBucket
}

// Aggregate groups entries by the calendar date and month of their period
// start and sums their metrics. Buckets are sorted ascending.
func Aggregate(entries []ActivityEntry) Rollup {
	days := make(map[time.Time]*DayBucket)
	months := make(map[YearMonth]*MonthBucket)

	for _, e := range entries {
		date := e.Date()
		d, ok := days[date]
		if !ok {
			d = &DayBucket{Date: date}
			days[date] = d
		}
		d.Add(e.Totals)

		ym := YearMonthOf(e.PeriodFrom)
		m, ok := months[ym]
		if !ok {
			m = &MonthBucket{YearMonth: ym}
			months[ym] = m
		}
		m.Add(e.Totals)
	}

	out := Rollup{
		Days:   make([]DayBucket, 0, len(days)),
		Months: make([]MonthBucket, 0, len(months)),
	}
	for _, d := range days {
		out.Days = append(out.Days, *d)
	}
	for _, m := range months {
		out.Months = append(out.Months, *m)
	}
	sort.Slice(out.Days, func(i, j int) bool { return out.Days[i].Date.Before(out.Days[j].Date) })
	sort.Slice(out.Months, func(i, j int) bool { return out.Months[i].YearMonth.Before(out.Months[j].YearMonth) })
	return out
}
