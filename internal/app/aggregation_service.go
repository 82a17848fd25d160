package app

import (
	"context"
	"fmt"
	"time"

	"wearables/internal/domain"
	"wearables/internal/logger"
	"wearables/internal/observability"
)

// AggregationResult counts the buckets touched by one recompute.
type AggregationResult struct {
	Days     int
	Months   int
	Inserted int
	Updated  int
}

// AggregationService rebuilds daily and monthly summaries from the full set
// of stored entries for a record key.
type AggregationService struct {
	uow     domain.UnitOfWork
	log     *logger.Logger
	metrics *observability.Metrics
	now     func() time.Time
}

// NewAggregationService creates an AggregationService. metrics may be nil.
func NewAggregationService(uow domain.UnitOfWork, log *logger.Logger, metrics *observability.Metrics) *AggregationService {
	if log == nil {
		log = logger.Nop()
	}
	return &AggregationService{uow: uow, log: log, metrics: metrics, now: time.Now}
}

// Run recomputes the summaries of recordKey in a unit of work of its own.
func (s *AggregationService) Run(ctx context.Context, recordKey string) (AggregationResult, error) {
	if recordKey == "" {
		return AggregationResult{}, domain.ErrRecordKeyInvalid.New("record key is required")
	}
	var res AggregationResult
	err := s.uow.WithinTx(ctx, func(store domain.HealthStore) error {
		var err error
		res, err = s.Recompute(ctx, store, recordKey)
		return err
	})
	if err != nil {
		return AggregationResult{}, catalogOrInternal(err)
	}
	return res, nil
}

// Recompute loads every entry of recordKey from store and overwrites or
// inserts one summary per date and per month. It writes nothing when the key
// has no entries. Callers run it inside their unit of work; a failed bucket
// write fails the whole call.
func (s *AggregationService) Recompute(ctx context.Context, store domain.HealthStore, recordKey string) (AggregationResult, error) {
	start := time.Now()
	entries, err := store.ListEntries(ctx, recordKey)
	if err != nil {
		return AggregationResult{}, fmt.Errorf("list entries: %w", err)
	}
	if len(entries) == 0 {
		s.log.Debug("no entries to aggregate", "recordKey", recordKey)
		return AggregationResult{}, nil
	}

	rollup := domain.Aggregate(entries)
	now := s.now().UTC()
	res := AggregationResult{Days: len(rollup.Days), Months: len(rollup.Months)}

	var dayIns, dayUpd int
	for _, b := range rollup.Days {
		existing, err := store.FindDailySummary(ctx, recordKey, b.Date)
		if err != nil {
			return AggregationResult{}, fmt.Errorf("find daily summary %s: %w", b.Date.Format(domain.DateLayout), err)
		}
		if existing != nil {
			existing.Totals = b.Totals
			existing.UpdatedAt = now
			if err := store.UpdateDailySummary(ctx, *existing); err != nil {
				return AggregationResult{}, fmt.Errorf("update daily summary %s: %w", b.Date.Format(domain.DateLayout), err)
			}
			dayUpd++
			continue
		}
		err = store.InsertDailySummary(ctx, domain.DailySummary{
			RecordKey: recordKey,
			Date:      b.Date,
			Totals:    b.Totals,
			CreatedAt: now,
			UpdatedAt: now,
		})
		if err != nil {
			return AggregationResult{}, fmt.Errorf("insert daily summary %s: %w", b.Date.Format(domain.DateLayout), err)
		}
		dayIns++
	}

	var monIns, monUpd int
	for _, b := range rollup.Months {
		existing, err := store.FindMonthlySummary(ctx, recordKey, b.YearMonth)
		if err != nil {
			return AggregationResult{}, fmt.Errorf("find monthly summary %s: %w", b.YearMonth, err)
		}
		if existing != nil {
			existing.Totals = b.Totals
			existing.UpdatedAt = now
			if err := store.UpdateMonthlySummary(ctx, *existing); err != nil {
				return AggregationResult{}, fmt.Errorf("update monthly summary %s: %w", b.YearMonth, err)
			}
			monUpd++
			continue
		}
		err = store.InsertMonthlySummary(ctx, domain.MonthlySummary{
			RecordKey: recordKey,
			YearMonth: b.YearMonth,
			Totals:    b.Totals,
			CreatedAt: now,
			UpdatedAt: now,
		})
		if err != nil {
			return AggregationResult{}, fmt.Errorf("insert monthly summary %s: %w", b.YearMonth, err)
		}
		monIns++
	}

	res.Inserted = dayIns + monIns
	res.Updated = dayUpd + monUpd
	if s.metrics != nil {
		s.metrics.ObserveSummaryWrites(observability.GranularityDaily, dayIns, dayUpd)
		s.metrics.ObserveSummaryWrites(observability.GranularityMonthly, monIns, monUpd)
		s.metrics.AggregationDuration.Observe(time.Since(start).Seconds())
	}
	s.log.Debug("summaries recomputed",
		"recordKey", recordKey,
		"entries", len(entries),
		"days", res.Days,
		"months", res.Months,
		"inserted", res.Inserted,
		"updated", res.Updated,
	)
	return res, nil
}
