package app

import (
	"context"
	"fmt"
	"strings"
	"time"

	"wearables/internal/domain"
	"wearables/internal/logger"
	"wearables/internal/observability"
)

// EntryInput is one device sample as received, before timestamp parsing and
// metric coercion.
type EntryInput struct {
	From     string
	To       string
	Steps    domain.Metric
	Calories domain.Metric
	Distance domain.Metric
}

// IngestRequest is a batch of samples for one record key.
type IngestRequest struct {
	RecordKey string
	Memo      string
	Entries   []EntryInput
}

// EntryFailure describes a sample that was skipped.
type EntryFailure struct {
	Index  int    `json:"index"`
	Code   string `json:"code"`
	Reason string `json:"reason"`
}

// IngestResult reports how much of a batch was stored.
type IngestResult struct {
	RecordKey  string
	SavedCount int
	TotalCount int
	Failures   []EntryFailure
	Summaries  AggregationResult
}

// IngestService stores sample batches and refreshes the summaries of the
// affected record key in the same unit of work.
type IngestService struct {
	uow     domain.UnitOfWork
	agg     *AggregationService
	log     *logger.Logger
	metrics *observability.Metrics
	now     func() time.Time
}

// NewIngestService creates an IngestService. metrics may be nil.
func NewIngestService(uow domain.UnitOfWork, agg *AggregationService, log *logger.Logger, metrics *observability.Metrics) *IngestService {
	if log == nil {
		log = logger.Nop()
	}
	return &IngestService{uow: uow, agg: agg, log: log, metrics: metrics, now: time.Now}
}

// Ingest validates the batch, parses each entry, reconciles the parsed
// entries by natural key and recomputes summaries. Entries that fail to parse
// are reported in the result and do not abort the batch; a storage failure
// aborts everything.
func (s *IngestService) Ingest(ctx context.Context, req IngestRequest) (IngestResult, error) {
	req.RecordKey = strings.TrimSpace(req.RecordKey)
	if err := validateIngest(req); err != nil {
		return IngestResult{}, err
	}
	log := s.log.With("recordKey", req.RecordKey)

	res := IngestResult{RecordKey: req.RecordKey, TotalCount: len(req.Entries)}
	parsed := make([]domain.ActivityEntry, 0, len(req.Entries))
	for i, in := range req.Entries {
		e, err := parseEntry(req.RecordKey, in)
		if err != nil {
			code := domain.CodeOf(err)
			log.Warn("skipping entry", "index", i, "code", code.Code, "error", err)
			res.Failures = append(res.Failures, EntryFailure{Index: i, Code: code.Code, Reason: err.Error()})
			if s.metrics != nil {
				s.metrics.EntriesSkipped.WithLabelValues(code.Code).Inc()
			}
			continue
		}
		parsed = append(parsed, e)
	}

	err := s.uow.WithinTx(ctx, func(store domain.HealthStore) error {
		for _, e := range parsed {
			if err := s.reconcile(ctx, store, e); err != nil {
				return err
			}
		}
		var err error
		res.Summaries, err = s.agg.Recompute(ctx, store, req.RecordKey)
		return err
	})
	if err != nil {
		log.Error("ingestion failed", "error", err)
		return IngestResult{}, catalogOrInternal(err)
	}

	res.SavedCount = len(parsed)
	if s.metrics != nil {
		s.metrics.EntriesIngested.Add(float64(res.SavedCount))
	}
	log.Info("ingested batch",
		"saved", res.SavedCount,
		"total", res.TotalCount,
		"days", res.Summaries.Days,
		"months", res.Summaries.Months,
	)
	return res, nil
}

// reconcile overwrites the metrics of the entry with the same natural key or
// inserts a new one.
func (s *IngestService) reconcile(ctx context.Context, store domain.HealthStore, e domain.ActivityEntry) error {
	existing, err := store.FindEntry(ctx, e.Key())
	if err != nil {
		return fmt.Errorf("find entry: %w", err)
	}
	now := s.now().UTC()
	if existing != nil {
		existing.Totals = e.Totals
		existing.UpdatedAt = now
		if err := store.UpdateEntryTotals(ctx, *existing); err != nil {
			return fmt.Errorf("update entry %d: %w", existing.ID, err)
		}
		return nil
	}
	e.CreatedAt = now
	e.UpdatedAt = now
	if _, err := store.InsertEntry(ctx, e); err != nil {
		return fmt.Errorf("insert entry: %w", err)
	}
	return nil
}

func validateIngest(req IngestRequest) error {
	if req.RecordKey == "" {
		return domain.ErrRecordKeyInvalid.New("record key is required")
	}
	for i, in := range req.Entries {
		if strings.TrimSpace(in.From) == "" || strings.TrimSpace(in.To) == "" {
			return domain.ErrInvalidInput.Newf("entries[%d]: period from and to are required", i)
		}
	}
	return nil
}

func parseEntry(recordKey string, in EntryInput) (domain.ActivityEntry, error) {
	from, err := domain.ParseTimestamp(in.From)
	if err != nil {
		return domain.ActivityEntry{}, err
	}
	to, err := domain.ParseTimestamp(in.To)
	if err != nil {
		return domain.ActivityEntry{}, err
	}
	totals := domain.Totals{
		Steps:    in.Steps.Steps(),
		Calories: in.Calories.Float(),
		Distance: in.Distance.Float(),
	}
	if totals.Steps < 0 || totals.Calories < 0 || totals.Distance < 0 {
		return domain.ActivityEntry{}, domain.ErrInvalidInput.New("metrics must not be negative")
	}
	return domain.ActivityEntry{
		RecordKey:  recordKey,
		PeriodFrom: from,
		PeriodTo:   to,
		Totals:     totals,
	}, nil
}
