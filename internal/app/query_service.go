package app

import (
	"context"
	"strings"
	"time"

	"wearables/internal/domain"
)

// QueryService reads daily and monthly summaries. It never writes.
type QueryService struct {
	repo domain.SummaryRepository
}

// NewQueryService creates a QueryService backed by the given repository.
func NewQueryService(repo domain.SummaryRepository) *QueryService {
	return &QueryService{repo: repo}
}

// ListDaily returns the daily summaries of recordKey ordered by date,
// restricted to r when it is non-nil.
func (s *QueryService) ListDaily(ctx context.Context, recordKey string, r *domain.DateRange) ([]domain.DailySummary, error) {
	if err := checkRecordKey(recordKey); err != nil {
		return nil, err
	}
	if r != nil && r.Start.After(r.End) {
		return nil, domain.ErrInvalidInput.New("startDate must not be after endDate")
	}
	out, err := s.repo.ListDailySummaries(ctx, recordKey, r)
	if err != nil {
		return nil, domain.ErrInternal.Wrap(err)
	}
	return out, nil
}

// GetDaily returns the summary of one date. found is false when no summary
// exists, which is not an error.
func (s *QueryService) GetDaily(ctx context.Context, recordKey string, date time.Time) (*domain.DailySummary, bool, error) {
	if err := checkRecordKey(recordKey); err != nil {
		return nil, false, err
	}
	d, err := s.repo.FindDailySummary(ctx, recordKey, domain.CalendarDate(date))
	if err != nil {
		return nil, false, domain.ErrInternal.Wrap(err)
	}
	return d, d != nil, nil
}

// ListMonthly returns the monthly summaries of recordKey ordered by year and
// month, restricted to one year when year is non-nil.
func (s *QueryService) ListMonthly(ctx context.Context, recordKey string, year *int) ([]domain.MonthlySummary, error) {
	if err := checkRecordKey(recordKey); err != nil {
		return nil, err
	}
	if year != nil && !validYear(*year) {
		return nil, domain.ErrInvalidInput.Newf("year %d out of range", *year)
	}
	out, err := s.repo.ListMonthlySummaries(ctx, recordKey, year)
	if err != nil {
		return nil, domain.ErrInternal.Wrap(err)
	}
	return out, nil
}

// GetMonthly returns the summary of one month, with found false when absent.
func (s *QueryService) GetMonthly(ctx context.Context, recordKey string, ym domain.YearMonth) (*domain.MonthlySummary, bool, error) {
	if err := checkRecordKey(recordKey); err != nil {
		return nil, false, err
	}
	if !validYear(ym.Year) {
		return nil, false, domain.ErrInvalidInput.Newf("year %d out of range", ym.Year)
	}
	if ym.Month < 1 || ym.Month > 12 {
		return nil, false, domain.ErrInvalidInput.Newf("month %d out of range", ym.Month)
	}
	m, err := s.repo.FindMonthlySummary(ctx, recordKey, ym)
	if err != nil {
		return nil, false, domain.ErrInternal.Wrap(err)
	}
	return m, m != nil, nil
}

func checkRecordKey(recordKey string) error {
	if strings.TrimSpace(recordKey) == "" {
		return domain.ErrRecordKeyInvalid.New("record key is required")
	}
	return nil
}

func validYear(y int) bool { return y >= 1 && y <= 9999 }
