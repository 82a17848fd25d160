package app_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"wearables/internal/app"
	"wearables/internal/domain"
)

type mockSummaryRepo struct {
	domain.SummaryRepository
	listDailyFn   func(ctx context.Context, recordKey string, r *domain.DateRange) ([]domain.DailySummary, error)
	findDailyFn   func(ctx context.Context, recordKey string, d time.Time) (*domain.DailySummary, error)
	listMonthlyFn func(ctx context.Context, recordKey string, year *int) ([]domain.MonthlySummary, error)
	findMonthlyFn func(ctx context.Context, recordKey string, ym domain.YearMonth) (*domain.MonthlySummary, error)
}

func (m *mockSummaryRepo) ListDailySummaries(ctx context.Context, recordKey string, r *domain.DateRange) ([]domain.DailySummary, error) {
	if m.listDailyFn != nil {
		return m.listDailyFn(ctx, recordKey, r)
	}
	return nil, nil
}

func (m *mockSummaryRepo) FindDailySummary(ctx context.Context, recordKey string, d time.Time) (*domain.DailySummary, error) {
	if m.findDailyFn != nil {
		return m.findDailyFn(ctx, recordKey, d)
	}
	return nil, nil
}

func (m *mockSummaryRepo) ListMonthlySummaries(ctx context.Context, recordKey string, year *int) ([]domain.MonthlySummary, error) {
	if m.listMonthlyFn != nil {
		return m.listMonthlyFn(ctx, recordKey, year)
	}
	return nil, nil
}

func (m *mockSummaryRepo) FindMonthlySummary(ctx context.Context, recordKey string, ym domain.YearMonth) (*domain.MonthlySummary, error) {
	if m.findMonthlyFn != nil {
		return m.findMonthlyFn(ctx, recordKey, ym)
	}
	return nil, nil
}

func TestQuery_Validation(t *testing.T) {
	svc := app.NewQueryService(&mockSummaryRepo{})
	ctx := context.Background()
	year0 := 0

	tests := []struct {
		name string
		call func() error
		want domain.ErrorCode
	}{
		{"blank record key", func() error {
			_, err := svc.ListDaily(ctx, "", nil)
			return err
		}, domain.ErrRecordKeyInvalid},
		{"inverted range", func() error {
			_, err := svc.ListDaily(ctx, "u1", &domain.DateRange{Start: date("2024-11-06"), End: date("2024-11-05")})
			return err
		}, domain.ErrInvalidInput},
		{"year out of range", func() error {
			_, err := svc.ListMonthly(ctx, "u1", &year0)
			return err
		}, domain.ErrInvalidInput},
		{"month 13", func() error {
			_, _, err := svc.GetMonthly(ctx, "u1", domain.YearMonth{Year: 2024, Month: 13})
			return err
		}, domain.ErrInvalidInput},
		{"month 0", func() error {
			_, _, err := svc.GetMonthly(ctx, "u1", domain.YearMonth{Year: 2024, Month: 0})
			return err
		}, domain.ErrInvalidInput},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if err := tc.call(); !errors.Is(err, tc.want) {
				t.Fatalf("expected %s, got %v", tc.want.Code, err)
			}
		})
	}
}

func TestQuery_AbsentIsNotAnError(t *testing.T) {
	svc := app.NewQueryService(&mockSummaryRepo{})

	d, found, err := svc.GetDaily(context.Background(), "u1", date("2024-11-05"))
	if err != nil || found || d != nil {
		t.Fatalf("expected absent without error, got %v %v %v", d, found, err)
	}
}

func TestQuery_FoundWithZeroTotals(t *testing.T) {
	repo := &mockSummaryRepo{
		findMonthlyFn: func(_ context.Context, _ string, ym domain.YearMonth) (*domain.MonthlySummary, error) {
			return &domain.MonthlySummary{RecordKey: "u1", YearMonth: ym}, nil
		},
	}
	svc := app.NewQueryService(repo)

	m, found, err := svc.GetMonthly(context.Background(), "u1", domain.YearMonth{Year: 2024, Month: 11})
	if err != nil || !found {
		t.Fatalf("expected found, got found=%v err=%v", found, err)
	}
	if m.Steps != 0 {
		t.Errorf("expected zero totals, got %+v", m.Totals)
	}
}

func TestQuery_StorageErrorIsInternal(t *testing.T) {
	repo := &mockSummaryRepo{
		listDailyFn: func(_ context.Context, _ string, _ *domain.DateRange) ([]domain.DailySummary, error) {
			return nil, errors.New("connection reset")
		},
	}
	svc := app.NewQueryService(repo)

	if _, err := svc.ListDaily(context.Background(), "u1", nil); !errors.Is(err, domain.ErrInternal) {
		t.Fatalf("expected internal error, got %v", err)
	}
}

func TestQuery_PassesRangeThrough(t *testing.T) {
	var got *domain.DateRange
	repo := &mockSummaryRepo{
		listDailyFn: func(_ context.Context, recordKey string, r *domain.DateRange) ([]domain.DailySummary, error) {
			if recordKey != "u1" {
				t.Fatalf("unexpected record key %q", recordKey)
			}
			got = r
			return []domain.DailySummary{{RecordKey: "u1", Date: date("2024-11-05")}}, nil
		},
	}
	svc := app.NewQueryService(repo)

	r := &domain.DateRange{Start: date("2024-11-05"), End: date("2024-11-05")}
	out, err := svc.ListDaily(context.Background(), "u1", r)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(out) != 1 || got != r {
		t.Fatalf("expected range forwarded and one result, got %v %v", got, out)
	}
}
