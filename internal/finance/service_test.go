package finance

import (
	"context"
	"testing"
	"time"

	miniredis "github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/fiberdesk/fiberdesk/internal/shared"
	_ "github.com/fiberdesk/fiberdesk/testing"
)

type mockRepo struct {
	totals      map[string]*Totals
	totalsCalls int
	cashIn      decimal.Decimal
	cashOut     decimal.Decimal
	series      []RevenuePoint
	plans       []NamedAmount
	methods     []NamedAmount
	top         []NamedAmount
	recurring   decimal.Decimal
	stats       RevenueMetrics
}

func (m *mockRepo) PeriodTotals(ctx context.Context, rng Range) (*Totals, error) {
	m.totalsCalls++
	if t, ok := m.totals[rng.From.Format("2006-01-02")]; ok {
		return t, nil
	}
	return &Totals{}, nil
}

func (m *mockRepo) RevenueSeries(ctx context.Context, rng Range, granularity string) ([]RevenuePoint, error) {
	return m.series, nil
}

func (m *mockRepo) RevenueByServicePlan(ctx context.Context, rng Range) ([]NamedAmount, error) {
	return m.plans, nil
}

func (m *mockRepo) RevenueByPaymentMethod(ctx context.Context, rng Range) ([]NamedAmount, error) {
	return m.methods, nil
}

func (m *mockRepo) TopCustomers(ctx context.Context, rng Range, limit int) ([]NamedAmount, error) {
	return m.top, nil
}

func (m *mockRepo) RecurringRevenue(ctx context.Context) (decimal.Decimal, error) {
	return m.recurring, nil
}

func (m *mockRepo) InvoiceStats(ctx context.Context, rng Range) (RevenueMetrics, error) {
	return m.stats, nil
}

func (m *mockRepo) CashTotals(ctx context.Context, rng Range) (decimal.Decimal, decimal.Decimal, error) {
	return m.cashIn, m.cashOut, nil
}

func newTestService(t *testing.T, repo RepositoryPort) (*Service, func()) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	cache := NewCache(client, time.Minute)
	svc := NewService(repo, cache)
	return svc, func() {
		_ = client.Close()
		mr.Close()
	}
}

func d(v string) decimal.Decimal { return decimal.RequireFromString(v) }

func TestParseRangeContract(t *testing.T) {
	_, err := ParseRange("", "2026-03-31")
	require.ErrorIs(t, err, shared.ErrValidation)

	_, err = ParseRange("2026-03-01", "")
	require.ErrorIs(t, err, shared.ErrValidation)

	_, err = ParseRange("2026-03-31", "2026-03-01")
	require.ErrorIs(t, err, shared.ErrValidation)

	rng, err := ParseRange("2026-03-01", "2026-03-31")
	require.NoError(t, err)
	require.Equal(t, 31, rng.Days())
}

func TestPrecedingWindowHasEqualLength(t *testing.T) {
	rng, err := ParseRange("2026-03-01", "2026-03-31")
	require.NoError(t, err)
	prev := rng.Preceding()
	require.Equal(t, "2026-02-28", prev.To.Format("2006-01-02"))
	require.Equal(t, rng.To.Sub(rng.From), prev.To.Sub(prev.From))
}

func TestDashboardDerivesMetricsAndGrowth(t *testing.T) {
	rng, err := ParseRange("2026-03-01", "2026-03-31")
	require.NoError(t, err)
	repo := &mockRepo{totals: map[string]*Totals{
		rng.From.Format("2006-01-02"): {
			Revenue: d("200000"), Expenses: d("120000"),
			TotalInvoiced: d("250000"), TotalPaid: d("200000"),
			OutstandingAR: d("50000"), OutstandingAP: d("30000"),
		},
		rng.Preceding().From.Format("2006-01-02"): {Revenue: d("160000")},
	}}
	svc, cleanup := newTestService(t, repo)
	defer cleanup()

	dashboard, err := svc.Dashboard(context.Background(), rng)
	require.NoError(t, err)
	require.True(t, dashboard.NetProfit.Equal(d("80000")))
	require.True(t, dashboard.ProfitMargin.Equal(d("40")), "margin was %s", dashboard.ProfitMargin)
	require.True(t, dashboard.RevenueGrowth.Equal(d("25")), "growth was %s", dashboard.RevenueGrowth)
	require.True(t, dashboard.CollectionRate.Equal(d("80")), "rate was %s", dashboard.CollectionRate)
}

func TestDashboardSecondCallServedFromCache(t *testing.T) {
	rng, err := ParseRange("2026-03-01", "2026-03-31")
	require.NoError(t, err)
	repo := &mockRepo{totals: map[string]*Totals{}}
	svc, cleanup := newTestService(t, repo)
	defer cleanup()

	_, err = svc.Dashboard(context.Background(), rng)
	require.NoError(t, err)
	callsAfterFirst := repo.totalsCalls

	_, err = svc.Dashboard(context.Background(), rng)
	require.NoError(t, err)
	require.Equal(t, callsAfterFirst, repo.totalsCalls)
}

func TestInvalidateBumpsPastCachedReports(t *testing.T) {
	rng, err := ParseRange("2026-03-01", "2026-03-31")
	require.NoError(t, err)
	repo := &mockRepo{totals: map[string]*Totals{}}
	svc, cleanup := newTestService(t, repo)
	defer cleanup()

	_, err = svc.Dashboard(context.Background(), rng)
	require.NoError(t, err)
	callsAfterFirst := repo.totalsCalls

	require.NoError(t, svc.Invalidate(context.Background()))

	_, err = svc.Dashboard(context.Background(), rng)
	require.NoError(t, err)
	require.Greater(t, repo.totalsCalls, callsAfterFirst)
}

func TestRevenueEmptyRangeYieldsEmptyArrays(t *testing.T) {
	rng, err := ParseRange("2026-06-01", "2026-06-30")
	require.NoError(t, err)
	svc, cleanup := newTestService(t, &mockRepo{})
	defer cleanup()

	report, err := svc.Revenue(context.Background(), rng, "monthly")
	require.NoError(t, err)
	require.NotNil(t, report.Summary)
	require.NotNil(t, report.ServicePlans)
	require.NotNil(t, report.PaymentMethods)
	require.NotNil(t, report.TopCustomers)
	require.Empty(t, report.Summary)
	require.True(t, report.Metrics.TotalInvoiced.IsZero())
}

func TestRevenueRejectsUnknownGranularity(t *testing.T) {
	rng, err := ParseRange("2026-06-01", "2026-06-30")
	require.NoError(t, err)
	svc, cleanup := newTestService(t, &mockRepo{})
	defer cleanup()

	_, err = svc.Revenue(context.Background(), rng, "hourly")
	require.ErrorIs(t, err, shared.ErrValidation)
}

func TestCashflowProjectionsScaleTrailingAverage(t *testing.T) {
	// 30-day window netting 30000 gives a daily average of 1000.
	rng, err := ParseRange("2026-03-01", "2026-03-30")
	require.NoError(t, err)
	repo := &mockRepo{cashIn: d("45000"), cashOut: d("15000")}
	svc, cleanup := newTestService(t, repo)
	defer cleanup()

	report, err := svc.CashflowReport(context.Background(), rng)
	require.NoError(t, err)
	require.True(t, report.NetCashFlow.Equal(d("30000")))
	require.True(t, report.Projections.ThirtyDays.Equal(d("30000")))
	require.True(t, report.Projections.SixtyDays.Equal(d("60000")))
	require.True(t, report.Projections.NinetyDays.Equal(d("90000")))
}
