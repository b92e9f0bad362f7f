package finance

import (
	"context"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	"golang.org/x/sync/errgroup"

	"github.com/fiberdesk/fiberdesk/internal/finance/metrics"
	"github.com/fiberdesk/fiberdesk/internal/shared"
)

const dateLayout = "2006-01-02"

// RepositoryPort defines the aggregation queries the reports run on.
type RepositoryPort interface {
	PeriodTotals(ctx context.Context, rng Range) (*Totals, error)
	RevenueSeries(ctx context.Context, rng Range, granularity string) ([]RevenuePoint, error)
	RevenueByServicePlan(ctx context.Context, rng Range) ([]NamedAmount, error)
	RevenueByPaymentMethod(ctx context.Context, rng Range) ([]NamedAmount, error)
	TopCustomers(ctx context.Context, rng Range, limit int) ([]NamedAmount, error)
	RecurringRevenue(ctx context.Context) (decimal.Decimal, error)
	InvoiceStats(ctx context.Context, rng Range) (RevenueMetrics, error)
	CashTotals(ctx context.Context, rng Range) (inflows, outflows decimal.Decimal, err error)
}

// Service coordinates report queries with the cache layer.
type Service struct {
	repo  RepositoryPort
	cache *Cache
}

// NewService wires a RepositoryPort with a Cache helper.
func NewService(repo RepositoryPort, cache *Cache) *Service {
	return &Service{repo: repo, cache: cache}
}

// ParseRange validates the shared date-window contract: both bounds present,
// well formed, from not after to.
func ParseRange(from, to string) (Range, error) {
	if from == "" || to == "" {
		return Range{}, fmt.Errorf("%w: dateFrom and dateTo are required", shared.ErrValidation)
	}
	f, err := time.Parse(dateLayout, from)
	if err != nil {
		return Range{}, fmt.Errorf("%w: dateFrom must be YYYY-MM-DD", shared.ErrValidation)
	}
	t, err := time.Parse(dateLayout, to)
	if err != nil {
		return Range{}, fmt.Errorf("%w: dateTo must be YYYY-MM-DD", shared.ErrValidation)
	}
	if f.After(t) {
		return Range{}, fmt.Errorf("%w: dateFrom is after dateTo", shared.ErrValidation)
	}
	return Range{From: f, To: t}, nil
}

// Dashboard assembles the overview. Current and preceding-period totals load
// concurrently; growth compares collected revenue against the preceding
// window of equal length.
func (s *Service) Dashboard(ctx context.Context, rng Range) (*Dashboard, error) {
	key, err := s.cache.BuildKey(ctx, keyDashboard(rng.From.Format(dateLayout), rng.To.Format(dateLayout)))
	if err != nil {
		return nil, err
	}
	var dashboard Dashboard
	err = s.cache.FetchJSON(ctx, key, &dashboard, func(ctx context.Context) (interface{}, error) {
		var current, previous *Totals
		g, gctx := errgroup.WithContext(ctx)
		g.Go(func() error {
			var err error
			current, err = s.repo.PeriodTotals(gctx, rng)
			return err
		})
		g.Go(func() error {
			var err error
			previous, err = s.repo.PeriodTotals(gctx, rng.Preceding())
			return err
		})
		if err := g.Wait(); err != nil {
			return nil, err
		}

		netProfit := current.Revenue.Sub(current.Expenses)
		return &Dashboard{
			Revenue:        current.Revenue,
			Expenses:       current.Expenses,
			NetProfit:      netProfit,
			ProfitMargin:   metrics.ProfitMargin(current.Revenue, current.Expenses),
			RevenueGrowth:  metrics.GrowthPercent(current.Revenue, previous.Revenue),
			CollectionRate: metrics.CollectionRate(current.TotalPaid, current.TotalInvoiced),
			OutstandingAR:  current.OutstandingAR,
			OutstandingAP:  current.OutstandingAP,
			DateFrom:       rng.From.Format(dateLayout),
			DateTo:         rng.To.Format(dateLayout),
		}, nil
	})
	if err != nil {
		return nil, err
	}
	return &dashboard, nil
}

// Revenue assembles the revenue breakdown with all sections loading
// concurrently.
func (s *Service) Revenue(ctx context.Context, rng Range, granularity string) (*RevenueReport, error) {
	if granularity == "" {
		granularity = "monthly"
	}
	if granularity != "monthly" && granularity != "daily" {
		return nil, fmt.Errorf("%w: granularity must be daily or monthly", shared.ErrValidation)
	}

	key, err := s.cache.BuildKey(ctx, keyRevenue(rng.From.Format(dateLayout), rng.To.Format(dateLayout), granularity))
	if err != nil {
		return nil, err
	}
	var report RevenueReport
	err = s.cache.FetchJSON(ctx, key, &report, func(ctx context.Context) (interface{}, error) {
		out := &RevenueReport{
			Summary:        []RevenuePoint{},
			ServicePlans:   []NamedAmount{},
			PaymentMethods: []NamedAmount{},
			TopCustomers:   []NamedAmount{},
		}
		g, gctx := errgroup.WithContext(ctx)
		g.Go(func() error {
			series, err := s.repo.RevenueSeries(gctx, rng, granularity)
			if err == nil && series != nil {
				out.Summary = series
			}
			return err
		})
		g.Go(func() error {
			plansBreakdown, err := s.repo.RevenueByServicePlan(gctx, rng)
			if err == nil && plansBreakdown != nil {
				out.ServicePlans = plansBreakdown
			}
			return err
		})
		g.Go(func() error {
			methods, err := s.repo.RevenueByPaymentMethod(gctx, rng)
			if err == nil && methods != nil {
				out.PaymentMethods = methods
			}
			return err
		})
		g.Go(func() error {
			top, err := s.repo.TopCustomers(gctx, rng, 10)
			if err == nil && top != nil {
				out.TopCustomers = top
			}
			return err
		})
		g.Go(func() error {
			recurring, err := s.repo.RecurringRevenue(gctx)
			out.RecurringRevenue = recurring
			return err
		})
		g.Go(func() error {
			stats, err := s.repo.InvoiceStats(gctx, rng)
			if err != nil {
				return err
			}
			stats.CollectionRate = metrics.CollectionRate(stats.TotalCollected, stats.TotalInvoiced)
			if stats.InvoiceCount > 0 {
				stats.AverageInvoice = stats.TotalInvoiced.Div(decimal.NewFromInt(stats.InvoiceCount)).Round(2)
			}
			out.Metrics = stats
			return nil
		})
		if err := g.Wait(); err != nil {
			return nil, err
		}
		return out, nil
	})
	if err != nil {
		return nil, err
	}
	return &report, nil
}

// CashflowReport sums inflows and outflows and extrapolates the trailing
// daily net average over 30/60/90 day horizons.
func (s *Service) CashflowReport(ctx context.Context, rng Range) (*Cashflow, error) {
	key, err := s.cache.BuildKey(ctx, keyCashflow(rng.From.Format(dateLayout), rng.To.Format(dateLayout)))
	if err != nil {
		return nil, err
	}
	var report Cashflow
	err = s.cache.FetchJSON(ctx, key, &report, func(ctx context.Context) (interface{}, error) {
		inflows, outflows, err := s.repo.CashTotals(ctx, rng)
		if err != nil {
			return nil, err
		}
		net := inflows.Sub(outflows)
		return &Cashflow{
			Inflows:     inflows,
			Outflows:    outflows,
			NetCashFlow: net,
			Projections: buildProjections(net, rng.Days()),
		}, nil
	})
	if err != nil {
		return nil, err
	}
	return &report, nil
}

// Invalidate drops all cached finance reports. Billing and expense writes
// call this after committing.
func (s *Service) Invalidate(ctx context.Context) error {
	return s.cache.Bump(ctx)
}
