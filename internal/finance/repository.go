package finance

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"
)

// Repository runs the aggregation queries behind the finance reports.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs a repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// Totals holds the raw sums the dashboard is derived from.
type Totals struct {
	Revenue       decimal.Decimal
	Expenses      decimal.Decimal
	TotalInvoiced decimal.Decimal
	TotalPaid     decimal.Decimal
	OutstandingAR decimal.Decimal
	OutstandingAP decimal.Decimal
}

// PeriodTotals sums collected revenue and expenses inside the window.
// Cancelled invoices never count.
func (r *Repository) PeriodTotals(ctx context.Context, rng Range) (*Totals, error) {
	var t Totals
	err := r.pool.QueryRow(ctx, `
		SELECT
			COALESCE((SELECT SUM(amount) FROM payments
				WHERE customer_id IS NOT NULL AND status = 'completed'
				AND paid_at::date BETWEEN $1 AND $2), 0),
			COALESCE((SELECT SUM(amount) FROM expenses
				WHERE expense_date BETWEEN $1 AND $2), 0),
			COALESCE((SELECT SUM(total) FROM invoices
				WHERE status <> 'cancelled' AND issue_date BETWEEN $1 AND $2), 0),
			COALESCE((SELECT SUM(paid_amount) FROM invoices
				WHERE status <> 'cancelled' AND issue_date BETWEEN $1 AND $2), 0),
			COALESCE((SELECT SUM(total - paid_amount) FROM invoices
				WHERE status IN ('pending')), 0),
			COALESCE((SELECT SUM(amount - paid_amount) FROM supplier_invoices
				WHERE status = 'pending'), 0)`,
		rng.From, rng.To,
	).Scan(&t.Revenue, &t.Expenses, &t.TotalInvoiced, &t.TotalPaid, &t.OutstandingAR, &t.OutstandingAP)
	if err != nil {
		return nil, fmt.Errorf("finance: period totals: %w", err)
	}
	return &t, nil
}

// RevenueSeries buckets collected revenue by day or month.
func (r *Repository) RevenueSeries(ctx context.Context, rng Range, granularity string) ([]RevenuePoint, error) {
	format := "YYYY-MM"
	if granularity == "daily" {
		format = "YYYY-MM-DD"
	}
	rows, err := r.pool.Query(ctx, `
		SELECT to_char(paid_at, $3) AS period, COALESCE(SUM(amount), 0)
		FROM payments
		WHERE customer_id IS NOT NULL AND status = 'completed'
			AND paid_at::date BETWEEN $1 AND $2
		GROUP BY period ORDER BY period`,
		rng.From, rng.To, format)
	if err != nil {
		return nil, fmt.Errorf("finance: revenue series: %w", err)
	}
	defer rows.Close()

	series := make([]RevenuePoint, 0)
	for rows.Next() {
		var p RevenuePoint
		if err := rows.Scan(&p.Period, &p.Amount); err != nil {
			return nil, err
		}
		series = append(series, p)
	}
	return series, rows.Err()
}

// RevenueByServicePlan breaks invoiced revenue down by plan, largest first.
func (r *Repository) RevenueByServicePlan(ctx context.Context, rng Range) ([]NamedAmount, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT COALESCE(sp.name, 'Unassigned'), COALESCE(SUM(i.total), 0), COUNT(i.id)
		FROM invoices i
		LEFT JOIN service_plans sp ON sp.id = i.service_plan_id
		WHERE i.status <> 'cancelled' AND i.issue_date BETWEEN $1 AND $2
		GROUP BY sp.name ORDER BY 2 DESC`,
		rng.From, rng.To)
	if err != nil {
		return nil, fmt.Errorf("finance: revenue by plan: %w", err)
	}
	return collectNamedAmounts(rows)
}

// RevenueByPaymentMethod breaks collections down by method, largest first.
func (r *Repository) RevenueByPaymentMethod(ctx context.Context, rng Range) ([]NamedAmount, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT method, COALESCE(SUM(amount), 0), COUNT(id)
		FROM payments
		WHERE customer_id IS NOT NULL AND status = 'completed'
			AND paid_at::date BETWEEN $1 AND $2
		GROUP BY method ORDER BY 2 DESC`,
		rng.From, rng.To)
	if err != nil {
		return nil, fmt.Errorf("finance: revenue by method: %w", err)
	}
	return collectNamedAmounts(rows)
}

// TopCustomers ranks customers by collected revenue, largest first.
func (r *Repository) TopCustomers(ctx context.Context, rng Range, limit int) ([]NamedAmount, error) {
	if limit <= 0 {
		limit = 10
	}
	rows, err := r.pool.Query(ctx, `
		SELECT c.name, COALESCE(SUM(p.amount), 0), COUNT(p.id)
		FROM payments p
		JOIN customers c ON c.id = p.customer_id
		WHERE p.status = 'completed' AND p.paid_at::date BETWEEN $1 AND $2
		GROUP BY c.name ORDER BY 2 DESC LIMIT $3`,
		rng.From, rng.To, limit)
	if err != nil {
		return nil, fmt.Errorf("finance: top customers: %w", err)
	}
	return collectNamedAmounts(rows)
}

// RecurringRevenue sums the monthly price of plans attached to active
// subscribers.
func (r *Repository) RecurringRevenue(ctx context.Context) (decimal.Decimal, error) {
	var total decimal.Decimal
	err := r.pool.QueryRow(ctx, `
		SELECT COALESCE(SUM(sp.monthly_price), 0)
		FROM customers c
		JOIN service_plans sp ON sp.id = c.service_plan_id
		WHERE c.status = 'active' AND sp.status = 'active'`,
	).Scan(&total)
	if err != nil {
		return decimal.Zero, fmt.Errorf("finance: recurring revenue: %w", err)
	}
	return total, nil
}

// InvoiceStats returns invoice count and totals for the window.
func (r *Repository) InvoiceStats(ctx context.Context, rng Range) (RevenueMetrics, error) {
	var m RevenueMetrics
	err := r.pool.QueryRow(ctx, `
		SELECT COUNT(id), COALESCE(SUM(total), 0), COALESCE(SUM(paid_amount), 0)
		FROM invoices
		WHERE status <> 'cancelled' AND issue_date BETWEEN $1 AND $2`,
		rng.From, rng.To,
	).Scan(&m.InvoiceCount, &m.TotalInvoiced, &m.TotalCollected)
	if err != nil {
		return RevenueMetrics{}, fmt.Errorf("finance: invoice stats: %w", err)
	}
	return m, nil
}

// CashTotals sums money in and money out for the window. Inflows are customer
// payments, outflows are expenses plus supplier payouts.
func (r *Repository) CashTotals(ctx context.Context, rng Range) (inflows, outflows decimal.Decimal, err error) {
	err = r.pool.QueryRow(ctx, `
		SELECT
			COALESCE((SELECT SUM(amount) FROM payments
				WHERE customer_id IS NOT NULL AND status = 'completed'
				AND paid_at::date BETWEEN $1 AND $2), 0),
			COALESCE((SELECT SUM(amount) FROM expenses
				WHERE expense_date BETWEEN $1 AND $2), 0)
			+ COALESCE((SELECT SUM(amount) FROM payments
				WHERE supplier_invoice_id IS NOT NULL AND status = 'completed'
				AND paid_at::date BETWEEN $1 AND $2), 0)`,
		rng.From, rng.To,
	).Scan(&inflows, &outflows)
	if err != nil {
		err = fmt.Errorf("finance: cash totals: %w", err)
	}
	return inflows, outflows, err
}

type namedAmountRows interface {
	Next() bool
	Scan(dest ...any) error
	Close()
	Err() error
}

func collectNamedAmounts(rows namedAmountRows) ([]NamedAmount, error) {
	defer rows.Close()
	out := make([]NamedAmount, 0)
	for rows.Next() {
		var n NamedAmount
		if err := rows.Scan(&n.Name, &n.Amount, &n.Count); err != nil {
			return nil, err
		}
		out = append(out, n)
	}
	return out, rows.Err()
}
