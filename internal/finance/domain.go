package finance

import (
	"time"

	"github.com/shopspring/decimal"
)

// Range is the inclusive reporting window shared by all finance reports.
type Range struct {
	From time.Time
	To   time.Time
}

// Days returns the window length in whole days, at least one.
func (r Range) Days() int {
	days := int(r.To.Sub(r.From).Hours()/24) + 1
	if days < 1 {
		return 1
	}
	return days
}

// Preceding returns the window of equal length ending just before this one.
func (r Range) Preceding() Range {
	length := r.To.Sub(r.From)
	to := r.From.AddDate(0, 0, -1)
	return Range{From: to.Add(-length), To: to}
}

// Dashboard is the top-level finance overview.
type Dashboard struct {
	Revenue        decimal.Decimal `json:"revenue"`
	Expenses       decimal.Decimal `json:"expenses"`
	NetProfit      decimal.Decimal `json:"net_profit"`
	ProfitMargin   decimal.Decimal `json:"profit_margin"`
	RevenueGrowth  decimal.Decimal `json:"revenue_growth"`
	CollectionRate decimal.Decimal `json:"collection_rate"`
	OutstandingAR  decimal.Decimal `json:"outstanding_ar"`
	OutstandingAP  decimal.Decimal `json:"outstanding_ap"`
	DateFrom       string          `json:"date_from"`
	DateTo         string          `json:"date_to"`
}

// RevenuePoint is one bucket in the revenue summary series.
type RevenuePoint struct {
	Period string          `json:"period"`
	Amount decimal.Decimal `json:"amount"`
}

// NamedAmount is a labelled revenue breakdown row.
type NamedAmount struct {
	Name   string          `json:"name"`
	Amount decimal.Decimal `json:"amount"`
	Count  int64           `json:"count,omitempty"`
}

// RevenueMetrics carries derived ratios for the revenue report.
type RevenueMetrics struct {
	TotalInvoiced  decimal.Decimal `json:"total_invoiced"`
	TotalCollected decimal.Decimal `json:"total_collected"`
	CollectionRate decimal.Decimal `json:"collection_rate"`
	InvoiceCount   int64           `json:"invoice_count"`
	AverageInvoice decimal.Decimal `json:"average_invoice"`
}

// RevenueReport is the full revenue breakdown.
type RevenueReport struct {
	Summary          []RevenuePoint  `json:"summary"`
	ServicePlans     []NamedAmount   `json:"servicePlans"`
	RecurringRevenue decimal.Decimal `json:"recurringRevenue"`
	Metrics          RevenueMetrics  `json:"metrics"`
	PaymentMethods   []NamedAmount   `json:"paymentMethods"`
	TopCustomers     []NamedAmount   `json:"topCustomers"`
}

// CashflowProjections extrapolates net flow over standard horizons.
type CashflowProjections struct {
	ThirtyDays decimal.Decimal `json:"thirty_days"`
	SixtyDays  decimal.Decimal `json:"sixty_days"`
	NinetyDays decimal.Decimal `json:"ninety_days"`
}

// Cashflow is the inflow/outflow report with projections.
type Cashflow struct {
	Inflows     decimal.Decimal     `json:"inflows"`
	Outflows    decimal.Decimal     `json:"outflows"`
	NetCashFlow decimal.Decimal     `json:"net_cash_flow"`
	Projections CashflowProjections `json:"projections"`
}

// buildProjections extrapolates the trailing daily net average.
func buildProjections(net decimal.Decimal, days int) CashflowProjections {
	if days < 1 {
		days = 1
	}
	daily := net.Div(decimal.NewFromInt(int64(days)))
	return CashflowProjections{
		ThirtyDays: daily.Mul(decimal.NewFromInt(30)).Round(2),
		SixtyDays:  daily.Mul(decimal.NewFromInt(60)).Round(2),
		NinetyDays: daily.Mul(decimal.NewFromInt(90)).Round(2),
	}
}
