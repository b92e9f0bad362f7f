package reports

import (
	"context"
	"fmt"
	"time"

	"github.com/fiberdesk/fiberdesk/internal/finance"
	"github.com/fiberdesk/fiberdesk/internal/platform/httpx"
	"github.com/fiberdesk/fiberdesk/internal/shared"
)

// Report types available for export.
const (
	TypeDashboard = "dashboard"
	TypeRevenue   = "revenue"
	TypeCashflow  = "cashflow"
)

// FinancePort is the slice of the finance service the exporter consumes.
type FinancePort interface {
	Dashboard(ctx context.Context, rng finance.Range) (*finance.Dashboard, error)
	Revenue(ctx context.Context, rng finance.Range, granularity string) (*finance.RevenueReport, error)
	CashflowReport(ctx context.Context, rng finance.Range) (*finance.Cashflow, error)
}

// ExportInput describes one export request.
type ExportInput struct {
	ReportType string `json:"reportType"`
	Format     string `json:"format"`
	DateFrom   string `json:"dateFrom"`
	DateTo     string `json:"dateTo"`
}

// Export is the rendered artifact handed back to the transport layer.
type Export struct {
	Filename    string
	ContentType string
	Data        []byte
}

// Service builds export documents from finance reports.
type Service struct {
	finance FinancePort
}

func NewService(fin FinancePort) *Service {
	return &Service{finance: fin}
}

// Export resolves the report, flattens it into a document and renders it in
// the requested format.
func (s *Service) Export(ctx context.Context, in ExportInput) (*Export, error) {
	switch in.Format {
	case FormatCSV, FormatPDF, FormatExcel:
	default:
		return nil, fmt.Errorf("%w: format must be one of csv, pdf, excel", shared.ErrValidation)
	}

	rng, err := finance.ParseRange(in.DateFrom, in.DateTo)
	if err != nil {
		return nil, err
	}

	var doc Document
	switch in.ReportType {
	case TypeDashboard:
		doc, err = s.dashboardDocument(ctx, rng)
	case TypeRevenue:
		doc, err = s.revenueDocument(ctx, rng)
	case TypeCashflow:
		doc, err = s.cashflowDocument(ctx, rng)
	default:
		return nil, fmt.Errorf("%w: reportType must be one of dashboard, revenue, cashflow", shared.ErrValidation)
	}
	if err != nil {
		return nil, err
	}

	data, err := Encode(doc, in.Format)
	if err != nil {
		return nil, fmt.Errorf("%w: render %s export: %v", httpx.ErrExternal, in.Format, err)
	}

	return &Export{
		Filename:    fmt.Sprintf("financial-report-%s-%s.%s", in.ReportType, time.Now().UTC().Format("2006-01-02"), Extension(in.Format)),
		ContentType: ContentType(in.Format),
		Data:        data,
	}, nil
}

func (s *Service) dashboardDocument(ctx context.Context, rng finance.Range) (Document, error) {
	dash, err := s.finance.Dashboard(ctx, rng)
	if err != nil {
		return Document{}, err
	}
	return Document{
		Title: fmt.Sprintf("Financial Dashboard %s to %s", dash.DateFrom, dash.DateTo),
		Rows: [][]string{
			{"Metric", "Value"},
			{"Revenue", dash.Revenue.StringFixed(2)},
			{"Expenses", dash.Expenses.StringFixed(2)},
			{"Net Profit", dash.NetProfit.StringFixed(2)},
			{"Profit Margin %", dash.ProfitMargin.StringFixed(2)},
			{"Revenue Growth %", dash.RevenueGrowth.StringFixed(2)},
			{"Collection Rate %", dash.CollectionRate.StringFixed(2)},
			{"Outstanding Receivables", dash.OutstandingAR.StringFixed(2)},
			{"Outstanding Payables", dash.OutstandingAP.StringFixed(2)},
		},
	}, nil
}

func (s *Service) revenueDocument(ctx context.Context, rng finance.Range) (Document, error) {
	rep, err := s.finance.Revenue(ctx, rng, "monthly")
	if err != nil {
		return Document{}, err
	}
	rows := [][]string{{"Section", "Name", "Amount"}}
	for _, p := range rep.Summary {
		rows = append(rows, []string{"Summary", p.Period, p.Amount.StringFixed(2)})
	}
	for _, p := range rep.ServicePlans {
		rows = append(rows, []string{"Service Plan", p.Name, p.Amount.StringFixed(2)})
	}
	for _, p := range rep.PaymentMethods {
		rows = append(rows, []string{"Payment Method", p.Name, p.Amount.StringFixed(2)})
	}
	for _, p := range rep.TopCustomers {
		rows = append(rows, []string{"Top Customer", p.Name, p.Amount.StringFixed(2)})
	}
	rows = append(rows,
		[]string{"Metrics", "Recurring Revenue", rep.RecurringRevenue.StringFixed(2)},
		[]string{"Metrics", "Total Invoiced", rep.Metrics.TotalInvoiced.StringFixed(2)},
		[]string{"Metrics", "Total Collected", rep.Metrics.TotalCollected.StringFixed(2)},
		[]string{"Metrics", "Collection Rate %", rep.Metrics.CollectionRate.StringFixed(2)},
	)
	return Document{
		Title: fmt.Sprintf("Revenue Report %s to %s", rng.From.Format("2006-01-02"), rng.To.Format("2006-01-02")),
		Rows:  rows,
	}, nil
}

func (s *Service) cashflowDocument(ctx context.Context, rng finance.Range) (Document, error) {
	cf, err := s.finance.CashflowReport(ctx, rng)
	if err != nil {
		return Document{}, err
	}
	return Document{
		Title: fmt.Sprintf("Cashflow Report %s to %s", rng.From.Format("2006-01-02"), rng.To.Format("2006-01-02")),
		Rows: [][]string{
			{"Metric", "Value"},
			{"Inflows", cf.Inflows.StringFixed(2)},
			{"Outflows", cf.Outflows.StringFixed(2)},
			{"Net Cash Flow", cf.NetCashFlow.StringFixed(2)},
			{"Projected 30 Days", cf.Projections.ThirtyDays.StringFixed(2)},
			{"Projected 60 Days", cf.Projections.SixtyDays.StringFixed(2)},
			{"Projected 90 Days", cf.Projections.NinetyDays.StringFixed(2)},
		},
	}, nil
}
