package reports

import (
	"bytes"
	"context"
	"encoding/csv"
	"fmt"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/fiberdesk/fiberdesk/internal/finance"
	"github.com/fiberdesk/fiberdesk/internal/shared"
	_ "github.com/fiberdesk/fiberdesk/testing"
)

type stubFinance struct{}

func (stubFinance) Dashboard(_ context.Context, rng finance.Range) (*finance.Dashboard, error) {
	return &finance.Dashboard{
		Revenue:        decimal.NewFromInt(100000),
		Expenses:       decimal.NewFromInt(60000),
		NetProfit:      decimal.NewFromInt(40000),
		ProfitMargin:   decimal.NewFromInt(40),
		RevenueGrowth:  decimal.NewFromInt(25),
		CollectionRate: decimal.NewFromInt(80),
		OutstandingAR:  decimal.NewFromInt(20000),
		OutstandingAP:  decimal.NewFromInt(5000),
		DateFrom:       rng.From.Format("2006-01-02"),
		DateTo:         rng.To.Format("2006-01-02"),
	}, nil
}

func (stubFinance) Revenue(context.Context, finance.Range, string) (*finance.RevenueReport, error) {
	return &finance.RevenueReport{
		Summary: []finance.RevenuePoint{
			{Period: "2026-01", Amount: decimal.NewFromInt(50000)},
			{Period: "2026-02", Amount: decimal.NewFromInt(50000)},
		},
		ServicePlans:   []finance.NamedAmount{{Name: "Home Fibre 20", Amount: decimal.NewFromInt(80000)}},
		PaymentMethods: []finance.NamedAmount{{Name: "mpesa", Amount: decimal.NewFromInt(70000)}},
		TopCustomers:   []finance.NamedAmount{{Name: "Acme Ltd", Amount: decimal.NewFromInt(30000)}},
	}, nil
}

func (stubFinance) CashflowReport(context.Context, finance.Range) (*finance.Cashflow, error) {
	return &finance.Cashflow{
		Inflows:     decimal.NewFromInt(90000),
		Outflows:    decimal.NewFromInt(60000),
		NetCashFlow: decimal.NewFromInt(30000),
		Projections: finance.CashflowProjections{
			ThirtyDays: decimal.NewFromInt(30000),
			SixtyDays:  decimal.NewFromInt(60000),
			NinetyDays: decimal.NewFromInt(90000),
		},
	}, nil
}

func TestExportCSVParsesBack(t *testing.T) {
	svc := NewService(stubFinance{})

	out, err := svc.Export(context.Background(), ExportInput{
		ReportType: TypeDashboard,
		Format:     FormatCSV,
		DateFrom:   "2026-01-01",
		DateTo:     "2026-01-31",
	})
	require.NoError(t, err)
	require.Equal(t, "text/csv", out.ContentType)

	reader := csv.NewReader(bytes.NewReader(out.Data))
	reader.FieldsPerRecord = -1
	records, err := reader.ReadAll()
	require.NoError(t, err)
	require.Equal(t, "Financial Dashboard 2026-01-01 to 2026-01-31", records[0][0])
	require.Equal(t, []string{"Metric", "Value"}, records[1])
	require.Equal(t, []string{"Revenue", "100000.00"}, records[2])
	require.Len(t, records, 10)
}

func TestExportFilenameCarriesTypeAndDate(t *testing.T) {
	svc := NewService(stubFinance{})

	out, err := svc.Export(context.Background(), ExportInput{
		ReportType: TypeCashflow,
		Format:     FormatExcel,
		DateFrom:   "2026-03-01",
		DateTo:     "2026-03-31",
	})
	require.NoError(t, err)

	want := fmt.Sprintf("financial-report-cashflow-%s.xlsx", time.Now().UTC().Format("2006-01-02"))
	require.Equal(t, want, out.Filename)
	require.NotEmpty(t, out.Data)
}

func TestExportPDFProducesDocument(t *testing.T) {
	svc := NewService(stubFinance{})

	out, err := svc.Export(context.Background(), ExportInput{
		ReportType: TypeRevenue,
		Format:     FormatPDF,
		DateFrom:   "2026-01-01",
		DateTo:     "2026-02-28",
	})
	require.NoError(t, err)
	require.Equal(t, "application/pdf", out.ContentType)
	require.True(t, bytes.HasPrefix(out.Data, []byte("%PDF")))
}

func TestExportRejectsUnknownFormatAndType(t *testing.T) {
	svc := NewService(stubFinance{})

	_, err := svc.Export(context.Background(), ExportInput{
		ReportType: TypeDashboard,
		Format:     "docx",
		DateFrom:   "2026-01-01",
		DateTo:     "2026-01-31",
	})
	require.ErrorIs(t, err, shared.ErrValidation)

	_, err = svc.Export(context.Background(), ExportInput{
		ReportType: "ledger",
		Format:     FormatCSV,
		DateFrom:   "2026-01-01",
		DateTo:     "2026-01-31",
	})
	require.ErrorIs(t, err, shared.ErrValidation)
}

func TestExportRequiresValidRange(t *testing.T) {
	svc := NewService(stubFinance{})

	_, err := svc.Export(context.Background(), ExportInput{
		ReportType: TypeDashboard,
		Format:     FormatCSV,
		DateFrom:   "2026-02-01",
		DateTo:     "2026-01-01",
	})
	require.ErrorIs(t, err, shared.ErrValidation)
}
