package reports

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	_ "github.com/fiberdesk/fiberdesk/testing"
)

func d(v string) decimal.Decimal {
	return decimal.RequireFromString(v)
}

func TestBuildTrialBalanceBalanced(t *testing.T) {
	accounts := []AccountBalance{
		{Code: "1000", Name: "Cash", Type: TypeAsset, Debit: d("500"), Credit: d("100")},
		{Code: "4000", Name: "Service Revenue", Type: TypeRevenue, Debit: d("0"), Credit: d("400")},
	}

	tb := BuildTrialBalance(accounts)
	require.Len(t, tb.Accounts, 2)
	require.Equal(t, "1000", tb.Accounts[0].Code, "rows sorted by code")
	require.True(t, tb.Totals.Debits.Equal(d("500")))
	require.True(t, tb.Totals.Credits.Equal(d("500")))
	require.True(t, tb.Totals.IsBalanced)
	require.True(t, tb.Totals.Difference.IsZero())
}

func TestBuildTrialBalanceSignedDifference(t *testing.T) {
	accounts := []AccountBalance{
		{Code: "1000", Name: "Cash", Type: TypeAsset, Debit: d("300"), Credit: d("0")},
		{Code: "2000", Name: "Payables", Type: TypeLiability, Debit: d("0"), Credit: d("450")},
	}

	tb := BuildTrialBalance(accounts)
	require.False(t, tb.Totals.IsBalanced)
	require.True(t, tb.Totals.Difference.Equal(d("-150")), "difference is signed, credit-heavy here")
}

func TestBuildTrialBalanceEmpty(t *testing.T) {
	tb := BuildTrialBalance(nil)
	require.NotNil(t, tb.Accounts)
	require.Empty(t, tb.Accounts)
	require.True(t, tb.Totals.IsBalanced)
}

func TestBuildBalanceSheetEquationHolds(t *testing.T) {
	asOf := time.Date(2026, 6, 30, 0, 0, 0, 0, time.UTC)
	// A balanced book: 1000 capital injected as cash, 200 revenue earned in
	// receivables, 50 spent from cash on expenses.
	accounts := []AccountBalance{
		{Code: "1000", Name: "Cash", Type: TypeAsset, Debit: d("1000"), Credit: d("50")},
		{Code: "1100", Name: "Accounts Receivable", Type: TypeAsset, Debit: d("200"), Credit: d("0")},
		{Code: "3000", Name: "Capital", Type: TypeEquity, Debit: d("0"), Credit: d("1000")},
		{Code: "4000", Name: "Service Revenue", Type: TypeRevenue, Debit: d("0"), Credit: d("200")},
		{Code: "5000", Name: "Maintenance", Type: TypeExpense, Debit: d("50"), Credit: d("0")},
	}

	bs := BuildBalanceSheet(asOf, accounts)
	require.True(t, bs.Current.Cash.Equal(d("950")))
	require.True(t, bs.Current.Receivables.Equal(d("200")))
	require.True(t, bs.Assets.Equal(d("1150")))
	require.True(t, bs.Equity.Capital.Equal(d("1000")))
	require.True(t, bs.Equity.RetainedEarnings.Equal(d("150")), "net income folds into retained earnings")
	require.True(t, bs.IsConsistent)
	require.True(t, bs.Gap.IsZero())
}

func TestBuildBalanceSheetSurfacesGap(t *testing.T) {
	asOf := time.Date(2026, 6, 30, 0, 0, 0, 0, time.UTC)
	// Data-entry error: an asset with no matching funding side.
	accounts := []AccountBalance{
		{Code: "1500", Name: "Routers", Type: TypeAsset, Debit: d("300"), Credit: d("0")},
	}

	bs := BuildBalanceSheet(asOf, accounts)
	require.False(t, bs.IsConsistent)
	require.True(t, bs.Gap.Equal(d("300")), "gap is signed asset-heavy")
	require.True(t, bs.Fixed.Equipment.Equal(d("300")))
}

func TestBuildBalanceSheetClassification(t *testing.T) {
	asOf := time.Date(2026, 1, 31, 0, 0, 0, 0, time.UTC)
	accounts := []AccountBalance{
		{Code: "1200", Name: "CPE Stock", Type: TypeAsset, Debit: d("80"), Credit: d("0")},
		{Code: "1600", Name: "Office", Type: TypeAsset, Debit: d("500"), Credit: d("0")},
		{Code: "1700", Name: "Vans", Type: TypeAsset, Debit: d("120"), Credit: d("0")},
		{Code: "2000", Name: "Supplier Payables", Type: TypeLiability, Debit: d("0"), Credit: d("60")},
		{Code: "2100", Name: "Overdraft", Type: TypeLiability, Debit: d("0"), Credit: d("40")},
		{Code: "2500", Name: "Equipment Loan", Type: TypeLiability, Debit: d("0"), Credit: d("600")},
	}

	bs := BuildBalanceSheet(asOf, accounts)
	require.True(t, bs.Current.Inventory.Equal(d("80")))
	require.True(t, bs.Fixed.Property.Equal(d("500")))
	require.True(t, bs.Fixed.Vehicles.Equal(d("120")))
	require.True(t, bs.Liabilities.Payables.Equal(d("60")))
	require.True(t, bs.Liabilities.ShortTermDebt.Equal(d("40")))
	require.True(t, bs.Liabilities.LongTerm.Equal(d("600")), "25xx codes classify long-term via type fallback")
	require.True(t, bs.Liabilities.Current.Equal(d("100")))
	require.True(t, bs.Liabilities.Total.Equal(d("700")))
}
