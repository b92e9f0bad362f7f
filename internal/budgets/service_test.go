package budgets

import (
	"context"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/fiberdesk/fiberdesk/internal/finance/metrics"
	"github.com/fiberdesk/fiberdesk/internal/shared"
	_ "github.com/fiberdesk/fiberdesk/testing"
)

type mockRepo struct {
	budgets map[string][]Budget
	actuals map[string]map[int64]decimal.Decimal
	nextID  int64
}

func newMockRepo() *mockRepo {
	return &mockRepo{budgets: map[string][]Budget{}, actuals: map[string]map[int64]decimal.Decimal{}}
}

func (m *mockRepo) Upsert(ctx context.Context, input UpsertBudgetInput) (*Budget, error) {
	for i, b := range m.budgets[input.Period] {
		if b.CategoryID == input.CategoryID {
			m.budgets[input.Period][i].BudgetedAmount = input.BudgetedAmount
			return &m.budgets[input.Period][i], nil
		}
	}
	m.nextID++
	b := Budget{ID: m.nextID, CategoryID: input.CategoryID, Period: input.Period, BudgetedAmount: input.BudgetedAmount}
	m.budgets[input.Period] = append(m.budgets[input.Period], b)
	return &b, nil
}

func (m *mockRepo) ListByPeriod(ctx context.Context, period string) ([]Budget, error) {
	out := m.budgets[period]
	if out == nil {
		out = []Budget{}
	}
	return out, nil
}

func (m *mockRepo) Delete(ctx context.Context, id int64) error { return nil }

func (m *mockRepo) ActualsByCategory(ctx context.Context, period string) (map[int64]decimal.Decimal, error) {
	actuals := m.actuals[period]
	if actuals == nil {
		actuals = map[int64]decimal.Decimal{}
	}
	return actuals, nil
}

func d(v string) decimal.Decimal { return decimal.RequireFromString(v) }

func TestUpsertValidatesPeriodFormat(t *testing.T) {
	svc := NewService(newMockRepo(), nil)
	_, err := svc.Upsert(context.Background(), UpsertBudgetInput{
		CategoryID: 1, Period: "March 2026", BudgetedAmount: d("1000"),
	})
	require.ErrorIs(t, err, shared.ErrValidation)

	_, err = svc.Upsert(context.Background(), UpsertBudgetInput{
		CategoryID: 1, Period: "2026-13", BudgetedAmount: d("1000"),
	})
	require.ErrorIs(t, err, shared.ErrValidation)
}

func TestUpsertReplacesExistingLine(t *testing.T) {
	repo := newMockRepo()
	svc := NewService(repo, nil)

	_, err := svc.Upsert(context.Background(), UpsertBudgetInput{
		CategoryID: 1, Period: "2026-03", BudgetedAmount: d("100000"),
	})
	require.NoError(t, err)
	_, err = svc.Upsert(context.Background(), UpsertBudgetInput{
		CategoryID: 1, Period: "2026-03", BudgetedAmount: d("120000"),
	})
	require.NoError(t, err)

	budgets, err := svc.List(context.Background(), "2026-03")
	require.NoError(t, err)
	require.Len(t, budgets, 1)
	require.True(t, budgets[0].BudgetedAmount.Equal(d("120000")))
}

func TestVarianceBandsPerCategory(t *testing.T) {
	repo := newMockRepo()
	svc := NewService(repo, nil)

	for categoryID, amount := range map[int64]string{1: "100000", 2: "50000", 3: "20000"} {
		_, err := svc.Upsert(context.Background(), UpsertBudgetInput{
			CategoryID: categoryID, Period: "2026-03", BudgetedAmount: d(amount),
		})
		require.NoError(t, err)
	}
	repo.actuals["2026-03"] = map[int64]decimal.Decimal{
		1: d("112000"), // +12% over
		2: d("51000"),  // +2% on budget
		3: d("10000"),  // -50% under
	}

	report, err := svc.Variance(context.Background(), "2026-03")
	require.NoError(t, err)
	require.Len(t, report.Lines, 3)
	require.True(t, report.TotalBudgeted.Equal(d("170000")))
	require.True(t, report.TotalActual.Equal(d("173000")))

	byCategory := map[int64]VarianceLine{}
	for _, line := range report.Lines {
		byCategory[line.CategoryID] = line
	}
	require.Equal(t, metrics.BandOverBudget, byCategory[1].Band)
	require.Equal(t, metrics.BandOnBudget, byCategory[2].Band)
	require.Equal(t, metrics.BandUnderBudget, byCategory[3].Band)
	require.True(t, byCategory[1].Variance.Equal(d("12000")))
}

func TestVarianceWithNoSpendIsFullyUnder(t *testing.T) {
	repo := newMockRepo()
	svc := NewService(repo, nil)

	_, err := svc.Upsert(context.Background(), UpsertBudgetInput{
		CategoryID: 1, Period: "2026-04", BudgetedAmount: d("30000"),
	})
	require.NoError(t, err)

	report, err := svc.Variance(context.Background(), "2026-04")
	require.NoError(t, err)
	require.Len(t, report.Lines, 1)
	require.Equal(t, metrics.BandUnderBudget, report.Lines[0].Band)
	require.True(t, report.Lines[0].VariancePercent.Equal(d("-100")))
}
