package budgets

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/fiberdesk/fiberdesk/internal/finance/metrics"
)

// Budget is a per-category spending plan for one period (YYYY-MM).
type Budget struct {
	ID             int64           `json:"id"`
	CategoryID     int64           `json:"category_id"`
	CategoryName   string          `json:"category_name,omitempty"`
	Period         string          `json:"period"`
	BudgetedAmount decimal.Decimal `json:"budgeted_amount"`
	CreatedAt      time.Time       `json:"created_at"`
	UpdatedAt      time.Time       `json:"updated_at"`
}

// VarianceLine compares one category's plan against actual spend.
type VarianceLine struct {
	CategoryID      int64                `json:"category_id"`
	CategoryName    string               `json:"category_name"`
	Period          string               `json:"period"`
	BudgetedAmount  decimal.Decimal      `json:"budgeted_amount"`
	ActualAmount    decimal.Decimal      `json:"actual_amount"`
	Variance        decimal.Decimal      `json:"variance"`
	VariancePercent decimal.Decimal      `json:"variance_percent"`
	Band            metrics.VarianceBand `json:"band"`
}

// VarianceReport is the full plan-versus-actual comparison for a period.
type VarianceReport struct {
	Period        string          `json:"period"`
	TotalBudgeted decimal.Decimal `json:"total_budgeted"`
	TotalActual   decimal.Decimal `json:"total_actual"`
	Lines         []VarianceLine  `json:"lines"`
}

// buildVarianceLine derives the comparison columns for one category.
func buildVarianceLine(b Budget, actual decimal.Decimal) VarianceLine {
	pct := metrics.VariancePercent(actual, b.BudgetedAmount)
	return VarianceLine{
		CategoryID:      b.CategoryID,
		CategoryName:    b.CategoryName,
		Period:          b.Period,
		BudgetedAmount:  b.BudgetedAmount,
		ActualAmount:    actual,
		Variance:        actual.Sub(b.BudgetedAmount),
		VariancePercent: pct,
		Band:            metrics.ClassifyVariance(pct),
	}
}

// UpsertBudgetInput sets the plan for one category and period.
type UpsertBudgetInput struct {
	CategoryID     int64           `json:"category_id"`
	Period         string          `json:"period"`
	BudgetedAmount decimal.Decimal `json:"budgeted_amount"`
}
