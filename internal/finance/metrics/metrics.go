// Package metrics implements pure derived-metric calculations over financial
// aggregates. No I/O happens here; every function is a total function of its
// inputs so the dashboard endpoints stay trivially testable.
package metrics

import (
	"time"

	"github.com/shopspring/decimal"
)

var hundred = decimal.NewFromInt(100)

// ProfitMargin returns (revenue - expenses) / revenue * 100, or zero when
// revenue is not positive.
func ProfitMargin(revenue, expenses decimal.Decimal) decimal.Decimal {
	if revenue.Sign() <= 0 {
		return decimal.Zero
	}
	return revenue.Sub(expenses).Div(revenue).Mul(hundred)
}

// GrowthPercent returns the percentage change from previous to current.
// A missing baseline (previous <= 0) yields zero; growth against an empty
// prior period is undefined, not infinite.
func GrowthPercent(current, previous decimal.Decimal) decimal.Decimal {
	if previous.Sign() <= 0 {
		return decimal.Zero
	}
	return current.Sub(previous).Div(previous).Mul(hundred)
}

// CollectionRate returns totalPaid / totalInvoiced * 100, or zero when nothing
// was invoiced.
func CollectionRate(totalPaid, totalInvoiced decimal.Decimal) decimal.Decimal {
	if totalInvoiced.Sign() <= 0 {
		return decimal.Zero
	}
	return totalPaid.Div(totalInvoiced).Mul(hundred)
}

// DaysOverdue returns the whole days elapsed past dueDate, never negative.
func DaysOverdue(dueDate, now time.Time) int {
	if !dueDate.Before(now) {
		return 0
	}
	return int(now.Sub(dueDate).Hours() / 24)
}

// VarianceBand classifies a budget variance percentage.
type VarianceBand string

// Variance classifications. The five-percent thresholds are contract, shared
// with the budgets UI.
const (
	BandOverBudget  VarianceBand = "over-budget"
	BandUnderBudget VarianceBand = "under-budget"
	BandOnBudget    VarianceBand = "on-budget"
)

var bandThreshold = decimal.NewFromInt(5)

// ClassifyVariance maps a variance percentage to its band: above +5 is
// over-budget, below -5 is under-budget, anything between is on-budget.
func ClassifyVariance(variance decimal.Decimal) VarianceBand {
	switch {
	case variance.GreaterThan(bandThreshold):
		return BandOverBudget
	case variance.LessThan(bandThreshold.Neg()):
		return BandUnderBudget
	default:
		return BandOnBudget
	}
}

// VariancePercent returns (actual - budgeted) / budgeted * 100, zero when no
// amount was budgeted.
func VariancePercent(actual, budgeted decimal.Decimal) decimal.Decimal {
	if budgeted.Sign() <= 0 {
		return decimal.Zero
	}
	return actual.Sub(budgeted).Div(budgeted).Mul(hundred)
}
