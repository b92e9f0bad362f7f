package reports

import "github.com/shopspring/decimal"

// Account types recognised by the report builders.
const (
	TypeAsset     = "ASSET"
	TypeLiability = "LIABILITY"
	TypeEquity    = "EQUITY"
	TypeRevenue   = "REVENUE"
	TypeExpense   = "EXPENSE"
)

// AccountBalance aggregates one account's movements up to an as-of date.
type AccountBalance struct {
	Code   string
	Name   string
	Type   string
	Debit  decimal.Decimal
	Credit decimal.Decimal
}

// Closing computes the closing balance in the account's natural sign
// convention: debit-normal for assets and expenses, credit-normal otherwise.
func (a AccountBalance) Closing() decimal.Decimal {
	switch a.Type {
	case TypeAsset, TypeExpense:
		return a.Debit.Sub(a.Credit)
	default:
		return a.Credit.Sub(a.Debit)
	}
}
