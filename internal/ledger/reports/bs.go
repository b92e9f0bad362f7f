package reports

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// Account code prefixes drive balance sheet placement. The chart of accounts
// follows this convention:
//
//	10xx cash            15xx equipment       20xx payables        30xx capital
//	11xx receivables     16xx property        21xx short-term debt 35xx retained earnings
//	12xx inventory       17xx vehicles        25xx+ long-term debt
type sectionRule struct {
	prefix string
	bucket *decimal.Decimal
}

// CurrentAssets breaks down short-lived assets.
type CurrentAssets struct {
	Cash        decimal.Decimal `json:"cash"`
	Receivables decimal.Decimal `json:"receivables"`
	Inventory   decimal.Decimal `json:"inventory"`
	Total       decimal.Decimal `json:"total"`
}

// FixedAssets breaks down long-lived assets.
type FixedAssets struct {
	Equipment decimal.Decimal `json:"equipment"`
	Property  decimal.Decimal `json:"property"`
	Vehicles  decimal.Decimal `json:"vehicles"`
	Total     decimal.Decimal `json:"total"`
}

// Liabilities splits current from long-term obligations.
type Liabilities struct {
	Payables      decimal.Decimal `json:"payables"`
	ShortTermDebt decimal.Decimal `json:"short_term_debt"`
	Current       decimal.Decimal `json:"current_total"`
	LongTerm      decimal.Decimal `json:"long_term"`
	Total         decimal.Decimal `json:"total"`
}

// Equity holds contributed capital and retained earnings. Retained earnings
// include the net income accumulated in revenue/expense accounts so the
// accounting equation holds mid-period.
type Equity struct {
	Capital          decimal.Decimal `json:"capital"`
	RetainedEarnings decimal.Decimal `json:"retained_earnings"`
	Total            decimal.Decimal `json:"total"`
}

// BalanceSheet is the snapshot rendered by the balance sheet endpoint.
// IsConsistent asserts assets == liabilities + equity; Gap is the signed
// amount by which the equation fails.
type BalanceSheet struct {
	AsOf         time.Time       `json:"as_of"`
	Assets       decimal.Decimal `json:"assets_total"`
	Current      CurrentAssets   `json:"current_assets"`
	Fixed        FixedAssets     `json:"fixed_assets"`
	Liabilities  Liabilities     `json:"liabilities"`
	Equity       Equity          `json:"equity"`
	IsConsistent bool            `json:"isConsistent"`
	Gap          decimal.Decimal `json:"gap"`
}

// BuildBalanceSheet classifies closing balances into the snapshot.
func BuildBalanceSheet(asOf time.Time, accounts []AccountBalance) BalanceSheet {
	var bs BalanceSheet
	bs.AsOf = asOf

	rules := []sectionRule{
		{"10", &bs.Current.Cash},
		{"11", &bs.Current.Receivables},
		{"12", &bs.Current.Inventory},
		{"15", &bs.Fixed.Equipment},
		{"16", &bs.Fixed.Property},
		{"17", &bs.Fixed.Vehicles},
		{"20", &bs.Liabilities.Payables},
		{"21", &bs.Liabilities.ShortTermDebt},
		{"30", &bs.Equity.Capital},
		{"35", &bs.Equity.RetainedEarnings},
	}

	netIncome := decimal.Zero
	for _, acc := range accounts {
		closing := acc.Closing()
		switch acc.Type {
		case TypeRevenue:
			netIncome = netIncome.Add(closing)
			continue
		case TypeExpense:
			netIncome = netIncome.Sub(closing)
			continue
		}

		placed := false
		for _, rule := range rules {
			if strings.HasPrefix(acc.Code, rule.prefix) {
				*rule.bucket = rule.bucket.Add(closing)
				placed = true
				break
			}
		}
		if placed {
			continue
		}
		// Unmapped codes fall back on the account type.
		switch acc.Type {
		case TypeAsset:
			bs.Fixed.Equipment = bs.Fixed.Equipment.Add(closing)
		case TypeLiability:
			bs.Liabilities.LongTerm = bs.Liabilities.LongTerm.Add(closing)
		case TypeEquity:
			bs.Equity.Capital = bs.Equity.Capital.Add(closing)
		}
	}

	// Liability codes 25 and above that carry the LIABILITY type land in
	// LongTerm through the fallback above; 20/21 were placed explicitly.
	bs.Equity.RetainedEarnings = bs.Equity.RetainedEarnings.Add(netIncome)

	bs.Current.Total = bs.Current.Cash.Add(bs.Current.Receivables).Add(bs.Current.Inventory)
	bs.Fixed.Total = bs.Fixed.Equipment.Add(bs.Fixed.Property).Add(bs.Fixed.Vehicles)
	bs.Assets = bs.Current.Total.Add(bs.Fixed.Total)
	bs.Liabilities.Current = bs.Liabilities.Payables.Add(bs.Liabilities.ShortTermDebt)
	bs.Liabilities.Total = bs.Liabilities.Current.Add(bs.Liabilities.LongTerm)
	bs.Equity.Total = bs.Equity.Capital.Add(bs.Equity.RetainedEarnings)

	bs.Gap = bs.Assets.Sub(bs.Liabilities.Total.Add(bs.Equity.Total))
	bs.IsConsistent = bs.Gap.IsZero()
	return bs
}
