// Package reports builds the trial balance and balance sheet structures from
// aggregated account balances. Builders are pure; all I/O lives in the ledger
// repository.
package reports

import (
	"sort"

	"github.com/shopspring/decimal"
)

// TrialBalanceAccount is one row of the trial balance.
type TrialBalanceAccount struct {
	Code   string          `json:"code"`
	Name   string          `json:"name"`
	Type   string          `json:"type"`
	Debit  decimal.Decimal `json:"debit"`
	Credit decimal.Decimal `json:"credit"`
}

// TrialBalanceTotals verifies the double-entry identity. Difference is signed
// (debits minus credits) so operators can see which side is heavy.
type TrialBalanceTotals struct {
	Debits     decimal.Decimal `json:"debits"`
	Credits    decimal.Decimal `json:"credits"`
	IsBalanced bool            `json:"isBalanced"`
	Difference decimal.Decimal `json:"difference"`
}

// TrialBalance is the report rendered by the trial balance endpoint.
type TrialBalance struct {
	Accounts []TrialBalanceAccount `json:"accounts"`
	Totals   TrialBalanceTotals    `json:"totals"`
}

// BuildTrialBalance converts account balances into the trial balance report,
// sorted by account code.
func BuildTrialBalance(accounts []AccountBalance) TrialBalance {
	rows := make([]TrialBalanceAccount, 0, len(accounts))
	debits := decimal.Zero
	credits := decimal.Zero
	for _, acc := range accounts {
		rows = append(rows, TrialBalanceAccount{
			Code:   acc.Code,
			Name:   acc.Name,
			Type:   acc.Type,
			Debit:  acc.Debit,
			Credit: acc.Credit,
		})
		debits = debits.Add(acc.Debit)
		credits = credits.Add(acc.Credit)
	}
	sort.Slice(rows, func(i, j int) bool { return rows[i].Code < rows[j].Code })

	return TrialBalance{
		Accounts: rows,
		Totals: TrialBalanceTotals{
			Debits:     debits,
			Credits:    credits,
			IsBalanced: debits.Equal(credits),
			Difference: debits.Sub(credits),
		},
	}
}
