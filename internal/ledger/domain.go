package ledger

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/fiberdesk/fiberdesk/internal/ledger/reports"
)

// Account types recognised by the report builders. The definitions live in
// the reports package to keep it free of a dependency back on ledger.
const (
	TypeAsset     = reports.TypeAsset
	TypeLiability = reports.TypeLiability
	TypeEquity    = reports.TypeEquity
	TypeRevenue   = reports.TypeRevenue
	TypeExpense   = reports.TypeExpense
)

// Account is a general ledger account.
type Account struct {
	ID   int64  `json:"id"`
	Code string `json:"code"`
	Name string `json:"name"`
	Type string `json:"type"`
}

// Transaction is a single ledger movement. Exactly one of Debit/Credit is
// non-zero (enforced by a table constraint).
type Transaction struct {
	ID         int64           `json:"id"`
	PostingID  uuid.UUID       `json:"posting_id"`
	OccurredOn time.Time       `json:"occurred_on"`
	AccountID  int64           `json:"account_id"`
	CustomerID *int64          `json:"customer_id,omitempty"`
	Debit      decimal.Decimal `json:"debit"`
	Credit     decimal.Decimal `json:"credit"`
	Memo       string          `json:"memo"`
	Balance    decimal.Decimal `json:"running_balance"`
}

// PostingEntry is one leg of a journal posting.
type PostingEntry struct {
	AccountID  int64           `json:"account_id"`
	CustomerID *int64          `json:"customer_id,omitempty"`
	Debit      decimal.Decimal `json:"debit"`
	Credit     decimal.Decimal `json:"credit"`
	Memo       string          `json:"memo"`
}

// PostingInput is a balanced journal posting request.
type PostingInput struct {
	OccurredOn time.Time      `json:"occurred_on"`
	Entries    []PostingEntry `json:"entries"`
}

func newPostingID() uuid.UUID {
	return uuid.New()
}

// AccountBalance aggregates one account's movements up to an as-of date. It
// is defined in the reports package and aliased here for repository callers.
type AccountBalance = reports.AccountBalance
