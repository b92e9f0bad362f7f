package tax

import (
	"time"

	"github.com/shopspring/decimal"
)

// Tax record statuses.
const (
	StatusPending = "pending"
	StatusFiled   = "filed"
	StatusPaid    = "paid"
	StatusOverdue = "overdue"
)

// Tax types tracked for filing.
var TaxTypes = map[string]bool{
	"vat":            true,
	"corporate":      true,
	"service_tax":    true,
	"regulatory_fee": true,
	"paye":           true,
}

// Record is one tax obligation for a filing period.
type Record struct {
	ID        int64           `json:"id"`
	TaxType   string          `json:"tax_type"`
	Period    string          `json:"period"`
	AmountDue decimal.Decimal `json:"amount_due"`
	Penalty   decimal.Decimal `json:"penalty"`
	DueDate   time.Time       `json:"due_date"`
	Status    string          `json:"status"`
	FiledAt   *time.Time      `json:"filed_at,omitempty"`
	CreatedAt time.Time       `json:"created_at"`
	UpdatedAt time.Time       `json:"updated_at"`
}

// TotalDue returns the obligation including accrued penalties.
func (r Record) TotalDue() decimal.Decimal {
	return r.AmountDue.Add(r.Penalty)
}

// Compliance summarises open obligations.
type Compliance struct {
	Status       string          `json:"compliance_status"`
	PendingCount int             `json:"pending_count"`
	OverdueCount int             `json:"overdue_count"`
	TotalDue     decimal.Decimal `json:"total_due"`
	Obligations  []Record        `json:"obligations"`
}

// CreateRecordInput carries a new tax obligation.
type CreateRecordInput struct {
	TaxType   string          `json:"tax_type"`
	Period    string          `json:"period"`
	AmountDue decimal.Decimal `json:"amount_due"`
	Penalty   decimal.Decimal `json:"penalty"`
	DueDate   time.Time       `json:"due_date"`
}

// UpdateStatusInput moves a record through the filing lifecycle.
type UpdateStatusInput struct {
	Status  string           `json:"status"`
	FiledAt *time.Time       `json:"filed_at"`
	Penalty *decimal.Decimal `json:"penalty"`
}

// RecordFilter scopes record listings.
type RecordFilter struct {
	TaxType string
	Status  string
	Period  string
}
