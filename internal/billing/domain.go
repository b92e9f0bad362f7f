package billing

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// Invoice statuses. Overdue is never stored: it is derived at read time from
// the due date so it can never go stale.
const (
	StatusPending   = "pending"
	StatusPaid      = "paid"
	StatusOverdue   = "overdue"
	StatusCancelled = "cancelled"
)

// Payment methods accepted by the billing endpoints.
var PaymentMethods = map[string]bool{
	"mpesa":  true,
	"bank":   true,
	"cash":   true,
	"card":   true,
	"cheque": true,
}

// Adjustment types.
const (
	AdjustmentCredit   = "credit"
	AdjustmentDebit    = "debit"
	AdjustmentWriteoff = "writeoff"
)

// Invoice is a customer invoice with derived status.
type Invoice struct {
	ID            int64           `json:"id"`
	Number        string          `json:"number"`
	CustomerID    int64           `json:"customer_id"`
	ServicePlanID *int64          `json:"service_plan_id,omitempty"`
	Subtotal      decimal.Decimal `json:"subtotal"`
	TaxAmount     decimal.Decimal `json:"tax_amount"`
	Discount      decimal.Decimal `json:"discount"`
	Total         decimal.Decimal `json:"total"`
	PaidAmount    decimal.Decimal `json:"paid_amount"`
	Status        string          `json:"status"`
	IssueDate     time.Time       `json:"issue_date"`
	DueDate       time.Time       `json:"due_date"`
	PeriodStart   *time.Time      `json:"period_start,omitempty"`
	PeriodEnd     *time.Time      `json:"period_end,omitempty"`
	Lines         []InvoiceLine   `json:"lines,omitempty"`
	CreatedAt     time.Time       `json:"created_at"`
	UpdatedAt     time.Time       `json:"updated_at"`
}

// Outstanding returns the unpaid remainder.
func (inv Invoice) Outstanding() decimal.Decimal {
	return inv.Total.Sub(inv.PaidAmount)
}

// InvoiceLine is one invoice line item.
type InvoiceLine struct {
	ID          int64           `json:"id"`
	InvoiceID   int64           `json:"invoice_id"`
	Description string          `json:"description"`
	Quantity    decimal.Decimal `json:"quantity"`
	UnitPrice   decimal.Decimal `json:"unit_price"`
	Total       decimal.Decimal `json:"total"`
}

// Payment is a received customer payment or a supplier payout.
type Payment struct {
	ID                int64           `json:"id"`
	Reference         string          `json:"reference"`
	CustomerID        *int64          `json:"customer_id,omitempty"`
	InvoiceID         *int64          `json:"invoice_id,omitempty"`
	SupplierInvoiceID *int64          `json:"supplier_invoice_id,omitempty"`
	Amount            decimal.Decimal `json:"amount"`
	Method            string          `json:"method"`
	Status            string          `json:"status"`
	PaidAt            time.Time       `json:"paid_at"`
	CreatedAt         time.Time       `json:"created_at"`
}

// Adjustment is a manual balance correction against a customer account.
type Adjustment struct {
	ID         int64           `json:"id"`
	CustomerID int64           `json:"customer_id"`
	InvoiceID  *int64          `json:"invoice_id,omitempty"`
	Type       string          `json:"adjustment_type"`
	Amount     decimal.Decimal `json:"amount"`
	Reason     string          `json:"reason"`
	Reference  string          `json:"reference_number,omitempty"`
	CreatedBy  int64           `json:"created_by"`
	CreatedAt  time.Time       `json:"created_at"`
}

// BillingConfig controls how a customer is invoiced.
type BillingConfig struct {
	CustomerID   int64     `json:"customer_id"`
	BillingDay   int       `json:"billing_day"`
	BillingCycle string    `json:"billing_cycle"`
	AutoInvoice  bool      `json:"auto_invoice"`
	GraceDays    int       `json:"grace_days"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// CreateInvoiceInput carries a new invoice with its lines.
type CreateInvoiceInput struct {
	CustomerID    int64             `json:"customer_id"`
	ServicePlanID *int64            `json:"service_plan_id"`
	Discount      decimal.Decimal   `json:"discount"`
	TaxRate       decimal.Decimal   `json:"tax_rate"`
	IssueDate     time.Time         `json:"issue_date"`
	DueDate       time.Time         `json:"due_date"`
	PeriodStart   *time.Time        `json:"period_start"`
	PeriodEnd     *time.Time        `json:"period_end"`
	Lines         []CreateLineInput `json:"lines"`
}

// CreateLineInput carries one requested invoice line.
type CreateLineInput struct {
	Description string          `json:"description"`
	Quantity    decimal.Decimal `json:"quantity"`
	UnitPrice   decimal.Decimal `json:"unit_price"`
}

// CreatePaymentInput posts a payment against a customer, optionally applied
// to an invoice.
type CreatePaymentInput struct {
	CustomerID int64
	InvoiceID  *int64
	Amount     decimal.Decimal
	Method     string
	Reference  string
	PaidAt     time.Time
}

// CreateAdjustmentInput posts a manual correction.
type CreateAdjustmentInput struct {
	CustomerID int64
	InvoiceID  *int64
	Type       string
	Amount     decimal.Decimal
	Reason     string
	Reference  string
	CreatedBy  int64
}

// applyPayment computes the new paid amount and status for an invoice under
// lock. Payments can never push paid_amount past total.
func applyPayment(total, paid decimal.Decimal, status string, amount decimal.Decimal) (decimal.Decimal, string, error) {
	if status == StatusCancelled {
		return paid, status, ErrInvoiceCancelled
	}
	newPaid := paid.Add(amount)
	if newPaid.GreaterThan(total) {
		return paid, status, fmt.Errorf("%w: outstanding %s, attempted %s",
			ErrOverApplication, total.Sub(paid), amount)
	}
	if newPaid.Equal(total) {
		return newPaid, StatusPaid, nil
	}
	return newPaid, status, nil
}

// applyAdjustment computes the new invoice total and status for an adjustment
// under lock. Credits and writeoffs cannot push the total below what has
// already been paid.
func applyAdjustment(total, paid decimal.Decimal, status, adjType string, amount decimal.Decimal) (decimal.Decimal, string, error) {
	if status == StatusCancelled {
		return total, status, ErrInvoiceCancelled
	}
	newTotal := total
	switch adjType {
	case AdjustmentCredit, AdjustmentWriteoff:
		newTotal = total.Sub(amount)
	case AdjustmentDebit:
		newTotal = total.Add(amount)
	}
	if newTotal.LessThan(paid) {
		return total, status, fmt.Errorf("%w: adjusted total %s below paid %s", ErrOverApplication, newTotal, paid)
	}
	if newTotal.Equal(paid) {
		return newTotal, StatusPaid, nil
	}
	if status == StatusPaid {
		// A debit reopened the balance.
		return newTotal, StatusPending, nil
	}
	return newTotal, status, nil
}

// InvoiceFilter scopes invoice listings.
type InvoiceFilter struct {
	CustomerID int64
	Status     string
	From       time.Time
	To         time.Time
	Limit      int
}
