package expenses

import (
	"time"

	"github.com/shopspring/decimal"
)

// Expense statuses.
const (
	StatusPaid     = "paid"
	StatusPending  = "pending"
	StatusApproved = "approved"
)

// Category groups expenses for budgeting and reporting.
type Category struct {
	ID          int64  `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
}

// Expense is a recorded operational cost.
type Expense struct {
	ID                int64           `json:"id"`
	CategoryID        int64           `json:"category_id"`
	CategoryName      string          `json:"category_name,omitempty"`
	SupplierInvoiceID *int64          `json:"supplier_invoice_id,omitempty"`
	Vendor            string          `json:"vendor"`
	Description       string          `json:"description"`
	Amount            decimal.Decimal `json:"amount"`
	ExpenseDate       time.Time       `json:"expense_date"`
	PaymentMethod     string          `json:"payment_method"`
	Status            string          `json:"status"`
	ReceiptNo         string          `json:"receipt_no,omitempty"`
	CreatedAt         time.Time       `json:"created_at"`
	UpdatedAt         time.Time       `json:"updated_at"`
}

// SupplierInvoice is a vendor bill tracked as accounts payable.
type SupplierInvoice struct {
	ID         int64           `json:"id"`
	Number     string          `json:"number"`
	Vendor     string          `json:"vendor"`
	Amount     decimal.Decimal `json:"amount"`
	PaidAmount decimal.Decimal `json:"paid_amount"`
	Status     string          `json:"status"`
	IssueDate  time.Time       `json:"issue_date"`
	DueDate    time.Time       `json:"due_date"`
	CreatedAt  time.Time       `json:"created_at"`
}

// Outstanding returns the unpaid remainder of the bill.
func (si SupplierInvoice) Outstanding() decimal.Decimal {
	return si.Amount.Sub(si.PaidAmount)
}

// PayablesSummary rolls accounts payable up for the finance dashboard.
type PayablesSummary struct {
	TotalOutstanding decimal.Decimal   `json:"total_outstanding"`
	OverdueCount     int               `json:"overdue_count"`
	Invoices         []SupplierInvoice `json:"invoices"`
}

// CreateExpenseInput carries a new expense.
type CreateExpenseInput struct {
	CategoryID        int64           `json:"category_id"`
	SupplierInvoiceID *int64          `json:"supplier_invoice_id"`
	Vendor            string          `json:"vendor"`
	Description       string          `json:"description"`
	Amount            decimal.Decimal `json:"amount"`
	ExpenseDate       time.Time       `json:"expense_date"`
	PaymentMethod     string          `json:"payment_method"`
	Status            string          `json:"status"`
	ReceiptNo         string          `json:"receipt_no"`
}

// UpdateExpenseInput carries partial updates, nil means keep.
type UpdateExpenseInput struct {
	CategoryID    *int64           `json:"category_id"`
	Vendor        *string          `json:"vendor"`
	Description   *string          `json:"description"`
	Amount        *decimal.Decimal `json:"amount"`
	ExpenseDate   *time.Time       `json:"expense_date"`
	PaymentMethod *string          `json:"payment_method"`
	Status        *string          `json:"status"`
	ReceiptNo     *string          `json:"receipt_no"`
}

// ExpenseFilter scopes expense listings.
type ExpenseFilter struct {
	CategoryID int64
	Status     string
	From       time.Time
	To         time.Time
	Limit      int
}

// CreateSupplierInvoiceInput carries a new vendor bill.
type CreateSupplierInvoiceInput struct {
	Number    string          `json:"number"`
	Vendor    string          `json:"vendor"`
	Amount    decimal.Decimal `json:"amount"`
	IssueDate time.Time       `json:"issue_date"`
	DueDate   time.Time       `json:"due_date"`
}
