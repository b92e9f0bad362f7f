package expenses

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"github.com/fiberdesk/fiberdesk/internal/platform/db"
)

// Repository provides PostgreSQL backed persistence for expenses and
// accounts payable.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs a repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// ErrNotFound is returned when a row does not exist.
var ErrNotFound = errors.New("expenses: not found")

// ListCategories returns all expense categories ordered by name.
func (r *Repository) ListCategories(ctx context.Context) ([]Category, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT id, name, description FROM expense_categories ORDER BY name`)
	if err != nil {
		return nil, fmt.Errorf("expenses: list categories: %w", err)
	}
	defer rows.Close()

	categories := make([]Category, 0)
	for rows.Next() {
		var c Category
		if err := rows.Scan(&c.ID, &c.Name, &c.Description); err != nil {
			return nil, err
		}
		categories = append(categories, c)
	}
	return categories, rows.Err()
}

// CreateCategory inserts a category.
func (r *Repository) CreateCategory(ctx context.Context, name, description string) (*Category, error) {
	var c Category
	err := r.pool.QueryRow(ctx,
		`INSERT INTO expense_categories (name, description) VALUES ($1, $2) RETURNING id`,
		name, description).Scan(&c.ID)
	if err != nil {
		return nil, fmt.Errorf("expenses: create category: %w", err)
	}
	c.Name = name
	c.Description = description
	return &c, nil
}

const expenseColumns = `e.id, e.category_id, c.name, e.supplier_invoice_id, e.vendor, e.description,
	e.amount, e.expense_date, e.payment_method, e.status, e.receipt_no, e.created_at, e.updated_at`

func scanExpense(row pgx.Row) (*Expense, error) {
	var e Expense
	err := row.Scan(&e.ID, &e.CategoryID, &e.CategoryName, &e.SupplierInvoiceID, &e.Vendor,
		&e.Description, &e.Amount, &e.ExpenseDate, &e.PaymentMethod, &e.Status, &e.ReceiptNo,
		&e.CreatedAt, &e.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &e, nil
}

// CreateExpense inserts an expense.
func (r *Repository) CreateExpense(ctx context.Context, input CreateExpenseInput) (*Expense, error) {
	var id int64
	err := r.pool.QueryRow(ctx,
		`INSERT INTO expenses (category_id, supplier_invoice_id, vendor, description, amount,
			expense_date, payment_method, status, receipt_no)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9) RETURNING id`,
		input.CategoryID, input.SupplierInvoiceID, input.Vendor, input.Description, input.Amount,
		input.ExpenseDate, input.PaymentMethod, input.Status, input.ReceiptNo).Scan(&id)
	if err != nil {
		return nil, fmt.Errorf("expenses: insert: %w", err)
	}
	return r.GetExpense(ctx, id)
}

// GetExpense fetches one expense with its category name.
func (r *Repository) GetExpense(ctx context.Context, id int64) (*Expense, error) {
	return scanExpense(r.pool.QueryRow(ctx,
		`SELECT `+expenseColumns+`
		 FROM expenses e JOIN expense_categories c ON c.id = e.category_id
		 WHERE e.id = $1`, id))
}

// ListExpenses returns expenses matching the filter, newest first.
func (r *Repository) ListExpenses(ctx context.Context, filter ExpenseFilter) ([]Expense, error) {
	conditions := []string{"TRUE"}
	args := []any{}
	arg := func(v any) string {
		args = append(args, v)
		return fmt.Sprintf("$%d", len(args))
	}
	if filter.CategoryID > 0 {
		conditions = append(conditions, "e.category_id = "+arg(filter.CategoryID))
	}
	if filter.Status != "" {
		conditions = append(conditions, "e.status = "+arg(filter.Status))
	}
	if !filter.From.IsZero() {
		conditions = append(conditions, "e.expense_date >= "+arg(filter.From))
	}
	if !filter.To.IsZero() {
		conditions = append(conditions, "e.expense_date <= "+arg(filter.To))
	}
	limit := filter.Limit
	if limit <= 0 || limit > 500 {
		limit = 100
	}

	rows, err := r.pool.Query(ctx,
		`SELECT `+expenseColumns+`
		 FROM expenses e JOIN expense_categories c ON c.id = e.category_id
		 WHERE `+strings.Join(conditions, " AND ")+`
		 ORDER BY e.expense_date DESC, e.id DESC LIMIT `+arg(limit), args...)
	if err != nil {
		return nil, fmt.Errorf("expenses: list: %w", err)
	}
	defer rows.Close()

	expenses := make([]Expense, 0)
	for rows.Next() {
		e, err := scanExpense(rows)
		if err != nil {
			return nil, err
		}
		expenses = append(expenses, *e)
	}
	return expenses, rows.Err()
}

// UpdateExpense applies the non-nil fields and returns the updated row.
func (r *Repository) UpdateExpense(ctx context.Context, id int64, input UpdateExpenseInput) (*Expense, error) {
	sets := []string{"updated_at = NOW()"}
	args := []any{id}
	set := func(column string, v any) {
		args = append(args, v)
		sets = append(sets, fmt.Sprintf("%s = $%d", column, len(args)))
	}
	if input.CategoryID != nil {
		set("category_id", *input.CategoryID)
	}
	if input.Vendor != nil {
		set("vendor", *input.Vendor)
	}
	if input.Description != nil {
		set("description", *input.Description)
	}
	if input.Amount != nil {
		set("amount", *input.Amount)
	}
	if input.ExpenseDate != nil {
		set("expense_date", *input.ExpenseDate)
	}
	if input.PaymentMethod != nil {
		set("payment_method", *input.PaymentMethod)
	}
	if input.Status != nil {
		set("status", *input.Status)
	}
	if input.ReceiptNo != nil {
		set("receipt_no", *input.ReceiptNo)
	}

	tag, err := r.pool.Exec(ctx,
		`UPDATE expenses SET `+strings.Join(sets, ", ")+` WHERE id = $1`, args...)
	if err != nil {
		return nil, fmt.Errorf("expenses: update: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return nil, ErrNotFound
	}
	return r.GetExpense(ctx, id)
}

// DeleteExpense removes an expense.
func (r *Repository) DeleteExpense(ctx context.Context, id int64) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM expenses WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("expenses: delete: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// CreateSupplierInvoice inserts a vendor bill.
func (r *Repository) CreateSupplierInvoice(ctx context.Context, input CreateSupplierInvoiceInput) (*SupplierInvoice, error) {
	var si SupplierInvoice
	err := r.pool.QueryRow(ctx,
		`INSERT INTO supplier_invoices (number, vendor, amount, issue_date, due_date)
		 VALUES ($1, $2, $3, $4, $5) RETURNING id, created_at`,
		input.Number, input.Vendor, input.Amount, input.IssueDate, input.DueDate,
	).Scan(&si.ID, &si.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("expenses: insert supplier invoice: %w", err)
	}
	si.Number = input.Number
	si.Vendor = input.Vendor
	si.Amount = input.Amount
	si.PaidAmount = decimal.Zero
	si.Status = "pending"
	si.IssueDate = input.IssueDate
	si.DueDate = input.DueDate
	return &si, nil
}

// ListSupplierInvoices returns vendor bills, optionally only unpaid ones.
func (r *Repository) ListSupplierInvoices(ctx context.Context, unpaidOnly bool) ([]SupplierInvoice, error) {
	query := `SELECT id, number, vendor, amount, paid_amount, status, issue_date, due_date, created_at
		 FROM supplier_invoices`
	if unpaidOnly {
		query += ` WHERE status = 'pending'`
	}
	query += ` ORDER BY due_date, id`

	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("expenses: list supplier invoices: %w", err)
	}
	defer rows.Close()

	invoices := make([]SupplierInvoice, 0)
	for rows.Next() {
		var si SupplierInvoice
		if err := rows.Scan(&si.ID, &si.Number, &si.Vendor, &si.Amount, &si.PaidAmount,
			&si.Status, &si.IssueDate, &si.DueDate, &si.CreatedAt); err != nil {
			return nil, err
		}
		invoices = append(invoices, si)
	}
	return invoices, rows.Err()
}

// PaySupplierInvoice applies a payout under a row lock and records it in
// payments.
func (r *Repository) PaySupplierInvoice(ctx context.Context, id int64, amount decimal.Decimal, method string, paidAt time.Time) (*SupplierInvoice, error) {
	var si SupplierInvoice
	err := db.WithTx(ctx, r.pool, func(tx pgx.Tx) error {
		err := tx.QueryRow(ctx,
			`SELECT id, number, vendor, amount, paid_amount, status, issue_date, due_date, created_at
			 FROM supplier_invoices WHERE id = $1 FOR UPDATE`, id,
		).Scan(&si.ID, &si.Number, &si.Vendor, &si.Amount, &si.PaidAmount,
			&si.Status, &si.IssueDate, &si.DueDate, &si.CreatedAt)
		if errors.Is(err, pgx.ErrNoRows) {
			return ErrNotFound
		}
		if err != nil {
			return fmt.Errorf("expenses: lock supplier invoice: %w", err)
		}
		newPaid := si.PaidAmount.Add(amount)
		if newPaid.GreaterThan(si.Amount) {
			return fmt.Errorf("expenses: payout exceeds outstanding %s", si.Outstanding())
		}
		status := si.Status
		if newPaid.Equal(si.Amount) {
			status = "paid"
		}
		if _, err := tx.Exec(ctx,
			`UPDATE supplier_invoices SET paid_amount = $2, status = $3 WHERE id = $1`,
			id, newPaid, status); err != nil {
			return fmt.Errorf("expenses: apply payout: %w", err)
		}
		if _, err := tx.Exec(ctx,
			`INSERT INTO payments (reference, supplier_invoice_id, amount, method, status, paid_at)
			 VALUES ($1, $2, $3, $4, 'completed', $5)`,
			fmt.Sprintf("AP-%s-%d", si.Number, time.Now().Unix()), id, amount, method, paidAt); err != nil {
			return fmt.Errorf("expenses: record payout: %w", err)
		}
		si.PaidAmount = newPaid
		si.Status = status
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &si, nil
}

// Payables rolls up unpaid vendor bills.
func (r *Repository) Payables(ctx context.Context, asOf time.Time) (*PayablesSummary, error) {
	invoices, err := r.ListSupplierInvoices(ctx, true)
	if err != nil {
		return nil, err
	}
	summary := &PayablesSummary{TotalOutstanding: decimal.Zero, Invoices: invoices}
	for _, si := range invoices {
		summary.TotalOutstanding = summary.TotalOutstanding.Add(si.Outstanding())
		if si.DueDate.Before(asOf) {
			summary.OverdueCount++
		}
	}
	return summary, nil
}
