package billing

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

// Repository provides PostgreSQL backed persistence for billing.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs a repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// Sentinel errors surfaced to the service layer.
var (
	ErrNotFound         = errors.New("billing: not found")
	ErrOverApplication  = errors.New("billing: payment exceeds outstanding balance")
	ErrInvoiceCancelled = errors.New("billing: invoice is cancelled")
)

// Status is stored as pending/paid/cancelled; overdue is derived here so the
// transition never needs a background writer.
const derivedStatusExpr = `CASE WHEN i.status = 'pending' AND i.due_date < CURRENT_DATE THEN 'overdue' ELSE i.status END`

const invoiceColumns = `i.id, i.number, i.customer_id, i.service_plan_id, i.subtotal, i.tax_amount,
	i.discount, i.total, i.paid_amount, ` + derivedStatusExpr + ` AS status,
	i.issue_date, i.due_date, i.period_start, i.period_end, i.created_at, i.updated_at`

func scanInvoice(row pgx.Row) (*Invoice, error) {
	var inv Invoice
	err := row.Scan(&inv.ID, &inv.Number, &inv.CustomerID, &inv.ServicePlanID, &inv.Subtotal,
		&inv.TaxAmount, &inv.Discount, &inv.Total, &inv.PaidAmount, &inv.Status,
		&inv.IssueDate, &inv.DueDate, &inv.PeriodStart, &inv.PeriodEnd, &inv.CreatedAt, &inv.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &inv, nil
}

// CreateInvoice inserts an invoice with its lines in one transaction.
func (r *Repository) CreateInvoice(ctx context.Context, number string, input CreateInvoiceInput, subtotal, tax, total decimal.Decimal) (*Invoice, error) {
	var inv *Invoice
	err := db.WithTx(ctx, r.pool, func(tx pgx.Tx) error {
		var id int64
		var createdAt, updatedAt time.Time
		err := tx.QueryRow(ctx,
			`INSERT INTO invoices (number, customer_id, service_plan_id, subtotal, tax_amount, discount, total,
				status, issue_date, due_date, period_start, period_end)
			 VALUES ($1, $2, $3, $4, $5, $6, $7, 'pending', $8, $9, $10, $11)
			 RETURNING id, created_at, updated_at`,
			number, input.CustomerID, input.ServicePlanID, subtotal, tax, input.Discount, total,
			input.IssueDate, input.DueDate, input.PeriodStart, input.PeriodEnd,
		).Scan(&id, &createdAt, &updatedAt)
		if err != nil {
			return fmt.Errorf("billing: insert invoice: %w", err)
		}

		lines := make([]InvoiceLine, 0, len(input.Lines))
		for _, line := range input.Lines {
			lineTotal := line.Quantity.Mul(line.UnitPrice)
			var lineID int64
			err := tx.QueryRow(ctx,
				`INSERT INTO invoice_lines (invoice_id, description, quantity, unit_price, total)
				 VALUES ($1, $2, $3, $4, $5) RETURNING id`,
				id, line.Description, line.Quantity, line.UnitPrice, lineTotal).Scan(&lineID)
			if err != nil {
				return fmt.Errorf("billing: insert invoice line: %w", err)
			}
			lines = append(lines, InvoiceLine{
				ID: lineID, InvoiceID: id, Description: line.Description,
				Quantity: line.Quantity, UnitPrice: line.UnitPrice, Total: lineTotal,
			})
		}

		inv = &Invoice{
			ID: id, Number: number, CustomerID: input.CustomerID, ServicePlanID: input.ServicePlanID,
			Subtotal: subtotal, TaxAmount: tax, Discount: input.Discount, Total: total,
			PaidAmount: decimal.Zero, Status: StatusPending,
			IssueDate: input.IssueDate, DueDate: input.DueDate,
			PeriodStart: input.PeriodStart, PeriodEnd: input.PeriodEnd,
			Lines: lines, CreatedAt: createdAt, UpdatedAt: updatedAt,
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return inv, nil
}

// GetInvoice fetches one invoice with its lines.
func (r *Repository) GetInvoice(ctx context.Context, id int64) (*Invoice, error) {
	inv, err := scanInvoice(r.pool.QueryRow(ctx,
		`SELECT `+invoiceColumns+` FROM invoices i WHERE i.id = $1`, id))
	if err != nil {
		return nil, err
	}

	rows, err := r.pool.Query(ctx,
		`SELECT id, invoice_id, description, quantity, unit_price, total
		 FROM invoice_lines WHERE invoice_id = $1 ORDER BY id`, id)
	if err != nil {
		return nil, fmt.Errorf("billing: invoice lines: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var line InvoiceLine
		if err := rows.Scan(&line.ID, &line.InvoiceID, &line.Description, &line.Quantity, &line.UnitPrice, &line.Total); err != nil {
			return nil, err
		}
		inv.Lines = append(inv.Lines, line)
	}
	return inv, rows.Err()
}

// ListInvoices returns invoices matching the filter, newest first.
func (r *Repository) ListInvoices(ctx context.Context, filter InvoiceFilter) ([]Invoice, error) {
	conditions := []string{"TRUE"}
	args := []any{}
	arg := func(v any) string {
		args = append(args, v)
		return fmt.Sprintf("$%d", len(args))
	}
	if filter.CustomerID > 0 {
		conditions = append(conditions, "i.customer_id = "+arg(filter.CustomerID))
	}
	if filter.Status != "" {
		conditions = append(conditions, derivedStatusExpr+" = "+arg(filter.Status))
	}
	if !filter.From.IsZero() {
		conditions = append(conditions, "i.issue_date >= "+arg(filter.From))
	}
	if !filter.To.IsZero() {
		conditions = append(conditions, "i.issue_date <= "+arg(filter.To))
	}
	limit := filter.Limit
	if limit <= 0 || limit > 500 {
		limit = 100
	}

	query := `SELECT ` + invoiceColumns + ` FROM invoices i WHERE ` +
		strings.Join(conditions, " AND ") + ` ORDER BY i.issue_date DESC, i.id DESC LIMIT ` + arg(limit)

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("billing: list invoices: %w", err)
	}
	defer rows.Close()

	invoices := make([]Invoice, 0)
	for rows.Next() {
		inv, err := scanInvoice(rows)
		if err != nil {
			return nil, err
		}
		invoices = append(invoices, *inv)
	}
	return invoices, rows.Err()
}

// ApplyPayment inserts a payment and, when linked to an invoice, applies it
// under a row lock so concurrent postings cannot over-apply.
func (r *Repository) ApplyPayment(ctx context.Context, input CreatePaymentInput) (*Payment, error) {
	var payment *Payment
	err := db.WithTx(ctx, r.pool, func(tx pgx.Tx) error {
		if input.InvoiceID != nil {
			var total, paid decimal.Decimal
			var status string
			err := tx.QueryRow(ctx,
				`SELECT total, paid_amount, status FROM invoices WHERE id = $1 FOR UPDATE`,
				*input.InvoiceID).Scan(&total, &paid, &status)
			if errors.Is(err, pgx.ErrNoRows) {
				return ErrNotFound
			}
			if err != nil {
				return fmt.Errorf("billing: lock invoice: %w", err)
			}
			newPaid, newStatus, err := applyPayment(total, paid, status, input.Amount)
			if err != nil {
				return err
			}
			if _, err := tx.Exec(ctx,
				`UPDATE invoices SET paid_amount = $2, status = $3, updated_at = NOW() WHERE id = $1`,
				*input.InvoiceID, newPaid, newStatus); err != nil {
				return fmt.Errorf("billing: apply payment: %w", err)
			}
		}

		var p Payment
		err := tx.QueryRow(ctx,
			`INSERT INTO payments (reference, customer_id, invoice_id, amount, method, status, paid_at)
			 VALUES ($1, $2, $3, $4, $5, 'completed', $6)
			 RETURNING id, created_at`,
			input.Reference, input.CustomerID, input.InvoiceID, input.Amount, input.Method, input.PaidAt,
		).Scan(&p.ID, &p.CreatedAt)
		if err != nil {
			return fmt.Errorf("billing: insert payment: %w", err)
		}
		p.Reference = input.Reference
		p.CustomerID = &input.CustomerID
		p.InvoiceID = input.InvoiceID
		p.Amount = input.Amount
		p.Method = input.Method
		p.Status = "completed"
		p.PaidAt = input.PaidAt
		payment = &p
		return nil
	})
	if err != nil {
		return nil, err
	}
	return payment, nil
}

// ApplyAdjustment records an adjustment; invoice-linked credits and writeoffs
// reduce the invoice total, debits raise it, all under the same row lock used
// by payment application.
func (r *Repository) ApplyAdjustment(ctx context.Context, input CreateAdjustmentInput) (*Adjustment, error) {
	var adj *Adjustment
	err := db.WithTx(ctx, r.pool, func(tx pgx.Tx) error {
		if input.InvoiceID != nil {
			var total, paid decimal.Decimal
			var status string
			err := tx.QueryRow(ctx,
				`SELECT total, paid_amount, status FROM invoices WHERE id = $1 FOR UPDATE`,
				*input.InvoiceID).Scan(&total, &paid, &status)
			if errors.Is(err, pgx.ErrNoRows) {
				return ErrNotFound
			}
			if err != nil {
				return fmt.Errorf("billing: lock invoice: %w", err)
			}
			newTotal, newStatus, err := applyAdjustment(total, paid, status, input.Type, input.Amount)
			if err != nil {
				return err
			}
			if _, err := tx.Exec(ctx,
				`UPDATE invoices SET total = $2, status = $3, updated_at = NOW() WHERE id = $1`,
				*input.InvoiceID, newTotal, newStatus); err != nil {
				return fmt.Errorf("billing: apply adjustment: %w", err)
			}
		}

		var a Adjustment
		err := tx.QueryRow(ctx,
			`INSERT INTO financial_adjustments (customer_id, invoice_id, adjustment_type, amount, reason, reference, created_by)
			 VALUES ($1, $2, $3, $4, $5, NULLIF($6, ''), $7)
			 RETURNING id, created_at`,
			input.CustomerID, input.InvoiceID, input.Type, input.Amount, input.Reason, input.Reference, input.CreatedBy,
		).Scan(&a.ID, &a.CreatedAt)
		if err != nil {
			return fmt.Errorf("billing: insert adjustment: %w", err)
		}
		a.CustomerID = input.CustomerID
		a.InvoiceID = input.InvoiceID
		a.Type = input.Type
		a.Amount = input.Amount
		a.Reason = input.Reason
		a.Reference = input.Reference
		a.CreatedBy = input.CreatedBy
		adj = &a
		return nil
	})
	if err != nil {
		return nil, err
	}
	return adj, nil
}

// ListPayments returns payments for a customer, newest first.
func (r *Repository) ListPayments(ctx context.Context, customerID int64) ([]Payment, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT id, reference, customer_id, invoice_id, supplier_invoice_id, amount, method, status, paid_at, created_at
		 FROM payments WHERE customer_id = $1 ORDER BY paid_at DESC, id DESC LIMIT 200`,
		customerID)
	if err != nil {
		return nil, fmt.Errorf("billing: list payments: %w", err)
	}
	defer rows.Close()

	payments := make([]Payment, 0)
	for rows.Next() {
		var p Payment
		if err := rows.Scan(&p.ID, &p.Reference, &p.CustomerID, &p.InvoiceID, &p.SupplierInvoiceID,
			&p.Amount, &p.Method, &p.Status, &p.PaidAt, &p.CreatedAt); err != nil {
			return nil, err
		}
		payments = append(payments, p)
	}
	return payments, rows.Err()
}

// SaveBillingConfig upserts a customer's billing configuration.
func (r *Repository) SaveBillingConfig(ctx context.Context, cfg BillingConfig) (*BillingConfig, error) {
	err := r.pool.QueryRow(ctx,
		`INSERT INTO billing_configs (customer_id, billing_day, billing_cycle, auto_invoice, grace_days, updated_at)
		 VALUES ($1, $2, $3, $4, $5, NOW())
		 ON CONFLICT (customer_id) DO UPDATE SET
			billing_day = EXCLUDED.billing_day,
			billing_cycle = EXCLUDED.billing_cycle,
			auto_invoice = EXCLUDED.auto_invoice,
			grace_days = EXCLUDED.grace_days,
			updated_at = NOW()
		 RETURNING updated_at`,
		cfg.CustomerID, cfg.BillingDay, cfg.BillingCycle, cfg.AutoInvoice, cfg.GraceDays,
	).Scan(&cfg.UpdatedAt)
	if err != nil {
		return nil, fmt.Errorf("billing: save config: %w", err)
	}
	return &cfg, nil
}

// GetBillingConfig fetches a customer's billing configuration.
func (r *Repository) GetBillingConfig(ctx context.Context, customerID int64) (*BillingConfig, error) {
	var cfg BillingConfig
	err := r.pool.QueryRow(ctx,
		`SELECT customer_id, billing_day, billing_cycle, auto_invoice, grace_days, updated_at
		 FROM billing_configs WHERE customer_id = $1`, customerID,
	).Scan(&cfg.CustomerID, &cfg.BillingDay, &cfg.BillingCycle, &cfg.AutoInvoice, &cfg.GraceDays, &cfg.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &cfg, nil
}

// NextInvoiceNumber allocates the next number from the invoice sequence.
// Each call draws a fresh value, so concurrent creates get distinct numbers.
func (r *Repository) NextInvoiceNumber(ctx context.Context) (string, error) {
	var n int64
	if err := r.pool.QueryRow(ctx, `SELECT nextval('invoice_number_seq')`).Scan(&n); err != nil {
		return "", fmt.Errorf("billing: next invoice number: %w", err)
	}
	return fmt.Sprintf("INV-%s-%05d", time.Now().UTC().Format("200601"), n), nil
}
