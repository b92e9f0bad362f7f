package billing

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/fiberdesk/fiberdesk/internal/shared"
)

// RepositoryPort defines data access methods for billing.
type RepositoryPort interface {
	CreateInvoice(ctx context.Context, number string, input CreateInvoiceInput, subtotal, tax, total decimal.Decimal) (*Invoice, error)
	GetInvoice(ctx context.Context, id int64) (*Invoice, error)
	ListInvoices(ctx context.Context, filter InvoiceFilter) ([]Invoice, error)
	ApplyPayment(ctx context.Context, input CreatePaymentInput) (*Payment, error)
	ApplyAdjustment(ctx context.Context, input CreateAdjustmentInput) (*Adjustment, error)
	ListPayments(ctx context.Context, customerID int64) ([]Payment, error)
	SaveBillingConfig(ctx context.Context, cfg BillingConfig) (*BillingConfig, error)
	GetBillingConfig(ctx context.Context, customerID int64) (*BillingConfig, error)
	NextInvoiceNumber(ctx context.Context) (string, error)
}

// IdempotencyPort guards replayed payment and adjustment postings.
type IdempotencyPort interface {
	CheckAndInsert(ctx context.Context, key, module string) error
	Complete(ctx context.Context, key string, entityID int64) error
	Delete(ctx context.Context, key string) error
}

// ReportInvalidator drops cached finance reports after money movements.
type ReportInvalidator interface {
	Invalidate(ctx context.Context) error
}

// Service handles billing business logic.
type Service struct {
	repo        RepositoryPort
	idempotency IdempotencyPort
	audit       *shared.AuditLogger
	reports     ReportInvalidator
}

// NewService builds Service instance.
func NewService(repo RepositoryPort, idempotency IdempotencyPort, audit *shared.AuditLogger, reports ReportInvalidator) *Service {
	return &Service{repo: repo, idempotency: idempotency, audit: audit, reports: reports}
}

func (s *Service) dropReports(ctx context.Context) {
	if s.reports != nil {
		_ = s.reports.Invalidate(ctx)
	}
}

var validStatuses = map[string]bool{
	StatusPending: true, StatusPaid: true, StatusOverdue: true, StatusCancelled: true,
}

var validCycles = map[string]bool{
	"monthly": true, "quarterly": true, "annual": true,
}

// CreateInvoice validates the lines, derives the money columns and persists
// the invoice as pending.
func (s *Service) CreateInvoice(ctx context.Context, input CreateInvoiceInput) (*Invoice, error) {
	if input.CustomerID == 0 {
		return nil, fmt.Errorf("%w: customer_id required", shared.ErrValidation)
	}
	if len(input.Lines) == 0 {
		return nil, fmt.Errorf("%w: at least one line required", shared.ErrValidation)
	}
	if input.Discount.Sign() < 0 {
		return nil, fmt.Errorf("%w: discount cannot be negative", shared.ErrValidation)
	}
	if input.TaxRate.Sign() < 0 {
		return nil, fmt.Errorf("%w: tax_rate cannot be negative", shared.ErrValidation)
	}
	if input.IssueDate.IsZero() {
		input.IssueDate = time.Now().UTC().Truncate(24 * time.Hour)
	}
	if input.DueDate.IsZero() {
		input.DueDate = input.IssueDate.AddDate(0, 0, 14)
	}
	if input.DueDate.Before(input.IssueDate) {
		return nil, fmt.Errorf("%w: due_date before issue_date", shared.ErrValidation)
	}

	subtotal := decimal.Zero
	for i, line := range input.Lines {
		if line.Description == "" {
			return nil, fmt.Errorf("%w: line %d missing description", shared.ErrValidation, i)
		}
		if line.Quantity.Sign() <= 0 || line.UnitPrice.Sign() < 0 {
			return nil, fmt.Errorf("%w: line %d has a non-positive amount", shared.ErrValidation, i)
		}
		subtotal = subtotal.Add(line.Quantity.Mul(line.UnitPrice))
	}
	taxable := subtotal.Sub(input.Discount)
	if taxable.Sign() < 0 {
		return nil, fmt.Errorf("%w: discount exceeds subtotal", shared.ErrValidation)
	}
	tax := taxable.Mul(input.TaxRate).Div(decimal.NewFromInt(100)).Round(2)
	total := taxable.Add(tax)

	number, err := s.repo.NextInvoiceNumber(ctx)
	if err != nil {
		return nil, err
	}
	inv, err := s.repo.CreateInvoice(ctx, number, input, subtotal, tax, total)
	if err != nil {
		return nil, err
	}
	s.dropReports(ctx)
	s.record(ctx, shared.AuditCreate, "invoice", fmt.Sprint(inv.ID), map[string]any{
		"number": inv.Number, "total": inv.Total.String(),
	})
	return inv, nil
}

// GetInvoice fetches one invoice.
func (s *Service) GetInvoice(ctx context.Context, id int64) (*Invoice, error) {
	inv, err := s.repo.GetInvoice(ctx, id)
	if errors.Is(err, ErrNotFound) {
		return nil, fmt.Errorf("%w: invoice %d", shared.ErrNotFound, id)
	}
	return inv, err
}

// ListInvoices returns invoices for the filter.
func (s *Service) ListInvoices(ctx context.Context, filter InvoiceFilter) ([]Invoice, error) {
	if filter.Status != "" && !validStatuses[filter.Status] {
		return nil, fmt.Errorf("%w: unknown status %q", shared.ErrValidation, filter.Status)
	}
	if !filter.From.IsZero() && !filter.To.IsZero() && filter.From.After(filter.To) {
		return nil, fmt.Errorf("%w: dateFrom after dateTo", shared.ErrValidation)
	}
	return s.repo.ListInvoices(ctx, filter)
}

// RecordPayment validates, dedupes by idempotency key and applies a payment.
// The key is mandatory so client retries can never double-post, and a
// replayed key rolls nothing forward and surfaces a conflict.
func (s *Service) RecordPayment(ctx context.Context, idempotencyKey string, input CreatePaymentInput) (*Payment, error) {
	if idempotencyKey == "" {
		return nil, fmt.Errorf("%w: Idempotency-Key header required", shared.ErrValidation)
	}
	if input.CustomerID == 0 {
		return nil, fmt.Errorf("%w: customer_id required", shared.ErrValidation)
	}
	if input.Amount.Sign() <= 0 {
		return nil, fmt.Errorf("%w: amount must be positive", shared.ErrValidation)
	}
	if !PaymentMethods[input.Method] {
		return nil, fmt.Errorf("%w: unknown payment method %q", shared.ErrValidation, input.Method)
	}
	if input.PaidAt.IsZero() {
		input.PaidAt = time.Now().UTC()
	}
	if input.Reference == "" {
		input.Reference = fmt.Sprintf("PAY-%d", time.Now().UnixNano())
	}

	if err := s.idempotency.CheckAndInsert(ctx, idempotencyKey, "billing"); err != nil {
		if errors.Is(err, shared.ErrIdempotencyConflict) {
			return nil, fmt.Errorf("%w: payment already recorded for this key", shared.ErrConflict)
		}
		return nil, err
	}

	payment, err := s.repo.ApplyPayment(ctx, input)
	if err != nil {
		_ = s.idempotency.Delete(ctx, idempotencyKey)
		return nil, mapRepoErr(err)
	}
	_ = s.idempotency.Complete(ctx, idempotencyKey, payment.ID)
	s.dropReports(ctx)
	s.record(ctx, shared.AuditCreate, "payment", fmt.Sprint(payment.ID), map[string]any{
		"customer_id": input.CustomerID, "amount": input.Amount.String(), "method": input.Method,
	})
	return payment, nil
}

// RecordAdjustment validates and applies a manual balance correction. Like
// payments, adjustments move money, so they carry a mandatory idempotency key.
func (s *Service) RecordAdjustment(ctx context.Context, idempotencyKey string, input CreateAdjustmentInput) (*Adjustment, error) {
	if idempotencyKey == "" {
		return nil, fmt.Errorf("%w: Idempotency-Key header required", shared.ErrValidation)
	}
	if input.CustomerID == 0 {
		return nil, fmt.Errorf("%w: customer_id required", shared.ErrValidation)
	}
	switch input.Type {
	case AdjustmentCredit, AdjustmentDebit, AdjustmentWriteoff:
	default:
		return nil, fmt.Errorf("%w: unknown adjustment type %q", shared.ErrValidation, input.Type)
	}
	if input.Amount.Sign() <= 0 {
		return nil, fmt.Errorf("%w: amount must be positive", shared.ErrValidation)
	}
	if input.Reason == "" {
		return nil, fmt.Errorf("%w: reason required", shared.ErrValidation)
	}
	if input.CreatedBy == 0 {
		input.CreatedBy = shared.ActorFromContext(ctx).ID
	}

	if err := s.idempotency.CheckAndInsert(ctx, idempotencyKey, "billing"); err != nil {
		if errors.Is(err, shared.ErrIdempotencyConflict) {
			return nil, fmt.Errorf("%w: adjustment already recorded for this key", shared.ErrConflict)
		}
		return nil, err
	}

	adj, err := s.repo.ApplyAdjustment(ctx, input)
	if err != nil {
		_ = s.idempotency.Delete(ctx, idempotencyKey)
		return nil, mapRepoErr(err)
	}
	_ = s.idempotency.Complete(ctx, idempotencyKey, adj.ID)
	s.dropReports(ctx)
	s.record(ctx, shared.AuditCreate, "adjustment", fmt.Sprint(adj.ID), map[string]any{
		"customer_id": input.CustomerID, "type": input.Type, "amount": input.Amount.String(),
	})
	return adj, nil
}

// ListPayments returns a customer's payment history.
func (s *Service) ListPayments(ctx context.Context, customerID int64) ([]Payment, error) {
	if customerID == 0 {
		return nil, fmt.Errorf("%w: customer_id required", shared.ErrValidation)
	}
	return s.repo.ListPayments(ctx, customerID)
}

// UpdateBillingConfig validates and upserts the per-customer configuration.
func (s *Service) UpdateBillingConfig(ctx context.Context, cfg BillingConfig) (*BillingConfig, error) {
	if cfg.CustomerID == 0 {
		return nil, fmt.Errorf("%w: customer_id required", shared.ErrValidation)
	}
	if cfg.BillingDay < 1 || cfg.BillingDay > 28 {
		return nil, fmt.Errorf("%w: billing_day must be 1-28", shared.ErrValidation)
	}
	if cfg.BillingCycle == "" {
		cfg.BillingCycle = "monthly"
	}
	if !validCycles[cfg.BillingCycle] {
		return nil, fmt.Errorf("%w: unknown billing cycle %q", shared.ErrValidation, cfg.BillingCycle)
	}
	if cfg.GraceDays < 0 {
		return nil, fmt.Errorf("%w: grace_days cannot be negative", shared.ErrValidation)
	}
	saved, err := s.repo.SaveBillingConfig(ctx, cfg)
	if err != nil {
		return nil, err
	}
	s.record(ctx, shared.AuditUpdate, "billing_config", fmt.Sprint(cfg.CustomerID), map[string]any{
		"billing_day": cfg.BillingDay, "billing_cycle": cfg.BillingCycle,
	})
	return saved, nil
}

// GetBillingConfig fetches the per-customer configuration.
func (s *Service) GetBillingConfig(ctx context.Context, customerID int64) (*BillingConfig, error) {
	cfg, err := s.repo.GetBillingConfig(ctx, customerID)
	if errors.Is(err, ErrNotFound) {
		return nil, fmt.Errorf("%w: no billing config for customer %d", shared.ErrNotFound, customerID)
	}
	return cfg, err
}

func mapRepoErr(err error) error {
	switch {
	case errors.Is(err, ErrNotFound):
		return fmt.Errorf("%w: invoice not found", shared.ErrNotFound)
	case errors.Is(err, ErrOverApplication), errors.Is(err, ErrInvoiceCancelled):
		return fmt.Errorf("%w: %v", shared.ErrConflict, err)
	default:
		return err
	}
}

func (s *Service) record(ctx context.Context, action, entity, entityID string, details map[string]any) {
	if s.audit == nil {
		return
	}
	actor := shared.ActorFromContext(ctx)
	_ = s.audit.Record(ctx, shared.AuditLog{
		ActorID:  actor.ID,
		Action:   action,
		Resource: "billing",
		Entity:   entity,
		EntityID: entityID,
		Details:  details,
		IP:       actor.IP,
	})
}
