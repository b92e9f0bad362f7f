package expenses

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/fiberdesk/fiberdesk/internal/shared"
)

// RepositoryPort defines data access methods for expenses.
type RepositoryPort interface {
	ListCategories(ctx context.Context) ([]Category, error)
	CreateCategory(ctx context.Context, name, description string) (*Category, error)
	CreateExpense(ctx context.Context, input CreateExpenseInput) (*Expense, error)
	GetExpense(ctx context.Context, id int64) (*Expense, error)
	ListExpenses(ctx context.Context, filter ExpenseFilter) ([]Expense, error)
	UpdateExpense(ctx context.Context, id int64, input UpdateExpenseInput) (*Expense, error)
	DeleteExpense(ctx context.Context, id int64) error
	CreateSupplierInvoice(ctx context.Context, input CreateSupplierInvoiceInput) (*SupplierInvoice, error)
	ListSupplierInvoices(ctx context.Context, unpaidOnly bool) ([]SupplierInvoice, error)
	PaySupplierInvoice(ctx context.Context, id int64, amount decimal.Decimal, method string, paidAt time.Time) (*SupplierInvoice, error)
	Payables(ctx context.Context, asOf time.Time) (*PayablesSummary, error)
}

// ReportInvalidator drops cached finance reports after spending changes.
type ReportInvalidator interface {
	Invalidate(ctx context.Context) error
}

// Service handles expense and accounts payable business logic.
type Service struct {
	repo    RepositoryPort
	audit   *shared.AuditLogger
	reports ReportInvalidator
}

// NewService builds Service instance.
func NewService(repo RepositoryPort, audit *shared.AuditLogger, reports ReportInvalidator) *Service {
	return &Service{repo: repo, audit: audit, reports: reports}
}

func (s *Service) dropReports(ctx context.Context) {
	if s.reports != nil {
		_ = s.reports.Invalidate(ctx)
	}
}

// ListCategories returns all categories.
func (s *Service) ListCategories(ctx context.Context) ([]Category, error) {
	return s.repo.ListCategories(ctx)
}

// CreateCategory validates and persists a category.
func (s *Service) CreateCategory(ctx context.Context, name, description string) (*Category, error) {
	if name == "" {
		return nil, fmt.Errorf("%w: name required", shared.ErrValidation)
	}
	cat, err := s.repo.CreateCategory(ctx, name, description)
	if err != nil {
		return nil, err
	}
	s.record(ctx, shared.AuditCreate, "category", fmt.Sprint(cat.ID), map[string]any{"name": name})
	return cat, nil
}

// CreateExpense validates and records an expense. Status defaults to paid.
func (s *Service) CreateExpense(ctx context.Context, input CreateExpenseInput) (*Expense, error) {
	if input.CategoryID == 0 {
		return nil, fmt.Errorf("%w: category_id required", shared.ErrValidation)
	}
	if input.Description == "" {
		return nil, fmt.Errorf("%w: description required", shared.ErrValidation)
	}
	if input.Amount.Sign() <= 0 {
		return nil, fmt.Errorf("%w: amount must be positive", shared.ErrValidation)
	}
	if input.ExpenseDate.IsZero() {
		input.ExpenseDate = time.Now().UTC().Truncate(24 * time.Hour)
	}
	if input.PaymentMethod == "" {
		input.PaymentMethod = "bank"
	}
	switch input.Status {
	case "":
		input.Status = StatusPaid
	case StatusPaid, StatusPending, StatusApproved:
	default:
		return nil, fmt.Errorf("%w: unknown status %q", shared.ErrValidation, input.Status)
	}

	exp, err := s.repo.CreateExpense(ctx, input)
	if err != nil {
		return nil, err
	}
	s.dropReports(ctx)
	s.record(ctx, shared.AuditCreate, "expense", fmt.Sprint(exp.ID), map[string]any{
		"category_id": input.CategoryID, "amount": input.Amount.String(),
	})
	return exp, nil
}

// GetExpense fetches one expense.
func (s *Service) GetExpense(ctx context.Context, id int64) (*Expense, error) {
	exp, err := s.repo.GetExpense(ctx, id)
	if errors.Is(err, ErrNotFound) {
		return nil, fmt.Errorf("%w: expense %d", shared.ErrNotFound, id)
	}
	return exp, err
}

// ListExpenses returns expenses matching the filter.
func (s *Service) ListExpenses(ctx context.Context, filter ExpenseFilter) ([]Expense, error) {
	if filter.Status != "" && filter.Status != StatusPaid && filter.Status != StatusPending && filter.Status != StatusApproved {
		return nil, fmt.Errorf("%w: unknown status %q", shared.ErrValidation, filter.Status)
	}
	if !filter.From.IsZero() && !filter.To.IsZero() && filter.From.After(filter.To) {
		return nil, fmt.Errorf("%w: dateFrom after dateTo", shared.ErrValidation)
	}
	return s.repo.ListExpenses(ctx, filter)
}

// UpdateExpense applies a partial update.
func (s *Service) UpdateExpense(ctx context.Context, id int64, input UpdateExpenseInput) (*Expense, error) {
	if input.Amount != nil && input.Amount.Sign() <= 0 {
		return nil, fmt.Errorf("%w: amount must be positive", shared.ErrValidation)
	}
	if input.Status != nil && *input.Status != StatusPaid && *input.Status != StatusPending && *input.Status != StatusApproved {
		return nil, fmt.Errorf("%w: unknown status %q", shared.ErrValidation, *input.Status)
	}
	if input.Description != nil && *input.Description == "" {
		return nil, fmt.Errorf("%w: description cannot be empty", shared.ErrValidation)
	}
	exp, err := s.repo.UpdateExpense(ctx, id, input)
	if errors.Is(err, ErrNotFound) {
		return nil, fmt.Errorf("%w: expense %d", shared.ErrNotFound, id)
	}
	if err != nil {
		return nil, err
	}
	s.dropReports(ctx)
	s.record(ctx, shared.AuditUpdate, "expense", fmt.Sprint(id), nil)
	return exp, nil
}

// DeleteExpense removes an expense.
func (s *Service) DeleteExpense(ctx context.Context, id int64) error {
	err := s.repo.DeleteExpense(ctx, id)
	if errors.Is(err, ErrNotFound) {
		return fmt.Errorf("%w: expense %d", shared.ErrNotFound, id)
	}
	if err != nil {
		return err
	}
	s.dropReports(ctx)
	s.record(ctx, shared.AuditDelete, "expense", fmt.Sprint(id), nil)
	return nil
}

// CreateSupplierInvoice validates and records a vendor bill.
func (s *Service) CreateSupplierInvoice(ctx context.Context, input CreateSupplierInvoiceInput) (*SupplierInvoice, error) {
	if input.Number == "" || input.Vendor == "" {
		return nil, fmt.Errorf("%w: number and vendor required", shared.ErrValidation)
	}
	if input.Amount.Sign() <= 0 {
		return nil, fmt.Errorf("%w: amount must be positive", shared.ErrValidation)
	}
	if input.IssueDate.IsZero() {
		input.IssueDate = time.Now().UTC().Truncate(24 * time.Hour)
	}
	if input.DueDate.IsZero() {
		input.DueDate = input.IssueDate.AddDate(0, 0, 30)
	}
	si, err := s.repo.CreateSupplierInvoice(ctx, input)
	if err != nil {
		return nil, err
	}
	s.dropReports(ctx)
	s.record(ctx, shared.AuditCreate, "supplier_invoice", fmt.Sprint(si.ID), map[string]any{
		"vendor": input.Vendor, "amount": input.Amount.String(),
	})
	return si, nil
}

// ListSupplierInvoices returns vendor bills.
func (s *Service) ListSupplierInvoices(ctx context.Context, unpaidOnly bool) ([]SupplierInvoice, error) {
	return s.repo.ListSupplierInvoices(ctx, unpaidOnly)
}

// PaySupplierInvoice applies a payout against a vendor bill.
func (s *Service) PaySupplierInvoice(ctx context.Context, id int64, amount decimal.Decimal, method string, paidAt time.Time) (*SupplierInvoice, error) {
	if amount.Sign() <= 0 {
		return nil, fmt.Errorf("%w: amount must be positive", shared.ErrValidation)
	}
	if method == "" {
		method = "bank"
	}
	if paidAt.IsZero() {
		paidAt = time.Now().UTC()
	}
	si, err := s.repo.PaySupplierInvoice(ctx, id, amount, method, paidAt)
	if errors.Is(err, ErrNotFound) {
		return nil, fmt.Errorf("%w: supplier invoice %d", shared.ErrNotFound, id)
	}
	if err != nil {
		return nil, err
	}
	s.dropReports(ctx)
	s.record(ctx, shared.AuditUpdate, "supplier_invoice", fmt.Sprint(id), map[string]any{
		"payout": amount.String(),
	})
	return si, nil
}

// Payables rolls up outstanding vendor bills.
func (s *Service) Payables(ctx context.Context) (*PayablesSummary, error) {
	return s.repo.Payables(ctx, time.Now().UTC())
}

func (s *Service) record(ctx context.Context, action, entity, entityID string, details map[string]any) {
	if s.audit == nil {
		return
	}
	actor := shared.ActorFromContext(ctx)
	_ = s.audit.Record(ctx, shared.AuditLog{
		ActorID:  actor.ID,
		Action:   action,
		Resource: "expenses",
		Entity:   entity,
		EntityID: entityID,
		Details:  details,
		IP:       actor.IP,
	})
}
