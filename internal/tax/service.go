package tax

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/fiberdesk/fiberdesk/internal/shared"
)

// RepositoryPort defines data access methods for tax records.
type RepositoryPort interface {
	Create(ctx context.Context, input CreateRecordInput) (*Record, error)
	Get(ctx context.Context, id int64) (*Record, error)
	List(ctx context.Context, filter RecordFilter) ([]Record, error)
	UpdateStatus(ctx context.Context, id int64, input UpdateStatusInput) (*Record, error)
	Delete(ctx context.Context, id int64) error
	OpenObligations(ctx context.Context) ([]Record, error)
}

// Service handles tax compliance business logic.
type Service struct {
	repo  RepositoryPort
	audit *shared.AuditLogger
}

// NewService builds Service instance.
func NewService(repo RepositoryPort, audit *shared.AuditLogger) *Service {
	return &Service{repo: repo, audit: audit}
}

var validStatuses = map[string]bool{
	StatusPending: true, StatusFiled: true, StatusPaid: true, StatusOverdue: true,
}

// Allowed lifecycle moves. Overdue is derived, so pending covers it here.
var statusTransitions = map[string][]string{
	StatusPending: {StatusFiled, StatusPaid},
	StatusOverdue: {StatusFiled, StatusPaid},
	StatusFiled:   {StatusPaid},
}

// Create validates and records a tax obligation.
func (s *Service) Create(ctx context.Context, input CreateRecordInput) (*Record, error) {
	if !TaxTypes[input.TaxType] {
		return nil, fmt.Errorf("%w: unknown tax type %q", shared.ErrValidation, input.TaxType)
	}
	if input.Period == "" {
		return nil, fmt.Errorf("%w: period required", shared.ErrValidation)
	}
	if input.AmountDue.Sign() < 0 {
		return nil, fmt.Errorf("%w: amount_due cannot be negative", shared.ErrValidation)
	}
	if input.Penalty.Sign() < 0 {
		return nil, fmt.Errorf("%w: penalty cannot be negative", shared.ErrValidation)
	}
	if input.DueDate.IsZero() {
		return nil, fmt.Errorf("%w: due_date required", shared.ErrValidation)
	}
	rec, err := s.repo.Create(ctx, input)
	if err != nil {
		return nil, err
	}
	s.record(ctx, shared.AuditCreate, rec.ID, map[string]any{
		"tax_type": input.TaxType, "period": input.Period, "amount_due": input.AmountDue.String(),
	})
	return rec, nil
}

// Get fetches one record.
func (s *Service) Get(ctx context.Context, id int64) (*Record, error) {
	rec, err := s.repo.Get(ctx, id)
	if errors.Is(err, ErrNotFound) {
		return nil, fmt.Errorf("%w: tax record %d", shared.ErrNotFound, id)
	}
	return rec, err
}

// List returns records matching the filter.
func (s *Service) List(ctx context.Context, filter RecordFilter) ([]Record, error) {
	if filter.Status != "" && !validStatuses[filter.Status] {
		return nil, fmt.Errorf("%w: unknown status %q", shared.ErrValidation, filter.Status)
	}
	if filter.TaxType != "" && !TaxTypes[filter.TaxType] {
		return nil, fmt.Errorf("%w: unknown tax type %q", shared.ErrValidation, filter.TaxType)
	}
	return s.repo.List(ctx, filter)
}

// UpdateStatus validates the lifecycle move and applies it. Filing without an
// explicit filed_at stamps today.
func (s *Service) UpdateStatus(ctx context.Context, id int64, input UpdateStatusInput) (*Record, error) {
	if !validStatuses[input.Status] {
		return nil, fmt.Errorf("%w: unknown status %q", shared.ErrValidation, input.Status)
	}
	if input.Status == StatusOverdue {
		return nil, fmt.Errorf("%w: overdue is derived and cannot be set", shared.ErrValidation)
	}
	if input.Penalty != nil && input.Penalty.Sign() < 0 {
		return nil, fmt.Errorf("%w: penalty cannot be negative", shared.ErrValidation)
	}

	current, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	allowed := false
	for _, next := range statusTransitions[current.Status] {
		if next == input.Status {
			allowed = true
			break
		}
	}
	if !allowed {
		return nil, fmt.Errorf("%w: cannot move %s record to %s", shared.ErrConflict, current.Status, input.Status)
	}
	if input.Status == StatusFiled && input.FiledAt == nil {
		today := time.Now().UTC().Truncate(24 * time.Hour)
		input.FiledAt = &today
	}

	rec, err := s.repo.UpdateStatus(ctx, id, input)
	if errors.Is(err, ErrNotFound) {
		return nil, fmt.Errorf("%w: tax record %d", shared.ErrNotFound, id)
	}
	if err != nil {
		return nil, err
	}
	s.record(ctx, shared.AuditUpdate, id, map[string]any{
		"from": current.Status, "to": input.Status,
	})
	return rec, nil
}

// Delete removes a record.
func (s *Service) Delete(ctx context.Context, id int64) error {
	err := s.repo.Delete(ctx, id)
	if errors.Is(err, ErrNotFound) {
		return fmt.Errorf("%w: tax record %d", shared.ErrNotFound, id)
	}
	if err != nil {
		return err
	}
	s.record(ctx, shared.AuditDelete, id, nil)
	return nil
}

// ComplianceStatus rolls up open obligations: compliant when none, at_risk
// when only pending, non_compliant once anything is overdue.
func (s *Service) ComplianceStatus(ctx context.Context) (*Compliance, error) {
	obligations, err := s.repo.OpenObligations(ctx)
	if err != nil {
		return nil, err
	}
	c := &Compliance{TotalDue: decimal.Zero, Obligations: obligations}
	for _, rec := range obligations {
		c.TotalDue = c.TotalDue.Add(rec.TotalDue())
		switch rec.Status {
		case StatusOverdue:
			c.OverdueCount++
		case StatusPending:
			c.PendingCount++
		}
	}
	switch {
	case c.OverdueCount > 0:
		c.Status = "non_compliant"
	case c.PendingCount > 0:
		c.Status = "at_risk"
	default:
		c.Status = "compliant"
	}
	return c, nil
}

func (s *Service) record(ctx context.Context, action string, id int64, details map[string]any) {
	if s.audit == nil {
		return
	}
	actor := shared.ActorFromContext(ctx)
	_ = s.audit.Record(ctx, shared.AuditLog{
		ActorID:  actor.ID,
		Action:   action,
		Resource: "tax",
		Entity:   "tax_record",
		EntityID: fmt.Sprint(id),
		Details:  details,
		IP:       actor.IP,
	})
}
