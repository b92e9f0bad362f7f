package plans

import (
	"context"
	"errors"
	"fmt"

	"github.com/fiberdesk/fiberdesk/internal/shared"
)

// RepositoryPort defines data access methods for plans.
type RepositoryPort interface {
	Create(ctx context.Context, p *Plan) (*Plan, error)
	Get(ctx context.Context, id int64) (*Plan, error)
	List(ctx context.Context, activeOnly bool) ([]Plan, error)
	Update(ctx context.Context, id int64, p *Plan) (*Plan, error)
	SetStatus(ctx context.Context, id int64, status string) error
}

// Service handles service plan business logic.
type Service struct {
	repo  RepositoryPort
	audit *shared.AuditLogger
}

// NewService builds Service instance.
func NewService(repo RepositoryPort, audit *shared.AuditLogger) *Service {
	return &Service{repo: repo, audit: audit}
}

var validCycles = map[string]bool{"monthly": true, "quarterly": true, "annual": true}

func validate(input PlanInput) (*Plan, error) {
	if input.Name == "" {
		return nil, fmt.Errorf("%w: name required", shared.ErrValidation)
	}
	if input.MonthlyPrice.Sign() < 0 || input.SetupFee.Sign() < 0 {
		return nil, fmt.Errorf("%w: prices cannot be negative", shared.ErrValidation)
	}
	if input.PromoPrice != nil && input.PromoPrice.GreaterThan(input.MonthlyPrice) {
		return nil, fmt.Errorf("%w: promo price above monthly price", shared.ErrValidation)
	}
	if input.TaxRate.Sign() < 0 {
		return nil, fmt.Errorf("%w: tax_rate cannot be negative", shared.ErrValidation)
	}
	if input.BillingCycle == "" {
		input.BillingCycle = "monthly"
	}
	if !validCycles[input.BillingCycle] {
		return nil, fmt.Errorf("%w: unknown billing cycle %q", shared.ErrValidation, input.BillingCycle)
	}
	switch input.Status {
	case "":
		input.Status = StatusActive
	case StatusActive, StatusInactive:
	default:
		return nil, fmt.Errorf("%w: unknown status %q", shared.ErrValidation, input.Status)
	}
	if input.Speed.DownloadMbps < 0 || input.Speed.UploadMbps < 0 {
		return nil, fmt.Errorf("%w: speeds cannot be negative", shared.ErrValidation)
	}
	if input.FUP.Enabled && input.FUP.MonthlyCapGB <= 0 {
		return nil, fmt.Errorf("%w: fair-use cap required when FUP is enabled", shared.ErrValidation)
	}

	return &Plan{
		Name: input.Name, Description: input.Description, Status: input.Status,
		BillingCycle: input.BillingCycle, MonthlyPrice: input.MonthlyPrice,
		SetupFee: input.SetupFee, PromoPrice: input.PromoPrice,
		TaxRate: input.TaxRate, TaxInclusive: input.TaxInclusive,
		Speed: input.Speed, FUP: input.FUP, QoS: input.QoS,
		Advanced: input.Advanced, Restrictions: input.Restrictions,
	}, nil
}

// Create validates and persists a plan.
func (s *Service) Create(ctx context.Context, input PlanInput) (*Plan, error) {
	p, err := validate(input)
	if err != nil {
		return nil, err
	}
	created, err := s.repo.Create(ctx, p)
	if err != nil {
		return nil, err
	}
	s.record(ctx, shared.AuditCreate, created.ID, map[string]any{"name": created.Name})
	return created, nil
}

// Get fetches one plan.
func (s *Service) Get(ctx context.Context, id int64) (*Plan, error) {
	p, err := s.repo.Get(ctx, id)
	if errors.Is(err, ErrNotFound) {
		return nil, fmt.Errorf("%w: plan %d", shared.ErrNotFound, id)
	}
	return p, err
}

// List returns plans.
func (s *Service) List(ctx context.Context, activeOnly bool) ([]Plan, error) {
	return s.repo.List(ctx, activeOnly)
}

// Update validates and replaces a plan.
func (s *Service) Update(ctx context.Context, id int64, input PlanInput) (*Plan, error) {
	p, err := validate(input)
	if err != nil {
		return nil, err
	}
	updated, err := s.repo.Update(ctx, id, p)
	if errors.Is(err, ErrNotFound) {
		return nil, fmt.Errorf("%w: plan %d", shared.ErrNotFound, id)
	}
	if err != nil {
		return nil, err
	}
	s.record(ctx, shared.AuditUpdate, id, nil)
	return updated, nil
}

// SetStatus toggles a plan between active and inactive. There is no delete.
func (s *Service) SetStatus(ctx context.Context, id int64, status string) error {
	if status != StatusActive && status != StatusInactive {
		return fmt.Errorf("%w: unknown status %q", shared.ErrValidation, status)
	}
	err := s.repo.SetStatus(ctx, id, status)
	if errors.Is(err, ErrNotFound) {
		return fmt.Errorf("%w: plan %d", shared.ErrNotFound, id)
	}
	if err != nil {
		return err
	}
	s.record(ctx, shared.AuditUpdate, id, map[string]any{"status": status})
	return nil
}

func (s *Service) record(ctx context.Context, action string, id int64, details map[string]any) {
	if s.audit == nil {
		return
	}
	actor := shared.ActorFromContext(ctx)
	_ = s.audit.Record(ctx, shared.AuditLog{
		ActorID:  actor.ID,
		Action:   action,
		Resource: "plans",
		Entity:   "service_plan",
		EntityID: fmt.Sprint(id),
		Details:  details,
		IP:       actor.IP,
	})
}
