package budgets

import (
	"context"
	"errors"
	"fmt"
	"regexp"

	"github.com/shopspring/decimal"

	"github.com/fiberdesk/fiberdesk/internal/shared"
)

// RepositoryPort defines data access methods for budgets.
type RepositoryPort interface {
	Upsert(ctx context.Context, input UpsertBudgetInput) (*Budget, error)
	ListByPeriod(ctx context.Context, period string) ([]Budget, error)
	Delete(ctx context.Context, id int64) error
	ActualsByCategory(ctx context.Context, period string) (map[int64]decimal.Decimal, error)
}

// Service handles budget planning and variance analysis.
type Service struct {
	repo  RepositoryPort
	audit *shared.AuditLogger
}

// NewService builds Service instance.
func NewService(repo RepositoryPort, audit *shared.AuditLogger) *Service {
	return &Service{repo: repo, audit: audit}
}

var periodPattern = regexp.MustCompile(`^\d{4}-(0[1-9]|1[0-2])$`)

// Upsert validates and sets a category budget for a period.
func (s *Service) Upsert(ctx context.Context, input UpsertBudgetInput) (*Budget, error) {
	if input.CategoryID == 0 {
		return nil, fmt.Errorf("%w: category_id required", shared.ErrValidation)
	}
	if !periodPattern.MatchString(input.Period) {
		return nil, fmt.Errorf("%w: period must be YYYY-MM", shared.ErrValidation)
	}
	if input.BudgetedAmount.Sign() < 0 {
		return nil, fmt.Errorf("%w: budgeted_amount cannot be negative", shared.ErrValidation)
	}
	b, err := s.repo.Upsert(ctx, input)
	if err != nil {
		return nil, err
	}
	if s.audit != nil {
		actor := shared.ActorFromContext(ctx)
		_ = s.audit.Record(ctx, shared.AuditLog{
			ActorID:  actor.ID,
			Action:   shared.AuditUpdate,
			Resource: "budgets",
			Entity:   "budget",
			EntityID: fmt.Sprint(b.ID),
			Details:  map[string]any{"period": input.Period, "amount": input.BudgetedAmount.String()},
			IP:       actor.IP,
		})
	}
	return b, nil
}

// List returns the budgets for a period.
func (s *Service) List(ctx context.Context, period string) ([]Budget, error) {
	if !periodPattern.MatchString(period) {
		return nil, fmt.Errorf("%w: period must be YYYY-MM", shared.ErrValidation)
	}
	return s.repo.ListByPeriod(ctx, period)
}

// Delete removes a budget row.
func (s *Service) Delete(ctx context.Context, id int64) error {
	err := s.repo.Delete(ctx, id)
	if errors.Is(err, ErrNotFound) {
		return fmt.Errorf("%w: budget %d", shared.ErrNotFound, id)
	}
	return err
}

// Variance compares each budgeted category against its actual spend for the
// period. Categories with spend but no budget line are excluded; they have no
// plan to compare against.
func (s *Service) Variance(ctx context.Context, period string) (*VarianceReport, error) {
	if !periodPattern.MatchString(period) {
		return nil, fmt.Errorf("%w: period must be YYYY-MM", shared.ErrValidation)
	}
	budgets, err := s.repo.ListByPeriod(ctx, period)
	if err != nil {
		return nil, err
	}
	actuals, err := s.repo.ActualsByCategory(ctx, period)
	if err != nil {
		return nil, err
	}

	report := &VarianceReport{
		Period:        period,
		TotalBudgeted: decimal.Zero,
		TotalActual:   decimal.Zero,
		Lines:         make([]VarianceLine, 0, len(budgets)),
	}
	for _, b := range budgets {
		actual := actuals[b.CategoryID]
		line := buildVarianceLine(b, actual)
		report.TotalBudgeted = report.TotalBudgeted.Add(b.BudgetedAmount)
		report.TotalActual = report.TotalActual.Add(actual)
		report.Lines = append(report.Lines, line)
	}
	return report, nil
}
