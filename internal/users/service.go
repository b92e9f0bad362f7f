package users

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/fiberdesk/fiberdesk/internal/shared"
)

var validate = validator.New()

// RepositoryPort defines data access methods for users.
type RepositoryPort interface {
	Create(ctx context.Context, in CreateUserInput) (*User, error)
	Get(ctx context.Context, id int64) (*User, error)
	List(ctx context.Context) ([]User, error)
	Update(ctx context.Context, id int64, in UpdateUserInput) (*User, error)
	AssignRole(ctx context.Context, userID, roleID int64) error
	RemoveRole(ctx context.Context, userID, roleID int64) error
}

// Service handles user administration.
type Service struct {
	repo  RepositoryPort
	audit *shared.AuditLogger
}

// NewService builds Service instance.
func NewService(repo RepositoryPort, audit *shared.AuditLogger) *Service {
	return &Service{repo: repo, audit: audit}
}

// Create registers a new staff account.
func (s *Service) Create(ctx context.Context, in CreateUserInput) (*User, error) {
	in.Email = strings.ToLower(strings.TrimSpace(in.Email))
	in.Name = strings.TrimSpace(in.Name)
	if err := validate.Var(in.Email, "required,email"); err != nil {
		return nil, fmt.Errorf("%w: a valid email is required", shared.ErrValidation)
	}
	if in.Name == "" {
		return nil, fmt.Errorf("%w: name is required", shared.ErrValidation)
	}
	user, err := s.repo.Create(ctx, in)
	if err != nil {
		return nil, mapRepoErr(err)
	}
	s.record(ctx, shared.AuditCreate, fmt.Sprint(user.ID), map[string]any{"email": user.Email})
	return user, nil
}

// Get returns one account.
func (s *Service) Get(ctx context.Context, id int64) (*User, error) {
	user, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, mapRepoErr(err)
	}
	return user, nil
}

// List returns all accounts.
func (s *Service) List(ctx context.Context) ([]User, error) {
	return s.repo.List(ctx)
}

// Update applies partial changes to an account.
func (s *Service) Update(ctx context.Context, id int64, in UpdateUserInput) (*User, error) {
	if in.Email != nil {
		email := strings.ToLower(strings.TrimSpace(*in.Email))
		if err := validate.Var(email, "required,email"); err != nil {
			return nil, fmt.Errorf("%w: a valid email is required", shared.ErrValidation)
		}
		in.Email = &email
	}
	if in.Name != nil && strings.TrimSpace(*in.Name) == "" {
		return nil, fmt.Errorf("%w: name cannot be blank", shared.ErrValidation)
	}
	if in.Email == nil && in.Name == nil && in.IsActive == nil {
		return nil, fmt.Errorf("%w: no fields to update", shared.ErrValidation)
	}
	user, err := s.repo.Update(ctx, id, in)
	if err != nil {
		return nil, mapRepoErr(err)
	}
	s.record(ctx, shared.AuditUpdate, fmt.Sprint(id), nil)
	return user, nil
}

// AssignRole grants a role to an account.
func (s *Service) AssignRole(ctx context.Context, userID, roleID int64) (*User, error) {
	if _, err := s.repo.Get(ctx, userID); err != nil {
		return nil, mapRepoErr(err)
	}
	if err := s.repo.AssignRole(ctx, userID, roleID); err != nil {
		return nil, mapRepoErr(err)
	}
	s.record(ctx, shared.AuditUpdate, fmt.Sprint(userID), map[string]any{"role_id": roleID, "change": "assign"})
	return s.Get(ctx, userID)
}

// RemoveRole revokes a role from an account.
func (s *Service) RemoveRole(ctx context.Context, userID, roleID int64) (*User, error) {
	if _, err := s.repo.Get(ctx, userID); err != nil {
		return nil, mapRepoErr(err)
	}
	if err := s.repo.RemoveRole(ctx, userID, roleID); err != nil {
		return nil, mapRepoErr(err)
	}
	s.record(ctx, shared.AuditUpdate, fmt.Sprint(userID), map[string]any{"role_id": roleID, "change": "remove"})
	return s.Get(ctx, userID)
}

func (s *Service) record(ctx context.Context, action, entityID string, details map[string]any) {
	if s.audit == nil {
		return
	}
	actor := shared.ActorFromContext(ctx)
	_ = s.audit.Record(ctx, shared.AuditLog{
		ActorID:  actor.ID,
		Action:   action,
		Resource: "users",
		Entity:   "user",
		EntityID: entityID,
		Details:  details,
		IP:       actor.IP,
	})
}

func mapRepoErr(err error) error {
	switch {
	case errors.Is(err, ErrNotFound):
		return fmt.Errorf("%w: %v", shared.ErrNotFound, err)
	case errors.Is(err, ErrEmailTaken):
		return fmt.Errorf("%w: %v", shared.ErrConflict, err)
	default:
		return err
	}
}
