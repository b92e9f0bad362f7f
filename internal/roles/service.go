package roles

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"

	"github.com/fiberdesk/fiberdesk/internal/shared"
)

// Permission strings are dotted resource.verb pairs, e.g. "finance.view".
var permissionPattern = regexp.MustCompile(`^[a-z][a-z0-9_]*\.[a-z][a-z0-9_]*$`)

// RepositoryPort defines data access methods for roles.
type RepositoryPort interface {
	Create(ctx context.Context, in RoleInput) (*Role, error)
	Get(ctx context.Context, id int64) (*Role, error)
	List(ctx context.Context) ([]Role, error)
	Update(ctx context.Context, id int64, in RoleInput) (*Role, error)
	Delete(ctx context.Context, id int64) error
}

// Service handles role administration.
type Service struct {
	repo  RepositoryPort
	audit *shared.AuditLogger
}

// NewService builds Service instance.
func NewService(repo RepositoryPort, audit *shared.AuditLogger) *Service {
	return &Service{repo: repo, audit: audit}
}

// Create adds a new role with its permission grants.
func (s *Service) Create(ctx context.Context, in RoleInput) (*Role, error) {
	if err := validate(&in); err != nil {
		return nil, err
	}
	role, err := s.repo.Create(ctx, in)
	if err != nil {
		return nil, mapRepoErr(err)
	}
	s.record(ctx, shared.AuditCreate, fmt.Sprint(role.ID), map[string]any{"name": role.Name})
	return role, nil
}

// Get returns one role.
func (s *Service) Get(ctx context.Context, id int64) (*Role, error) {
	role, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, mapRepoErr(err)
	}
	return role, nil
}

// List returns all roles.
func (s *Service) List(ctx context.Context) ([]Role, error) {
	return s.repo.List(ctx)
}

// Update replaces a role definition.
func (s *Service) Update(ctx context.Context, id int64, in RoleInput) (*Role, error) {
	if err := validate(&in); err != nil {
		return nil, err
	}
	role, err := s.repo.Update(ctx, id, in)
	if err != nil {
		return nil, mapRepoErr(err)
	}
	s.record(ctx, shared.AuditUpdate, fmt.Sprint(id), map[string]any{"name": in.Name})
	return role, nil
}

// Delete removes a role that has no user assignments.
func (s *Service) Delete(ctx context.Context, id int64) error {
	if err := s.repo.Delete(ctx, id); err != nil {
		return mapRepoErr(err)
	}
	s.record(ctx, shared.AuditDelete, fmt.Sprint(id), nil)
	return nil
}

func validate(in *RoleInput) error {
	in.Name = strings.TrimSpace(in.Name)
	if in.Name == "" {
		return fmt.Errorf("%w: name is required", shared.ErrValidation)
	}
	seen := map[string]bool{}
	perms := make([]string, 0, len(in.Permissions))
	for _, perm := range in.Permissions {
		perm = strings.TrimSpace(perm)
		if !permissionPattern.MatchString(perm) {
			return fmt.Errorf("%w: invalid permission %q", shared.ErrValidation, perm)
		}
		if !seen[perm] {
			seen[perm] = true
			perms = append(perms, perm)
		}
	}
	in.Permissions = perms
	return nil
}

func (s *Service) record(ctx context.Context, action, entityID string, details map[string]any) {
	if s.audit == nil {
		return
	}
	actor := shared.ActorFromContext(ctx)
	_ = s.audit.Record(ctx, shared.AuditLog{
		ActorID:  actor.ID,
		Action:   action,
		Resource: "roles",
		Entity:   "role",
		EntityID: entityID,
		Details:  details,
		IP:       actor.IP,
	})
}

func mapRepoErr(err error) error {
	switch {
	case errors.Is(err, ErrNotFound):
		return fmt.Errorf("%w: %v", shared.ErrNotFound, err)
	case errors.Is(err, ErrNameTaken), errors.Is(err, ErrRoleAssigned):
		return fmt.Errorf("%w: %v", shared.ErrConflict, err)
	default:
		return err
	}
}
