package roles

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/fiberdesk/fiberdesk/internal/shared"
	_ "github.com/fiberdesk/fiberdesk/testing"
)

type mockRepo struct {
	nextID   int64
	roles    map[int64]*Role
	assigned map[int64]int
}

func newMockRepo() *mockRepo {
	return &mockRepo{roles: map[int64]*Role{}, assigned: map[int64]int{}}
}

func (m *mockRepo) Create(_ context.Context, in RoleInput) (*Role, error) {
	for _, role := range m.roles {
		if role.Name == in.Name {
			return nil, ErrNameTaken
		}
	}
	m.nextID++
	role := &Role{ID: m.nextID, Name: in.Name, Description: in.Description, Permissions: in.Permissions, CreatedAt: time.Now(), UpdatedAt: time.Now()}
	m.roles[role.ID] = role
	return role, nil
}

func (m *mockRepo) Get(_ context.Context, id int64) (*Role, error) {
	role, ok := m.roles[id]
	if !ok {
		return nil, ErrNotFound
	}
	return role, nil
}

func (m *mockRepo) List(context.Context) ([]Role, error) {
	out := []Role{}
	for _, role := range m.roles {
		out = append(out, *role)
	}
	return out, nil
}

func (m *mockRepo) Update(_ context.Context, id int64, in RoleInput) (*Role, error) {
	role, ok := m.roles[id]
	if !ok {
		return nil, ErrNotFound
	}
	role.Name = in.Name
	role.Description = in.Description
	role.Permissions = in.Permissions
	return role, nil
}

func (m *mockRepo) Delete(_ context.Context, id int64) error {
	if _, ok := m.roles[id]; !ok {
		return ErrNotFound
	}
	if m.assigned[id] > 0 {
		return ErrRoleAssigned
	}
	delete(m.roles, id)
	return nil
}

func TestCreateRoleDeduplicatesPermissions(t *testing.T) {
	svc := NewService(newMockRepo(), nil)

	role, err := svc.Create(context.Background(), RoleInput{
		Name:        "accountant",
		Permissions: []string{"finance.view", "finance.edit", "finance.view"},
	})
	require.NoError(t, err)
	require.Equal(t, []string{"finance.view", "finance.edit"}, role.Permissions)
}

func TestCreateRoleRejectsMalformedPermission(t *testing.T) {
	svc := NewService(newMockRepo(), nil)

	_, err := svc.Create(context.Background(), RoleInput{
		Name:        "accountant",
		Permissions: []string{"Finance View"},
	})
	require.ErrorIs(t, err, shared.ErrValidation)
}

func TestDuplicateRoleNameConflicts(t *testing.T) {
	svc := NewService(newMockRepo(), nil)

	_, err := svc.Create(context.Background(), RoleInput{Name: "admin"})
	require.NoError(t, err)
	_, err = svc.Create(context.Background(), RoleInput{Name: "admin"})
	require.ErrorIs(t, err, shared.ErrConflict)
}

func TestAssignedRoleCannotBeDeleted(t *testing.T) {
	repo := newMockRepo()
	svc := NewService(repo, nil)

	role, err := svc.Create(context.Background(), RoleInput{Name: "admin"})
	require.NoError(t, err)
	repo.assigned[role.ID] = 2

	err = svc.Delete(context.Background(), role.ID)
	require.ErrorIs(t, err, shared.ErrConflict)

	repo.assigned[role.ID] = 0
	require.NoError(t, svc.Delete(context.Background(), role.ID))
	_, err = svc.Get(context.Background(), role.ID)
	require.ErrorIs(t, err, shared.ErrNotFound)
}
