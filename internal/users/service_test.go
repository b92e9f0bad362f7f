package users

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/fiberdesk/fiberdesk/internal/shared"
	_ "github.com/fiberdesk/fiberdesk/testing"
)

type mockRepo struct {
	nextID int64
	users  map[int64]*User
	roles  map[int64]map[int64]string
}

func newMockRepo() *mockRepo {
	return &mockRepo{users: map[int64]*User{}, roles: map[int64]map[int64]string{}}
}

func (m *mockRepo) Create(_ context.Context, in CreateUserInput) (*User, error) {
	for _, u := range m.users {
		if u.Email == in.Email {
			return nil, ErrEmailTaken
		}
	}
	m.nextID++
	u := &User{ID: m.nextID, Email: in.Email, Name: in.Name, IsActive: true, Roles: []string{}, CreatedAt: time.Now(), UpdatedAt: time.Now()}
	m.users[u.ID] = u
	return m.snapshot(u.ID), nil
}

func (m *mockRepo) Get(_ context.Context, id int64) (*User, error) {
	if _, ok := m.users[id]; !ok {
		return nil, ErrNotFound
	}
	return m.snapshot(id), nil
}

func (m *mockRepo) List(context.Context) ([]User, error) {
	out := []User{}
	for id := range m.users {
		out = append(out, *m.snapshot(id))
	}
	return out, nil
}

func (m *mockRepo) Update(_ context.Context, id int64, in UpdateUserInput) (*User, error) {
	u, ok := m.users[id]
	if !ok {
		return nil, ErrNotFound
	}
	if in.Email != nil {
		u.Email = *in.Email
	}
	if in.Name != nil {
		u.Name = *in.Name
	}
	if in.IsActive != nil {
		u.IsActive = *in.IsActive
	}
	return m.snapshot(id), nil
}

func (m *mockRepo) AssignRole(_ context.Context, userID, roleID int64) error {
	if m.roles[userID] == nil {
		m.roles[userID] = map[int64]string{}
	}
	m.roles[userID][roleID] = roleName(roleID)
	return nil
}

func (m *mockRepo) RemoveRole(_ context.Context, userID, roleID int64) error {
	delete(m.roles[userID], roleID)
	return nil
}

func (m *mockRepo) snapshot(id int64) *User {
	u := *m.users[id]
	u.Roles = []string{}
	for _, name := range m.roles[id] {
		u.Roles = append(u.Roles, name)
	}
	return &u
}

func roleName(id int64) string {
	switch id {
	case 1:
		return "admin"
	case 2:
		return "accountant"
	default:
		return "viewer"
	}
}

func TestCreateUserNormalisesEmail(t *testing.T) {
	svc := NewService(newMockRepo(), nil)

	user, err := svc.Create(context.Background(), CreateUserInput{Email: "  Jane@FiberDesk.IO ", Name: "Jane"})
	require.NoError(t, err)
	require.Equal(t, "jane@fiberdesk.io", user.Email)
	require.True(t, user.IsActive)
}

func TestCreateUserRejectsInvalidEmail(t *testing.T) {
	svc := NewService(newMockRepo(), nil)

	_, err := svc.Create(context.Background(), CreateUserInput{Email: "not-an-email", Name: "Jane"})
	require.ErrorIs(t, err, shared.ErrValidation)
}

func TestDuplicateEmailConflicts(t *testing.T) {
	svc := NewService(newMockRepo(), nil)

	_, err := svc.Create(context.Background(), CreateUserInput{Email: "ops@fiberdesk.io", Name: "Ops"})
	require.NoError(t, err)
	_, err = svc.Create(context.Background(), CreateUserInput{Email: "ops@fiberdesk.io", Name: "Ops Two"})
	require.ErrorIs(t, err, shared.ErrConflict)
}

func TestUpdateRequiresAtLeastOneField(t *testing.T) {
	repo := newMockRepo()
	svc := NewService(repo, nil)
	user, err := svc.Create(context.Background(), CreateUserInput{Email: "ops@fiberdesk.io", Name: "Ops"})
	require.NoError(t, err)

	_, err = svc.Update(context.Background(), user.ID, UpdateUserInput{})
	require.ErrorIs(t, err, shared.ErrValidation)

	inactive := false
	updated, err := svc.Update(context.Background(), user.ID, UpdateUserInput{IsActive: &inactive})
	require.NoError(t, err)
	require.False(t, updated.IsActive)
}

func TestAssignAndRemoveRole(t *testing.T) {
	repo := newMockRepo()
	svc := NewService(repo, nil)
	user, err := svc.Create(context.Background(), CreateUserInput{Email: "ops@fiberdesk.io", Name: "Ops"})
	require.NoError(t, err)

	withRole, err := svc.AssignRole(context.Background(), user.ID, 1)
	require.NoError(t, err)
	require.Contains(t, withRole.Roles, "admin")

	without, err := svc.RemoveRole(context.Background(), user.ID, 1)
	require.NoError(t, err)
	require.Empty(t, without.Roles)
}

func TestAssignRoleToMissingUser(t *testing.T) {
	svc := NewService(newMockRepo(), nil)

	_, err := svc.AssignRole(context.Background(), 42, 1)
	require.ErrorIs(t, err, shared.ErrNotFound)
}
