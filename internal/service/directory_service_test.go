package service

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/alpha10/acs-api/internal/models"
)

type mockUserRepo struct {
	users      map[string]models.User
	touchCount int
}

func (m *mockUserRepo) FindByEmail(ctx context.Context, email string) (*models.User, error) {
	if u, ok := m.users[email]; ok {
		return &u, nil
	}
	return nil, sql.ErrNoRows
}

func (m *mockUserRepo) Touch(ctx context.Context, email, name string) (*models.User, error) {
	m.touchCount++
	if m.users == nil {
		m.users = make(map[string]models.User)
	}
	now := time.Now().UTC()
	if u, ok := m.users[email]; ok {
		u.LastLogIn = now
		m.users[email] = u
		return &u, nil
	}
	u := models.User{ID: "generated", Email: email, Name: name, Role: models.RoleUser, CreatedAt: now, LastLogIn: now}
	m.users[email] = u
	return &u, nil
}

func (m *mockUserRepo) SetRole(ctx context.Context, email string, role models.Role) (int64, error) {
	u, ok := m.users[email]
	if !ok {
		return 0, nil
	}
	u.Role = role
	m.users[email] = u
	return 1, nil
}

func (m *mockUserRepo) Search(ctx context.Context, pattern string) ([]models.User, error) {
	var out []models.User
	for _, u := range m.users {
		out = append(out, u)
	}
	return out, nil
}

func (m *mockUserRepo) List(ctx context.Context, filter models.UserFilter) ([]models.User, int, error) {
	var out []models.User
	for _, u := range m.users {
		if filter.Role != nil && u.Role != *filter.Role {
			continue
		}
		out = append(out, u)
	}
	return out, len(out), nil
}

func (m *mockUserRepo) DeleteByEmail(ctx context.Context, email string) (int64, error) {
	if _, ok := m.users[email]; !ok {
		return 0, nil
	}
	delete(m.users, email)
	return 1, nil
}

func (m *mockUserRepo) DeleteByID(ctx context.Context, id string) (int64, error) {
	for email, u := range m.users {
		if u.ID == id {
			delete(m.users, email)
			return 1, nil
		}
	}
	return 0, nil
}

func TestDirectoryServiceRegisterCreatesWithDefaultRole(t *testing.T) {
	repo := &mockUserRepo{}
	svc := NewDirectoryService(repo, validator.New(), zap.NewNop())

	result, err := svc.Register(context.Background(), RegisterRequest{Email: "new@school.io", Name: "New"})
	require.NoError(t, err)
	assert.True(t, result.Created)
	assert.Equal(t, models.RoleUser, result.User.Role)
	assert.Equal(t, result.User.CreatedAt, result.User.LastLogIn)
}

func TestDirectoryServiceRegisterIsIdempotentOnRole(t *testing.T) {
	created := time.Now().UTC().Add(-time.Hour)
	repo := &mockUserRepo{users: map[string]models.User{
		"teacher@school.io": {ID: "u1", Email: "teacher@school.io", Role: models.RoleTeacher, CreatedAt: created, LastLogIn: created},
	}}
	svc := NewDirectoryService(repo, validator.New(), zap.NewNop())

	result, err := svc.Register(context.Background(), RegisterRequest{Email: "teacher@school.io", Name: "Returning"})
	require.NoError(t, err)
	assert.False(t, result.Created)
	assert.Equal(t, models.RoleTeacher, result.User.Role)
	assert.True(t, result.User.LastLogIn.After(result.User.CreatedAt))
}

func TestDirectoryServiceRegisterRejectsBadEmail(t *testing.T) {
	svc := NewDirectoryService(&mockUserRepo{}, validator.New(), zap.NewNop())

	_, err := svc.Register(context.Background(), RegisterRequest{Email: "not-an-email", Name: "X"})
	assert.Error(t, err)
}

func TestDirectoryServiceRoleOfUnknownEmailDefaults(t *testing.T) {
	svc := NewDirectoryService(&mockUserRepo{}, validator.New(), zap.NewNop())

	role, err := svc.RoleOf(context.Background(), "nobody@school.io")
	require.NoError(t, err)
	assert.Equal(t, models.RoleUser, role)
}

func TestDirectoryServiceSetRoleUnknownEmailNotAnError(t *testing.T) {
	svc := NewDirectoryService(&mockUserRepo{}, validator.New(), zap.NewNop())

	result, err := svc.SetRole(context.Background(), "ghost@school.io", SetRoleRequest{Role: "teacher"})
	require.NoError(t, err)
	assert.False(t, result.Updated)
}

func TestDirectoryServiceSetRoleOverwrites(t *testing.T) {
	repo := &mockUserRepo{users: map[string]models.User{
		"u@school.io": {ID: "u1", Email: "u@school.io", Role: models.RoleUser},
	}}
	svc := NewDirectoryService(repo, validator.New(), zap.NewNop())

	result, err := svc.SetRole(context.Background(), "u@school.io", SetRoleRequest{Role: "admin"})
	require.NoError(t, err)
	assert.True(t, result.Updated)

	role, err := svc.RoleOf(context.Background(), "u@school.io")
	require.NoError(t, err)
	assert.Equal(t, models.RoleAdmin, role)
}

func TestDirectoryServiceSetRoleRejectsUnknownRole(t *testing.T) {
	svc := NewDirectoryService(&mockUserRepo{}, validator.New(), zap.NewNop())

	_, err := svc.SetRole(context.Background(), "u@school.io", SetRoleRequest{Role: "owner"})
	assert.Error(t, err)
}

func TestDirectoryServiceDeleteByIDNotFound(t *testing.T) {
	svc := NewDirectoryService(&mockUserRepo{}, validator.New(), zap.NewNop())

	err := svc.DeleteByID(context.Background(), "missing")
	assert.Error(t, err)
}
