package service

import (
	"context"
	"database/sql"
	"encoding/json"
	"testing"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/alpha10/acs-api/internal/models"
	appErrors "github.com/alpha10/acs-api/pkg/errors"
)

type mockClassRepo struct {
	classes   map[string]models.Class
	listCalls int
}

func (m *mockClassRepo) Create(ctx context.Context, class *models.Class) error {
	if m.classes == nil {
		m.classes = make(map[string]models.Class)
	}
	if class.ID == "" {
		class.ID = "generated"
	}
	m.classes[class.ID] = *class
	return nil
}

func (m *mockClassRepo) FindByID(ctx context.Context, id string) (*models.Class, error) {
	if class, ok := m.classes[id]; ok {
		return &class, nil
	}
	return nil, sql.ErrNoRows
}

func (m *mockClassRepo) OwnerEmail(ctx context.Context, id string) (string, error) {
	if class, ok := m.classes[id]; ok {
		return class.TeacherEmail, nil
	}
	return "", sql.ErrNoRows
}

func (m *mockClassRepo) List(ctx context.Context, filter models.ClassFilter) ([]models.Class, int, error) {
	m.listCalls++
	var out []models.Class
	for _, class := range m.classes {
		out = append(out, class)
	}
	return out, len(out), nil
}

func (m *mockClassRepo) Update(ctx context.Context, class *models.Class) (int64, error) {
	existing, ok := m.classes[class.ID]
	if !ok {
		return 0, nil
	}
	existing.Title = class.Title
	existing.Description = class.Description
	existing.ImageURL = class.ImageURL
	m.classes[class.ID] = existing
	return 1, nil
}

func (m *mockClassRepo) Delete(ctx context.Context, id string) (int64, error) {
	if _, ok := m.classes[id]; !ok {
		return 0, nil
	}
	delete(m.classes, id)
	return 1, nil
}

type mockListingCache struct {
	entries     map[string][]byte
	invalidated int
}

func (m *mockListingCache) Get(ctx context.Context, key string, dest interface{}) error {
	raw, ok := m.entries[key]
	if !ok {
		return appErrors.ErrCacheMiss
	}
	return json.Unmarshal(raw, dest)
}

func (m *mockListingCache) Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error {
	if m.entries == nil {
		m.entries = make(map[string][]byte)
	}
	raw, err := json.Marshal(value)
	if err != nil {
		return err
	}
	m.entries[key] = raw
	return nil
}

func (m *mockListingCache) DeleteByPattern(ctx context.Context, pattern string) error {
	m.invalidated++
	m.entries = make(map[string][]byte)
	return nil
}

func TestClassServiceCreateSetsOwnerFromIdentity(t *testing.T) {
	repo := &mockClassRepo{}
	svc := NewClassService(repo, nil, 0, validator.New(), zap.NewNop())

	class, err := svc.Create(context.Background(), CreateClassRequest{Title: "Algebra", Description: "Intro"}, "Teacher", "t@school.io")
	require.NoError(t, err)
	assert.Equal(t, "t@school.io", class.TeacherEmail)
	assert.Equal(t, "Teacher", class.TeacherName)
}

func TestClassServiceListServesFromCache(t *testing.T) {
	repo := &mockClassRepo{classes: map[string]models.Class{
		"class-1": {ID: "class-1", Title: "Algebra", TeacherEmail: "t@school.io"},
	}}
	cache := &mockListingCache{}
	svc := NewClassService(repo, cache, time.Minute, validator.New(), zap.NewNop())

	_, _, err := svc.List(context.Background(), models.ClassFilter{})
	require.NoError(t, err)
	_, _, err = svc.List(context.Background(), models.ClassFilter{})
	require.NoError(t, err)
	assert.Equal(t, 1, repo.listCalls)
}

func TestClassServiceMutationInvalidatesListings(t *testing.T) {
	repo := &mockClassRepo{classes: map[string]models.Class{
		"class-1": {ID: "class-1", Title: "Algebra", TeacherEmail: "t@school.io"},
	}}
	cache := &mockListingCache{}
	svc := NewClassService(repo, cache, time.Minute, validator.New(), zap.NewNop())

	_, _, err := svc.List(context.Background(), models.ClassFilter{})
	require.NoError(t, err)

	_, err = svc.Update(context.Background(), "class-1", UpdateClassRequest{Title: "New", Description: "New"})
	require.NoError(t, err)
	assert.Equal(t, 1, cache.invalidated)

	_, _, err = svc.List(context.Background(), models.ClassFilter{})
	require.NoError(t, err)
	assert.Equal(t, 2, repo.listCalls)
}

func TestClassServiceUpdateNotFound(t *testing.T) {
	svc := NewClassService(&mockClassRepo{}, nil, 0, validator.New(), zap.NewNop())

	_, err := svc.Update(context.Background(), "missing", UpdateClassRequest{Title: "X", Description: "Y"})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrNotFound.Code, appErrors.FromError(err).Code)
}
