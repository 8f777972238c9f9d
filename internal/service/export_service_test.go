package service

import (
	"context"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/alpha10/acs-api/internal/models"
	"github.com/alpha10/acs-api/pkg/storage"
)

type mockExportDirectory struct {
	users []models.User
}

func (m *mockExportDirectory) List(ctx context.Context, filter models.UserFilter) ([]models.User, int, error) {
	if filter.Page > 1 {
		return nil, len(m.users), nil
	}
	if filter.Role != nil {
		var out []models.User
		for _, u := range m.users {
			if u.Role == *filter.Role {
				out = append(out, u)
			}
		}
		return out, len(out), nil
	}
	return m.users, len(m.users), nil
}

type mockExportApplications struct {
	apps []models.TeacherApplication
}

func (m *mockExportApplications) ListByStatus(ctx context.Context, status models.ApplicationStatus) ([]models.TeacherApplication, error) {
	var out []models.TeacherApplication
	for _, app := range m.apps {
		if app.Status == status {
			out = append(out, app)
		}
	}
	return out, nil
}

type mockExportClasses struct {
	classes []models.Class
}

func (m *mockExportClasses) List(ctx context.Context, filter models.ClassFilter) ([]models.Class, int, error) {
	if filter.Page > 1 {
		return nil, len(m.classes), nil
	}
	return m.classes, len(m.classes), nil
}

type memoryStorage struct {
	files map[string][]byte
}

func (m *memoryStorage) Save(filename string, data []byte) (string, error) {
	if m.files == nil {
		m.files = make(map[string][]byte)
	}
	m.files[filename] = data
	return filename, nil
}

func (m *memoryStorage) Open(filename string) (*os.File, error) {
	return nil, os.ErrNotExist
}

func (m *memoryStorage) Delete(filename string) error {
	delete(m.files, filename)
	return nil
}

func (m *memoryStorage) CleanupOlderThan(ttl time.Duration) ([]string, error) {
	return nil, nil
}

func newTestExportService(dir *mockExportDirectory, apps *mockExportApplications, classes *mockExportClasses, store *memoryStorage) *ExportService {
	signer := storage.NewSignedURLSigner("test-secret", time.Hour)
	return NewExportService(dir, apps, classes, store, signer, ExportConfig{APIPrefix: "/api/v1"}, zap.NewNop(), nil, nil)
}

func TestExportServiceGenerateUsersCSV(t *testing.T) {
	now := time.Now().UTC()
	dir := &mockExportDirectory{users: []models.User{
		{Email: "a@school.io", Name: "A", Role: models.RoleUser, CreatedAt: now, LastLogIn: now},
		{Email: "t@school.io", Name: "T", Role: models.RoleTeacher, CreatedAt: now, LastLogIn: now},
	}}
	store := &memoryStorage{}
	svc := newTestExportService(dir, &mockExportApplications{}, &mockExportClasses{}, store)

	job := &models.ExportJob{
		ID:     "job-1",
		Type:   models.ExportTypeUsers,
		Params: models.ExportJobParams{Format: models.ExportFormatCSV},
	}
	result, err := svc.Generate(context.Background(), job)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(result.URL, "/api/v1/exports/download/"))
	require.Len(t, store.files, 1)
	for _, payload := range store.files {
		content := string(payload)
		assert.Contains(t, content, "a@school.io")
		assert.Contains(t, content, "t@school.io")
	}
}

func TestExportServiceGenerateUsersFiltersByRole(t *testing.T) {
	now := time.Now().UTC()
	dir := &mockExportDirectory{users: []models.User{
		{Email: "a@school.io", Name: "A", Role: models.RoleUser, CreatedAt: now, LastLogIn: now},
		{Email: "t@school.io", Name: "T", Role: models.RoleTeacher, CreatedAt: now, LastLogIn: now},
	}}
	store := &memoryStorage{}
	svc := newTestExportService(dir, &mockExportApplications{}, &mockExportClasses{}, store)

	role := "teacher"
	job := &models.ExportJob{
		ID:     "job-2",
		Type:   models.ExportTypeUsers,
		Params: models.ExportJobParams{Role: &role, Format: models.ExportFormatCSV},
	}
	_, err := svc.Generate(context.Background(), job)
	require.NoError(t, err)
	for _, payload := range store.files {
		content := string(payload)
		assert.Contains(t, content, "t@school.io")
		assert.NotContains(t, content, "a@school.io")
	}
}

func TestExportServiceGenerateApplicationsByStatus(t *testing.T) {
	apps := &mockExportApplications{apps: []models.TeacherApplication{
		{Email: "p@school.io", Status: models.ApplicationPending, SubmittedAt: time.Now()},
		{Email: "r@school.io", Status: models.ApplicationRejected, SubmittedAt: time.Now()},
	}}
	store := &memoryStorage{}
	svc := newTestExportService(&mockExportDirectory{}, apps, &mockExportClasses{}, store)

	status := "pending"
	job := &models.ExportJob{
		ID:     "job-3",
		Type:   models.ExportTypeApplications,
		Params: models.ExportJobParams{Status: &status, Format: models.ExportFormatCSV},
	}
	_, err := svc.Generate(context.Background(), job)
	require.NoError(t, err)
	for _, payload := range store.files {
		content := string(payload)
		assert.Contains(t, content, "p@school.io")
		assert.NotContains(t, content, "r@school.io")
	}
}

func TestExportServiceGenerateRejectsUnknownFormat(t *testing.T) {
	svc := newTestExportService(&mockExportDirectory{}, &mockExportApplications{}, &mockExportClasses{}, &memoryStorage{})

	job := &models.ExportJob{
		ID:     "job-4",
		Type:   models.ExportTypeUsers,
		Params: models.ExportJobParams{Format: models.ExportFormat("xlsx")},
	}
	_, err := svc.Generate(context.Background(), job)
	assert.Error(t, err)
}
