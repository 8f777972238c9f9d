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
	appErrors "github.com/alpha10/acs-api/pkg/errors"
)

type mockApplicationRepo struct {
	apps map[string]models.TeacherApplication
}

func (m *mockApplicationRepo) Create(ctx context.Context, app *models.TeacherApplication) error {
	if m.apps == nil {
		m.apps = make(map[string]models.TeacherApplication)
	}
	if app.ID == "" {
		app.ID = "generated"
	}
	app.Status = models.ApplicationPending
	app.SubmittedAt = time.Now().UTC()
	m.apps[app.ID] = *app
	return nil
}

func (m *mockApplicationRepo) FindByID(ctx context.Context, id string) (*models.TeacherApplication, error) {
	if app, ok := m.apps[id]; ok {
		return &app, nil
	}
	return nil, sql.ErrNoRows
}

func (m *mockApplicationRepo) FindPendingByEmail(ctx context.Context, email string) (*models.TeacherApplication, error) {
	for _, app := range m.apps {
		if app.Email == email && app.Status == models.ApplicationPending {
			found := app
			return &found, nil
		}
	}
	return nil, sql.ErrNoRows
}

func (m *mockApplicationRepo) ListByStatus(ctx context.Context, status models.ApplicationStatus) ([]models.TeacherApplication, error) {
	var out []models.TeacherApplication
	for _, app := range m.apps {
		if app.Status == status {
			out = append(out, app)
		}
	}
	return out, nil
}

func (m *mockApplicationRepo) UpdateStatusIfPending(ctx context.Context, id string, status models.ApplicationStatus, reviewedBy string) (int64, error) {
	app, ok := m.apps[id]
	if !ok || app.Status != models.ApplicationPending {
		return 0, nil
	}
	now := time.Now().UTC()
	app.Status = status
	app.ReviewedAt = &now
	app.ReviewedBy = &reviewedBy
	m.apps[id] = app
	return 1, nil
}

func (m *mockApplicationRepo) Delete(ctx context.Context, id string) (int64, error) {
	if _, ok := m.apps[id]; !ok {
		return 0, nil
	}
	delete(m.apps, id)
	return 1, nil
}

func TestApplicationServiceSubmitStartsPending(t *testing.T) {
	repo := &mockApplicationRepo{}
	svc := NewApplicationService(repo, validator.New(), zap.NewNop())

	app, err := svc.Submit(context.Background(), SubmitApplicationRequest{
		Email: "a@school.io", Name: "A", Experience: "3 years", Category: "math",
	})
	require.NoError(t, err)
	assert.Equal(t, models.ApplicationPending, app.Status)
}

func TestApplicationServiceSubmitAllowsDuplicates(t *testing.T) {
	repo := &mockApplicationRepo{apps: map[string]models.TeacherApplication{
		"app-1": {ID: "app-1", Email: "a@school.io", Status: models.ApplicationPending},
	}}
	svc := NewApplicationService(repo, validator.New(), zap.NewNop())

	app, err := svc.Submit(context.Background(), SubmitApplicationRequest{
		Email: "a@school.io", Name: "A", Experience: "3 years", Category: "math",
	})
	require.NoError(t, err)
	assert.Equal(t, models.ApplicationPending, app.Status)
	assert.Len(t, repo.apps, 2)
}

func TestApplicationServiceReviewApprovesAndMovesLists(t *testing.T) {
	repo := &mockApplicationRepo{apps: map[string]models.TeacherApplication{
		"app-1": {ID: "app-1", Email: "a@school.io", Status: models.ApplicationPending},
	}}
	svc := NewApplicationService(repo, validator.New(), zap.NewNop())

	app, err := svc.Review(context.Background(), "app-1", ReviewApplicationRequest{Status: "approved"}, "admin@school.io")
	require.NoError(t, err)
	assert.Equal(t, models.ApplicationApproved, app.Status)
	require.NotNil(t, app.ReviewedBy)
	assert.Equal(t, "admin@school.io", *app.ReviewedBy)

	pending, err := svc.ListByStatus(context.Background(), models.ApplicationPending)
	require.NoError(t, err)
	assert.Empty(t, pending)

	approved, err := svc.ListByStatus(context.Background(), models.ApplicationApproved)
	require.NoError(t, err)
	assert.Len(t, approved, 1)
}

func TestApplicationServiceReviewTerminalConflicts(t *testing.T) {
	repo := &mockApplicationRepo{apps: map[string]models.TeacherApplication{
		"app-1": {ID: "app-1", Email: "a@school.io", Status: models.ApplicationRejected},
	}}
	svc := NewApplicationService(repo, validator.New(), zap.NewNop())

	_, err := svc.Review(context.Background(), "app-1", ReviewApplicationRequest{Status: "approved"}, "admin@school.io")
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrConflict.Code, appErrors.FromError(err).Code)
}

func TestApplicationServiceReviewUnknownApplication(t *testing.T) {
	svc := NewApplicationService(&mockApplicationRepo{}, validator.New(), zap.NewNop())

	_, err := svc.Review(context.Background(), "missing", ReviewApplicationRequest{Status: "rejected"}, "admin@school.io")
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrNotFound.Code, appErrors.FromError(err).Code)
}

func TestApplicationServiceReviewRejectsBadStatus(t *testing.T) {
	svc := NewApplicationService(&mockApplicationRepo{}, validator.New(), zap.NewNop())

	_, err := svc.Review(context.Background(), "app-1", ReviewApplicationRequest{Status: "pending"}, "admin@school.io")
	assert.Error(t, err)
}

func TestApplicationServiceListByStatusRejectsUnknown(t *testing.T) {
	svc := NewApplicationService(&mockApplicationRepo{}, validator.New(), zap.NewNop())

	_, err := svc.ListByStatus(context.Background(), models.ApplicationStatus("archived"))
	assert.Error(t, err)
}
