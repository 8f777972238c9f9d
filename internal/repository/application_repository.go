package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/alpha10/acs-api/internal/models"
)

// ApplicationRepository provides database access to teacher applications.
type ApplicationRepository struct {
	db *sqlx.DB
}

// NewApplicationRepository creates a new instance of ApplicationRepository.
func NewApplicationRepository(db *sqlx.DB) *ApplicationRepository {
	return &ApplicationRepository{db: db}
}

// Create stores a new application in the pending state.
func (r *ApplicationRepository) Create(ctx context.Context, app *models.TeacherApplication) error {
	const query = `INSERT INTO teacher_applications (id, email, name, experience, category, status, submitted_at)
VALUES ($1, $2, $3, $4, $5, $6, $7)`

	app.ID = uuid.NewString()
	app.Status = models.ApplicationPending
	app.SubmittedAt = time.Now().UTC()

	if _, err := r.db.ExecContext(ctx, query,
		app.ID, app.Email, app.Name, app.Experience, app.Category, app.Status, app.SubmittedAt,
	); err != nil {
		return fmt.Errorf("create teacher application: %w", err)
	}
	return nil
}

// FindByID returns a single application.
func (r *ApplicationRepository) FindByID(ctx context.Context, id string) (*models.TeacherApplication, error) {
	const query = `SELECT id, email, name, experience, category, status, submitted_at, reviewed_at, reviewed_by
FROM teacher_applications WHERE id = $1 LIMIT 1`
	var app models.TeacherApplication
	if err := r.db.GetContext(ctx, &app, query, id); err != nil {
		if err == sql.ErrNoRows {
			return nil, err
		}
		return nil, fmt.Errorf("find application by id: %w", err)
	}
	return &app, nil
}

// FindPendingByEmail returns the open application for an email, if any.
func (r *ApplicationRepository) FindPendingByEmail(ctx context.Context, email string) (*models.TeacherApplication, error) {
	const query = `SELECT id, email, name, experience, category, status, submitted_at, reviewed_at, reviewed_by
FROM teacher_applications WHERE email = $1 AND status = 'pending' LIMIT 1`
	var app models.TeacherApplication
	if err := r.db.GetContext(ctx, &app, query, email); err != nil {
		if err == sql.ErrNoRows {
			return nil, err
		}
		return nil, fmt.Errorf("find pending application by email: %w", err)
	}
	return &app, nil
}

// ListByStatus returns applications in a given state, newest first.
func (r *ApplicationRepository) ListByStatus(ctx context.Context, status models.ApplicationStatus) ([]models.TeacherApplication, error) {
	const query = `SELECT id, email, name, experience, category, status, submitted_at, reviewed_at, reviewed_by
FROM teacher_applications WHERE status = $1 ORDER BY submitted_at DESC`
	var apps []models.TeacherApplication
	if err := r.db.SelectContext(ctx, &apps, query, status); err != nil {
		return nil, fmt.Errorf("list applications by status: %w", err)
	}
	return apps, nil
}

// UpdateStatusIfPending moves an application out of the pending state and
// records the reviewer. The WHERE clause makes the transition conditional:
// zero affected rows means the application was already reviewed or absent.
func (r *ApplicationRepository) UpdateStatusIfPending(ctx context.Context, id string, status models.ApplicationStatus, reviewedBy string) (int64, error) {
	const query = `UPDATE teacher_applications
SET status = $2, reviewed_at = $3, reviewed_by = $4
WHERE id = $1 AND status = 'pending'`

	result, err := r.db.ExecContext(ctx, query, id, status, time.Now().UTC(), reviewedBy)
	if err != nil {
		return 0, fmt.Errorf("update application status: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("update application status affected: %w", err)
	}
	return affected, nil
}

// Delete removes an application regardless of status.
func (r *ApplicationRepository) Delete(ctx context.Context, id string) (int64, error) {
	const query = `DELETE FROM teacher_applications WHERE id = $1`
	result, err := r.db.ExecContext(ctx, query, id)
	if err != nil {
		return 0, fmt.Errorf("delete application: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("delete application affected: %w", err)
	}
	return affected, nil
}
