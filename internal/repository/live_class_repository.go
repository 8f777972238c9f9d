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

// LiveClassRepository provides database access to scheduled live sessions.
type LiveClassRepository struct {
	db *sqlx.DB
}

// NewLiveClassRepository creates a new instance of LiveClassRepository.
func NewLiveClassRepository(db *sqlx.DB) *LiveClassRepository {
	return &LiveClassRepository{db: db}
}

// Create stores a new live class.
func (r *LiveClassRepository) Create(ctx context.Context, lc *models.LiveClass) error {
	const query = `INSERT INTO live_classes (id, title, teacher_name, teacher_email, starts_at, duration_min, meeting_url, created_at)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`

	lc.ID = uuid.NewString()
	lc.CreatedAt = time.Now().UTC()

	if _, err := r.db.ExecContext(ctx, query,
		lc.ID, lc.Title, lc.TeacherName, lc.TeacherEmail, lc.StartsAt, lc.DurationMin, lc.MeetingURL, lc.CreatedAt,
	); err != nil {
		return fmt.Errorf("create live class: %w", err)
	}
	return nil
}

// FindByID returns a single live class.
func (r *LiveClassRepository) FindByID(ctx context.Context, id string) (*models.LiveClass, error) {
	const query = `SELECT id, title, teacher_name, teacher_email, starts_at, duration_min, meeting_url, created_at
FROM live_classes WHERE id = $1 LIMIT 1`
	var lc models.LiveClass
	if err := r.db.GetContext(ctx, &lc, query, id); err != nil {
		if err == sql.ErrNoRows {
			return nil, err
		}
		return nil, fmt.Errorf("find live class by id: %w", err)
	}
	return &lc, nil
}

// OwnerEmail returns the teacher email that owns a live class.
func (r *LiveClassRepository) OwnerEmail(ctx context.Context, id string) (string, error) {
	const query = `SELECT teacher_email FROM live_classes WHERE id = $1 LIMIT 1`
	var email string
	if err := r.db.GetContext(ctx, &email, query, id); err != nil {
		if err == sql.ErrNoRows {
			return "", err
		}
		return "", fmt.Errorf("live class owner email: %w", err)
	}
	return email, nil
}

// List returns all live classes ordered by start time, soonest first.
func (r *LiveClassRepository) List(ctx context.Context) ([]models.LiveClass, error) {
	const query = `SELECT id, title, teacher_name, teacher_email, starts_at, duration_min, meeting_url, created_at
FROM live_classes ORDER BY starts_at ASC`
	var lcs []models.LiveClass
	if err := r.db.SelectContext(ctx, &lcs, query); err != nil {
		return nil, fmt.Errorf("list live classes: %w", err)
	}
	return lcs, nil
}

// ListByTeacher returns the live classes owned by a teacher.
func (r *LiveClassRepository) ListByTeacher(ctx context.Context, email string) ([]models.LiveClass, error) {
	const query = `SELECT id, title, teacher_name, teacher_email, starts_at, duration_min, meeting_url, created_at
FROM live_classes WHERE teacher_email = $1 ORDER BY starts_at ASC`
	var lcs []models.LiveClass
	if err := r.db.SelectContext(ctx, &lcs, query, email); err != nil {
		return nil, fmt.Errorf("list live classes by teacher: %w", err)
	}
	return lcs, nil
}

// Delete removes a live class.
func (r *LiveClassRepository) Delete(ctx context.Context, id string) (int64, error) {
	const query = `DELETE FROM live_classes WHERE id = $1`
	result, err := r.db.ExecContext(ctx, query, id)
	if err != nil {
		return 0, fmt.Errorf("delete live class: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("delete live class affected: %w", err)
	}
	return affected, nil
}
