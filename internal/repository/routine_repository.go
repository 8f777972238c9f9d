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

// RoutineRepository provides database access to weekly routine slots.
type RoutineRepository struct {
	db *sqlx.DB
}

// NewRoutineRepository creates a new instance of RoutineRepository.
func NewRoutineRepository(db *sqlx.DB) *RoutineRepository {
	return &RoutineRepository{db: db}
}

// Create stores a new routine slot.
func (r *RoutineRepository) Create(ctx context.Context, routine *models.Routine) error {
	const query = `INSERT INTO routines (id, title, day, start_time, end_time, teacher_email, created_at)
VALUES ($1, $2, $3, $4, $5, $6, $7)`

	routine.ID = uuid.NewString()
	routine.CreatedAt = time.Now().UTC()

	if _, err := r.db.ExecContext(ctx, query,
		routine.ID, routine.Title, routine.Day, routine.StartTime, routine.EndTime, routine.TeacherEmail, routine.CreatedAt,
	); err != nil {
		return fmt.Errorf("create routine: %w", err)
	}
	return nil
}

// FindByID returns a single routine slot.
func (r *RoutineRepository) FindByID(ctx context.Context, id string) (*models.Routine, error) {
	const query = `SELECT id, title, day, start_time, end_time, teacher_email, created_at
FROM routines WHERE id = $1 LIMIT 1`
	var routine models.Routine
	if err := r.db.GetContext(ctx, &routine, query, id); err != nil {
		if err == sql.ErrNoRows {
			return nil, err
		}
		return nil, fmt.Errorf("find routine by id: %w", err)
	}
	return &routine, nil
}

// OwnerEmail returns the teacher email that owns a routine slot.
func (r *RoutineRepository) OwnerEmail(ctx context.Context, id string) (string, error) {
	const query = `SELECT teacher_email FROM routines WHERE id = $1 LIMIT 1`
	var email string
	if err := r.db.GetContext(ctx, &email, query, id); err != nil {
		if err == sql.ErrNoRows {
			return "", err
		}
		return "", fmt.Errorf("routine owner email: %w", err)
	}
	return email, nil
}

// List returns all routine slots ordered by day then start time.
func (r *RoutineRepository) List(ctx context.Context) ([]models.Routine, error) {
	const query = `SELECT id, title, day, start_time, end_time, teacher_email, created_at
FROM routines ORDER BY day ASC, start_time ASC`
	var routines []models.Routine
	if err := r.db.SelectContext(ctx, &routines, query); err != nil {
		return nil, fmt.Errorf("list routines: %w", err)
	}
	return routines, nil
}

// Delete removes a routine slot.
func (r *RoutineRepository) Delete(ctx context.Context, id string) (int64, error) {
	const query = `DELETE FROM routines WHERE id = $1`
	result, err := r.db.ExecContext(ctx, query, id)
	if err != nil {
		return 0, fmt.Errorf("delete routine: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("delete routine affected: %w", err)
	}
	return affected, nil
}
