package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/alpha10/acs-api/internal/models"
)

// ClassRepository provides database access to classes.
type ClassRepository struct {
	db *sqlx.DB
}

// NewClassRepository creates a new instance of ClassRepository.
func NewClassRepository(db *sqlx.DB) *ClassRepository {
	return &ClassRepository{db: db}
}

// Create stores a new class.
func (r *ClassRepository) Create(ctx context.Context, class *models.Class) error {
	const query = `INSERT INTO classes (id, title, description, image_url, teacher_name, teacher_email, created_at, updated_at)
VALUES ($1, $2, $3, $4, $5, $6, $7, $7)`

	class.ID = uuid.NewString()
	class.CreatedAt = time.Now().UTC()
	class.UpdatedAt = class.CreatedAt

	if _, err := r.db.ExecContext(ctx, query,
		class.ID, class.Title, class.Description, class.ImageURL, class.TeacherName, class.TeacherEmail, class.CreatedAt,
	); err != nil {
		return fmt.Errorf("create class: %w", err)
	}
	return nil
}

// FindByID returns a single class.
func (r *ClassRepository) FindByID(ctx context.Context, id string) (*models.Class, error) {
	const query = `SELECT id, title, description, image_url, teacher_name, teacher_email, created_at, updated_at
FROM classes WHERE id = $1 LIMIT 1`
	var class models.Class
	if err := r.db.GetContext(ctx, &class, query, id); err != nil {
		if err == sql.ErrNoRows {
			return nil, err
		}
		return nil, fmt.Errorf("find class by id: %w", err)
	}
	return &class, nil
}

// OwnerEmail returns the teacher email that owns a class. Used by the
// ownership guard without loading the full record.
func (r *ClassRepository) OwnerEmail(ctx context.Context, id string) (string, error) {
	const query = `SELECT teacher_email FROM classes WHERE id = $1 LIMIT 1`
	var email string
	if err := r.db.GetContext(ctx, &email, query, id); err != nil {
		if err == sql.ErrNoRows {
			return "", err
		}
		return "", fmt.Errorf("class owner email: %w", err)
	}
	return email, nil
}

// List returns classes based on filters with total count.
func (r *ClassRepository) List(ctx context.Context, filter models.ClassFilter) ([]models.Class, int, error) {
	baseQuery := `FROM classes WHERE 1=1`
	var conditions []string
	var args []interface{}

	if filter.TeacherEmail != "" {
		conditions = append(conditions, fmt.Sprintf("teacher_email = $%d", len(args)+1))
		args = append(args, filter.TeacherEmail)
	}
	if filter.Search != "" {
		conditions = append(conditions, fmt.Sprintf("LOWER(title) LIKE $%d", len(args)+1))
		args = append(args, "%"+strings.ToLower(filter.Search)+"%")
	}

	if len(conditions) > 0 {
		baseQuery += " AND " + strings.Join(conditions, " AND ")
	}

	page := filter.Page
	if page < 1 {
		page = 1
	}
	pageSize := filter.PageSize
	if pageSize <= 0 || pageSize > 100 {
		pageSize = 20
	}
	offset := (page - 1) * pageSize

	listQuery := fmt.Sprintf("SELECT id, title, description, image_url, teacher_name, teacher_email, created_at, updated_at %s ORDER BY created_at DESC LIMIT %d OFFSET %d", baseQuery, pageSize, offset)

	var classes []models.Class
	if err := r.db.SelectContext(ctx, &classes, listQuery, args...); err != nil {
		return nil, 0, fmt.Errorf("list classes: %w", err)
	}

	countQuery := fmt.Sprintf("SELECT COUNT(*) %s", baseQuery)
	var total int
	if err := r.db.GetContext(ctx, &total, countQuery, args...); err != nil {
		return nil, 0, fmt.Errorf("count classes: %w", err)
	}

	return classes, total, nil
}

// Update rewrites the mutable fields of a class.
func (r *ClassRepository) Update(ctx context.Context, class *models.Class) (int64, error) {
	const query = `UPDATE classes SET title = $2, description = $3, image_url = $4, updated_at = $5 WHERE id = $1`

	class.UpdatedAt = time.Now().UTC()
	result, err := r.db.ExecContext(ctx, query, class.ID, class.Title, class.Description, class.ImageURL, class.UpdatedAt)
	if err != nil {
		return 0, fmt.Errorf("update class: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("update class affected: %w", err)
	}
	return affected, nil
}

// Delete removes a class.
func (r *ClassRepository) Delete(ctx context.Context, id string) (int64, error) {
	const query = `DELETE FROM classes WHERE id = $1`
	result, err := r.db.ExecContext(ctx, query, id)
	if err != nil {
		return 0, fmt.Errorf("delete class: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("delete class affected: %w", err)
	}
	return affected, nil
}
