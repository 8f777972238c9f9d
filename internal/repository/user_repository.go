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

// UserRepository provides database access to the directory. The users table
// carries a unique index on email; Touch leans on it so concurrent
// first-time logins cannot create duplicate records.
type UserRepository struct {
	db *sqlx.DB
}

// NewUserRepository creates a new instance of UserRepository.
func NewUserRepository(db *sqlx.DB) *UserRepository {
	return &UserRepository{db: db}
}

// FindByEmail returns a directory record by email address.
func (r *UserRepository) FindByEmail(ctx context.Context, email string) (*models.User, error) {
	const query = `SELECT id, email, name, role, created_at, last_log_in FROM users WHERE email = $1 LIMIT 1`
	var user models.User
	if err := r.db.GetContext(ctx, &user, query, email); err != nil {
		if err == sql.ErrNoRows {
			return nil, err
		}
		return nil, fmt.Errorf("find user by email: %w", err)
	}
	return &user, nil
}

// Touch registers the email on first sight and refreshes last_log_in on
// every subsequent call. The role of an existing record is never changed.
func (r *UserRepository) Touch(ctx context.Context, email, name string) (*models.User, error) {
	const query = `INSERT INTO users (id, email, name, role, created_at, last_log_in)
VALUES ($1, $2, $3, 'user', $4, $4)
ON CONFLICT (email) DO UPDATE SET last_log_in = EXCLUDED.last_log_in
RETURNING id, email, name, role, created_at, last_log_in`

	now := time.Now().UTC()
	var user models.User
	if err := r.db.GetContext(ctx, &user, query, uuid.NewString(), email, name, now); err != nil {
		return nil, fmt.Errorf("touch user: %w", err)
	}
	return &user, nil
}

// SetRole overwrites the role unconditionally and reports how many records
// were affected. Zero affected rows is a reportable outcome, not an error.
func (r *UserRepository) SetRole(ctx context.Context, email string, role models.Role) (int64, error) {
	const query = `UPDATE users SET role = $2 WHERE email = $1`
	result, err := r.db.ExecContext(ctx, query, email, role)
	if err != nil {
		return 0, fmt.Errorf("set user role: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("set user role affected: %w", err)
	}
	return affected, nil
}

// Search matches emails case-insensitively by substring.
func (r *UserRepository) Search(ctx context.Context, pattern string) ([]models.User, error) {
	const query = `SELECT id, email, name, role, created_at, last_log_in FROM users WHERE email ILIKE $1 ORDER BY created_at DESC`
	var users []models.User
	if err := r.db.SelectContext(ctx, &users, query, "%"+pattern+"%"); err != nil {
		return nil, fmt.Errorf("search users: %w", err)
	}
	return users, nil
}

// List returns directory records based on filters with total count.
func (r *UserRepository) List(ctx context.Context, filter models.UserFilter) ([]models.User, int, error) {
	baseQuery := `FROM users WHERE 1=1`
	var conditions []string
	var args []interface{}

	if filter.Role != nil {
		conditions = append(conditions, fmt.Sprintf("role = $%d", len(args)+1))
		args = append(args, *filter.Role)
	}
	if filter.Search != "" {
		conditions = append(conditions, fmt.Sprintf("(LOWER(email) LIKE $%d OR LOWER(name) LIKE $%d)", len(args)+1, len(args)+1))
		args = append(args, "%"+strings.ToLower(filter.Search)+"%")
	}

	if len(conditions) > 0 {
		baseQuery += " AND " + strings.Join(conditions, " AND ")
	}

	sortBy := filter.SortBy
	if sortBy == "" {
		sortBy = "created_at"
	}
	allowedSorts := map[string]bool{
		"email":       true,
		"name":        true,
		"created_at":  true,
		"last_log_in": true,
	}
	if !allowedSorts[sortBy] {
		sortBy = "created_at"
	}

	sortOrder := strings.ToUpper(filter.SortOrder)
	if sortOrder != "ASC" && sortOrder != "DESC" {
		sortOrder = "DESC"
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

	listQuery := fmt.Sprintf("SELECT id, email, name, role, created_at, last_log_in %s ORDER BY %s %s LIMIT %d OFFSET %d", baseQuery, sortBy, sortOrder, pageSize, offset)

	var users []models.User
	if err := r.db.SelectContext(ctx, &users, listQuery, args...); err != nil {
		return nil, 0, fmt.Errorf("list users: %w", err)
	}

	countQuery := fmt.Sprintf("SELECT COUNT(*) %s", baseQuery)
	var total int
	if err := r.db.GetContext(ctx, &total, countQuery, args...); err != nil {
		return nil, 0, fmt.Errorf("count users: %w", err)
	}

	return users, total, nil
}

// DeleteByEmail removes the directory record for an email. The provider
// account is not touched here.
func (r *UserRepository) DeleteByEmail(ctx context.Context, email string) (int64, error) {
	const query = `DELETE FROM users WHERE email = $1`
	result, err := r.db.ExecContext(ctx, query, email)
	if err != nil {
		return 0, fmt.Errorf("delete user by email: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("delete user by email affected: %w", err)
	}
	return affected, nil
}

// DeleteByID removes the directory record by identifier.
func (r *UserRepository) DeleteByID(ctx context.Context, id string) (int64, error) {
	const query = `DELETE FROM users WHERE id = $1`
	result, err := r.db.ExecContext(ctx, query, id)
	if err != nil {
		return 0, fmt.Errorf("delete user by id: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("delete user by id affected: %w", err)
	}
	return affected, nil
}
