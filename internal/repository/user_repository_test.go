package repository

import (
	"context"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/alpha10/acs-api/internal/models"
)

func newUserMock(t *testing.T) (*sqlx.DB, sqlmock.Sqlmock, func()) {
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	return sqlx.NewDb(db, "sqlmock"), mock, func() { db.Close() }
}

func TestUserRepositoryTouchInsertsWithDefaultRole(t *testing.T) {
	db, mock, cleanup := newUserMock(t)
	defer cleanup()
	repo := NewUserRepository(db)

	now := time.Now().UTC()
	rows := sqlmock.NewRows([]string{"id", "email", "name", "role", "created_at", "last_log_in"}).
		AddRow("uid-1", "new@school.io", "New User", "user", now, now)
	mock.ExpectQuery("INSERT INTO users").
		WithArgs(sqlmock.AnyArg(), "new@school.io", "New User", sqlmock.AnyArg()).
		WillReturnRows(rows)

	user, err := repo.Touch(context.Background(), "new@school.io", "New User")
	require.NoError(t, err)
	assert.Equal(t, models.RoleUser, user.Role)
	assert.Equal(t, user.CreatedAt, user.LastLogIn)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUserRepositoryTouchKeepsExistingRole(t *testing.T) {
	db, mock, cleanup := newUserMock(t)
	defer cleanup()
	repo := NewUserRepository(db)

	created := time.Now().UTC().Add(-48 * time.Hour)
	rows := sqlmock.NewRows([]string{"id", "email", "name", "role", "created_at", "last_log_in"}).
		AddRow("uid-2", "teacher@school.io", "Returning Teacher", "teacher", created, time.Now().UTC())
	mock.ExpectQuery("INSERT INTO users").
		WithArgs(sqlmock.AnyArg(), "teacher@school.io", "Returning Teacher", sqlmock.AnyArg()).
		WillReturnRows(rows)

	user, err := repo.Touch(context.Background(), "teacher@school.io", "Returning Teacher")
	require.NoError(t, err)
	assert.Equal(t, models.RoleTeacher, user.Role)
	assert.True(t, user.LastLogIn.After(user.CreatedAt))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUserRepositorySetRoleReportsAffected(t *testing.T) {
	db, mock, cleanup := newUserMock(t)
	defer cleanup()
	repo := NewUserRepository(db)

	mock.ExpectExec("UPDATE users SET role").
		WithArgs("known@school.io", models.RoleAdmin).
		WillReturnResult(sqlmock.NewResult(0, 1))

	affected, err := repo.SetRole(context.Background(), "known@school.io", models.RoleAdmin)
	require.NoError(t, err)
	assert.Equal(t, int64(1), affected)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUserRepositorySetRoleUnknownEmail(t *testing.T) {
	db, mock, cleanup := newUserMock(t)
	defer cleanup()
	repo := NewUserRepository(db)

	mock.ExpectExec("UPDATE users SET role").
		WithArgs("ghost@school.io", models.RoleTeacher).
		WillReturnResult(sqlmock.NewResult(0, 0))

	affected, err := repo.SetRole(context.Background(), "ghost@school.io", models.RoleTeacher)
	require.NoError(t, err)
	assert.Equal(t, int64(0), affected)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUserRepositorySearch(t *testing.T) {
	db, mock, cleanup := newUserMock(t)
	defer cleanup()
	repo := NewUserRepository(db)

	rows := sqlmock.NewRows([]string{"id", "email", "name", "role", "created_at", "last_log_in"}).
		AddRow("uid-3", "match@school.io", "Match", "user", time.Now(), time.Now())
	mock.ExpectQuery("SELECT id, email, name, role, created_at, last_log_in FROM users WHERE email ILIKE").
		WithArgs("%match%").
		WillReturnRows(rows)

	users, err := repo.Search(context.Background(), "match")
	require.NoError(t, err)
	assert.Len(t, users, 1)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUserRepositoryListFiltersByRole(t *testing.T) {
	db, mock, cleanup := newUserMock(t)
	defer cleanup()
	repo := NewUserRepository(db)

	rows := sqlmock.NewRows([]string{"id", "email", "name", "role", "created_at", "last_log_in"}).
		AddRow("uid-4", "t@school.io", "Teacher", "teacher", time.Now(), time.Now())
	mock.ExpectQuery("SELECT id, email, name, role, created_at, last_log_in FROM users WHERE 1=1 AND role").
		WithArgs(models.RoleTeacher).
		WillReturnRows(rows)
	mock.ExpectQuery(`SELECT COUNT\(\*\) FROM users WHERE 1=1 AND role`).
		WithArgs(models.RoleTeacher).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(1))

	role := models.RoleTeacher
	users, total, err := repo.List(context.Background(), models.UserFilter{Role: &role})
	require.NoError(t, err)
	assert.Len(t, users, 1)
	assert.Equal(t, 1, total)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUserRepositoryDeleteByEmail(t *testing.T) {
	db, mock, cleanup := newUserMock(t)
	defer cleanup()
	repo := NewUserRepository(db)

	mock.ExpectExec("DELETE FROM users WHERE email").
		WithArgs("gone@school.io").
		WillReturnResult(sqlmock.NewResult(0, 1))

	affected, err := repo.DeleteByEmail(context.Background(), "gone@school.io")
	require.NoError(t, err)
	assert.Equal(t, int64(1), affected)
	assert.NoError(t, mock.ExpectationsWereMet())
}
