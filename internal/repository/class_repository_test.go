package repository

import (
	"context"
	"database/sql"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/alpha10/acs-api/internal/models"
)

func newClassMock(t *testing.T) (*sqlx.DB, sqlmock.Sqlmock, func()) {
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	return sqlx.NewDb(db, "sqlmock"), mock, func() { db.Close() }
}

func TestClassRepositoryCreate(t *testing.T) {
	db, mock, cleanup := newClassMock(t)
	defer cleanup()
	repo := NewClassRepository(db)

	mock.ExpectExec("INSERT INTO classes").
		WithArgs(sqlmock.AnyArg(), "Algebra", "Intro course", "https://img", "Teacher", "t@school.io", sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(1, 1))

	class := &models.Class{Title: "Algebra", Description: "Intro course", ImageURL: "https://img", TeacherName: "Teacher", TeacherEmail: "t@school.io"}
	err := repo.Create(context.Background(), class)
	require.NoError(t, err)
	assert.NotEmpty(t, class.ID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestClassRepositoryOwnerEmail(t *testing.T) {
	db, mock, cleanup := newClassMock(t)
	defer cleanup()
	repo := NewClassRepository(db)

	mock.ExpectQuery("SELECT teacher_email FROM classes").
		WithArgs("class-1").
		WillReturnRows(sqlmock.NewRows([]string{"teacher_email"}).AddRow("owner@school.io"))

	email, err := repo.OwnerEmail(context.Background(), "class-1")
	require.NoError(t, err)
	assert.Equal(t, "owner@school.io", email)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestClassRepositoryOwnerEmailNotFound(t *testing.T) {
	db, mock, cleanup := newClassMock(t)
	defer cleanup()
	repo := NewClassRepository(db)

	mock.ExpectQuery("SELECT teacher_email FROM classes").
		WithArgs("missing").
		WillReturnError(sql.ErrNoRows)

	_, err := repo.OwnerEmail(context.Background(), "missing")
	assert.ErrorIs(t, err, sql.ErrNoRows)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestClassRepositoryListByTeacherEmail(t *testing.T) {
	db, mock, cleanup := newClassMock(t)
	defer cleanup()
	repo := NewClassRepository(db)

	rows := sqlmock.NewRows([]string{"id", "title", "description", "image_url", "teacher_name", "teacher_email", "created_at", "updated_at"}).
		AddRow("class-1", "Algebra", "Intro", "", "Teacher", "t@school.io", time.Now(), time.Now())
	mock.ExpectQuery("SELECT id, title, description, image_url, teacher_name, teacher_email, created_at, updated_at FROM classes WHERE 1=1 AND teacher_email").
		WithArgs("t@school.io").
		WillReturnRows(rows)
	mock.ExpectQuery(`SELECT COUNT\(\*\) FROM classes WHERE 1=1 AND teacher_email`).
		WithArgs("t@school.io").
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(1))

	classes, total, err := repo.List(context.Background(), models.ClassFilter{TeacherEmail: "t@school.io"})
	require.NoError(t, err)
	assert.Len(t, classes, 1)
	assert.Equal(t, 1, total)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestClassRepositoryUpdateReportsAffected(t *testing.T) {
	db, mock, cleanup := newClassMock(t)
	defer cleanup()
	repo := NewClassRepository(db)

	mock.ExpectExec("UPDATE classes SET title").
		WithArgs("class-1", "New title", "New description", "https://img2", sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 1))

	class := &models.Class{ID: "class-1", Title: "New title", Description: "New description", ImageURL: "https://img2"}
	affected, err := repo.Update(context.Background(), class)
	require.NoError(t, err)
	assert.Equal(t, int64(1), affected)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestClassRepositoryDelete(t *testing.T) {
	db, mock, cleanup := newClassMock(t)
	defer cleanup()
	repo := NewClassRepository(db)

	mock.ExpectExec("DELETE FROM classes").
		WithArgs("class-1").
		WillReturnResult(sqlmock.NewResult(0, 1))

	affected, err := repo.Delete(context.Background(), "class-1")
	require.NoError(t, err)
	assert.Equal(t, int64(1), affected)
	assert.NoError(t, mock.ExpectationsWereMet())
}
