package repository

import (
	"context"
	"database/sql"
	"regexp"
	"testing"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sekolahku/sekolahku-api/internal/models"
)

func newResourceMock(t *testing.T) (*sqlx.DB, sqlmock.Sqlmock, func()) {
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	return sqlx.NewDb(db, "sqlmock"), mock, func() { db.Close() }
}

func roleSpec() models.ResourceSpec {
	return models.ResourceSpec{
		Name:       "roles",
		Table:      "roles",
		PrimaryKey: "id",
		Columns:    []string{"id", "name", "description"},
	}
}

func userSpec() models.ResourceSpec {
	return models.ResourceSpec{
		Name:       "users",
		Table:      "users",
		PrimaryKey: "id",
		SoftDelete: true,
		Columns:    []string{"id", "email", "active"},
	}
}

func TestResourceRepositoryList(t *testing.T) {
	db, mock, cleanup := newResourceMock(t)
	defer cleanup()
	repo := NewResourceRepository(db)

	rows := sqlmock.NewRows([]string{"id", "name", "description"}).
		AddRow("r1", []byte("admin"), []byte("all access"))
	mock.ExpectQuery(regexp.QuoteMeta("SELECT * FROM roles WHERE 1=1 AND name = $1 ORDER BY id DESC LIMIT 20 OFFSET 0")).
		WithArgs("admin").
		WillReturnRows(rows)
	mock.ExpectQuery(regexp.QuoteMeta("SELECT COUNT(*) FROM roles WHERE 1=1 AND name = $1")).
		WithArgs("admin").
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(1))

	results, total, err := repo.List(context.Background(), roleSpec(), ResourceQuery{
		Filters: map[string]string{"name": "admin"},
	})
	require.NoError(t, err)
	assert.Equal(t, 1, total)
	require.Len(t, results, 1)
	// []byte values come back as strings.
	assert.Equal(t, "admin", results[0]["name"])
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestResourceRepositoryListHidesInactive(t *testing.T) {
	db, mock, cleanup := newResourceMock(t)
	defer cleanup()
	repo := NewResourceRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta("SELECT * FROM users WHERE 1=1 AND active = true ORDER BY id DESC LIMIT 20 OFFSET 0")).
		WillReturnRows(sqlmock.NewRows([]string{"id"}))
	mock.ExpectQuery(regexp.QuoteMeta("SELECT COUNT(*) FROM users WHERE 1=1 AND active = true")).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(0))

	_, _, err := repo.List(context.Background(), userSpec(), ResourceQuery{})
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestResourceRepositoryListIncludeInactive(t *testing.T) {
	db, mock, cleanup := newResourceMock(t)
	defer cleanup()
	repo := NewResourceRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta("SELECT * FROM users WHERE 1=1 ORDER BY id DESC LIMIT 20 OFFSET 0")).
		WillReturnRows(sqlmock.NewRows([]string{"id"}))
	mock.ExpectQuery(regexp.QuoteMeta("SELECT COUNT(*) FROM users WHERE 1=1")).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(0))

	_, _, err := repo.List(context.Background(), userSpec(), ResourceQuery{IncludeInactive: true})
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestResourceRepositoryCreateGeneratesID(t *testing.T) {
	db, mock, cleanup := newResourceMock(t)
	defer cleanup()
	repo := NewResourceRepository(db)

	rows := sqlmock.NewRows([]string{"id", "name"}).AddRow("generated-id", []byte("librarian"))
	mock.ExpectQuery(regexp.QuoteMeta("INSERT INTO roles (id, name) VALUES ($1, $2) RETURNING *")).
		WithArgs(sqlmock.AnyArg(), "librarian").
		WillReturnRows(rows)

	result, err := repo.Create(context.Background(), roleSpec(), map[string]interface{}{"name": "librarian"})
	require.NoError(t, err)
	assert.Equal(t, "generated-id", result["id"])
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestResourceRepositorySoftDelete(t *testing.T) {
	db, mock, cleanup := newResourceMock(t)
	defer cleanup()
	repo := NewResourceRepository(db)

	mock.ExpectExec(regexp.QuoteMeta("UPDATE users SET active = false, updated_at = $2 WHERE id = $1")).
		WithArgs("u1", sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 1))

	require.NoError(t, repo.SoftDelete(context.Background(), userSpec(), "u1"))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestResourceRepositoryHardDeleteMissing(t *testing.T) {
	db, mock, cleanup := newResourceMock(t)
	defer cleanup()
	repo := NewResourceRepository(db)

	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM roles WHERE id = $1")).
		WithArgs("ghost").
		WillReturnResult(sqlmock.NewResult(0, 0))

	err := repo.HardDelete(context.Background(), roleSpec(), "ghost")
	assert.Equal(t, sql.ErrNoRows, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}
