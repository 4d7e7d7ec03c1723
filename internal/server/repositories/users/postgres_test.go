package users

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/dmitrijs2005/fplassistant/internal/common"
	"github.com/dmitrijs2005/fplassistant/internal/server/models"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testUserID = "7d7bd3c2-5a63-4b8f-9b43-2d3c1f0f8a10"

func newRepoWithMock(t *testing.T) (*PostgresRepository, sqlmock.Sqlmock, *sql.DB) {
	t.Helper()
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	if err != nil {
		t.Fatalf("sqlmock.New error: %v", err)
	}
	return NewPostgresRepository(db), mock, db
}

var insertQuery = `(?s)^INSERT\s+INTO\s+users\s*\(id,\s*username,\s*email,\s*password_hash,\s*fpl_manager_id\)\s*VALUES\s*\(\$1,\s*\$2,\s*\$3,\s*\$4,\s*\$5\)\s*RETURNING\s+created_at,\s*updated_at\s*$`

func TestCreate_Success(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	now := time.Date(2024, 8, 1, 12, 0, 0, 0, time.UTC)
	managerID := int64(123456)

	mock.ExpectQuery(insertQuery).
		WithArgs(sqlmock.AnyArg(), "alice", "alice@example.com", "hash", managerID).
		WillReturnRows(sqlmock.NewRows([]string{"created_at", "updated_at"}).AddRow(now, now))

	u := &models.User{UserName: "alice", Email: "alice@example.com", PasswordHash: "hash", ManagerID: &managerID}
	got, err := repo.Create(context.Background(), u)
	require.NoError(t, err)
	assert.Len(t, got.ID, 36)
	assert.Equal(t, now, got.CreatedAt)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestCreate_NullManager(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	now := time.Now().UTC()
	mock.ExpectQuery(insertQuery).
		WithArgs(testUserID, "bob", "bob@example.com", "hash", nil).
		WillReturnRows(sqlmock.NewRows([]string{"created_at", "updated_at"}).AddRow(now, now))

	u := &models.User{ID: testUserID, UserName: "bob", Email: "bob@example.com", PasswordHash: "hash"}
	_, err := repo.Create(context.Background(), u)
	require.NoError(t, err)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestCreate_UniqueViolations(t *testing.T) {
	tests := []struct {
		name       string
		constraint string
		want       error
	}{
		{name: "email", constraint: "users_email_key", want: common.ErrDuplicateEmail},
		{name: "username", constraint: "users_username_key", want: common.ErrDuplicateUsername},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo, mock, db := newRepoWithMock(t)
			defer db.Close()

			mock.ExpectQuery(insertQuery).
				WillReturnError(&pgconn.PgError{Code: "23505", ConstraintName: tt.constraint})

			_, err := repo.Create(context.Background(), &models.User{UserName: "alice", Email: "a@example.com", PasswordHash: "h"})
			require.ErrorIs(t, err, tt.want)
		})
	}
}

func TestCreate_DBError(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	mock.ExpectQuery(insertQuery).WillReturnError(errors.New("db down"))

	_, err := repo.Create(context.Background(), &models.User{UserName: "alice", Email: "a@example.com", PasswordHash: "h"})
	if err == nil || !regexp.MustCompile(`db error: .*db down`).MatchString(err.Error()) {
		t.Fatalf("expected wrapped db error, got %v", err)
	}
}

var userColumns = []string{"id", "username", "email", "password_hash", "fpl_manager_id",
	"manager_history", "history_updated_at", "created_at", "updated_at"}

func TestGetByEmail_Found(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	q := `(?s)^SELECT\s+id,.*FROM\s+users\s+WHERE\s+email\s*=\s*\$1$`
	created := time.Date(2024, 7, 1, 0, 0, 0, 0, time.UTC)
	refreshed := time.Date(2024, 8, 1, 0, 0, 0, 0, time.UTC)

	mock.ExpectQuery(q).
		WithArgs("alice@example.com").
		WillReturnRows(sqlmock.NewRows(userColumns).
			AddRow(testUserID, "alice", "alice@example.com", "hash", int64(42),
				[]byte(`{"history":{},"entry":{}}`), refreshed, created, created))

	got, err := repo.GetByEmail(context.Background(), "alice@example.com")
	require.NoError(t, err)
	assert.Equal(t, testUserID, got.ID)
	require.NotNil(t, got.ManagerID)
	assert.Equal(t, int64(42), *got.ManagerID)
	assert.JSONEq(t, `{"history":{},"entry":{}}`, string(got.ManagerHistory))
	require.NotNil(t, got.HistoryUpdatedAt)
	assert.Equal(t, refreshed, *got.HistoryUpdatedAt)
}

func TestGetByID_NullColumns(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	q := `(?s)^SELECT\s+id,.*FROM\s+users\s+WHERE\s+id\s*=\s*\$1$`
	created := time.Date(2024, 7, 1, 0, 0, 0, 0, time.UTC)

	mock.ExpectQuery(q).
		WithArgs(testUserID).
		WillReturnRows(sqlmock.NewRows(userColumns).
			AddRow(testUserID, "alice", "alice@example.com", "hash", nil, nil, nil, created, created))

	got, err := repo.GetByID(context.Background(), testUserID)
	require.NoError(t, err)
	assert.Nil(t, got.ManagerID)
	assert.Nil(t, got.ManagerHistory)
	assert.Nil(t, got.HistoryUpdatedAt)
}

func TestGetByID_NotFound(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	mock.ExpectQuery(`(?s)^SELECT.*WHERE\s+id`).
		WithArgs(testUserID).
		WillReturnError(sql.ErrNoRows)

	_, err := repo.GetByID(context.Background(), testUserID)
	require.ErrorIs(t, err, common.ErrNotFound)

	_, err = repo.GetByID(context.Background(), "not-a-uuid")
	require.ErrorIs(t, err, common.ErrNotFound, "malformed ids never reach the database")
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestExists(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	mock.ExpectQuery(`(?s)^SELECT\s+EXISTS.*WHERE\s+email\s*=\s*\$1\)$`).
		WithArgs("alice@example.com").
		WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(true))
	mock.ExpectQuery(`(?s)^SELECT\s+EXISTS.*WHERE\s+username\s*=\s*\$1\)$`).
		WithArgs("alice").
		WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(false))
	mock.ExpectQuery(`(?s)^SELECT\s+EXISTS.*WHERE\s+username`).
		WithArgs("bob").
		WillReturnError(errors.New("db err"))

	ok, err := repo.ExistsByEmail(context.Background(), "alice@example.com")
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = repo.ExistsByUsername(context.Background(), "alice")
	require.NoError(t, err)
	assert.False(t, ok)

	_, err = repo.ExistsByUsername(context.Background(), "bob")
	require.Error(t, err)
}

func TestUpdateManagerHistory(t *testing.T) {
	q := `(?s)^UPDATE\s+users\s+SET\s+manager_history\s*=\s*\$2,\s*history_updated_at\s*=\s*\$3,\s*updated_at\s*=\s*now\(\)\s+WHERE\s+id\s*=\s*\$1\s*$`
	doc := json.RawMessage(`{"history":[],"entry":{"id":1}}`)
	at := time.Date(2024, 8, 20, 10, 0, 0, 0, time.UTC)

	t.Run("updated", func(t *testing.T) {
		repo, mock, db := newRepoWithMock(t)
		defer db.Close()

		mock.ExpectExec(q).
			WithArgs(testUserID, []byte(doc), at).
			WillReturnResult(sqlmock.NewResult(0, 1))

		require.NoError(t, repo.UpdateManagerHistory(context.Background(), testUserID, doc, at))
		require.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("no such user", func(t *testing.T) {
		repo, mock, db := newRepoWithMock(t)
		defer db.Close()

		mock.ExpectExec(q).WillReturnResult(sqlmock.NewResult(0, 0))

		err := repo.UpdateManagerHistory(context.Background(), testUserID, doc, at)
		require.ErrorIs(t, err, common.ErrNotFound)
	})
}

func TestCount(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	mock.ExpectQuery(`^SELECT COUNT\(\*\) FROM users$`).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(int64(3)))

	n, err := repo.Count(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int64(3), n)
}
