package users

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/dmitrijs2005/fplassistant/internal/common"
	"github.com/dmitrijs2005/fplassistant/internal/dbx"
	"github.com/dmitrijs2005/fplassistant/internal/server/models"
	"github.com/google/uuid"
)

const (
	emailConstraint    = "users_email_key"
	usernameConstraint = "users_username_key"
)

type PostgresRepository struct {
	db dbx.DBTX
}

func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

// Create inserts user, assigning a new UUID when ID is empty, and fills the
// timestamps set by the database.
func (r *PostgresRepository) Create(ctx context.Context, user *models.User) (*models.User, error) {
	if user.ID == "" {
		user.ID = uuid.NewString()
	}

	query :=
		`INSERT INTO users (id, username, email, password_hash, fpl_manager_id)
         VALUES ($1, $2, $3, $4, $5)
		 RETURNING created_at, updated_at
		 `

	err := r.db.QueryRowContext(ctx, query,
		user.ID, user.UserName, user.Email, user.PasswordHash, nullInt64(user.ManagerID)).
		Scan(&user.CreatedAt, &user.UpdatedAt)

	if err != nil {
		switch {
		case dbx.IsUniqueViolation(err, usernameConstraint):
			return nil, common.ErrDuplicateUsername
		case dbx.IsUniqueViolation(err, ""):
			return nil, common.ErrDuplicateEmail
		}
		return nil, fmt.Errorf("db error: %w", err)
	}

	return user, nil
}

const selectUser = `SELECT id, username, email, password_hash, fpl_manager_id,
		 manager_history, history_updated_at, created_at, updated_at
		 FROM users`

func (r *PostgresRepository) GetByID(ctx context.Context, id string) (*models.User, error) {
	if _, err := uuid.Parse(id); err != nil {
		return nil, common.ErrNotFound
	}
	return r.getOne(ctx, selectUser+` WHERE id = $1`, id)
}

func (r *PostgresRepository) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	return r.getOne(ctx, selectUser+` WHERE email = $1`, email)
}

func (r *PostgresRepository) getOne(ctx context.Context, query string, arg any) (*models.User, error) {
	var (
		user      models.User
		managerID sql.NullInt64
		history   []byte
		updatedAt sql.NullTime
	)

	err := r.db.QueryRowContext(ctx, query, arg).Scan(
		&user.ID, &user.UserName, &user.Email, &user.PasswordHash, &managerID,
		&history, &updatedAt, &user.CreatedAt, &user.UpdatedAt)

	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}

	if managerID.Valid {
		id := managerID.Int64
		user.ManagerID = &id
	}
	if len(history) > 0 {
		user.ManagerHistory = json.RawMessage(history)
	}
	if updatedAt.Valid {
		ts := updatedAt.Time
		user.HistoryUpdatedAt = &ts
	}

	return &user, nil
}

func (r *PostgresRepository) ExistsByEmail(ctx context.Context, email string) (bool, error) {
	return r.exists(ctx, `SELECT EXISTS (SELECT 1 FROM users WHERE email = $1)`, email)
}

func (r *PostgresRepository) ExistsByUsername(ctx context.Context, userName string) (bool, error) {
	return r.exists(ctx, `SELECT EXISTS (SELECT 1 FROM users WHERE username = $1)`, userName)
}

func (r *PostgresRepository) exists(ctx context.Context, query string, arg any) (bool, error) {
	var found bool
	if err := r.db.QueryRowContext(ctx, query, arg).Scan(&found); err != nil {
		return false, fmt.Errorf("db error: %w", err)
	}
	return found, nil
}

// UpdateManagerHistory replaces the cached manager document of user id.
func (r *PostgresRepository) UpdateManagerHistory(ctx context.Context, id string, history json.RawMessage, updatedAt time.Time) error {
	query :=
		`UPDATE users SET manager_history = $2, history_updated_at = $3, updated_at = now()
		 WHERE id = $1
		 `

	res, err := r.db.ExecContext(ctx, query, id, []byte(history), updatedAt)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	if n == 0 {
		return common.ErrNotFound
	}
	return nil
}

func (r *PostgresRepository) Count(ctx context.Context) (int64, error) {
	var n int64
	if err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM users`).Scan(&n); err != nil {
		return 0, fmt.Errorf("db error: %w", err)
	}
	return n, nil
}

func nullInt64(v *int64) sql.NullInt64 {
	if v == nil {
		return sql.NullInt64{}
	}
	return sql.NullInt64{Int64: *v, Valid: true}
}
