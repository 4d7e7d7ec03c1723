// Package users stores registered accounts.
package users

import (
	"context"
	"encoding/json"
	"strings"
	"time"

	"github.com/dmitrijs2005/fplassistant/internal/server/models"
)

// Repository is the credential store used by the user and manager services.
//
// Lookups by email expect an already normalized (trimmed, lowercased) value.
// Missing users are reported as common.ErrNotFound; uniqueness conflicts as
// common.ErrDuplicateEmail or common.ErrDuplicateUsername.
type Repository interface {
	Create(ctx context.Context, user *models.User) (*models.User, error)
	GetByID(ctx context.Context, id string) (*models.User, error)
	GetByEmail(ctx context.Context, email string) (*models.User, error)
	ExistsByEmail(ctx context.Context, email string) (bool, error)
	ExistsByUsername(ctx context.Context, userName string) (bool, error)
	UpdateManagerHistory(ctx context.Context, id string, history json.RawMessage, updatedAt time.Time) error
	Count(ctx context.Context) (int64, error)
}

// NormalizeEmail trims and lowercases an address the way it is stored.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
