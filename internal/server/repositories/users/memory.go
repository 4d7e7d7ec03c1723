package users

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"time"

	"github.com/dmitrijs2005/fplassistant/internal/common"
	"github.com/dmitrijs2005/fplassistant/internal/server/models"
	"github.com/google/uuid"
)

// MemoryRepository keeps users in process memory. It backs development runs
// without a database and the service tests.
type MemoryRepository struct {
	mu    sync.RWMutex
	byID  map[string]*models.User
	order []string
	now   func() time.Time
}

func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{byID: make(map[string]*models.User), now: time.Now}
}

func (r *MemoryRepository) Create(ctx context.Context, user *models.User) (*models.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, u := range r.byID {
		if u.Email == user.Email {
			return nil, common.ErrDuplicateEmail
		}
		if u.UserName == user.UserName {
			return nil, common.ErrDuplicateUsername
		}
	}

	if user.ID == "" {
		user.ID = uuid.NewString()
	}
	now := r.now().UTC()
	user.CreatedAt, user.UpdatedAt = now, now

	r.byID[user.ID] = clone(user)
	r.order = append(r.order, user.ID)
	return user, nil
}

func (r *MemoryRepository) GetByID(ctx context.Context, id string) (*models.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	u, ok := r.byID[id]
	if !ok {
		return nil, common.ErrNotFound
	}
	return clone(u), nil
}

func (r *MemoryRepository) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, id := range r.order {
		if u := r.byID[id]; u.Email == email {
			return clone(u), nil
		}
	}
	return nil, common.ErrNotFound
}

func (r *MemoryRepository) ExistsByEmail(ctx context.Context, email string) (bool, error) {
	_, err := r.GetByEmail(ctx, email)
	if errors.Is(err, common.ErrNotFound) {
		return false, nil
	}
	return err == nil, err
}

func (r *MemoryRepository) ExistsByUsername(ctx context.Context, userName string) (bool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, u := range r.byID {
		if u.UserName == userName {
			return true, nil
		}
	}
	return false, nil
}

func (r *MemoryRepository) UpdateManagerHistory(ctx context.Context, id string, history json.RawMessage, updatedAt time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	u, ok := r.byID[id]
	if !ok {
		return common.ErrNotFound
	}
	u.ManagerHistory = append(json.RawMessage(nil), history...)
	ts := updatedAt
	u.HistoryUpdatedAt = &ts
	u.UpdatedAt = r.now().UTC()
	return nil
}

func (r *MemoryRepository) Count(ctx context.Context) (int64, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return int64(len(r.byID)), nil
}

func clone(u *models.User) *models.User {
	c := *u
	if u.ManagerID != nil {
		id := *u.ManagerID
		c.ManagerID = &id
	}
	if u.ManagerHistory != nil {
		c.ManagerHistory = append(json.RawMessage(nil), u.ManagerHistory...)
	}
	if u.HistoryUpdatedAt != nil {
		ts := *u.HistoryUpdatedAt
		c.HistoryUpdatedAt = &ts
	}
	return &c
}
