package repomanager

import (
	"context"
	"sync"

	"github.com/dmitrijs2005/fplassistant/internal/dbx"
	"github.com/dmitrijs2005/fplassistant/internal/server/repositories/users"
)

// MemoryRepositoryManager serves a single in-memory users repository.
// Transactions are emulated by serializing WithTx blocks; the DBTX handed to
// fn is nil and ignored by the repositories.
type MemoryRepositoryManager struct {
	txMu  sync.Mutex
	users *users.MemoryRepository
}

func NewMemoryRepositoryManager() *MemoryRepositoryManager {
	return &MemoryRepositoryManager{users: users.NewMemoryRepository()}
}

func (m *MemoryRepositoryManager) RunMigrations(context.Context) error { return nil }

func (m *MemoryRepositoryManager) DB() dbx.DBTX { return nil }

func (m *MemoryRepositoryManager) Users(dbx.DBTX) users.Repository { return m.users }

func (m *MemoryRepositoryManager) WithTx(ctx context.Context, fn func(ctx context.Context, tx dbx.DBTX) error) error {
	m.txMu.Lock()
	defer m.txMu.Unlock()
	return fn(ctx, nil)
}

func (m *MemoryRepositoryManager) Close() error { return nil }
