package repomanager

import (
	"context"

	"github.com/dmitrijs2005/fplassistant/internal/dbx"
	"github.com/dmitrijs2005/fplassistant/internal/server/repositories/users"
)

// RepositoryManager vends repositories bound to a DBTX (the pool or an open
// transaction), applies schema migrations and runs transactional blocks.
type RepositoryManager interface {
	RunMigrations(ctx context.Context) error
	DB() dbx.DBTX
	Users(db dbx.DBTX) users.Repository
	WithTx(ctx context.Context, fn func(ctx context.Context, tx dbx.DBTX) error) error
	Close() error
}
