package repomanager

import (
	"context"

	"github.com/dmitrijs2005/authkeeper/internal/server/repositories/tokens"
	"github.com/dmitrijs2005/authkeeper/internal/server/repositories/users"
)

// MemoryRepositoryManager keeps everything in process memory. WithTx runs fn
// directly against the shared repositories; writes made before an error are
// not rolled back.
type MemoryRepositoryManager struct {
	users  *users.MemoryRepository
	tokens tokens.Repository
}

func NewMemoryRepositoryManager() *MemoryRepositoryManager {
	return &MemoryRepositoryManager{
		users:  users.NewMemoryRepository(),
		tokens: tokens.NewMemoryRepository(),
	}
}

func (m *MemoryRepositoryManager) Users() users.Repository   { return m.users }
func (m *MemoryRepositoryManager) Tokens() tokens.Repository { return m.tokens }

func (m *MemoryRepositoryManager) WithTx(ctx context.Context, fn func(ctx context.Context, repos Repositories) error) error {
	return fn(ctx, m)
}

func (m *MemoryRepositoryManager) RunMigrations(context.Context) error { return nil }
func (m *MemoryRepositoryManager) Close() error                        { return nil }
