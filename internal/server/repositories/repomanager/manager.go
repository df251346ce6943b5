// Package repomanager hands out the user and token repositories of one
// storage backend and runs multi-step writes as a unit where the backend
// allows it.
package repomanager

import (
	"context"

	"github.com/dmitrijs2005/authkeeper/internal/server/repositories/tokens"
	"github.com/dmitrijs2005/authkeeper/internal/server/repositories/users"
)

// Repositories is a set of repositories bound to one handle (pool or tx).
type Repositories interface {
	Users() users.Repository
	Tokens() tokens.Repository
}

type RepositoryManager interface {
	Repositories

	// WithTx runs fn with repositories bound to a single transaction.
	// Everything fn writes is committed if it returns nil and discarded
	// otherwise. Backends without transactions only serialise the calls.
	WithTx(ctx context.Context, fn func(ctx context.Context, repos Repositories) error) error

	RunMigrations(ctx context.Context) error
	Close() error
}
