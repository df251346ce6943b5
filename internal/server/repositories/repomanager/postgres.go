package repomanager

import (
	"context"
	"database/sql"

	"github.com/dmitrijs2005/authkeeper/internal/dbx"
	"github.com/dmitrijs2005/authkeeper/internal/server/migrations"
	"github.com/dmitrijs2005/authkeeper/internal/server/repositories/tokens"
	"github.com/dmitrijs2005/authkeeper/internal/server/repositories/users"
	"github.com/pressly/goose/v3"
)

// PostgresRepositoryManager vends PostgreSQL-backed repositories. Token
// records go to tokenStore instead when one is set (e.g. Redis); such writes
// do not take part in WithTx transactions.
type PostgresRepositoryManager struct {
	db         *sql.DB
	tokenStore tokens.Repository
}

type Option func(*PostgresRepositoryManager)

// WithTokenStore overrides where token records are kept.
func WithTokenStore(r tokens.Repository) Option {
	return func(m *PostgresRepositoryManager) {
		m.tokenStore = r
	}
}

func NewPostgresRepositoryManager(db *sql.DB, opts ...Option) *PostgresRepositoryManager {
	m := &PostgresRepositoryManager{db: db}
	for _, o := range opts {
		o(m)
	}
	return m
}

func (m *PostgresRepositoryManager) Users() users.Repository {
	return users.NewPostgresRepository(m.db)
}

func (m *PostgresRepositoryManager) Tokens() tokens.Repository {
	if m.tokenStore != nil {
		return m.tokenStore
	}
	return tokens.NewPostgresRepository(m.db)
}

type txRepositories struct {
	tx         dbx.DBTX
	tokenStore tokens.Repository
}

func (r *txRepositories) Users() users.Repository {
	return users.NewPostgresRepository(r.tx)
}

func (r *txRepositories) Tokens() tokens.Repository {
	if r.tokenStore != nil {
		return r.tokenStore
	}
	return tokens.NewPostgresRepository(r.tx)
}

func (m *PostgresRepositoryManager) WithTx(ctx context.Context, fn func(ctx context.Context, repos Repositories) error) error {
	return dbx.WithTx(ctx, m.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		return fn(ctx, &txRepositories{tx: tx, tokenStore: m.tokenStore})
	})
}

// gooseUpContext is a seam for testing goose.UpContext.
var gooseUpContext = func(ctx context.Context, db *sql.DB, dir string, opts ...goose.OptionsFunc) error {
	return goose.UpContext(ctx, db, dir, opts...)
}

// RunMigrations sets up goose with the embedded migrations and runs them
// against the pool.
func (m *PostgresRepositoryManager) RunMigrations(ctx context.Context) error {
	goose.SetBaseFS(migrations.Migrations)
	if err := goose.SetDialect("pgx"); err != nil {
		return err
	}
	if err := gooseUpContext(ctx, m.db, "."); err != nil {
		return err
	}
	return nil
}

func (m *PostgresRepositoryManager) Close() error {
	return m.db.Close()
}
