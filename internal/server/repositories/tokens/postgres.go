package tokens

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/dmitrijs2005/authkeeper/internal/common"
	"github.com/dmitrijs2005/authkeeper/internal/dbx"
	"github.com/dmitrijs2005/authkeeper/internal/server/models"
)

// PostgresRepository stores tokens in the tokens table over dbx.DBTX
// (satisfied by *sql.DB or *sql.Tx).
type PostgresRepository struct {
	db dbx.DBTX
}

func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

func (r *PostgresRepository) Create(ctx context.Context, token *models.Token) error {
	query := `
		INSERT INTO tokens (user_id, token, kind, expires_at, created_at)
		VALUES ($1, $2, $3, $4, $5)
	`
	_, err := r.db.ExecContext(ctx, query, token.UserID, token.Token, string(token.Kind), token.ExpiresAt, token.CreatedAt)
	if err != nil {
		if dbx.IsUniqueViolation(err) {
			return fmt.Errorf("duplicate token: %w", common.ErrorConflict)
		}
		return fmt.Errorf("error performing sql request: %v: %w", err, common.ErrorStorageFailure)
	}
	return nil
}

func (r *PostgresRepository) FindByToken(ctx context.Context, token string) (*models.Token, error) {
	query := `
		SELECT user_id, token, kind, expires_at, created_at
		FROM tokens
		WHERE token = $1
	`
	t := &models.Token{}
	var kind string
	if err := r.db.QueryRowContext(ctx, query, token).Scan(&t.UserID, &t.Token, &kind, &t.ExpiresAt, &t.CreatedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrorNotFound
		}
		return nil, fmt.Errorf("db error: %v: %w", err, common.ErrorStorageFailure)
	}

	t.Kind = models.TokenKind(kind)
	if err := t.Validate(); err != nil {
		return nil, err
	}
	t.ExpiresAt = t.ExpiresAt.UTC()
	t.CreatedAt = t.CreatedAt.UTC()

	return t, nil
}

func (r *PostgresRepository) Delete(ctx context.Context, token string) error {
	query := `
		DELETE FROM tokens
		WHERE token = $1
	`
	res, err := r.db.ExecContext(ctx, query, token)
	if err != nil {
		return fmt.Errorf("db error: %v: %w", err, common.ErrorStorageFailure)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("db error: %v: %w", err, common.ErrorStorageFailure)
	}
	if n == 0 {
		return common.ErrorNotFound
	}
	return nil
}
