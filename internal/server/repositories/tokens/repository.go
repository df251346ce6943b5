// Package tokens declares the server-side repository contract for issued
// token records and its PostgreSQL, Redis and in-memory implementations.
package tokens

import (
	"context"

	"github.com/dmitrijs2005/authkeeper/internal/server/models"
)

// Repository defines operations for storing, resolving and consuming tokens.
type Repository interface {
	// Create stores a new record. A record with the same token string yields
	// common.ErrorConflict.
	Create(ctx context.Context, token *models.Token) error

	// FindByToken looks up a record by its exact token string. Absent records
	// yield common.ErrorNotFound; rows that do not decode into a valid record
	// yield common.ErrorStorageFailure.
	FindByToken(ctx context.Context, token string) (*models.Token, error)

	// Delete removes a record by its token string. When no record was
	// removed it returns common.ErrorNotFound, so of two concurrent deletes
	// of one token only one succeeds.
	Delete(ctx context.Context, token string) error
}
