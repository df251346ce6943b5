// Package users declares the repository contract for user accounts and its
// PostgreSQL and in-memory implementations.
package users

import (
	"context"

	"github.com/dmitrijs2005/authkeeper/internal/server/models"
)

// Repository persists users. Implementations return common.ErrorConflict for
// a duplicate username, common.ErrorNotFound for a missing user and wrap
// everything else in common.ErrorStorageFailure.
type Repository interface {
	// Create inserts user and fills in the store-assigned ID and CreatedAt.
	Create(ctx context.Context, user *models.User) (*models.User, error)
	GetUserByLogin(ctx context.Context, login string) (*models.User, error)
	GetByID(ctx context.Context, id string) (*models.User, error)
	// SetConfirmed flips the confirmed flag of a single user without touching
	// other columns.
	SetConfirmed(ctx context.Context, id string) error
}
