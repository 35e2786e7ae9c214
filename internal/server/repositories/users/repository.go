// Package users declares the server-side repository contract for the
// credential store: identity records and their password hashes.
package users

import (
	"context"

	"github.com/dmitrijs2005/gophauth/internal/server/models"
)

// Repository defines operations over persisted user identities.
type Repository interface {
	// Create inserts a new identity and returns it with the assigned id.
	// A concurrent duplicate email surfaces as common.ErrorEmailExists.
	Create(ctx context.Context, user *models.User) (*models.User, error)

	// GetByEmail returns the full record including the password hash.
	// Intended for authentication only. Absent users yield common.ErrorNotFound.
	GetByEmail(ctx context.Context, email string) (*models.User, error)

	// GetByID returns the record without the password hash.
	// Absent users yield common.ErrorNotFound.
	GetByID(ctx context.Context, id int64) (*models.User, error)

	// EmailExists reports whether an identity with this exact email exists.
	EmailExists(ctx context.Context, email string) (bool, error)
}
