// Package users persists user identity records in the users collection.
// Exactly one document exists per email; the email never changes after
// creation.
package users

import (
	"context"

	"github.com/dkarlovs/uservault/internal/server/models"
)

type Repository interface {
	// Add inserts a new user with a durable write. A user with the same
	// email must not already exist (common.ErrorDuplicateKey).
	Add(ctx context.Context, user *models.User) error

	// Get returns the user matching email or common.ErrorNotFound.
	Get(ctx context.Context, email string) (*models.User, error)

	// Delete removes the user document matching email. It reports
	// common.ErrorNotFound when no document was removed; dependent session
	// records are the caller's responsibility.
	Delete(ctx context.Context, email string) error

	// UpdatePreferences applies a partial update to the user's preference
	// map in a single write: every key in preferences replaces its stored
	// entry, and a nil value removes the entry entirely. A nil map is
	// rejected with common.ErrorInvalidArgument; an unknown email yields
	// common.ErrorNotFound.
	UpdatePreferences(ctx context.Context, email string, preferences map[string]any) error
}
