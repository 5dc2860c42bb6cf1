// Package sessions persists session records keyed by user id. At most one
// session document exists per user_id, and a token is never bound to two
// identities at once.
package sessions

import (
	"context"

	"github.com/dkarlovs/uservault/internal/server/models"
)

type Repository interface {
	// Create upserts the session for userID, replacing any previous token,
	// with a durable write. It fails with common.ErrorTokenCollision when
	// jwt is already bound to a different user id.
	Create(ctx context.Context, userID, jwt string) error

	// Get returns the session for userID or common.ErrorNotFound.
	Get(ctx context.Context, userID string) (*models.Session, error)

	// Delete removes the session for userID. Deleting a non-existent
	// session is not an error; the bool reports whether anything was
	// actually removed.
	Delete(ctx context.Context, userID string) (bool, error)
}
