// Package db wires the storage backend: it owns the MongoDB client, ensures
// the indexes the repositories rely on, and hands out repository instances.
// The client is acquired once at startup and held for process lifetime.
package db

import (
	"context"

	"github.com/dkarlovs/uservault/internal/server/repositories/sessions"
	"github.com/dkarlovs/uservault/internal/server/repositories/users"
)

type RepositoryManager interface {
	Users() users.Repository
	Sessions() sessions.Repository
	Ping(ctx context.Context) error
	Close(ctx context.Context) error
}
