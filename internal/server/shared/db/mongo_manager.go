package db

import (
	"context"
	"fmt"
	"time"

	"github.com/dkarlovs/uservault/internal/common"
	"github.com/dkarlovs/uservault/internal/logging"
	"github.com/dkarlovs/uservault/internal/server/repositories/sessions"
	"github.com/dkarlovs/uservault/internal/server/repositories/users"
	"github.com/sethvargo/go-retry"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"
)

const (
	usersCollection    = "users"
	sessionsCollection = "sessions"
)

type MongoRepositoryManager struct {
	client   *mongo.Client
	db       *mongo.Database
	users    users.Repository
	sessions sessions.Repository
}

func (m *MongoRepositoryManager) Users() users.Repository {
	return m.users
}

func (m *MongoRepositoryManager) Sessions() sessions.Repository {
	return m.sessions
}

func (m *MongoRepositoryManager) Ping(ctx context.Context) error {
	if err := m.client.Ping(ctx, readpref.Primary()); err != nil {
		return fmt.Errorf("%w: %v", common.ErrorStoreUnavailable, err)
	}
	return nil
}

func (m *MongoRepositoryManager) Close(ctx context.Context) error {
	return m.client.Disconnect(ctx)
}

// ensureIndexes creates the indexes the repositories rely on: the unique
// email index backs duplicate-registration detection, the unique user_id
// index keeps one session per user, and the unique jwt index guarantees a
// token is never bound to two identities.
func (m *MongoRepositoryManager) ensureIndexes(ctx context.Context) error {
	_, err := m.db.Collection(usersCollection).Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "email", Value: 1}},
		Options: options.Index().SetUnique(true),
	})
	if err != nil {
		return fmt.Errorf("creating users indexes: %w", err)
	}

	_, err = m.db.Collection(sessionsCollection).Indexes().CreateMany(ctx, []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "user_id", Value: 1}},
			Options: options.Index().SetUnique(true),
		},
		{
			Keys:    bson.D{{Key: "jwt", Value: 1}},
			Options: options.Index().SetUnique(true),
		},
	})
	if err != nil {
		return fmt.Errorf("creating sessions indexes: %w", err)
	}

	return nil
}

func NewMongoRepositoryManager(ctx context.Context, uri, dbName string, logger logging.Logger) (RepositoryManager, error) {

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, fmt.Errorf("db connect error: %w", err)
	}

	// The deployment may still be coming up when the server starts; give the
	// ping a few attempts before failing startup.
	backoff := retry.WithMaxRetries(5, retry.NewExponential(500*time.Millisecond))
	err = retry.Do(ctx, backoff, func(ctx context.Context) error {
		if err := client.Ping(ctx, readpref.Primary()); err != nil {
			return retry.RetryableError(err)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("%w: ping: %v", common.ErrorStoreUnavailable, err)
	}

	m := &MongoRepositoryManager{
		client: client,
		db:     client.Database(dbName),
	}

	if err := m.ensureIndexes(ctx); err != nil {
		return nil, fmt.Errorf("index creation error: %w", err)
	}

	userRepo, err := users.NewMongoRepository(m.db.Collection(usersCollection))
	if err != nil {
		return nil, fmt.Errorf("user repo creation error: %w", err)
	}

	sessionRepo, err := sessions.NewMongoRepository(m.db.Collection(sessionsCollection), logger)
	if err != nil {
		return nil, fmt.Errorf("session repo creation error: %w", err)
	}

	m.users = userRepo
	m.sessions = sessionRepo

	return m, nil
}
