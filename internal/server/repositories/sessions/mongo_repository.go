package sessions

import (
	"context"
	"errors"
	"fmt"

	"github.com/dkarlovs/uservault/internal/common"
	"github.com/dkarlovs/uservault/internal/logging"
	"github.com/dkarlovs/uservault/internal/server/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/writeconcern"
)

type MongoRepository struct {
	coll *mongo.Collection
	// durable shares the same collection but acknowledges writes at
	// majority; losing a just-issued session would invalidate a login.
	durable *mongo.Collection
	logger  logging.Logger
}

func NewMongoRepository(coll *mongo.Collection, logger logging.Logger) (*MongoRepository, error) {
	durable, err := coll.Clone(options.Collection().SetWriteConcern(writeconcern.Majority()))
	if err != nil {
		return nil, fmt.Errorf("cloning durable collection handle: %w", err)
	}
	return &MongoRepository{
		coll:    coll,
		durable: durable,
		logger:  logger.With("module", "sessions"),
	}, nil
}

func (r *MongoRepository) Create(ctx context.Context, userID, jwt string) error {
	if userID == "" || jwt == "" {
		return fmt.Errorf("%w: user id and token must not be empty", common.ErrorInvalidArgument)
	}

	// A token already bound to a different identity must not be stored a
	// second time.
	err := r.coll.FindOne(ctx, bson.D{
		{Key: "jwt", Value: jwt},
		{Key: "user_id", Value: bson.D{{Key: "$ne", Value: userID}}},
	}).Err()
	if err == nil {
		return fmt.Errorf("token for user %q: %w", userID, common.ErrorTokenCollision)
	}
	if !errors.Is(err, mongo.ErrNoDocuments) {
		return fmt.Errorf("%w: checking token binding: %v", common.ErrorStoreUnavailable, err)
	}

	_, err = r.durable.UpdateOne(ctx,
		bson.D{{Key: "user_id", Value: userID}},
		bson.D{{Key: "$set", Value: bson.D{{Key: "jwt", Value: jwt}}}},
		options.Update().SetUpsert(true),
	)
	if err != nil {
		// The unique index on jwt closes the race the pre-check leaves open.
		if mongo.IsDuplicateKeyError(err) {
			return fmt.Errorf("token for user %q: %w", userID, common.ErrorTokenCollision)
		}
		return fmt.Errorf("%w: upserting session: %v", common.ErrorStoreUnavailable, err)
	}

	return nil
}

func (r *MongoRepository) Get(ctx context.Context, userID string) (*models.Session, error) {
	session := &models.Session{}

	err := r.coll.FindOne(ctx, bson.D{{Key: "user_id", Value: userID}}).Decode(session)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, fmt.Errorf("session for user %q: %w", userID, common.ErrorNotFound)
		}
		return nil, fmt.Errorf("%w: finding session: %v", common.ErrorStoreUnavailable, err)
	}

	return session, nil
}

func (r *MongoRepository) Delete(ctx context.Context, userID string) (bool, error) {
	res, err := r.coll.DeleteOne(ctx, bson.D{{Key: "user_id", Value: userID}})
	if err != nil {
		return false, fmt.Errorf("%w: deleting session: %v", common.ErrorStoreUnavailable, err)
	}
	if res.DeletedCount < 1 {
		r.logger.Warn(ctx, "no session found for user", "user_id", userID)
		return false, nil
	}
	return true, nil
}
