package users

import (
	"context"
	"errors"
	"fmt"

	"github.com/dkarlovs/uservault/internal/common"
	"github.com/dkarlovs/uservault/internal/server/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/writeconcern"
)

type MongoRepository struct {
	coll *mongo.Collection
	// durable shares the same collection but acknowledges writes at
	// majority, so a registration survives a single-node failure.
	durable *mongo.Collection
}

func NewMongoRepository(coll *mongo.Collection) (*MongoRepository, error) {
	durable, err := coll.Clone(options.Collection().SetWriteConcern(writeconcern.Majority()))
	if err != nil {
		return nil, fmt.Errorf("cloning durable collection handle: %w", err)
	}
	return &MongoRepository{coll: coll, durable: durable}, nil
}

func (r *MongoRepository) Add(ctx context.Context, user *models.User) error {
	if user == nil || user.Email == "" {
		return fmt.Errorf("%w: user email must not be empty", common.ErrorInvalidArgument)
	}

	if _, err := r.durable.InsertOne(ctx, user); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return fmt.Errorf("user %q: %w", user.Email, common.ErrorDuplicateKey)
		}
		return fmt.Errorf("%w: inserting user: %v", common.ErrorStoreUnavailable, err)
	}

	return nil
}

func (r *MongoRepository) Get(ctx context.Context, email string) (*models.User, error) {
	user := &models.User{}

	err := r.coll.FindOne(ctx, bson.D{{Key: "email", Value: email}}).Decode(user)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, fmt.Errorf("user %q: %w", email, common.ErrorNotFound)
		}
		return nil, fmt.Errorf("%w: finding user: %v", common.ErrorStoreUnavailable, err)
	}

	return user, nil
}

func (r *MongoRepository) Delete(ctx context.Context, email string) error {
	res, err := r.coll.DeleteOne(ctx, bson.D{{Key: "email", Value: email}})
	if err != nil {
		return fmt.Errorf("%w: deleting user: %v", common.ErrorStoreUnavailable, err)
	}
	if res.DeletedCount < 1 {
		return fmt.Errorf("user %q: %w", email, common.ErrorNotFound)
	}
	return nil
}

func (r *MongoRepository) UpdatePreferences(ctx context.Context, email string, preferences map[string]any) error {
	if preferences == nil {
		return fmt.Errorf("%w: preferences must not be nil", common.ErrorInvalidArgument)
	}

	// An empty map is a valid no-op, but an unknown email must still be
	// detected.
	if len(preferences) == 0 {
		if _, err := r.Get(ctx, email); err != nil {
			return err
		}
		return nil
	}

	set := bson.M{}
	unset := bson.M{}
	for key, value := range preferences {
		path := "preferences." + key
		if value == nil {
			unset[path] = ""
		} else {
			set[path] = value
		}
	}

	// One atomic multi-field update: each key either gets its stored value
	// replaced or, for a nil value, removed.
	update := bson.M{}
	if len(set) > 0 {
		update["$set"] = set
	}
	if len(unset) > 0 {
		update["$unset"] = unset
	}

	res, err := r.coll.UpdateOne(ctx, bson.D{{Key: "email", Value: email}}, update)
	if err != nil {
		return fmt.Errorf("%w: updating preferences: %v", common.ErrorStoreUnavailable, err)
	}
	if res.MatchedCount < 1 {
		return fmt.Errorf("user %q: %w", email, common.ErrorNotFound)
	}

	return nil
}
