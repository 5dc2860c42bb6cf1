package sessions

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"

	"github.com/dkarlovs/uservault/internal/common"
	"github.com/dkarlovs/uservault/internal/logging"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo/integration/mtest"
)

const ns = "uservault.sessions"

// countingLogger records warn calls so tests can assert the "nothing
// deleted" observation without inspecting log output.
type countingLogger struct {
	warns atomic.Int64
}

func (c *countingLogger) Debug(context.Context, string, ...any) {}
func (c *countingLogger) Info(context.Context, string, ...any)  {}
func (c *countingLogger) Warn(context.Context, string, ...any)  { c.warns.Add(1) }
func (c *countingLogger) Error(context.Context, string, ...any) {}
func (c *countingLogger) With(...any) logging.Logger            { return c }

func newMT(t *testing.T) *mtest.T {
	t.Helper()
	return mtest.New(t, mtest.NewOptions().
		ClientType(mtest.Mock).
		DatabaseName("uservault").
		CollectionName("sessions"))
}

func newRepo(mt *mtest.T) (*MongoRepository, *countingLogger) {
	mt.Helper()
	logger := &countingLogger{}
	repo, err := NewMongoRepository(mt.Coll, logger)
	if err != nil {
		mt.Fatalf("NewMongoRepository error: %v", err)
	}
	return repo, logger
}

func noCollision() bson.D {
	return mtest.CreateCursorResponse(0, ns, mtest.FirstBatch)
}

func TestCreate(t *testing.T) {
	mt := newMT(t)

	mt.Run("upsert success", func(mt *mtest.T) {
		mt.AddMockResponses(
			noCollision(),
			mtest.CreateSuccessResponse(bson.E{Key: "n", Value: 1}, bson.E{Key: "nModified", Value: 0}),
		)

		repo, _ := newRepo(mt)
		if err := repo.Create(context.Background(), "x@y.com", "tok1"); err != nil {
			mt.Fatalf("Create error: %v", err)
		}

		// The commit must be an upsert filtered by user_id.
		_ = mt.GetStartedEvent() // find (collision check)
		evt := mt.GetStartedEvent()
		if evt == nil || evt.CommandName != "update" {
			mt.Fatalf("expected an update command, got %+v", evt)
		}
		updateDoc := evt.Command.Lookup("updates").Array().Index(0).Value().Document()
		if !updateDoc.Lookup("upsert").Boolean() {
			mt.Fatalf("expected upsert=true in update command: %s", updateDoc)
		}
		filter := updateDoc.Lookup("q").Document()
		if got := filter.Lookup("user_id").StringValue(); got != "x@y.com" {
			mt.Fatalf("unexpected filter user_id: %q", got)
		}
	})

	mt.Run("token bound to another user", func(mt *mtest.T) {
		mt.AddMockResponses(mtest.CreateCursorResponse(0, ns, mtest.FirstBatch, bson.D{
			{Key: "user_id", Value: "a@y.com"},
			{Key: "jwt", Value: "tok"},
		}))

		repo, _ := newRepo(mt)
		err := repo.Create(context.Background(), "b@y.com", "tok")
		if !errors.Is(err, common.ErrorTokenCollision) {
			mt.Fatalf("want common.ErrorTokenCollision, got %v", err)
		}
	})

	mt.Run("collision lost race surfaces as collision", func(mt *mtest.T) {
		mt.AddMockResponses(
			noCollision(),
			mtest.CreateWriteErrorsResponse(mtest.WriteError{
				Index:   0,
				Code:    11000,
				Message: "E11000 duplicate key error collection: uservault.sessions index: jwt_1",
			}),
		)

		repo, _ := newRepo(mt)
		err := repo.Create(context.Background(), "b@y.com", "tok")
		if !errors.Is(err, common.ErrorTokenCollision) {
			mt.Fatalf("want common.ErrorTokenCollision, got %v", err)
		}
	})

	mt.Run("empty arguments rejected", func(mt *mtest.T) {
		repo, _ := newRepo(mt)
		if err := repo.Create(context.Background(), "", "tok"); !errors.Is(err, common.ErrorInvalidArgument) {
			mt.Fatalf("want common.ErrorInvalidArgument, got %v", err)
		}
		if err := repo.Create(context.Background(), "x@y.com", ""); !errors.Is(err, common.ErrorInvalidArgument) {
			mt.Fatalf("want common.ErrorInvalidArgument, got %v", err)
		}
	})

	mt.Run("store failure", func(mt *mtest.T) {
		mt.AddMockResponses(mtest.CreateCommandErrorResponse(mtest.CommandError{
			Code:    91,
			Name:    "ShutdownInProgress",
			Message: "shutdown in progress",
		}))

		repo, _ := newRepo(mt)
		err := repo.Create(context.Background(), "x@y.com", "tok")
		if !errors.Is(err, common.ErrorStoreUnavailable) {
			mt.Fatalf("want common.ErrorStoreUnavailable, got %v", err)
		}
	})
}

func TestGet(t *testing.T) {
	mt := newMT(t)

	mt.Run("found", func(mt *mtest.T) {
		mt.AddMockResponses(mtest.CreateCursorResponse(0, ns, mtest.FirstBatch, bson.D{
			{Key: "user_id", Value: "x@y.com"},
			{Key: "jwt", Value: "tok1"},
		}))

		repo, _ := newRepo(mt)
		got, err := repo.Get(context.Background(), "x@y.com")
		if err != nil {
			mt.Fatalf("Get error: %v", err)
		}
		if got.UserID != "x@y.com" || got.JWT != "tok1" {
			mt.Fatalf("unexpected session: %+v", got)
		}
	})

	mt.Run("not found", func(mt *mtest.T) {
		mt.AddMockResponses(mtest.CreateCursorResponse(0, ns, mtest.FirstBatch))

		repo, _ := newRepo(mt)
		_, err := repo.Get(context.Background(), "ghost@y.com")
		if !errors.Is(err, common.ErrorNotFound) {
			mt.Fatalf("want common.ErrorNotFound, got %v", err)
		}
	})

	mt.Run("store failure", func(mt *mtest.T) {
		mt.AddMockResponses(mtest.CreateCommandErrorResponse(mtest.CommandError{
			Code:    91,
			Name:    "ShutdownInProgress",
			Message: "shutdown in progress",
		}))

		repo, _ := newRepo(mt)
		_, err := repo.Get(context.Background(), "x@y.com")
		if !errors.Is(err, common.ErrorStoreUnavailable) {
			mt.Fatalf("want common.ErrorStoreUnavailable, got %v", err)
		}
	})
}

func TestDelete(t *testing.T) {
	mt := newMT(t)

	mt.Run("deleted", func(mt *mtest.T) {
		mt.AddMockResponses(mtest.CreateSuccessResponse(bson.E{Key: "n", Value: 1}))

		repo, logger := newRepo(mt)
		deleted, err := repo.Delete(context.Background(), "x@y.com")
		if err != nil {
			mt.Fatalf("Delete error: %v", err)
		}
		if !deleted {
			mt.Fatalf("expected deleted=true")
		}
		if logger.warns.Load() != 0 {
			mt.Fatalf("unexpected warning logged")
		}
	})

	mt.Run("nothing to delete is a warn-logged no-op", func(mt *mtest.T) {
		mt.AddMockResponses(mtest.CreateSuccessResponse(bson.E{Key: "n", Value: 0}))

		repo, logger := newRepo(mt)
		deleted, err := repo.Delete(context.Background(), "ghost@y.com")
		if err != nil {
			mt.Fatalf("Delete error: %v", err)
		}
		if deleted {
			mt.Fatalf("expected deleted=false")
		}
		if logger.warns.Load() != 1 {
			mt.Fatalf("expected one warning, got %d", logger.warns.Load())
		}
	})

	mt.Run("store failure", func(mt *mtest.T) {
		mt.AddMockResponses(mtest.CreateCommandErrorResponse(mtest.CommandError{
			Code:    91,
			Name:    "ShutdownInProgress",
			Message: "shutdown in progress",
		}))

		repo, _ := newRepo(mt)
		_, err := repo.Delete(context.Background(), "x@y.com")
		if !errors.Is(err, common.ErrorStoreUnavailable) {
			mt.Fatalf("want common.ErrorStoreUnavailable, got %v", err)
		}
	})
}
