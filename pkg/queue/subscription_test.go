package queue

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo/integration/mtest"

	"github.com/chaosmongo/chaosmongo/pkg/lock"
)

type funcHandler struct {
	handle func(ctx context.Context, payload widgetCreated) error
}

func (f funcHandler) Handle(ctx context.Context, payload widgetCreated) error {
	return f.handle(ctx, payload)
}

func newTestSubscription(t *testing.T, mt *mtest.T, factory HandlerFactory[widgetCreated]) *Subscription[widgetCreated] {
	t.Helper()

	def, err := NewDefinition[widgetCreated]("widgets")
	require.NoError(t, err)

	sub, err := NewSubscription[widgetCreated](def, fakeHelper{mt: mt}, SubscriptionConfig[widgetCreated]{Factory: factory}, lock.NewFixedClock(time.Now()), logrus.NewEntry(logrus.New()))
	require.NoError(t, err)

	return sub
}

func claimedItemResponse(id string) bson.D {
	return mtest.CreateSuccessResponse(bson.E{
		Key: "value",
		Value: bson.D{
			{Key: "_id", Value: id},
			{Key: "createdUtc", Value: time.Now()},
			{Key: "payload", Value: bson.D{{Key: "widgetid", Value: "w-1"}}},
			{Key: "payloadType", Value: "widgetCreated"},
			{Key: "isClosed", Value: false},
			{Key: "isLocked", Value: true},
		},
	})
}

func TestSubscription_HandleOne_ClaimAndHandleSucceed(t *testing.T) {
	mt := mtest.New(t, mtest.NewOptions().ClientType(mtest.Mock))

	mt.Run("success", func(mt *mtest.T) {
		handled := false
		factory := func(context.Context) (Handler[widgetCreated], error) {
			return funcHandler{handle: func(context.Context, widgetCreated) error {
				handled = true
				return nil
			}}, nil
		}

		sub := newTestSubscription(t, mt, factory)

		mt.AddMockResponses(
			claimedItemResponse("item-1"), // FindOneAndUpdate claim
			mtest.CreateSuccessResponse(bson.E{Key: "n", Value: 1}), // UpdateOne close
		)

		err := sub.handleOne(context.Background(), "item-1")
		require.NoError(t, err)
		require.True(t, handled)
	})
}

func TestSubscription_HandleOne_ClaimLostToAnotherConsumer(t *testing.T) {
	mt := mtest.New(t, mtest.NewOptions().ClientType(mtest.Mock))

	mt.Run("lost claim", func(mt *mtest.T) {
		factory := func(context.Context) (Handler[widgetCreated], error) {
			t.Fatal("handler factory must not run when the claim fails")
			return nil, nil
		}

		sub := newTestSubscription(t, mt, factory)

		// findAndModify with no matching document returns {ok:1, value:null},
		// which the driver surfaces as mongo.ErrNoDocuments — the item was
		// claimed or closed by another consumer between query and claim.
		mt.AddMockResponses(mtest.CreateSuccessResponse(bson.E{Key: "value", Value: nil}))

		err := sub.handleOne(context.Background(), "item-1")
		require.NoError(t, err)
	})
}

func TestSubscription_HandleOne_HandlerFailureLeavesItemLocked(t *testing.T) {
	mt := mtest.New(t, mtest.NewOptions().ClientType(mtest.Mock))

	mt.Run("handler failure", func(mt *mtest.T) {
		factory := func(context.Context) (Handler[widgetCreated], error) {
			return funcHandler{handle: func(context.Context, widgetCreated) error {
				return errors.New("handler boom")
			}}, nil
		}

		sub := newTestSubscription(t, mt, factory)

		mt.AddMockResponses(claimedItemResponse("item-1"))

		err := sub.handleOne(context.Background(), "item-1")
		require.NoError(t, err, "a failed handler is logged, not propagated, leaving the item locked for a later cycle")
	})
}

func TestSubscription_HandleOne_CancellationPropagates(t *testing.T) {
	mt := mtest.New(t, mtest.NewOptions().ClientType(mtest.Mock))

	mt.Run("cancellation", func(mt *mtest.T) {
		factory := func(context.Context) (Handler[widgetCreated], error) {
			return funcHandler{handle: func(context.Context, widgetCreated) error {
				return context.Canceled
			}}, nil
		}

		sub := newTestSubscription(t, mt, factory)

		mt.AddMockResponses(claimedItemResponse("item-1"))

		err := sub.handleOne(context.Background(), "item-1")
		require.ErrorIs(t, err, context.Canceled)
	})
}

func TestSubscription_HandleOne_FactoryFailureLeavesItemLocked(t *testing.T) {
	mt := mtest.New(t, mtest.NewOptions().ClientType(mtest.Mock))

	mt.Run("factory failure", func(mt *mtest.T) {
		factory := func(context.Context) (Handler[widgetCreated], error) {
			return nil, errors.New("factory boom")
		}

		sub := newTestSubscription(t, mt, factory)

		mt.AddMockResponses(claimedItemResponse("item-1"))

		err := sub.handleOne(context.Background(), "item-1")
		require.NoError(t, err)
	})
}

func TestNewSubscription_RequiresFactory(t *testing.T) {
	mt := mtest.New(t, mtest.NewOptions().ClientType(mtest.Mock))

	mt.Run("missing factory", func(mt *mtest.T) {
		def, err := NewDefinition[widgetCreated]("widgets")
		require.NoError(t, err)

		_, err = NewSubscription[widgetCreated](def, fakeHelper{mt: mt}, SubscriptionConfig[widgetCreated]{}, nil, nil)
		require.Error(t, err)
	})
}
