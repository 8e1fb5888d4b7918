package queue

import (
	"context"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/chaosmongo/chaosmongo/pkg/mongoutil"
)

const runnableIndexName = "chaosmongo_runnable"

// ensureRunnableIndex maintains the partial compound index on
// (isClosed, isLocked) covering the hot "find next runnable item" query,
// reconciling by dropping and re-creating on a conflicting key spec.
func ensureRunnableIndex(ctx context.Context, coll *mongo.Collection) error {
	key := bson.D{{Key: "isClosed", Value: int32(1)}, {Key: "isLocked", Value: int32(1)}}

	model := mongo.IndexModel{
		Keys: key,
		Options: options.Index().
			SetName(runnableIndexName).
			SetPartialFilterExpression(bson.D{
				{Key: "isClosed", Value: false},
				{Key: "isLocked", Value: false},
			}),
	}

	return mongoutil.EnsureIndex(ctx, coll, model, key)
}
