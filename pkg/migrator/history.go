package migrator

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// historyItem is the on-disk MigrationHistoryItem: insert-only, a row
// exists for a given id iff that migration has fully applied.
type historyItem struct {
	ID          string    `bson:"_id"`
	AppliedUTC  time.Time `bson:"appliedUtc"`
	DurationMS  int64     `bson:"durationMs"`
	Description string    `bson:"description,omitempty"`
}

func appliedIDs(ctx context.Context, coll *mongo.Collection) (map[string]struct{}, error) {
	opts := options.Find().SetProjection(bson.M{"_id": 1})

	cur, err := coll.Find(ctx, bson.M{}, opts)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	out := make(map[string]struct{})

	for cur.Next(ctx) {
		var row struct {
			ID string `bson:"_id"`
		}

		if err := cur.Decode(&row); err != nil {
			return nil, err
		}

		out[row.ID] = struct{}{}
	}

	if err := cur.Err(); err != nil {
		return nil, err
	}

	return out, nil
}

// insertHistory inserts a history row using ctx as given — the caller
// binds ctx to an active session via mongo.NewSessionContext when a
// transaction is in use, so this call participates in it automatically.
func insertHistory(ctx context.Context, coll *mongo.Collection, item historyItem) error {
	_, err := coll.InsertOne(ctx, item)
	return err
}
