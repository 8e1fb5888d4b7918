package queue

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// ItemRef identifies a stale candidate: locked, not closed, for longer
// than an operator-chosen threshold.
type ItemRef struct {
	ID        string
	LockedUTC time.Time
}

// ScanStale lists items stuck in (isClosed=false, isLocked=true) with
// lockedUtc older than olderThan. Recovery itself — unlocking or
// re-queuing — is left to the operator; this is a read-only convenience
// for building that reconciliation job, not an automatic retry.
func (s *Subscription[P]) ScanStale(ctx context.Context, olderThan time.Duration) ([]ItemRef, error) {
	threshold := s.clock.Now().Add(-olderThan)

	filter := bson.M{
		"isClosed":  false,
		"isLocked":  true,
		"lockedUtc": bson.M{"$lt": threshold},
	}
	opts := options.Find().SetProjection(bson.M{"_id": 1, "lockedUtc": 1})

	cur, err := s.coll.Find(ctx, filter, opts)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	var out []ItemRef

	for cur.Next(ctx) {
		var row struct {
			ID        string    `bson:"_id"`
			LockedUTC time.Time `bson:"lockedUtc"`
		}

		if err := cur.Decode(&row); err != nil {
			return nil, err
		}

		out = append(out, ItemRef{ID: row.ID, LockedUTC: row.LockedUTC})
	}

	return out, cur.Err()
}
