package queue

import "go.mongodb.org/mongo-driver/bson"

// Prioritizer yields the sort order the processor applies to the set of
// candidate runnable items before claiming them. Implementations must be
// pure and deterministic given the same item set.
type Prioritizer interface {
	Sort() bson.D
}

// defaultPrioritizer sorts ascending by _id. Publisher assigns random UUID
// ids, so this order is not publish order.
type defaultPrioritizer struct{}

func (defaultPrioritizer) Sort() bson.D { return bson.D{{Key: "_id", Value: 1}} }

// DefaultPrioritizer is the ascending-by-_id Prioritizer used when a
// SubscriptionConfig does not specify one.
var DefaultPrioritizer Prioritizer = defaultPrioritizer{}
