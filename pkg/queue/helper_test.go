package queue

import (
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/integration/mtest"
)

// fakeHelper satisfies queue.Helper by always returning the mtest mock
// collection, regardless of the requested name — the mock client doesn't
// distinguish collections, only the commands sent to it.
type fakeHelper struct {
	mt *mtest.T
}

func (h fakeHelper) Collection(name string) *mongo.Collection {
	return h.mt.Coll
}
