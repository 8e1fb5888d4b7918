package queue

import (
	"fmt"
	"reflect"

	"go.mongodb.org/mongo-driver/mongo"

	"github.com/chaosmongo/chaosmongo/pkg/errmodel"
)

// Helper is the subset of the chaosmongo.Helper collaborator the queue
// needs: collection access by explicit name.
type Helper interface {
	Collection(name string) *mongo.Collection
}

// Definition names the collection and payload type a Publisher and its
// Subscriptions agree on. Constructed once per payload type — idiomatic
// Go has no reflection-based auto-discovery, so this is explicit
// registration standing in for the original's open generic container scan.
type Definition[P any] struct {
	CollectionName string
	PayloadType    string
}

// NewDefinition resolves a Definition for P. If explicitName is empty, the
// collection name defaults to DefaultCollectionName(payloadType).
func NewDefinition[P any](explicitName string) (Definition[P], error) {
	var zero P

	payloadType := reflect.TypeOf(zero)
	if payloadType == nil {
		return Definition[P]{}, fmt.Errorf("queue: payload type must not be an interface/any: %w", errmodel.ErrConfiguration)
	}

	fullName := payloadType.PkgPath() + "." + payloadType.Name()

	name := explicitName
	if name == "" {
		name = DefaultCollectionName(fullName)
	}

	return Definition[P]{CollectionName: name, PayloadType: fullName}, nil
}

func (d Definition[P]) validate() error {
	if d.CollectionName == "" {
		return fmt.Errorf("queue: collection name must not be empty: %w", errmodel.ErrConfiguration)
	}

	return nil
}
