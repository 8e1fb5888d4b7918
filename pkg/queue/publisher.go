package queue

import (
	"context"
	"fmt"

	"go.mongodb.org/mongo-driver/mongo"

	"github.com/chaosmongo/chaosmongo/pkg/lock"
)

// Publisher inserts payload-bearing queue items into one payload type's
// collection. Each Publish is a bare insert, not transactional with
// anything else — a caller that needs cross-publish atomicity wraps its
// own transaction around one or more Publish calls. No deduplication is
// performed.
type Publisher[P any] struct {
	def     Definition[P]
	coll    *mongo.Collection
	clock   lock.Clock
	metrics MetricsRecorder
}

// NewPublisher builds a Publisher for def, fetching its collection via
// helper. Fails with a configuration error if def is malformed.
func NewPublisher[P any](def Definition[P], helper Helper, clock lock.Clock) (*Publisher[P], error) {
	if err := def.validate(); err != nil {
		return nil, err
	}

	if clock == nil {
		clock = lock.SystemClock{}
	}

	return &Publisher[P]{def: def, coll: helper.Collection(def.CollectionName), clock: clock, metrics: noopMetrics{}}, nil
}

// SetMetrics attaches a MetricsRecorder (typically pkg/metrics.ChaosMongoMetrics)
// to observe publish counts. Optional.
func (p *Publisher[P]) SetMetrics(m MetricsRecorder) {
	if m == nil {
		m = noopMetrics{}
	}

	p.metrics = m
}

// Publish inserts a new Item wrapping payload and returns it with its
// assigned id and createdUtc populated.
func (p *Publisher[P]) Publish(ctx context.Context, payload P) (Item[P], error) {
	item := Item[P]{
		ID:          newItemID(),
		CreatedUTC:  p.clock.Now(),
		Payload:     payload,
		PayloadType: p.def.PayloadType,
	}

	if _, err := p.coll.InsertOne(ctx, item); err != nil {
		return Item[P]{}, fmt.Errorf("queue: publish to %q: %w", p.def.CollectionName, err)
	}

	p.metrics.ObservePublish(p.def.CollectionName)

	return item, nil
}
