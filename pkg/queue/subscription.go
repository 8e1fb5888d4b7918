package queue

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/sirupsen/logrus"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"golang.org/x/sync/errgroup"

	"github.com/chaosmongo/chaosmongo/pkg/errmodel"
	"github.com/chaosmongo/chaosmongo/pkg/lock"
)

// Handler processes one claimed item's payload.
type Handler[P any] interface {
	Handle(ctx context.Context, payload P) error
}

// ScopedHandler is a Handler that holds a resource needing release after
// each invocation — the "resolve, use, release" contract standing in for
// the original's container-scoped disposable handler instances.
type ScopedHandler[P any] interface {
	Handler[P]
	Close(ctx context.Context) error
}

// HandlerFactory resolves a Handler instance for one work cycle.
type HandlerFactory[P any] func(ctx context.Context) (Handler[P], error)

// SubscriptionConfig configures a Subscription. Zero values take
// documented defaults (QueryLimit 1, ascending-_id Prioritizer).
type SubscriptionConfig[P any] struct {
	QueryLimit int

	// MaxConcurrency bounds how many claimed items a single cycle hands to
	// the handler factory at once. Defaults to 1 (strictly sequential,
	// matching a single-consumer-goroutine model); raise it only when the
	// handler is safe to run concurrently with itself.
	MaxConcurrency int

	Prioritizer Prioritizer
	Factory     HandlerFactory[P]
}

func (c SubscriptionConfig[P]) withDefaults() SubscriptionConfig[P] {
	if c.QueryLimit <= 0 {
		c.QueryLimit = 1
	}

	if c.MaxConcurrency <= 0 {
		c.MaxConcurrency = 1
	}

	if c.Prioritizer == nil {
		c.Prioritizer = DefaultPrioritizer
	}

	return c
}

type subState int32

const (
	stateCreated subState = iota
	stateActive
	stateStopped
	stateDisposed
)

// Subscription maintains the two cooperating background tasks — a
// change-stream watcher and a claim/handle/close processor — that
// deliver each item in a payload's collection to exactly one consumer.
type Subscription[P any] struct {
	def    Definition[P]
	coll   *mongo.Collection
	cfg    SubscriptionConfig[P]
	clock  lock.Clock
	logger *logrus.Entry

	mu      sync.Mutex // serializes Start/Stop/Close
	state   atomic.Int32
	cancel  context.CancelFunc
	wg      sync.WaitGroup
	signal  chan struct{}
	metrics MetricsRecorder
}

// NewSubscription builds a Subscription for def. The caller must call
// Start to begin delivery.
func NewSubscription[P any](def Definition[P], helper Helper, cfg SubscriptionConfig[P], clock lock.Clock, logger *logrus.Entry) (*Subscription[P], error) {
	if err := def.validate(); err != nil {
		return nil, err
	}

	if cfg.Factory == nil {
		return nil, fmt.Errorf("queue: subscription requires a handler factory: %w", errmodel.ErrConfiguration)
	}

	if clock == nil {
		clock = lock.SystemClock{}
	}

	if logger == nil {
		logger = logrus.NewEntry(logrus.StandardLogger())
	}

	s := &Subscription[P]{
		def:     def,
		coll:    helper.Collection(def.CollectionName),
		cfg:     cfg.withDefaults(),
		clock:   clock,
		logger:  logger.WithField("queue_collection", def.CollectionName),
		metrics: noopMetrics{},
	}
	s.state.Store(int32(stateCreated))

	return s, nil
}

// SetMetrics attaches a MetricsRecorder (typically pkg/metrics.ChaosMongoMetrics)
// to observe processed-item outcomes and handler duration. Optional.
func (s *Subscription[P]) SetMetrics(m MetricsRecorder) {
	if m == nil {
		m = noopMetrics{}
	}

	s.metrics = m
}

// IsActive is true iff the subscription is currently delivering.
func (s *Subscription[P]) IsActive() bool {
	return subState(s.state.Load()) == stateActive
}

// Start ensures the runnable index and launches the watcher/processor
// pair. A no-op if already active; an error if disposed.
func (s *Subscription[P]) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	switch subState(s.state.Load()) {
	case stateDisposed:
		return fmt.Errorf("queue: start: %w", errmodel.ErrDisposed)
	case stateActive:
		return nil
	}

	if err := ensureRunnableIndex(ctx, s.coll); err != nil {
		return fmt.Errorf("queue: ensure index on %q: %w", s.def.CollectionName, err)
	}

	runCtx, cancel := context.WithCancel(context.Background())
	s.cancel = cancel

	// capacity 1, pre-loaded: guarantees the processor runs at least once
	// at startup to drain pre-existing items.
	s.signal = make(chan struct{}, 1)
	s.signal <- struct{}{}

	s.wg.Add(2)
	go s.watch(runCtx)
	go s.process(runCtx)

	s.state.Store(int32(stateActive))

	return nil
}

// Stop trips the subscription's cancellation signal and waits for both
// background tasks, bounded by ctx. If ctx is done before the tasks exit,
// Stop logs a warning and returns — the tasks may still be running and
// will observe the trip later.
func (s *Subscription[P]) Stop(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	st := subState(s.state.Load())
	if st == stateDisposed || st == stateStopped || st == stateCreated {
		if st != stateDisposed {
			s.state.Store(int32(stateStopped))
		}

		return nil
	}

	if s.cancel != nil {
		s.cancel()
	}

	done := make(chan struct{})
	go func() {
		s.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
	case <-ctx.Done():
		s.logger.Warn("queue: stop: context done before background tasks exited; they will observe the cancellation later")
	}

	s.state.Store(int32(stateStopped))

	return nil
}

// Close disposes the subscription, stopping it first if active. Disposal
// is terminal and idempotent.
func (s *Subscription[P]) Close(ctx context.Context) error {
	if subState(s.state.Load()) == stateActive {
		if err := s.Stop(ctx); err != nil {
			return err
		}
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.state.Store(int32(stateDisposed))

	return nil
}

func (s *Subscription[P]) signalRelease() {
	select {
	case s.signal <- struct{}{}:
	default:
	}
}

func (s *Subscription[P]) watch(ctx context.Context) {
	defer s.wg.Done()

	pipeline := mongo.Pipeline{
		{{Key: "$match", Value: bson.D{{Key: "operationType", Value: "insert"}}}},
	}
	opts := options.ChangeStream().SetFullDocument(options.UpdateLookup)

	for {
		if ctx.Err() != nil {
			return
		}

		stream, err := s.coll.Watch(ctx, pipeline, opts)
		if err != nil {
			if ctx.Err() != nil {
				return
			}

			s.logger.WithError(err).Warn("queue: watcher: failed to open change stream, retrying")
			if !sleepOrDone(ctx, 300*time.Millisecond) {
				return
			}

			continue
		}

		s.drain(ctx, stream)

		closeCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		_ = stream.Close(closeCtx)
		cancel()

		if ctx.Err() != nil {
			return
		}

		s.logger.Warn("queue: watcher: change stream ended, reopening")
		if !sleepOrDone(ctx, 300*time.Millisecond) {
			return
		}
	}
}

func (s *Subscription[P]) drain(ctx context.Context, stream *mongo.ChangeStream) {
	for stream.Next(ctx) {
		s.signalRelease()
	}

	if err := stream.Err(); err != nil && ctx.Err() == nil {
		s.logger.WithError(err).Warn("queue: watcher: change stream error")
	}
}

func (s *Subscription[P]) process(ctx context.Context) {
	defer s.wg.Done()

	for {
		select {
		case <-ctx.Done():
			return
		case <-s.signal:
		}

		if err := s.cycle(ctx); err != nil {
			if isCancellation(err) {
				return
			}

			s.logger.WithError(err).Error("queue: processor: cycle failed")

			if !sleepOrDone(ctx, 2*time.Second) {
				return
			}
		}
	}
}

func (s *Subscription[P]) cycle(ctx context.Context) error {
	candidates, err := s.queryCandidates(ctx)
	if err != nil {
		return err
	}

	if len(candidates) == 0 {
		if !sleepOrDone(ctx, 100*time.Millisecond) {
			return ctx.Err()
		}

		s.signalRelease()

		return nil
	}

	g := new(errgroup.Group)
	g.SetLimit(s.cfg.MaxConcurrency)

	for _, id := range candidates {
		if ctx.Err() != nil {
			break
		}

		id := id
		g.Go(func() error {
			if err := s.handleOne(ctx, id); err != nil && isCancellation(err) {
				return err
			}

			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return err
	}

	n, err := s.countRunnable(ctx)
	if err == nil && n > 0 {
		s.signalRelease()
	}

	return nil
}

func (s *Subscription[P]) queryCandidates(ctx context.Context) ([]string, error) {
	filter := bson.M{"isClosed": false, "isLocked": false}
	opts := options.Find().
		SetSort(s.cfg.Prioritizer.Sort()).
		SetProjection(bson.M{"_id": 1}).
		SetLimit(int64(s.cfg.QueryLimit))

	cur, err := s.coll.Find(ctx, filter, opts)
	if err != nil {
		return nil, fmt.Errorf("queue: query candidates: %w", err)
	}
	defer cur.Close(ctx)

	var ids []string

	for cur.Next(ctx) {
		var row struct {
			ID string `bson:"_id"`
		}

		if err := cur.Decode(&row); err != nil {
			return nil, fmt.Errorf("queue: decode candidate: %w", err)
		}

		ids = append(ids, row.ID)
	}

	return ids, cur.Err()
}

func (s *Subscription[P]) countRunnable(ctx context.Context) (int64, error) {
	filter := bson.M{"isClosed": false, "isLocked": false}
	return s.coll.CountDocuments(ctx, filter, options.Count().SetLimit(1))
}

func (s *Subscription[P]) handleOne(ctx context.Context, id string) error {
	now := s.clock.Now()

	filter := bson.M{"_id": id, "isClosed": false, "isLocked": false}
	update := bson.M{"$set": bson.M{"isLocked": true, "lockedUtc": now}}
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)

	var item Item[P]

	err := s.coll.FindOneAndUpdate(ctx, filter, update, opts).Decode(&item)
	if errors.Is(err, mongo.ErrNoDocuments) {
		// claimed by another consumer, or closed, between query and claim.
		return nil
	}

	if err != nil {
		return fmt.Errorf("queue: claim %q: %w", id, err)
	}

	handler, err := s.cfg.Factory(ctx)
	if err != nil {
		s.logger.WithField("item_id", id).WithError(err).Error("queue: processor: handler factory failed, item left locked")
		return nil
	}

	handleStart := time.Now()
	handleErr := handler.Handle(ctx, item.Payload)
	handleDuration := time.Since(handleStart)

	if scoped, ok := handler.(ScopedHandler[P]); ok {
		closeCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		_ = scoped.Close(closeCtx)
		cancel()
	}

	if handleErr != nil {
		if isCancellation(handleErr) {
			return handleErr
		}

		s.metrics.ObserveProcessed(s.def.CollectionName, "error", handleDuration)
		s.logger.WithField("item_id", id).WithError(handleErr).Error("queue: processor: handler failed, item left locked")

		return nil
	}

	closedAt := s.clock.Now()
	closeFilter := bson.M{"_id": id}
	closeUpdate := bson.M{
		"$set":   bson.M{"isClosed": true, "closedUtc": closedAt, "isLocked": false},
		"$unset": bson.M{"lockedUtc": ""},
	}

	if _, err := s.coll.UpdateOne(ctx, closeFilter, closeUpdate); err != nil {
		return fmt.Errorf("queue: close %q: %w", id, err)
	}

	s.metrics.ObserveProcessed(s.def.CollectionName, "ok", handleDuration)

	return nil
}

func isCancellation(err error) bool {
	return errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded)
}

// sleepOrDone sleeps for d or returns false early if ctx is done.
func sleepOrDone(ctx context.Context, d time.Duration) bool {
	t := time.NewTimer(d)
	defer t.Stop()

	select {
	case <-ctx.Done():
		return false
	case <-t.C:
		return true
	}
}
