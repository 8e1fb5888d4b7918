// Package lock implements the lease-based distributed lock described in
// the ChaosMongo core: a single findAndModify upsert against a dedicated
// lock collection linearizes acquisition across any number of competing
// processes, and a lease (rather than an explicit heartbeat) bounds how
// long a holder is trusted after it goes quiet.
package lock

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/chaosmongo/chaosmongo/pkg/errmodel"
	"github.com/chaosmongo/chaosmongo/pkg/mongoutil"
)

// DefaultLease is used by TryAcquire/Acquire when the caller passes a
// zero lease duration.
const DefaultLease = 5 * time.Minute

// DefaultRetryDelay is the sleep between Acquire's TryAcquire attempts
// when the caller passes a zero retry delay.
const DefaultRetryDelay = 500 * time.Millisecond

// document is the on-disk shape of a LockDocument: it exists iff some
// holder believes it owns the lock, and holder is meaningful only while
// now < leaseUntilUtc.
type document struct {
	ID            string    `bson:"_id"`
	Holder        string    `bson:"holder"`
	LeaseUntilUTC time.Time `bson:"leaseUntilUtc"`
}

// Manager acquires, renews-by-re-acquiring, and releases named leases
// against a single Mongo collection.
type Manager struct {
	coll     *mongo.Collection
	holderID string
	clock    Clock
	metrics  MetricsRecorder
}

// NewManager builds a Manager bound to a lock collection and a holder
// identity. holderID is the opaque id this process presents as the owner
// of any lock it acquires; clock is the injectable time source (pass
// SystemClock{} in production).
func NewManager(coll *mongo.Collection, holderID string, clock Clock) *Manager {
	if clock == nil {
		clock = SystemClock{}
	}

	return &Manager{coll: coll, holderID: holderID, clock: clock, metrics: noopMetrics{}}
}

func (m *Manager) HolderID() string { return m.holderID }

// SetMetrics attaches a MetricsRecorder (typically pkg/metrics.ChaosMongoMetrics)
// to observe acquisition outcomes. Optional; a Manager built via NewManager
// records nothing until this is called.
func (m *Manager) SetMetrics(r MetricsRecorder) {
	if r == nil {
		r = noopMetrics{}
	}

	m.metrics = r
}

// TryAcquire attempts acquisition exactly once. A held, unexpired lock
// returns (nil, nil) — "not acquired" is a normal outcome, not an error.
func (m *Manager) TryAcquire(ctx context.Context, name string, lease time.Duration) (*Handle, error) {
	if strings.TrimSpace(name) == "" {
		return nil, fmt.Errorf("lock: name must not be empty: %w", errmodel.ErrArgument)
	}

	if lease <= 0 {
		lease = DefaultLease
	}

	now := m.clock.Now()
	leaseUntil := now.Add(lease)

	filter := bson.M{
		"_id":           name,
		"leaseUntilUtc": bson.M{"$lte": now},
	}
	update := bson.M{
		"$setOnInsert": bson.M{"_id": name},
		"$set": bson.M{
			"holder":        m.holderID,
			"leaseUntilUtc": leaseUntil,
		},
	}

	opts := options.FindOneAndUpdate().
		SetUpsert(true).
		SetReturnDocument(options.After)

	var out document

	err := m.coll.FindOneAndUpdate(ctx, filter, update, opts).Decode(&out)
	switch {
	case err == nil:
		if out.Holder != m.holderID {
			m.metrics.ObserveLockAcquire(name, "contended")
			return nil, nil
		}

		m.metrics.ObserveLockAcquire(name, "acquired")
		m.metrics.SetLockHeld(name, true)

		return newHandle(m, name, leaseUntil), nil
	case mongoutil.IsDuplicateKeyError(err):
		// another process inserted concurrently: lost the race.
		m.metrics.ObserveLockAcquire(name, "contended")
		return nil, nil
	case errors.Is(ctx.Err(), context.Canceled), errors.Is(ctx.Err(), context.DeadlineExceeded):
		return nil, ctx.Err()
	default:
		m.metrics.ObserveLockAcquire(name, "error")
		return nil, fmt.Errorf("lock: acquire %q: %w", name, err)
	}
}

// Acquire loops calling TryAcquire, sleeping retryDelay between attempts,
// until it succeeds or the context is cancelled.
func (m *Manager) Acquire(ctx context.Context, name string, lease, retryDelay time.Duration) (*Handle, error) {
	if retryDelay <= 0 {
		retryDelay = DefaultRetryDelay
	}

	for {
		h, err := m.TryAcquire(ctx, name, lease)
		if err != nil {
			return nil, err
		}

		if h != nil {
			return h, nil
		}

		t := time.NewTimer(retryDelay)

		select {
		case <-ctx.Done():
			t.Stop()
			return nil, ctx.Err()
		case <-t.C:
		}
	}
}

func (m *Manager) release(ctx context.Context, name string) error {
	m.metrics.SetLockHeld(name, false)

	_, err := m.coll.DeleteOne(ctx, bson.M{"_id": name, "holder": m.holderID})
	return err
}
