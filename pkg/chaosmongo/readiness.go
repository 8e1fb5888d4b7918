package chaosmongo

import (
	"context"
	"sync/atomic"
	"time"

	"github.com/sirupsen/logrus"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/readpref"
)

const (
	notCheckedYet = "mongo: not checked yet"
	gateClosed    = "mongo: gate closed"
	unavailable   = "mongo: unavailable"
	isDown        = "mongo: connection is down"
	isUp          = "mongo: connection is up"
)

// Readiness tracks whether the store is reachable and exposes a gate a
// caller can close to refuse traffic independent of the raw ping result —
// e.g. while migrations are still applying.
type Readiness struct {
	client  *mongo.Client
	timeout time.Duration

	up  atomic.Bool
	err atomic.Value // string

	gateOpen   atomic.Bool
	gateReason atomic.Value // string
}

func NewReadiness(client *mongo.Client, timeout time.Duration) *Readiness {
	r := &Readiness{client: client, timeout: timeout}

	r.up.Store(false)
	r.err.Store(notCheckedYet)
	r.gateOpen.Store(true)
	r.gateReason.Store("")

	return r
}

func (r *Readiness) CloseGate(reason string) {
	if reason == "" {
		reason = gateClosed
	}

	r.gateReason.Store(reason)
	r.gateOpen.Store(false)
}

func (r *Readiness) OpenGate() {
	r.gateReason.Store("")
	r.gateOpen.Store(true)
}

func (r *Readiness) Ready() bool {
	return r.gateOpen.Load() && r.up.Load()
}

func (r *Readiness) LastError() string {
	if !r.gateOpen.Load() {
		if s, _ := r.gateReason.Load().(string); s != "" {
			return s
		}

		return gateClosed
	}

	if !r.up.Load() {
		if s, _ := r.err.Load().(string); s != "" {
			return s
		}

		return unavailable
	}

	return ""
}

func (r *Readiness) CheckNow(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	err := r.client.Ping(ctx, readpref.Primary())
	if err != nil {
		r.err.Store(err.Error())

		if prev := r.up.Swap(false); prev {
			logrus.WithField("scope", "chaosmongo.readiness").WithError(err).Warn(isDown)
		}

		return err
	}

	r.err.Store("")

	if prev := r.up.Swap(true); !prev {
		logrus.WithField("scope", "chaosmongo.readiness").Info(isUp)
	}

	return nil
}

// Run polls CheckNow on interval until ctx is done.
func (r *Readiness) Run(ctx context.Context, interval time.Duration) {
	_ = r.CheckNow(ctx)

	t := time.NewTicker(interval)
	defer t.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
			_ = r.CheckNow(ctx)
		}
	}
}
