// Package hostedservice wires the migration runner and queue subscriptions
// into the three-stage lifecycle a hosted service runs through: Starting
// (before traffic is accepted), Started (traffic accepted), Stopping
// (graceful shutdown). Built on the same background-loop-behind-an-atomic-
// ready-flag idiom as pkg/chaosmongo.Readiness.Run, generalized from a
// single Mongo-readiness loop into a start/stop aggregator over any
// number of subscriptions.
package hostedservice

import (
	"context"
	"fmt"
	"sync/atomic"

	"github.com/sirupsen/logrus"
)

// MigrationRunner is satisfied by *migrator.Runner.
type MigrationRunner interface {
	Run(ctx context.Context) error
}

// Subscription is satisfied by *queue.Subscription[P] for any P.
type Subscription interface {
	Start(ctx context.Context) error
	Stop(ctx context.Context) error
}

// Options controls which startup actions Aggregator.Starting performs.
type Options struct {
	ApplyMigrationsOnStartup bool
}

// Aggregator sequences migration application and subscription lifecycle
// for one process. Construct with NewAggregator, then call Starting,
// Started, and Stopping at the corresponding points in the hosting
// framework's lifecycle (e.g. a grpc server's PreStart/Start/Stop hooks).
type Aggregator struct {
	runner        MigrationRunner
	subscriptions []Subscription
	opts          Options
	logger        *logrus.Entry

	ready    atomic.Bool
	lastErrs atomic.Value // string
}

// NewAggregator builds an Aggregator. runner may be nil if this process
// never applies migrations; subscriptions may be empty if this process
// never consumes a queue.
func NewAggregator(runner MigrationRunner, subscriptions []Subscription, opts Options, logger *logrus.Entry) *Aggregator {
	if logger == nil {
		logger = logrus.NewEntry(logrus.StandardLogger())
	}

	a := &Aggregator{
		runner:        runner,
		subscriptions: subscriptions,
		opts:          opts,
		logger:        logger,
	}
	a.lastErrs.Store("")

	return a
}

// Starting runs pending migrations, if configured to, before Started is
// called. A migration failure here is fatal to startup — propagated, not
// swallowed — since serving traffic against an unmigrated schema is worse
// than failing to start.
func (a *Aggregator) Starting(ctx context.Context) error {
	if a.runner == nil || !a.opts.ApplyMigrationsOnStartup {
		a.ready.Store(true)
		return nil
	}

	if err := a.runner.Run(ctx); err != nil {
		a.lastErrs.Store(err.Error())
		return fmt.Errorf("hostedservice: apply migrations on startup: %w", err)
	}

	a.ready.Store(true)

	return nil
}

// Started starts every queue subscription. The first failure aborts
// startup of the remaining subscriptions but leaves already-started ones
// running — the caller decides whether to call Stopping in response.
func (a *Aggregator) Started(ctx context.Context) error {
	for i, sub := range a.subscriptions {
		if err := sub.Start(ctx); err != nil {
			return fmt.Errorf("hostedservice: start subscription %d: %w", i, err)
		}
	}

	return nil
}

// Stopping stops every subscription, collecting but not short-circuiting
// on individual failures so one stuck subscription doesn't block the
// others from a graceful exit.
func (a *Aggregator) Stopping(ctx context.Context) error {
	var firstErr error

	for i, sub := range a.subscriptions {
		if err := sub.Stop(ctx); err != nil {
			a.logger.WithField("subscription_index", i).WithError(err).Error("hostedservice: subscription stop failed")

			if firstErr == nil {
				firstErr = fmt.Errorf("hostedservice: stop subscription %d: %w", i, err)
			}
		}
	}

	return firstErr
}

// Ready reports whether Starting has completed successfully — the signal
// pkg/health's startup check reads. (pkg/chaosmongo's gRPC gate
// interceptors read chaosmongo.Readiness, not this.)
func (a *Aggregator) Ready() bool {
	return a.ready.Load()
}

// LastError returns the most recent startup failure message, or "".
func (a *Aggregator) LastError() string {
	s, _ := a.lastErrs.Load().(string)
	return s
}
