// Package health builds the process-level health.Checker every
// ChaosMongo-based service exposes: a Mongo ping check plus, once a
// migration runner exists, a check that mirrors the hosted-service
// aggregator's migration-readiness state.
package health

import (
	"context"
	"time"

	"github.com/alexliesenfeld/health"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/readpref"
)

// ReadinessSource reports whether migrations (or any other startup gate)
// have completed. pkg/hostedservice.Aggregator satisfies this.
type ReadinessSource interface {
	Ready() bool
	LastError() string
}

// NewChecker builds a health.Checker with a Mongo ping check and,
// when readiness is non-nil, a startup-readiness check.
func NewChecker(client *mongo.Client, readiness ReadinessSource) health.Checker {
	checks := []health.CheckerOption{
		health.WithCacheDuration(1 * time.Second),
		health.WithTimeout(5 * time.Second),
		health.WithCheck(health.Check{
			Name: "mongo",
			Check: func(ctx context.Context) error {
				return client.Ping(ctx, readpref.Primary())
			},
		}),
	}

	if readiness != nil {
		checks = append(checks, health.WithCheck(health.Check{
			Name: "startup",
			Check: func(_ context.Context) error {
				if readiness.Ready() {
					return nil
				}

				return readinessError(readiness.LastError())
			},
		}))
	}

	return health.NewChecker(checks...)
}

type readinessError string

func (e readinessError) Error() string {
	if e == "" {
		return "not ready"
	}

	return string(e)
}
