// Package migrator applies an ordered sequence of idempotent schema/data
// migrations exactly once across a fleet of processes, serialized by a
// single named lock from pkg/lock.
//
// Without a transaction, a migration's effects and its history row are
// written separately: a crash after Apply returns and before the history
// insert leaves the effects applied but unrecorded, and the next Run
// applies that migration again. Migrations must therefore be idempotent.
package migrator

import (
	"context"
	"fmt"
	"sort"

	"go.mongodb.org/mongo-driver/mongo"

	"github.com/chaosmongo/chaosmongo/pkg/errmodel"
)

// Migration is one idempotent step. Apply receives the collaborator
// Helper and an active session if transactions are in use (nil
// otherwise).
type Migration struct {
	ID          string
	Description string
	Apply       func(ctx context.Context, h Helper, sess mongo.Session) error
}

// Helper is the subset of the chaosmongo.Helper collaborator the runner
// and migrations need: database access plus session negotiation that
// degrades gracefully on deployments without replica-set semantics.
type Helper interface {
	Database() *mongo.Database
	Collection(name string) *mongo.Collection
	TryStartSession() (mongo.Session, bool)
}

// validateAndSort checks for structural problems (empty id, nil Apply,
// duplicate id) and returns the list sorted by id using Go's native
// ordinal string comparison.
func validateAndSort(list []Migration) ([]Migration, error) {
	if len(list) == 0 {
		return nil, nil
	}

	out := make([]Migration, len(list))
	copy(out, list)

	seen := make(map[string]struct{}, len(out))

	for _, mig := range out {
		if mig.ID == "" {
			return nil, fmt.Errorf("migrator: migration id must not be empty: %w", errmodel.ErrConfiguration)
		}

		if mig.Apply == nil {
			return nil, fmt.Errorf("migrator: migration %q has a nil Apply func: %w", mig.ID, errmodel.ErrConfiguration)
		}

		if _, dup := seen[mig.ID]; dup {
			return nil, fmt.Errorf("migrator: duplicate migration id %q: %w", mig.ID, errmodel.ErrConfiguration)
		}

		seen[mig.ID] = struct{}{}
	}

	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })

	return out, nil
}
