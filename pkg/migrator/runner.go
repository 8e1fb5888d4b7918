package migrator

import (
	"context"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/chaosmongo/chaosmongo/pkg/lock"
)

// Options configures a Runner. Zero-valued LockName, HistoryCollectionName
// and MigrationLockLeaseTime take the defaults set in withDefaults;
// UseTransactionsForMigrationsIfAvailable has no default, so its zero value
// (false) runs migrations without a transaction.
type Options struct {
	// LockName serializes migration runs across the fleet.
	LockName string

	// HistoryCollectionName stores the insert-only applied-migration log.
	HistoryCollectionName string

	// MigrationLockLeaseTime bounds a single migration run; it is the
	// effective upper bound on any single migration's Apply call since the
	// lock is never renewed mid-run.
	MigrationLockLeaseTime time.Duration

	// UseTransactionsForMigrationsIfAvailable wraps each migration's Apply
	// plus its history insert in a single transaction when the database
	// supports one. A failed transaction start is downgraded to "no
	// session", never fatal.
	UseTransactionsForMigrationsIfAvailable bool
}

func (o Options) withDefaults() Options {
	if o.LockName == "" {
		o.LockName = "ChaosMongoMigrations"
	}

	if o.HistoryCollectionName == "" {
		o.HistoryCollectionName = "_migrations"
	}

	if o.MigrationLockLeaseTime <= 0 {
		o.MigrationLockLeaseTime = 10 * time.Minute
	}

	return o
}

// Runner applies a fixed, sorted set of migrations under a single named
// lock. Construct one per process with the full migration set; Run is
// safe to call repeatedly (e.g. once per deploy) — runs after the first
// successful one are no-ops once every migration has recorded history.
type Runner struct {
	lockMgr    *lock.Manager
	helper     Helper
	history    *mongo.Collection
	migrations []Migration
	opts       Options
	clock      lock.Clock
	logger     *logrus.Entry
	metrics    MetricsRecorder
}

// NewRunner validates and sorts the migration set at construction time;
// a duplicate or malformed migration fails fast rather than at Run time.
// clock is the time source stamped onto applied-migration history records;
// a nil clock defaults to lock.SystemClock{}.
func NewRunner(lockMgr *lock.Manager, helper Helper, migrations []Migration, opts Options, clock lock.Clock, logger *logrus.Entry) (*Runner, error) {
	sorted, err := validateAndSort(migrations)
	if err != nil {
		return nil, err
	}

	if clock == nil {
		clock = lock.SystemClock{}
	}

	if logger == nil {
		logger = logrus.NewEntry(logrus.StandardLogger())
	}

	opts = opts.withDefaults()

	return &Runner{
		lockMgr:    lockMgr,
		helper:     helper,
		history:    helper.Collection(opts.HistoryCollectionName),
		migrations: sorted,
		opts:       opts,
		clock:      clock,
		logger:     logger,
		metrics:    noopMetrics{},
	}, nil
}

// SetMetrics attaches a MetricsRecorder (typically pkg/metrics.ChaosMongoMetrics)
// to observe per-migration outcomes. Optional.
func (r *Runner) SetMetrics(m MetricsRecorder) {
	if m == nil {
		m = noopMetrics{}
	}

	r.metrics = m
}

// Run acquires the migration lock with a single TryAcquire attempt — a
// busy lock means another process is migrating right now, which is
// success, not contention to wait out. It then applies every pending
// migration in id order, aborting the run (but keeping everything applied
// so far) on the first error.
func (r *Runner) Run(ctx context.Context) error {
	handle, err := r.lockMgr.TryAcquire(ctx, r.opts.LockName, r.opts.MigrationLockLeaseTime)
	if err != nil {
		return fmt.Errorf("migrator: acquire lock %q: %w", r.opts.LockName, err)
	}

	if handle == nil {
		r.logger.WithField("lock_name", r.opts.LockName).Info("migrator: another process holds the migration lock, skipping run")
		return nil
	}

	defer func() {
		releaseCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()

		_ = handle.Release(releaseCtx)
	}()

	applied, err := appliedIDs(ctx, r.history)
	if err != nil {
		return fmt.Errorf("migrator: read applied history: %w", err)
	}

	pending := make([]Migration, 0, len(r.migrations))

	for _, mig := range r.migrations {
		if _, ok := applied[mig.ID]; !ok {
			pending = append(pending, mig)
		}
	}

	if len(pending) == 0 {
		return nil
	}

	for _, mig := range pending {
		if err := r.applyOne(ctx, handle, mig); err != nil {
			return err
		}
	}

	return nil
}

func (r *Runner) applyOne(ctx context.Context, handle *lock.Handle, mig Migration) error {
	if _, err := handle.EnsureValid(); err != nil {
		return fmt.Errorf("migrator: lock expired before applying %q: %w", mig.ID, err)
	}

	log := r.logger.WithFields(logrus.Fields{"migration_id": mig.ID, "description": mig.Description})
	log.Info("migrator: applying migration")

	sess, useTxn := (mongo.Session)(nil), false
	if r.opts.UseTransactionsForMigrationsIfAvailable {
		if s, ok := r.helper.TryStartSession(); ok {
			if err := s.StartTransaction(); err != nil {
				log.WithError(err).Warn("migrator: failed to start transaction, continuing without session")
				s.EndSession(ctx)
			} else {
				sess, useTxn = s, true
			}
		}
	}

	applyCtx := ctx
	if useTxn {
		applyCtx = mongo.NewSessionContext(ctx, sess)
	}

	start := time.Now()
	applyErr := mig.Apply(applyCtx, r.helper, sess)
	duration := time.Since(start)

	if applyErr != nil {
		if useTxn {
			abortCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			_ = sess.AbortTransaction(abortCtx)
			cancel()
			sess.EndSession(ctx)
		}

		r.metrics.ObserveMigration(mig.ID, "error", duration)

		return fmt.Errorf("migrator: apply %q: %w", mig.ID, applyErr)
	}

	if _, err := handle.EnsureValid(); err != nil {
		if useTxn {
			abortCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			_ = sess.AbortTransaction(abortCtx)
			cancel()
			sess.EndSession(ctx)
		}

		return fmt.Errorf("migrator: lock expired after applying %q: %w", mig.ID, err)
	}

	item := historyItem{
		ID:          mig.ID,
		AppliedUTC:  r.clock.Now(),
		DurationMS:  duration.Milliseconds(),
		Description: mig.Description,
	}

	if err := insertHistory(applyCtx, r.history, item); err != nil {
		if useTxn {
			abortCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			_ = sess.AbortTransaction(abortCtx)
			cancel()
			sess.EndSession(ctx)
		}

		return fmt.Errorf("migrator: record history for %q: %w", mig.ID, err)
	}

	if useTxn {
		if err := sess.CommitTransaction(ctx); err != nil {
			sess.EndSession(ctx)
			return fmt.Errorf("migrator: commit %q: %w", mig.ID, err)
		}

		sess.EndSession(ctx)
	}

	r.metrics.ObserveMigration(mig.ID, "ok", duration)
	log.WithField("duration_ms", item.DurationMS).Info("migrator: migration applied")

	return nil
}
