package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// ChaosMongoMetrics instruments the three core collaborators (lock,
// migrator, queue) independent of the generic command-level MongoMetrics,
// which only sees driver traffic, not domain outcomes such as "lock
// contended" or "queue item delivered".
type ChaosMongoMetrics struct {
	lockAcquireTotal  *prometheus.CounterVec
	lockHeldGauge     *prometheus.GaugeVec
	migrationDuration *prometheus.HistogramVec
	migrationsApplied *prometheus.CounterVec
	queuePublished    *prometheus.CounterVec
	queueProcessed    *prometheus.CounterVec
	queueHandlerTime  *prometheus.HistogramVec
}

func NewChaosMongoMetrics(reg *Registry) *ChaosMongoMetrics {
	if reg == nil {
		return nil
	}

	m := &ChaosMongoMetrics{
		lockAcquireTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "chaosmongo_lock_acquire_total",
			Help: "Lock acquisition attempts by lock name and outcome (acquired, contended, error).",
		}, []string{"lock", "outcome"}),
		lockHeldGauge: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "chaosmongo_lock_held",
			Help: "1 while this process holds the named lock, 0 otherwise.",
		}, []string{"lock"}),
		migrationDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "chaosmongo_migration_duration_seconds",
			Help:    "Duration of a single applied migration.",
			Buckets: DefaultBuckets,
		}, []string{"migration_id", "result"}),
		migrationsApplied: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "chaosmongo_migrations_applied_total",
			Help: "Migrations applied by this process, by result.",
		}, []string{"result"}),
		queuePublished: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "chaosmongo_queue_published_total",
			Help: "Items published, by queue collection.",
		}, []string{"collection"}),
		queueProcessed: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "chaosmongo_queue_processed_total",
			Help: "Items processed by a subscription, by collection and outcome.",
		}, []string{"collection", "outcome"}),
		queueHandlerTime: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "chaosmongo_queue_handler_duration_seconds",
			Help:    "Handler execution duration, by collection.",
			Buckets: DefaultBuckets,
		}, []string{"collection"}),
	}

	reg.Registerer.MustRegister(
		m.lockAcquireTotal,
		m.lockHeldGauge,
		m.migrationDuration,
		m.migrationsApplied,
		m.queuePublished,
		m.queueProcessed,
		m.queueHandlerTime,
	)

	return m
}

func (m *ChaosMongoMetrics) ObserveLockAcquire(lock, outcome string) {
	if m == nil {
		return
	}

	m.lockAcquireTotal.WithLabelValues(lock, outcome).Inc()
}

func (m *ChaosMongoMetrics) SetLockHeld(lock string, held bool) {
	if m == nil {
		return
	}

	v := 0.0
	if held {
		v = 1.0
	}

	m.lockHeldGauge.WithLabelValues(lock).Set(v)
}

func (m *ChaosMongoMetrics) ObserveMigration(migrationID, result string, d time.Duration) {
	if m == nil {
		return
	}

	m.migrationDuration.WithLabelValues(migrationID, result).Observe(d.Seconds())
	m.migrationsApplied.WithLabelValues(result).Inc()
}

func (m *ChaosMongoMetrics) ObservePublish(collection string) {
	if m == nil {
		return
	}

	m.queuePublished.WithLabelValues(collection).Inc()
}

func (m *ChaosMongoMetrics) ObserveProcessed(collection, outcome string, handlerTime time.Duration) {
	if m == nil {
		return
	}

	m.queueProcessed.WithLabelValues(collection, outcome).Inc()
	m.queueHandlerTime.WithLabelValues(collection).Observe(handlerTime.Seconds())
}
