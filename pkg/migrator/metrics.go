package migrator

import "time"

// MetricsRecorder is the subset of pkg/metrics.ChaosMongoMetrics a Runner
// needs. Declared locally so this package doesn't have to import
// prometheus to be usable.
type MetricsRecorder interface {
	ObserveMigration(migrationID, result string, d time.Duration)
}

type noopMetrics struct{}

func (noopMetrics) ObserveMigration(string, string, time.Duration) {}
