package queue

import "time"

// MetricsRecorder is the subset of pkg/metrics.ChaosMongoMetrics a
// Publisher or Subscription needs. Declared locally so this package
// doesn't have to import prometheus to be usable.
type MetricsRecorder interface {
	ObservePublish(collection string)
	ObserveProcessed(collection, outcome string, handlerTime time.Duration)
}

type noopMetrics struct{}

func (noopMetrics) ObservePublish(string)                          {}
func (noopMetrics) ObserveProcessed(string, string, time.Duration) {}
