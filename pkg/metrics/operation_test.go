package metrics

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/require"

	"github.com/chaosmongo/chaosmongo/pkg/config"
)

func TestNewOperationMetrics_NilRegistryReturnsNilMetrics(t *testing.T) {
	m := NewOperationMetrics(nil)

	require.Nil(t, m)
}

func TestOperationMetrics_NilReceiverIsNoOp(t *testing.T) {
	var m *OperationMetrics

	require.NotPanics(t, func() {
		m.ObserveMongo("find", "widgets", "ok", time.Millisecond)
	})
}

func TestOperationMetrics_ObserveMongo_RecordsGivenLabels(t *testing.T) {
	reg := NewRegistry("chaosmongo-test", config.AppEnvDevelopment, "test")
	m := NewOperationMetrics(reg)

	m.ObserveMongo("find", "widgets", "ok", 2*time.Millisecond)

	require.Equal(t, float64(1), testutil.ToFloat64(m.mongoOperations.WithLabelValues("find", "widgets", "ok")))
}

func TestOperationMetrics_ObserveMongo_FillsUnknownAndErrorDefaults(t *testing.T) {
	reg := NewRegistry("chaosmongo-test", config.AppEnvDevelopment, "test")
	m := NewOperationMetrics(reg)

	m.ObserveMongo("", "", "", time.Millisecond)

	require.Equal(t, float64(1), testutil.ToFloat64(m.mongoOperations.WithLabelValues("unknown", "unknown", "error")))
}
