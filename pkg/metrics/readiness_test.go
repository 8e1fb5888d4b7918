package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/require"

	"github.com/chaosmongo/chaosmongo/pkg/config"
)

func TestNewReadinessGauge_NilRegistryReturnsNilGauge(t *testing.T) {
	g := NewReadinessGauge(nil)

	require.Nil(t, g)
}

func TestReadinessGauge_NilReceiverSetIsNoOp(t *testing.T) {
	var g *ReadinessGauge

	require.NotPanics(t, func() {
		g.Set("mongo", true)
	})
}

func TestReadinessGauge_Set_TogglesByComponent(t *testing.T) {
	reg := NewRegistry("chaosmongo-test", config.AppEnvDevelopment, "test")
	g := NewReadinessGauge(reg)

	g.Set("mongo", true)
	require.Equal(t, float64(1), testutil.ToFloat64(g.gauge.WithLabelValues("mongo")))

	g.Set("mongo", false)
	require.Equal(t, float64(0), testutil.ToFloat64(g.gauge.WithLabelValues("mongo")))
}
