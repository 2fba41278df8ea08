package pipeline

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/khaledhikmat/vs-steer/model"
)

func TestRegisterMetricsOnce(t *testing.T) {
	reg := prometheus.NewRegistry()
	RegisterMetrics(reg)
	assert.NotPanics(t, func() { RegisterMetrics(reg) })

	RecordGate("metrics-test", false)
	n, err := testutil.GatherAndCount(reg, "steer_gate_enabled")
	require.NoError(t, err)
	assert.GreaterOrEqual(t, n, 1)
	assert.Zero(t, testutil.ToFloat64(gateGauge.WithLabelValues("metrics-test")))
}

func TestMetricsObserverCountsFailures(t *testing.T) {
	const id = "metrics-observer"
	obs := metricsObserver{}

	obs.Observe(context.Background(), Outcome{
		Pipeline:    id,
		Disposition: model.DispositionFreed,
		BridgeErr:   errors.New("bad frame"),
		BridgeTime:  time.Millisecond,
	})
	obs.Observe(context.Background(), Outcome{
		Pipeline:    id,
		Disposition: model.DispositionReturned,
		InvokeErr:   errors.New("kernel"),
		Prediction:  model.Prediction{Angle: 0.5},
	})

	assert.Equal(t, float64(1), testutil.ToFloat64(failuresCounter.WithLabelValues(id, "bridge")))
	assert.Equal(t, float64(1), testutil.ToFloat64(failuresCounter.WithLabelValues(id, "invoke")))
	assert.Equal(t, float64(1), testutil.ToFloat64(framesCounter.WithLabelValues(id, "freed")))
	assert.Equal(t, 0.5, testutil.ToFloat64(angleGauge.WithLabelValues(id)))
	assert.Equal(t, 1, testutil.CollectAndCount(invokeDuration.WithLabelValues(id).(prometheus.Histogram)))
}
