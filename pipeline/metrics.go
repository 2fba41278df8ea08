package pipeline

import (
	"context"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

const subsystem = "steer"

var (
	framesCounter = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Subsystem: subsystem,
			Name:      "frames_total",
			Help:      "Frames consumed from the input queue, by disposition.",
		},
		[]string{"pipeline", "disposition"},
	)
	failuresCounter = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Subsystem: subsystem,
			Name:      "failures_total",
			Help:      "Per-frame failures, by stage.",
		},
		[]string{"pipeline", "stage"},
	)
	bridgeDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Subsystem: subsystem,
			Name:      "bridge_duration_seconds",
			Help:      "Time spent converting a frame into the input tensor.",
			Buckets:   prometheus.ExponentialBuckets(0.0005, 2, 12),
		},
		[]string{"pipeline"},
	)
	invokeDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Subsystem: subsystem,
			Name:      "invoke_duration_seconds",
			Help:      "Time spent running the model.",
			Buckets:   prometheus.ExponentialBuckets(0.001, 2, 12),
		},
		[]string{"pipeline"},
	)
	angleGauge = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Subsystem: subsystem,
			Name:      "angle_radians",
			Help:      "Last decoded steering angle.",
		},
		[]string{"pipeline"},
	)
	gateGauge = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Subsystem: subsystem,
			Name:      "gate_enabled",
			Help:      "1 while the pipeline consumes frames, 0 while gated off.",
		},
		[]string{"pipeline"},
	)
	dumpDroppedCounter = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Subsystem: subsystem,
			Name:      "diagnostic_dumps_dropped_total",
			Help:      "Diagnostic dumps dropped because the sink fell behind.",
		},
		[]string{"pipeline"},
	)
)

var registerMetrics sync.Once

// RegisterMetrics registers the pipeline collectors once per process.
func RegisterMetrics(reg prometheus.Registerer) {
	registerMetrics.Do(func() {
		reg.MustRegister(framesCounter)
		reg.MustRegister(failuresCounter)
		reg.MustRegister(bridgeDuration)
		reg.MustRegister(invokeDuration)
		reg.MustRegister(angleGauge)
		reg.MustRegister(gateGauge)
		reg.MustRegister(dumpDroppedCounter)
	})
}

// RecordGate records the gate state of a pipeline.
func RecordGate(pipeline string, enabled bool) {
	v := 0.0
	if enabled {
		v = 1
	}
	gateGauge.WithLabelValues(pipeline).Set(v)
}

// RecordDumpDropped records one dropped diagnostic dump.
func RecordDumpDropped(pipeline string) {
	dumpDroppedCounter.WithLabelValues(pipeline).Inc()
}

type metricsObserver struct{}

func (metricsObserver) Observe(_ context.Context, o Outcome) {
	if o.Disposition != "" {
		framesCounter.WithLabelValues(o.Pipeline, string(o.Disposition)).Inc()
	}
	bridgeDuration.WithLabelValues(o.Pipeline).Observe(o.BridgeTime.Seconds())

	if o.BridgeErr != nil {
		failuresCounter.WithLabelValues(o.Pipeline, "bridge").Inc()
	}
	if o.DisposeErr != nil {
		failuresCounter.WithLabelValues(o.Pipeline, "dispose").Inc()
	}
	if !o.Invoked() {
		return
	}

	invokeDuration.WithLabelValues(o.Pipeline).Observe(o.InvokeTime.Seconds())
	if o.InvokeErr != nil {
		failuresCounter.WithLabelValues(o.Pipeline, "invoke").Inc()
	}
	angleGauge.WithLabelValues(o.Pipeline).Set(o.Prediction.Angle)
}
