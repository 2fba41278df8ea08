package pipeline

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/khaledhikmat/vs-steer/model"
)

// Outcome is everything one iteration of the processing loop did.
type Outcome struct {
	Pipeline    string
	Prediction  model.Prediction
	Disposition model.Disposition
	BridgeTime  time.Duration
	InvokeTime  time.Duration
	BridgeErr   error
	InvokeErr   error
	DisposeErr  error
}

// Invoked reports whether the model ran on this iteration's frame.
func (o Outcome) Invoked() bool {
	return o.BridgeErr == nil
}

// Observer receives every Outcome on the processing goroutine. It must not block.
type Observer interface {
	Observe(ctx context.Context, o Outcome)
}

type ObserverFunc func(ctx context.Context, o Outcome)

func (fn ObserverFunc) Observe(ctx context.Context, o Outcome) {
	fn(ctx, o)
}

type observers []Observer

func (obs observers) Observe(ctx context.Context, o Outcome) {
	for _, ob := range obs {
		ob.Observe(ctx, o)
	}
}

type logObserver struct {
	logger *slog.Logger
}

func (l logObserver) Observe(ctx context.Context, o Outcome) {
	if o.BridgeErr != nil {
		l.logger.WarnContext(ctx,
			"frame rejected by bridge",
			slog.Uint64("seq", o.Prediction.Seq),
			slog.Any("error", o.BridgeErr),
		)
	}
	if o.InvokeErr != nil {
		l.logger.ErrorContext(ctx,
			"invoke failed",
			slog.Uint64("seq", o.Prediction.Seq),
			slog.Any("error", o.InvokeErr),
		)
	}
	if o.DisposeErr != nil {
		l.logger.ErrorContext(ctx,
			"frame disposition failed",
			slog.Uint64("seq", o.Prediction.Seq),
			slog.String("disposition", string(o.Disposition)),
			slog.Any("error", o.DisposeErr),
		)
	}

	if !o.Invoked() {
		return
	}
	l.logger.DebugContext(ctx,
		"prediction",
		slog.Uint64("seq", o.Prediction.Seq),
		slog.Int("q", o.Prediction.Raw),
		slog.Float64("angle", o.Prediction.Angle),
		slog.Float64("deg", o.Prediction.Degrees),
		slog.Duration("dsp", o.BridgeTime),
		slog.Duration("classification", o.InvokeTime),
		slog.String("disposition", string(o.Disposition)),
	)
}

// statsObserver folds outcomes into a ProcessorStats snapshot.
type statsObserver struct {
	mu          sync.Mutex
	started     time.Time
	stats       model.ProcessorStats
	bridgeTotal time.Duration
	invokeTotal time.Duration
	invokes     int64
}

func newStatsObserver(id string) *statsObserver {
	return &statsObserver{
		started: time.Now(),
		stats:   model.ProcessorStats{Pipeline: id},
	}
}

func (s *statsObserver) Observe(_ context.Context, o Outcome) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.stats.Frames++
	switch o.Disposition {
	case model.DispositionForwarded:
		s.stats.Forwarded++
	case model.DispositionReturned:
		s.stats.Returned++
	case model.DispositionFreed:
		s.stats.Freed++
	}

	s.bridgeTotal += o.BridgeTime
	if o.BridgeErr != nil {
		s.stats.BridgeFailures++
		return
	}

	s.invokes++
	s.invokeTotal += o.InvokeTime
	if o.InvokeErr != nil {
		s.stats.InvokeFailures++
	}
}

func (s *statsObserver) snapshot(gateChanges int64) model.ProcessorStats {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := time.Now()
	stats := s.stats
	stats.GateChanges = gateChanges
	stats.Uptime = int64(now.Sub(s.started).Seconds())
	stats.Timestamp = now.Unix()
	if stats.Frames > 0 {
		stats.AvgBridgeTime = s.bridgeTotal.Seconds() / float64(stats.Frames)
	}
	if s.invokes > 0 {
		stats.AvgInvokeTime = s.invokeTotal.Seconds() / float64(s.invokes)
	}
	return stats
}
