package pipeline

import (
	"context"
	"log/slog"
	"runtime"
	"sync/atomic"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/khaledhikmat/vs-steer/model"
	"github.com/khaledhikmat/vs-steer/service/inference"
)

type State int32

const (
	StateGatedOff State = iota
	StateAwaitingFrame
	StateBridging
	StateInvoking
	StateDecoding
	StateDisposing
	StateStopped
)

func (s State) String() string {
	switch s {
	case StateGatedOff:
		return "GATED_OFF"
	case StateAwaitingFrame:
		return "AWAITING_FRAME"
	case StateBridging:
		return "BRIDGING"
	case StateInvoking:
		return "INVOKING"
	case StateDecoding:
		return "DECODING"
	case StateDisposing:
		return "DISPOSING"
	case StateStopped:
		return "STOPPED"
	}
	return "UNKNOWN"
}

type tensorDumper interface {
	Dump(t *inference.TensorView) bool
}

// Processor is the frame loop: one frame in flight, start to disposition,
// before the next is pulled.
type Processor struct {
	id       string
	input    <-chan *model.Frame
	result   chan<- struct{}
	gate     *Gate
	engine   inference.IService
	bridge   *Bridge
	disposer *Disposer
	dumper   tensorDumper
	outQuant inference.QuantParams
	slot     *ResultSlot
	observer Observer
	tracer   trace.Tracer
	yield    time.Duration
	core     *int
	logger   *slog.Logger

	state atomic.Int32
}

func (p *Processor) State() State {
	return State(p.state.Load())
}

func (p *Processor) setState(s State) {
	p.state.Store(int32(s))
}

// Run loops until ctx ends or the input queue is closed. While the gate is
// off it does not receive from the input queue at all.
func (p *Processor) Run(ctx context.Context) {
	defer p.setState(StateStopped)

	if p.core != nil {
		if err := pinThread(*p.core); err != nil {
			p.logger.Warn("processing loop not pinned", slog.Int("core", *p.core), slog.Any("error", err))
		}
	}

	for {
		if !p.gate.Enabled() {
			p.setState(StateGatedOff)
			select {
			case <-ctx.Done():
				p.logger.Info("processing loop context cancelled")
				return
			case <-p.gate.Changed():
			}
			continue
		}

		p.setState(StateAwaitingFrame)
		select {
		case <-ctx.Done():
			p.logger.Info("processing loop context cancelled")
			return

		case <-p.gate.Changed():
			// No frame is owned yet, so the flip applies right away

		case f, ok := <-p.input:
			if !ok {
				p.logger.Info("input queue closed")
				return
			}
			p.process(ctx, f)
		}
	}
}

func (p *Processor) process(ctx context.Context, f *model.Frame) {
	ctx, span := p.tracer.Start(ctx, "pipeline.process",
		trace.WithAttributes(
			attribute.String("pipeline", p.id),
			attribute.Int64("seq", int64(f.Seq)),
		),
	)
	defer span.End()

	o := Outcome{
		Pipeline:   p.id,
		Prediction: model.Prediction{Seq: f.Seq},
	}

	p.setState(StateBridging)
	start := time.Now()
	o.BridgeErr = p.bridge.Prepare(f)
	o.BridgeTime = time.Since(start)
	if o.BridgeErr == nil {
		if p.dumper != nil && !p.dumper.Dump(p.engine.Input()) {
			RecordDumpDropped(p.id)
		}
		p.bridge.Encode()
	}

	if o.BridgeErr == nil {
		p.setState(StateInvoking)
		start = time.Now()
		o.InvokeErr = p.engine.Invoke()
		o.InvokeTime = time.Since(start)
		p.yieldCore()

		// A failed invoke leaves the previous output in place; decode it anyway
		p.setState(StateDecoding)
		raw := p.engine.Output().Raw(0)
		angle, degrees := Decode(raw, p.outQuant)
		o.Prediction = model.Prediction{
			Seq:       f.Seq,
			Raw:       int(raw),
			Angle:     angle,
			Degrees:   degrees,
			Timestamp: time.Now(),
		}
		p.slot.Store(o.Prediction)
	}

	p.setState(StateDisposing)
	o.Disposition, o.DisposeErr = p.disposer.Dispose(ctx, f)

	span.SetAttributes(
		attribute.String("disposition", string(o.Disposition)),
		attribute.Int64("bridge_us", o.BridgeTime.Microseconds()),
		attribute.Int64("invoke_us", o.InvokeTime.Microseconds()),
		attribute.Float64("angle", o.Prediction.Angle),
	)
	for _, err := range []error{o.BridgeErr, o.InvokeErr, o.DisposeErr} {
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
		}
	}

	p.observer.Observe(ctx, o)

	if p.result != nil {
		select {
		case p.result <- struct{}{}:
		case <-ctx.Done():
		}
	}
}

func (p *Processor) yieldCore() {
	if p.yield <= 0 {
		runtime.Gosched()
		return
	}
	time.Sleep(p.yield)
}
