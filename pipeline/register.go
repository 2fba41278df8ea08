package pipeline

import (
	"context"
	"log/slog"
	"os"
	"sync"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/trace"
	"go.opentelemetry.io/otel/trace/noop"
	"golang.org/x/xerrors"

	"github.com/khaledhikmat/vs-steer/model"
	"github.com/khaledhikmat/vs-steer/service/colorspace"
	"github.com/khaledhikmat/vs-steer/service/inference"
	"github.com/khaledhikmat/vs-steer/service/lgr"
)

const defaultModelName = "pilotnet"

// Pipeline is a registered steering pipeline. After Register returns, all
// interaction happens through the queues; the methods here only observe.
type Pipeline struct {
	id         string
	gate       *Gate
	processor  *Processor
	controller *Controller
	engine     inference.IService
	slot       *ResultSlot
	stats      *statsObserver
	dumper     *Dumper
	wg         sync.WaitGroup
}

// Register loads the model, wires the queues and starts the processing loop,
// plus the control loop when a control queue is given. ctx only ends the
// loops at process teardown. Nothing is started when an error is returned.
func Register(ctx context.Context, queues Queues, opts Options) (*Pipeline, error) {
	if queues.Input == nil {
		return nil, ErrNoInputQueue
	}
	if opts.PoolReturn && queues.Output == nil && opts.Pool == nil {
		return nil, ErrNoPool
	}

	logger := opts.Logger
	if logger == nil {
		logger = lgr.Logger
	}
	tracer := opts.Tracer
	if tracer == nil {
		tracer = noop.NewTracerProvider().Tracer("")
	}
	backend := opts.Backend
	if backend == nil {
		backend = inference.NewDNN
	}

	cs := opts.Colorspace
	if cs == nil {
		var err error
		if cs, err = colorspace.NewOpenCV(opts.Rotation); err != nil {
			return nil, err
		}
	}

	engine, err := inference.NewContext(opts.Model, opts.ArenaSize, backend)
	if err != nil {
		return nil, xerrors.Errorf("error loading model: %w", err)
	}
	logTensors(logger, engine)

	p, err := newPipeline(queues, opts, engine, cs, logger, tracer)
	if err != nil {
		engine.Close()
		return nil, err
	}

	p.wg.Add(1)
	go func() {
		defer p.wg.Done()
		p.processor.Run(ctx)
	}()

	if p.controller != nil {
		p.wg.Add(1)
		go func() {
			defer p.wg.Done()
			p.controller.Run(ctx)
		}()
	}

	logger.Info(
		"pipeline registered",
		slog.String("pipeline", p.id),
		slog.Bool("control", p.controller != nil),
		slog.Bool("result", queues.Result != nil),
		slog.Bool("output", queues.Output != nil),
		slog.Bool("poolReturn", opts.PoolReturn),
		slog.Bool("debug", opts.Debug),
	)
	return p, nil
}

func newPipeline(queues Queues, opts Options, engine inference.IService, cs colorspace.IService, logger *slog.Logger, tracer trace.Tracer) (*Pipeline, error) {
	out := engine.Output()
	if (out.Type != inference.Int8 && out.Type != inference.UInt8) || out.Elements() < 1 {
		return nil, xerrors.Errorf("output tensor is %s %v: %w", out.Type, out.Shape, ErrUnsupportedTensor)
	}

	bridge, err := NewBridge(engine.Input(), cs, opts.FrameWidth, opts.FrameHeight)
	if err != nil {
		return nil, err
	}

	id := uuid.NewString()
	logger = logger.With(slog.String("pipeline", id))

	p := &Pipeline{
		id:     id,
		gate:   NewGate(true),
		engine: engine,
		slot:   &ResultSlot{},
		stats:  newStatsObserver(id),
	}
	RecordGate(id, true)

	if opts.Debug {
		sink := opts.DebugSink
		if sink == nil {
			sink = os.Stderr
		}
		name := opts.ModelName
		if name == "" {
			name = defaultModelName
		}
		p.dumper = NewDumper(sink, name, logger)
	}

	obs := observers{logObserver{logger: logger}, metricsObserver{}, p.stats}
	obs = append(obs, opts.Observers...)

	p.processor = &Processor{
		id:       id,
		input:    queues.Input,
		result:   queues.Result,
		gate:     p.gate,
		engine:   engine,
		bridge:   bridge,
		disposer: NewDisposer(queues.Output, opts.PoolReturn, opts.Pool),
		outQuant: out.Quant,
		slot:     p.slot,
		observer: obs,
		tracer:   tracer,
		yield:    opts.YieldDelay,
		logger:   logger,
	}

	if p.dumper != nil {
		p.processor.dumper = p.dumper
	}

	if queues.Control != nil {
		p.controller = &Controller{
			id:      id,
			control: queues.Control,
			gate:    p.gate,
			logger:  logger,
		}
	}

	if opts.Affinity != nil {
		process, control := opts.Affinity.Process, opts.Affinity.Control
		p.processor.core = &process
		if p.controller != nil {
			p.controller.core = &control
		}
	}

	return p, nil
}

func logTensors(logger *slog.Logger, engine inference.IService) {
	in, out := engine.Input(), engine.Output()
	logger.Info(
		"model loaded",
		slog.Uint64("schema", uint64(engine.Schema().Version)),
		slog.Any("input", in.Shape),
		slog.String("inputType", in.Type.String()),
		slog.Float64("inputScale", float64(in.Quant.Scale)),
		slog.Int("inputZeroPoint", int(in.Quant.ZeroPoint)),
		slog.Any("output", out.Shape),
		slog.String("outputType", out.Type.String()),
		slog.Float64("outputScale", float64(out.Quant.Scale)),
		slog.Int("outputZeroPoint", int(out.Quant.ZeroPoint)),
	)
}

func (p *Pipeline) ID() string   { return p.id }
func (p *Pipeline) Gate() *Gate  { return p.gate }
func (p *Pipeline) State() State { return p.processor.State() }

// Result returns the latest prediction, if any frame has been decoded yet.
func (p *Pipeline) Result() (model.Prediction, bool) {
	return p.slot.Load()
}

func (p *Pipeline) Stats() model.ProcessorStats {
	return p.stats.snapshot(p.gate.Changes())
}

// Wait blocks until both loops have exited, then releases the model.
func (p *Pipeline) Wait() error {
	p.wg.Wait()
	if p.dumper != nil {
		p.dumper.Close()
	}
	return p.engine.Close()
}
