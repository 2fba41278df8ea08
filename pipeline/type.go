package pipeline

import (
	"context"
	"io"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel/trace"
	"golang.org/x/xerrors"

	"github.com/khaledhikmat/vs-steer/model"
	"github.com/khaledhikmat/vs-steer/service/colorspace"
	"github.com/khaledhikmat/vs-steer/service/config"
	"github.com/khaledhikmat/vs-steer/service/data"
	"github.com/khaledhikmat/vs-steer/service/framepool"
	"github.com/khaledhikmat/vs-steer/service/inference"
)

var (
	ErrNoInputQueue        = xerrors.New("input queue is required")
	ErrUnsupportedChannels = xerrors.New("unsupported input tensor channel count")
	ErrUnsupportedTensor   = xerrors.New("unsupported tensor type")
	ErrFrameGeometry       = xerrors.New("invalid frame geometry")
	ErrNoPool              = xerrors.New("pool return requires a frame pool")
)

type ServicesFactory struct {
	CfgSvc   config.IService
	DataSvc  data.IService
	PoolSvc  framepool.IService
	ColorSvc colorspace.IService
}

// Queues are the pipeline's only interface after registration. Input is
// required; a nil Control keeps the gate enabled for good, a nil Result sends
// no signals and a nil Output sends frames to the pool or frees them.
type Queues struct {
	Input   chan *model.Frame
	Control chan bool
	Result  chan struct{}
	Output  chan *model.Frame
}

// CoreAffinity names the CPUs the two loops are pinned to.
type CoreAffinity struct {
	Process int
	Control int
}

type Options struct {
	PoolReturn bool

	Model     []byte
	ModelName string
	ArenaSize int
	// Backend defaults to OpenCV's dnn module.
	Backend inference.BackendFactory

	// Colorspace defaults to OpenCV with Rotation applied.
	Colorspace  colorspace.IService
	Pool        framepool.IService
	FrameWidth  int
	FrameHeight int
	Rotation    int

	Debug     bool
	DebugSink io.Writer

	// YieldDelay follows every invocation. Zero yields with runtime.Gosched.
	YieldDelay time.Duration
	Affinity   *CoreAffinity

	Logger    *slog.Logger
	Tracer    trace.Tracer
	Observers []Observer
}

// Signature of upstream frame producers
type Framer func(canx context.Context, svcs ServicesFactory, frames chan *model.Frame, errorStream chan interface{}, statsStream chan interface{})

// Signature of downstream consumers
type Consumer func(canx context.Context, svcs ServicesFactory, p *Pipeline, queues Queues, errorStream chan interface{}, statsStream chan interface{})
