package pipeline

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/trace/noop"

	"github.com/khaledhikmat/vs-steer/model"
	"github.com/khaledhikmat/vs-steer/service/inference"
)

type slowDumper struct {
	delay time.Duration
	dumps int
}

func (d *slowDumper) Dump(_ *inference.TensorView) bool {
	time.Sleep(d.delay)
	d.dumps++
	return true
}

func TestBridgeTimeExcludesDump(t *testing.T) {
	var got Outcome
	opts := testOptions(1, setRaw(-10))
	opts.Observers = []Observer{ObserverFunc(func(_ context.Context, o Outcome) {
		got = o
	})}

	engine, err := inference.NewContext(opts.Model, opts.ArenaSize, opts.Backend)
	require.NoError(t, err)
	defer engine.Close()

	p, err := newPipeline(Queues{Input: make(chan *model.Frame)}, opts, engine, opts.Colorspace, discard, noop.NewTracerProvider().Tracer(""))
	require.NoError(t, err)

	dumper := &slowDumper{delay: 200 * time.Millisecond}
	p.processor.dumper = dumper
	p.processor.process(context.Background(), heapFrame(7))

	assert.Equal(t, 1, dumper.dumps)
	require.NoError(t, got.BridgeErr)
	assert.Less(t, got.BridgeTime, dumper.delay)
	assert.True(t, got.Invoked())
}
