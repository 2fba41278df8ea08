package pipeline

import (
	"context"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/khaledhikmat/vs-steer/model"
	"github.com/khaledhikmat/vs-steer/service/inference"
	"github.com/khaledhikmat/vs-steer/service/inference/inferencetest"
)

const waitFor = 2 * time.Second

var discard = slog.New(slog.NewTextHandler(io.Discard, nil))

// fakeColorspace fills the destination with the frame's first byte, so the
// tensor follows the frame without needing OpenCV.
type fakeColorspace struct {
	mu   sync.Mutex
	gray int
	rgb  int
}

func (c *fakeColorspace) ToGray(dst []byte, f *model.Frame, _, _ int) error {
	c.mu.Lock()
	c.gray++
	c.mu.Unlock()
	fill(dst, f.Buf[0])
	return nil
}

func (c *fakeColorspace) ToRGB888(dst []byte, f *model.Frame, _, _ int) error {
	c.mu.Lock()
	c.rgb++
	c.mu.Unlock()
	fill(dst, f.Buf[0])
	return nil
}

func (c *fakeColorspace) calls() (gray, rgb int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.gray, c.rgb
}

func fill(b []byte, v byte) {
	for i := range b {
		b[i] = v
	}
}

func testModel(channels int, version uint32) []byte {
	in, out := inferencetest.PilotNet(channels)
	return inferencetest.BuildModel(version, in, out)
}

func testOptions(channels int, fn inference.InvokeFunc) Options {
	return Options{
		Model:       testModel(channels, inference.SchemaVersion),
		ArenaSize:   256 * 1024,
		Backend:     inference.NewFake(fn),
		Colorspace:  &fakeColorspace{},
		FrameWidth:  96,
		FrameHeight: 96,
		Logger:      discard,
	}
}

// register starts a pipeline that is torn down when the test ends.
func register(t *testing.T, queues Queues, opts Options) *Pipeline {
	t.Helper()

	ctx, cancel := context.WithCancel(context.Background())
	p, err := Register(ctx, queues, opts)
	require.NoError(t, err)

	t.Cleanup(func() {
		cancel()
		require.NoError(t, p.Wait())
	})
	return p
}

func heapFrame(v byte) *model.Frame {
	f := model.NewHeapFrame(96, 96, model.PixelFormatRGB565)
	fill(f.Buf, v)
	return f
}

func waitSignal(t *testing.T, ch chan struct{}) {
	t.Helper()

	select {
	case <-ch:
	case <-time.After(waitFor):
		t.Fatal("no result signal")
	}
}

// setRaw makes the fake network emit a fixed raw output value.
func setRaw(q int8) inference.InvokeFunc {
	return func(_, out *inference.TensorView) error {
		out.Bytes()[0] = byte(q)
		return nil
	}
}
