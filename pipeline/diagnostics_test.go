package pipeline

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/khaledhikmat/vs-steer/model"
	"github.com/khaledhikmat/vs-steer/service/inference"
)

func TestDumperWritesJSONLines(t *testing.T) {
	in := tensor(t, inference.TensorSpec{Shape: []int{1, 2, 3, 1}, Type: inference.Int8})
	copy(in.Bytes(), []byte{1, 2, 3, 4, 5, 6})

	var buf bytes.Buffer
	d := NewDumper(&buf, "pilotnet", discard)
	require.True(t, d.Dump(in))
	d.Close()

	var rec dumpRecord
	require.NoError(t, json.Unmarshal(buf.Bytes(), &rec))
	assert.Equal(t, dumpFormat{Height: 2, Width: 3, Channels: 1, Model: "pilotnet"}, rec.Format)

	fb, err := base64.StdEncoding.DecodeString(rec.Framebuffer)
	require.NoError(t, err)
	assert.Equal(t, []byte{1, 2, 3, 4, 5, 6}, fb)
	assert.Equal(t, int64(1), d.Written())
}

type blockingWriter struct {
	release chan struct{}
}

func (w blockingWriter) Write(p []byte) (int, error) {
	<-w.release
	return len(p), nil
}

func TestDumperDropsWhenSinkStalls(t *testing.T) {
	in := tensor(t, inference.TensorSpec{Shape: []int{1, 1, 1, 1}, Type: inference.Int8})
	w := blockingWriter{release: make(chan struct{})}
	d := NewDumper(w, "pilotnet", discard)

	for i := 0; i < 10; i++ {
		d.Dump(in)
	}
	assert.GreaterOrEqual(t, d.Dropped(), int64(10-dumpQueueDepth-1))

	close(w.release)
	d.Close()
	assert.Equal(t, int64(10), d.Dropped()+d.Written())
}

func TestDebugModeDumpsBeforeEncoding(t *testing.T) {
	var buf bytes.Buffer
	opts := testOptions(1, nil)
	opts.Debug = true
	opts.DebugSink = &buf

	ctx, cancel := context.WithCancel(context.Background())
	queues := Queues{
		Input:  make(chan *model.Frame, 1),
		Result: make(chan struct{}, 1),
	}
	p, err := Register(ctx, queues, opts)
	require.NoError(t, err)

	queues.Input <- heapFrame(200)
	waitSignal(t, queues.Result)
	cancel()
	require.NoError(t, p.Wait())

	var rec dumpRecord
	require.NoError(t, json.NewDecoder(&buf).Decode(&rec))
	assert.Equal(t, dumpFormat{Height: 66, Width: 200, Channels: 1, Model: "pilotnet"}, rec.Format)

	fb, err := base64.StdEncoding.DecodeString(rec.Framebuffer)
	require.NoError(t, err)
	require.Len(t, fb, 66*200)
	assert.Equal(t, byte(200), fb[0], "dumped before recentering")
}
