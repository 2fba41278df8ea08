package pipeline

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/khaledhikmat/vs-steer/model"
	"github.com/khaledhikmat/vs-steer/service/framepool"
)

func TestDisposeExactlyOnce(t *testing.T) {
	tests := []struct {
		name       string
		output     bool
		poolReturn bool
		want       model.Disposition
		returns    int
		frees      int
	}{
		{name: "forward wins over pool return", output: true, poolReturn: true, want: model.DispositionForwarded},
		{name: "pool return", poolReturn: true, want: model.DispositionReturned, returns: 1},
		{name: "free", want: model.DispositionFreed, frees: 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			pool := framepool.NewFixed(1, 96, 96, model.PixelFormatRGB565)
			f, err := pool.Get(context.Background())
			require.NoError(t, err)

			var output chan *model.Frame
			if tt.output {
				output = make(chan *model.Frame, 1)
			}

			d := NewDisposer(output, tt.poolReturn, pool)
			got, err := d.Dispose(context.Background(), f)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)

			stats := pool.Stats()
			assert.Equal(t, tt.returns, stats.Returns)
			assert.Equal(t, tt.frees, stats.Frees)
			assert.Len(t, output, boolInt(tt.output))
		})
	}
}

func TestDisposeFallsThroughOnTeardown(t *testing.T) {
	pool := framepool.NewFixed(1, 96, 96, model.PixelFormatRGB565)
	f, err := pool.Get(context.Background())
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	// nobody reads the output queue
	d := NewDisposer(make(chan *model.Frame), true, pool)
	got, err := d.Dispose(ctx, f)
	require.NoError(t, err)
	assert.Equal(t, model.DispositionReturned, got)
	assert.Equal(t, 1, pool.Stats().Returns)
}

func TestDisposeHeapFrameIsFreed(t *testing.T) {
	pool := framepool.NewFixed(1, 96, 96, model.PixelFormatRGB565)
	f := model.NewHeapFrame(96, 96, model.PixelFormatRGB565)

	got, err := NewDisposer(nil, true, pool).Dispose(context.Background(), f)
	require.NoError(t, err)
	assert.Equal(t, model.DispositionFreed, got)
	assert.Nil(t, f.Buf)
	assert.Zero(t, pool.Stats().Lost)
}

func TestDisposeReportsRejectedReturn(t *testing.T) {
	pool := framepool.NewFixed(1, 96, 96, model.PixelFormatRGB565)
	f, err := pool.Get(context.Background())
	require.NoError(t, err)
	require.NoError(t, pool.Return(f))

	got, err := NewDisposer(nil, true, pool).Dispose(context.Background(), f)
	assert.Equal(t, model.DispositionReturned, got)
	assert.ErrorIs(t, err, framepool.ErrNotOwned)
}

func boolInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
