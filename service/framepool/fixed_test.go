package framepool

import (
	"context"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/khaledhikmat/vs-steer/model"
)

func TestGetReturnCycle(t *testing.T) {
	pool := NewFixed(2, 96, 96, model.PixelFormatRGB565)
	ctx := context.Background()

	a, err := pool.Get(ctx)
	require.NoError(t, err)
	b, err := pool.Get(ctx)
	require.NoError(t, err)

	assert.Len(t, a.Buf, 96*96*2)
	assert.Equal(t, model.SourcePool, a.Source)

	require.NoError(t, pool.Return(a))
	require.NoError(t, pool.Return(b))

	want := Stats{Size: 2, Available: 2, Returns: 2}
	if diff := cmp.Diff(want, pool.Stats()); diff != "" {
		t.Errorf("Stats() mismatch (-want +got):\n%s", diff)
	}
}

func TestDoubleReturnIsRejected(t *testing.T) {
	pool := NewFixed(1, 8, 8, model.PixelFormatGrayscale)

	f, err := pool.Get(context.Background())
	require.NoError(t, err)
	require.NoError(t, pool.Return(f))

	assert.ErrorIs(t, pool.Return(f), ErrNotOwned)
	assert.ErrorIs(t, pool.Return(model.NewHeapFrame(8, 8, model.PixelFormatGrayscale)), ErrNotOwned)
	assert.Equal(t, 1, pool.Stats().Available)
}

func TestGetBlocksUntilCancelled(t *testing.T) {
	pool := NewFixed(1, 8, 8, model.PixelFormatGrayscale)

	_, err := pool.Get(context.Background())
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	_, err = pool.Get(ctx)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestFreeShrinksPool(t *testing.T) {
	pool := NewFixed(2, 8, 8, model.PixelFormatGrayscale)

	f, err := pool.Get(context.Background())
	require.NoError(t, err)
	pool.Free(f)

	assert.Nil(t, f.Buf)
	stats := pool.Stats()
	assert.Equal(t, 1, stats.Lost)
	assert.Equal(t, 1, stats.Frees)
	assert.Equal(t, 1, stats.Available)
	assert.Equal(t, 0, stats.Outstanding)
}
