package inference

import (
	"encoding/binary"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestQuantizeInto(t *testing.T) {
	arena, err := NewArena(64)
	require.NoError(t, err)
	out, err := arena.Allocate(TensorSpec{Shape: []int{1, 1}, Type: Int8, Quant: QuantParams{Scale: 0.0039, ZeroPoint: -10}})
	require.NoError(t, err)

	require.NoError(t, quantizeInto(out, []float32{0.0858, 1}))
	assert.Equal(t, int32(12), out.Raw(0))

	assert.Error(t, quantizeInto(out, nil))
}

func TestFloat32Bytes(t *testing.T) {
	b := float32Bytes([]float32{1.5, -2})

	require.Len(t, b, 8)
	assert.Equal(t, float32(1.5), math.Float32frombits(binary.LittleEndian.Uint32(b)))
	assert.Equal(t, float32(-2), math.Float32frombits(binary.LittleEndian.Uint32(b[4:])))

	_, ok := floatMatType(2)
	assert.False(t, ok)
}
