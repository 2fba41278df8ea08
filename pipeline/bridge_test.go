package pipeline

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/khaledhikmat/vs-steer/model"
	"github.com/khaledhikmat/vs-steer/service/inference"
)

func tensor(t *testing.T, spec inference.TensorSpec) *inference.TensorView {
	t.Helper()

	arena, err := inference.NewArena(inference.MaxArenaSize)
	require.NoError(t, err)
	v, err := arena.Allocate(spec)
	require.NoError(t, err)
	return v
}

func TestBridgeChannelDispatch(t *testing.T) {
	tests := []struct {
		channels int
		gray     int
		rgb      int
		err      error
	}{
		{channels: 1, gray: 1},
		{channels: 3, rgb: 1},
		{channels: 2, err: ErrUnsupportedChannels},
		{channels: 4, err: ErrUnsupportedChannels},
	}

	for _, tt := range tests {
		cs := &fakeColorspace{}
		in := tensor(t, inference.TensorSpec{Shape: []int{1, 66, 200, tt.channels}, Type: inference.Int8})

		b, err := NewBridge(in, cs, 96, 96)
		if tt.err != nil {
			assert.ErrorIs(t, err, tt.err, "channels %d", tt.channels)
			continue
		}
		require.NoError(t, err)

		require.NoError(t, b.Prepare(heapFrame(7)))
		gray, rgb := cs.calls()
		assert.Equal(t, tt.gray, gray, "channels %d", tt.channels)
		assert.Equal(t, tt.rgb, rgb, "channels %d", tt.channels)
	}
}

func TestBridgeRejectsTensor(t *testing.T) {
	cs := &fakeColorspace{}

	_, err := NewBridge(tensor(t, inference.TensorSpec{Shape: []int{1, 4, 4, 3}, Type: inference.Float32}), cs, 96, 96)
	assert.ErrorIs(t, err, ErrUnsupportedTensor)

	_, err = NewBridge(tensor(t, inference.TensorSpec{Shape: []int{1, 48}, Type: inference.Int8}), cs, 96, 96)
	assert.ErrorIs(t, err, ErrUnsupportedTensor)
}

func TestBridgeEncode(t *testing.T) {
	cs := &fakeColorspace{}

	signed := tensor(t, inference.TensorSpec{Shape: []int{1, 2, 2, 1}, Type: inference.Int8})
	b, err := NewBridge(signed, cs, 96, 96)
	require.NoError(t, err)
	require.NoError(t, b.Prepare(heapFrame(200)))
	b.Encode()
	assert.Equal(t, int32(72), signed.Raw(0))

	unsigned := tensor(t, inference.TensorSpec{Shape: []int{1, 2, 2, 1}, Type: inference.UInt8})
	b, err = NewBridge(unsigned, cs, 96, 96)
	require.NoError(t, err)
	require.NoError(t, b.Prepare(heapFrame(200)))
	b.Encode()
	assert.Equal(t, int32(200), unsigned.Raw(0))

	err = b.Prepare(model.NewHeapFrame(32, 96, model.PixelFormatRGB565))
	assert.ErrorIs(t, err, ErrFrameGeometry)
}

func TestRecenter(t *testing.T) {
	buf := []byte{0, 127, 128, 255}
	Recenter(buf)
	assert.Equal(t, []byte{0x80, 0xFF, 0x00, 0x7F}, buf)
}

func TestQuantizationRoundTrip(t *testing.T) {
	q := inference.QuantParams{Scale: 0.0039, ZeroPoint: -10}

	for u := 0; u < 256; u++ {
		buf := []byte{byte(u)}
		Recenter(buf)

		angle, degrees := Decode(int32(int8(buf[0])), q)
		want := float64(u-128-int(q.ZeroPoint)) * float64(q.Scale)
		require.InDelta(t, want, angle, 1e-9, "u=%d", u)
		require.InDelta(t, want*57.29577951308232, degrees, 1e-9, "u=%d", u)
	}
}
