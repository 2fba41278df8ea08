package colorspace

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/khaledhikmat/vs-steer/model"
)

func rgb565Frame(w, h int, hi, lo byte) *model.Frame {
	f := model.NewHeapFrame(w, h, model.PixelFormatRGB565)
	for i := 0; i < len(f.Buf); i += 2 {
		f.Buf[i], f.Buf[i+1] = hi, lo
	}
	return f
}

func TestRGB565ScalesToTensor(t *testing.T) {
	cs, err := NewOpenCV(0)
	require.NoError(t, err)

	dst := make([]byte, 66*200*3)
	require.NoError(t, cs.ToRGB888(dst, rgb565Frame(96, 96, 0xF8, 0x00), 200, 66))

	// pure red survives the byte swap
	for i := 0; i < len(dst); i += 3 {
		require.Equal(t, []byte{248, 0, 0}, dst[i:i+3], "pixel %d", i/3)
	}
}

func TestRGB565ToGray(t *testing.T) {
	cs, err := NewOpenCV(0)
	require.NoError(t, err)

	dst := make([]byte, 66*200)
	require.NoError(t, cs.ToGray(dst, rgb565Frame(96, 96, 0x00, 0x00), 200, 66))
	assert.Equal(t, make([]byte, len(dst)), dst)

	require.NoError(t, cs.ToGray(dst, rgb565Frame(96, 96, 0xFF, 0xFF), 200, 66))
	for _, v := range dst {
		require.InDelta(t, 250, int(v), 3)
	}
}

func TestRotation(t *testing.T) {
	cs, err := NewOpenCV(90)
	require.NoError(t, err)

	// top row red, bottom row blue
	f := model.NewHeapFrame(4, 2, model.PixelFormatRGB888)
	for i := 0; i < 4; i++ {
		copy(f.Buf[i*3:], []byte{255, 0, 0})
		copy(f.Buf[12+i*3:], []byte{0, 0, 255})
	}

	dst := make([]byte, 2*4*3)
	require.NoError(t, cs.ToRGB888(dst, f, 2, 4))

	row := []byte{0, 0, 255, 255, 0, 0}
	assert.Equal(t, bytes.Repeat(row, 4), dst)
}

func TestGrayscalePassThrough(t *testing.T) {
	cs, err := NewOpenCV(0)
	require.NoError(t, err)

	f := model.NewHeapFrame(3, 1, model.PixelFormatGrayscale)
	copy(f.Buf, []byte{10, 20, 30})

	gray := make([]byte, 3)
	require.NoError(t, cs.ToGray(gray, f, 3, 1))
	assert.Equal(t, []byte{10, 20, 30}, gray)

	rgb := make([]byte, 9)
	require.NoError(t, cs.ToRGB888(rgb, f, 3, 1))
	assert.Equal(t, []byte{10, 10, 10, 20, 20, 20, 30, 30, 30}, rgb)
}

func TestConvertRejects(t *testing.T) {
	_, err := NewOpenCV(45)
	assert.ErrorIs(t, err, ErrRotation)

	cs, err := NewOpenCV(0)
	require.NoError(t, err)

	short := rgb565Frame(96, 96, 0, 0)
	short.Buf = short.Buf[:100]
	assert.ErrorIs(t, cs.ToGray(make([]byte, 66*200), short, 200, 66), ErrFrameGeometry)

	assert.ErrorIs(t, cs.ToGray(make([]byte, 10), rgb565Frame(96, 96, 0, 0), 200, 66), ErrFrameGeometry)

	yuv := &model.Frame{Buf: make([]byte, 8), Width: 2, Height: 2, Format: "yuv422"}
	assert.ErrorIs(t, cs.ToGray(make([]byte, 4), yuv, 2, 2), ErrPixelFormat)
}

func TestSwapRGB565(t *testing.T) {
	assert.Equal(t, []byte{0x34, 0x12, 0x78, 0x56}, SwapRGB565([]byte{0x12, 0x34, 0x56, 0x78}))
}
