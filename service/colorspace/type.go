package colorspace

import (
	"golang.org/x/xerrors"

	"github.com/khaledhikmat/vs-steer/model"
)

var (
	ErrFrameGeometry = xerrors.New("frame geometry mismatch")
	ErrPixelFormat   = xerrors.New("unsupported pixel format")
	ErrRotation      = xerrors.New("unsupported rotation")
)

// IService converts a frame into a packed 8-bit buffer of width x height
// pixels. dst must hold exactly width*height*channels bytes.
type IService interface {
	ToGray(dst []byte, f *model.Frame, width, height int) error
	ToRGB888(dst []byte, f *model.Frame, width, height int) error
}

// SwapRGB565 returns a copy of a big-endian RGB565 buffer in host (little-endian) order.
func SwapRGB565(buf []byte) []byte {
	out := make([]byte, len(buf))
	for i := 0; i+1 < len(buf); i += 2 {
		out[i], out[i+1] = buf[i+1], buf[i]
	}
	return out
}
