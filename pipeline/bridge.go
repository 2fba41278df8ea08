package pipeline

import (
	"math"

	"golang.org/x/xerrors"

	"github.com/khaledhikmat/vs-steer/model"
	"github.com/khaledhikmat/vs-steer/service/colorspace"
	"github.com/khaledhikmat/vs-steer/service/inference"
)

type convertFunc func(dst []byte, f *model.Frame, width, height int) error

// Bridge turns a camera frame into the model's input tensor. The conversion
// routine is chosen once from the tensor's channel count.
type Bridge struct {
	input       *inference.TensorView
	convert     convertFunc
	frameWidth  int
	frameHeight int
}

func NewBridge(input *inference.TensorView, cs colorspace.IService, frameWidth, frameHeight int) (*Bridge, error) {
	if input.Type != inference.Int8 && input.Type != inference.UInt8 {
		return nil, xerrors.Errorf("input tensor is %s: %w", input.Type, ErrUnsupportedTensor)
	}
	if len(input.Shape) != 4 || input.Height() <= 0 || input.Width() <= 0 {
		return nil, xerrors.Errorf("input tensor shape %v is not NHWC: %w", input.Shape, ErrUnsupportedTensor)
	}
	if frameWidth <= 0 || frameHeight <= 0 {
		return nil, xerrors.Errorf("frames declared as %dx%d: %w", frameWidth, frameHeight, ErrFrameGeometry)
	}

	b := &Bridge{
		input:       input,
		frameWidth:  frameWidth,
		frameHeight: frameHeight,
	}

	switch input.Channels() {
	case 1:
		b.convert = cs.ToGray
	case 3:
		b.convert = cs.ToRGB888
	default:
		return nil, xerrors.Errorf("input tensor has %d channels: %w", input.Channels(), ErrUnsupportedChannels)
	}

	return b, nil
}

// Prepare writes f into the input tensor as unsigned 8-bit pixels.
func (b *Bridge) Prepare(f *model.Frame) error {
	if f.Width != b.frameWidth || f.Height != b.frameHeight {
		return xerrors.Errorf("frame is %dx%d, pipeline takes %dx%d: %w",
			f.Width, f.Height, b.frameWidth, b.frameHeight, ErrFrameGeometry)
	}
	return b.convert(b.input.Bytes(), f, b.input.Width(), b.input.Height())
}

// Encode moves the prepared pixels into the tensor's value domain.
func (b *Bridge) Encode() {
	if b.input.Type == inference.Int8 {
		Recenter(b.input.Bytes())
	}
}

// Recenter maps unsigned pixels u to the signed value u-128 in place.
func Recenter(buf []byte) {
	for i, u := range buf {
		buf[i] = byte(int8(int(u) - 128))
	}
}

// Decode reads a raw output value through the output's quantization.
func Decode(raw int32, q inference.QuantParams) (angle, degrees float64) {
	angle = q.Dequantize(raw)
	return angle, angle * 180 / math.Pi
}
