package colorspace

import (
	"image"
	"runtime"

	"gocv.io/x/gocv"
	"golang.org/x/xerrors"

	"github.com/khaledhikmat/vs-steer/model"
)

var rotations = map[int]gocv.RotateFlag{
	90:  gocv.Rotate90Clockwise,
	180: gocv.Rotate180Clockwise,
	270: gocv.Rotate90CounterClockwise,
}

type openCV struct {
	rotation int
}

// NewOpenCV returns a converter that rotates frames clockwise by rotation
// degrees before scaling them to the requested size.
func NewOpenCV(rotation int) (IService, error) {
	if _, ok := rotations[rotation]; !ok && rotation != 0 {
		return nil, xerrors.Errorf("rotation %d: %w", rotation, ErrRotation)
	}
	return &openCV{rotation: rotation}, nil
}

func (s *openCV) ToGray(dst []byte, f *model.Frame, width, height int) error {
	return s.convert(dst, f, width, height, 1)
}

func (s *openCV) ToRGB888(dst []byte, f *model.Frame, width, height int) error {
	return s.convert(dst, f, width, height, 3)
}

func (s *openCV) convert(dst []byte, f *model.Frame, width, height, channels int) error {
	if len(dst) != width*height*channels {
		return xerrors.Errorf("destination holds %d bytes, %dx%dx%d needs %d: %w",
			len(dst), width, height, channels, width*height*channels, ErrFrameGeometry)
	}

	img, err := decode(f, channels)
	if err != nil {
		return err
	}
	defer func() {
		img.Close()
	}()

	if flag, ok := rotations[s.rotation]; ok {
		rotated := gocv.NewMat()
		gocv.Rotate(img, &rotated, flag)
		img.Close()
		img = rotated
	}

	if img.Cols() != width || img.Rows() != height {
		scaled := gocv.NewMat()
		gocv.Resize(img, &scaled, image.Pt(width, height), 0, 0, gocv.InterpolationNearestNeighbor)
		img.Close()
		img = scaled
	}

	out := img.ToBytes()
	if len(out) != len(dst) {
		return xerrors.Errorf("converted %d bytes, expected %d: %w", len(out), len(dst), ErrFrameGeometry)
	}
	copy(dst, out)
	return nil
}

// decode returns the frame as an 8-bit Mat with the requested channel count
// in RGB order.
func decode(f *model.Frame, channels int) (gocv.Mat, error) {
	if f.Format == model.PixelFormatJPEG {
		return decodeJPEG(f, channels)
	}

	bpp := f.Format.BytesPerPixel()
	if bpp == 0 {
		return gocv.Mat{}, xerrors.Errorf("format %q: %w", f.Format, ErrPixelFormat)
	}
	if f.Width <= 0 || f.Height <= 0 || len(f.Buf) != f.Width*f.Height*bpp {
		return gocv.Mat{}, xerrors.Errorf("%dx%d %s frame carries %d bytes: %w",
			f.Width, f.Height, f.Format, len(f.Buf), ErrFrameGeometry)
	}

	var (
		buf  = f.Buf
		mt   gocv.MatType
		code gocv.ColorConversionCode
		same bool
	)
	switch f.Format {
	case model.PixelFormatRGB565:
		buf = SwapRGB565(f.Buf)
		mt = gocv.MatTypeCV8UC2
		code = gocv.ColorBGR5652RGB
		if channels == 1 {
			code = gocv.ColorBGR5652Gray
		}
	case model.PixelFormatRGB888:
		mt = gocv.MatTypeCV8UC3
		code = gocv.ColorRGBToGray
		same = channels == 3
	case model.PixelFormatGrayscale:
		mt = gocv.MatTypeCV8UC1
		code = gocv.ColorGrayToBGR
		same = channels == 1
	}

	src, err := gocv.NewMatFromBytes(f.Height, f.Width, mt, buf)
	if err != nil {
		return gocv.Mat{}, xerrors.Errorf("error wrapping frame: %w", err)
	}
	defer src.Close()

	dst := gocv.NewMat()
	if same {
		src.CopyTo(&dst)
	} else {
		gocv.CvtColor(src, &dst, code)
	}
	runtime.KeepAlive(buf)
	return dst, nil
}

func decodeJPEG(f *model.Frame, channels int) (gocv.Mat, error) {
	flag := gocv.IMReadColor
	if channels == 1 {
		flag = gocv.IMReadGrayScale
	}

	img, err := gocv.IMDecode(f.Buf, flag)
	if err != nil {
		return gocv.Mat{}, xerrors.Errorf("error decoding jpeg: %w", err)
	}
	if img.Empty() {
		img.Close()
		return gocv.Mat{}, xerrors.Errorf("jpeg decoded to an empty image: %w", ErrPixelFormat)
	}
	if img.Cols() != f.Width || img.Rows() != f.Height {
		defer img.Close()
		return gocv.Mat{}, xerrors.Errorf("jpeg is %dx%d, frame declares %dx%d: %w",
			img.Cols(), img.Rows(), f.Width, f.Height, ErrFrameGeometry)
	}
	if channels == 1 {
		return img, nil
	}

	defer img.Close()
	rgb := gocv.NewMat()
	gocv.CvtColor(img, &rgb, gocv.ColorBGRToRGB)
	return rgb, nil
}
