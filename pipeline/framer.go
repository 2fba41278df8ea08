package pipeline

import (
	"context"
	"image"
	"log/slog"
	"math/rand"
	"time"

	"gocv.io/x/gocv"
	"golang.org/x/xerrors"

	"github.com/khaledhikmat/vs-steer/model"
	"github.com/khaledhikmat/vs-steer/service/colorspace"
	"github.com/khaledhikmat/vs-steer/service/lgr"
)

// maxReadFailures is how many reads in a row may fail before a camera source
// is treated as gone.
const maxReadFailures = 30

var ErrSourceExhausted = xerrors.New("video source stopped delivering frames")

// NewFramer picks the frame producer for a camera source.
func NewFramer(source string) Framer {
	if source == "random" {
		return RandomFramer
	}
	return CameraFramer
}

// CameraFramer captures from a gocv video source (device index, file or URL)
// into pool frames.
func CameraFramer(canxCtx context.Context, svcs ServicesFactory, frames chan *model.Frame, errorStream chan interface{}, statsStream chan interface{}) {
	source := svcs.CfgSvc.GetCameraSource()
	webcam, err := gocv.OpenVideoCapture(source)
	if err != nil {
		errorStream <- model.GenError("camera_framer",
			err,
			map[string]interface{}{"source": source},
			"error opening video capture")
		return
	}
	defer webcam.Close()

	capture(canxCtx, svcs, source, webcam.Read, frames, errorStream, statsStream)
}

// capture pulls frames from read until ctx ends or the source stops
// delivering. Failed reads back off one frame period.
func capture(canxCtx context.Context, svcs ServicesFactory, source string, read func(*gocv.Mat) bool, frames chan *model.Frame, errorStream chan interface{}, statsStream chan interface{}) {
	fs := newFramerStats("cameraFramer", source, svcs.CfgSvc.GetFramerFPS())
	defer func() {
		statsStream <- fs.done()
	}()

	img := gocv.NewMat()
	defer img.Close()

	period := time.Second / time.Duration(max(fs.FPS, 1))
	failures := 0
	for {
		select {
		case <-canxCtx.Done():
			lgr.Logger.Info(
				"cameraFramer context cancelled",
			)
			return

		default:
			if ok := read(&img); !ok || img.Empty() {
				fs.Errors++
				failures++
				if failures >= maxReadFailures {
					errorStream <- model.GenError("camera_framer",
						ErrSourceExhausted,
						map[string]interface{}{"source": source, "failures": failures},
						"camera stopped delivering frames")
					return
				}
				if !sleepCtx(canxCtx, period) {
					return
				}
				continue
			}
			failures = 0
			fs.Frames++

			if !deliver(canxCtx, svcs, img, frames, &fs.FramerStats, errorStream) {
				return
			}
		}
	}
}

// RandomFramer produces noise frames at the configured rate.
func RandomFramer(canxCtx context.Context, svcs ServicesFactory, frames chan *model.Frame, errorStream chan interface{}, statsStream chan interface{}) {
	fps := max(svcs.CfgSvc.GetFramerFPS(), 1)
	fs := newFramerStats("randomFramer", "random", fps)
	defer func() {
		statsStream <- fs.done()
	}()

	w, h := svcs.CfgSvc.GetFrameWidth(), svcs.CfgSvc.GetFrameHeight()
	noise := make([]byte, w*h*3)
	rng := rand.New(rand.NewSource(time.Now().UnixNano()))

	ticker := time.NewTicker(time.Second / time.Duration(fps))
	defer ticker.Stop()

	for {
		select {
		case <-canxCtx.Done():
			lgr.Logger.Info(
				"randomFramer context cancelled",
			)
			return

		case <-ticker.C:
			rng.Read(noise)
			img, err := gocv.NewMatFromBytes(h, w, gocv.MatTypeCV8UC3, noise)
			if err != nil {
				fs.Errors++
				continue
			}
			fs.Frames++

			ok := deliver(canxCtx, svcs, img, frames, &fs.FramerStats, errorStream)
			img.Close()
			if !ok {
				return
			}
		}
	}
}

// deliver copies a BGR image into a pool frame and queues it. A full input
// queue drops the frame back into the pool instead of stalling capture.
func deliver(canxCtx context.Context, svcs ServicesFactory, img gocv.Mat, frames chan *model.Frame, fs *model.FramerStats, errorStream chan interface{}) bool {
	f, err := svcs.PoolSvc.Get(canxCtx)
	if err != nil {
		return false
	}

	if err := encodeFrame(img, f); err != nil {
		fs.Errors++
		returnFrame(svcs, f, fs)
		errorStream <- model.GenError("framer",
			err,
			map[string]interface{}{"format": f.Format},
			"error encoding frame")
		return true
	}
	f.Seq = uint64(fs.Frames)

	select {
	case frames <- f:
	default:
		fs.SkippedFrames++
		returnFrame(svcs, f, fs)
		lgr.Logger.Debug("input queue full, frame skipped", slog.Uint64("seq", f.Seq))
	}
	return true
}

func returnFrame(svcs ServicesFactory, f *model.Frame, fs *model.FramerStats) {
	if err := svcs.PoolSvc.Return(f); err != nil {
		fs.Errors++
		lgr.Logger.Warn(
			"framer frame not returned",
			slog.Uint64("seq", f.Seq),
			slog.Any("error", err),
		)
	}
}

// sleepCtx waits d and reports false if ctx ended first.
func sleepCtx(ctx context.Context, d time.Duration) bool {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-t.C:
		return true
	}
}

// encodeFrame writes a BGR image into f in f's geometry and pixel format.
func encodeFrame(img gocv.Mat, f *model.Frame) error {
	src := img
	if img.Cols() != f.Width || img.Rows() != f.Height {
		scaled := gocv.NewMat()
		defer scaled.Close()
		gocv.Resize(img, &scaled, image.Pt(f.Width, f.Height), 0, 0, gocv.InterpolationLinear)
		src = scaled
	}

	if f.Format == model.PixelFormatJPEG {
		nb, err := gocv.IMEncode(gocv.JPEGFileExt, src)
		if err != nil {
			return xerrors.Errorf("error encoding jpeg: %w", err)
		}
		defer nb.Close()
		f.Buf = append(f.Buf[:0], nb.GetBytes()...)
		return nil
	}

	var code gocv.ColorConversionCode
	switch f.Format {
	case model.PixelFormatRGB565:
		code = gocv.ColorBGRToBGR565
	case model.PixelFormatRGB888:
		code = gocv.ColorBGRToRGB
	case model.PixelFormatGrayscale:
		code = gocv.ColorBGRToGray
	default:
		return xerrors.Errorf("format %q: %w", f.Format, colorspace.ErrPixelFormat)
	}

	dst := gocv.NewMat()
	defer dst.Close()
	gocv.CvtColor(src, &dst, code)

	b := dst.ToBytes()
	if f.Format == model.PixelFormatRGB565 {
		// The sensor emits big-endian pixels
		b = colorspace.SwapRGB565(b)
	}
	if len(b) != len(f.Buf) {
		return xerrors.Errorf("encoded %d bytes into a %d byte frame: %w", len(b), len(f.Buf), ErrFrameGeometry)
	}
	copy(f.Buf, b)
	return nil
}

type framerStats struct {
	model.FramerStats
	started time.Time
}

func newFramerStats(name, source string, fps int) *framerStats {
	return &framerStats{
		FramerStats: model.FramerStats{Name: name, Source: source, FPS: fps},
		started:     time.Now(),
	}
}

func (s *framerStats) done() model.FramerStats {
	now := time.Now()
	s.Uptime = int64(now.Sub(s.started).Seconds())
	s.Timestamp = now.Unix()
	if s.Uptime > 0 {
		s.FPS = int(float64(s.Frames) / float64(s.Uptime))
	}
	return s.FramerStats
}
