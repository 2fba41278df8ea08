package model

import (
	"fmt"
	"runtime/debug"
	"time"
)

type CustomError struct {
	Processor  string                 `json:"processor"`
	Inner      error                  `json:"innerError"`
	Message    string                 `json:"message"`
	StackTrace string                 `json:"stackTrace"`
	Misc       map[string]interface{} `json:"misc"`
}

func (e CustomError) Error() string {
	if e.Inner == nil {
		return fmt.Sprintf("%s: %s", e.Processor, e.Message)
	}
	return fmt.Sprintf("%s: %s: %v", e.Processor, e.Message, e.Inner)
}

func (e CustomError) Unwrap() error {
	return e.Inner
}

func GenError(proc string, err error, misc map[string]interface{}, messagef string, args ...interface{}) CustomError {
	return CustomError{
		Processor:  proc,
		Inner:      err,
		Message:    fmt.Sprintf(messagef, args...),
		StackTrace: string(debug.Stack()),
		Misc:       misc,
	}
}

type PixelFormat string

const (
	PixelFormatRGB565    PixelFormat = "rgb565" // big-endian, as the camera emits it
	PixelFormatRGB888    PixelFormat = "rgb888"
	PixelFormatGrayscale PixelFormat = "grayscale"
	PixelFormatJPEG      PixelFormat = "jpeg"
)

// BytesPerPixel returns 0 for compressed formats.
func (f PixelFormat) BytesPerPixel() int {
	switch f {
	case PixelFormatRGB565:
		return 2
	case PixelFormatRGB888:
		return 3
	case PixelFormatGrayscale:
		return 1
	}
	return 0
}

func (f PixelFormat) Valid() bool {
	switch f {
	case PixelFormatRGB565, PixelFormatRGB888, PixelFormatGrayscale, PixelFormatJPEG:
		return true
	}
	return false
}

// FrameSource tells who owns the frame's buffer.
type FrameSource int

const (
	SourceHeap FrameSource = iota
	SourcePool
)

func (s FrameSource) String() string {
	if s == SourcePool {
		return "pool"
	}
	return "heap"
}

// Frame is a captured image buffer. Ownership moves with the pointer: whoever
// received it last must dispose of it exactly once and never read it afterwards.
type Frame struct {
	Buf       []byte
	Width     int
	Height    int
	Format    PixelFormat
	Source    FrameSource
	Seq       uint64
	Timestamp time.Time
}

func NewHeapFrame(width, height int, format PixelFormat) *Frame {
	return &Frame{
		Buf:       make([]byte, width*height*format.BytesPerPixel()),
		Width:     width,
		Height:    height,
		Format:    format,
		Source:    SourceHeap,
		Timestamp: time.Now(),
	}
}

type Disposition string

const (
	DispositionNone      Disposition = ""
	DispositionForwarded Disposition = "forwarded"
	DispositionReturned  Disposition = "returned"
	DispositionFreed     Disposition = "freed"
)

type Prediction struct {
	Seq       uint64    `json:"seq"`
	Raw       int       `json:"raw"`
	Angle     float64   `json:"angle"`
	Degrees   float64   `json:"degrees"`
	Timestamp time.Time `json:"timestamp"`
}

type ProcessorStats struct {
	Pipeline       string  `json:"pipeline"`
	Frames         int64   `json:"frames"`
	Forwarded      int64   `json:"forwarded"`
	Returned       int64   `json:"returned"`
	Freed          int64   `json:"freed"`
	BridgeFailures int64   `json:"bridgeFailures"`
	InvokeFailures int64   `json:"invokeFailures"`
	GateChanges    int64   `json:"gateChanges"`
	AvgBridgeTime  float64 `json:"avgBridgeTime"`
	AvgInvokeTime  float64 `json:"avgInvokeTime"`
	Uptime         int64   `json:"uptime"`
	Timestamp      int64   `json:"timestamp"`
}

type FramerStats struct {
	Name          string `json:"name"`
	Source        string `json:"source"`
	FPS           int    `json:"fps"`
	Frames        int    `json:"frames"`
	SkippedFrames int    `json:"skippedFrames"`
	Errors        int    `json:"errors"`
	Uptime        int64  `json:"uptime"`
	Timestamp     int64  `json:"timestamp"`
}

type ConsumerStats struct {
	Name      string `json:"name"`
	Signals   int    `json:"signals"`
	Forwarded int    `json:"forwarded"`
	Errors    int    `json:"errors"`
	Uptime    int64  `json:"uptime"`
	Timestamp int64  `json:"timestamp"`
}
