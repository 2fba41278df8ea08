package framepool

import (
	"context"
	"sync"
	"time"

	"github.com/khaledhikmat/vs-steer/model"
)

type fixedService struct {
	size int
	free chan *model.Frame

	mu      sync.Mutex
	out     map[*model.Frame]struct{}
	returns int
	frees   int
	lost    int
}

// NewFixed preallocates size frame buffers of the given geometry.
func NewFixed(size, width, height int, format model.PixelFormat) IService {
	svc := &fixedService{
		size: size,
		free: make(chan *model.Frame, size),
		out:  map[*model.Frame]struct{}{},
	}

	bufLen := width * height * format.BytesPerPixel()
	if bufLen == 0 {
		// Compressed formats get a raw RGB888-sized buffer as an upper bound
		bufLen = width * height * 3
	}

	for i := 0; i < size; i++ {
		svc.free <- &model.Frame{
			Buf:    make([]byte, bufLen),
			Width:  width,
			Height: height,
			Format: format,
			Source: model.SourcePool,
		}
	}

	return svc
}

func (svc *fixedService) Get(ctx context.Context) (*model.Frame, error) {
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case f := <-svc.free:
		svc.mu.Lock()
		svc.out[f] = struct{}{}
		svc.mu.Unlock()

		f.Timestamp = time.Now()
		return f, nil
	}
}

func (svc *fixedService) Return(f *model.Frame) error {
	svc.mu.Lock()
	if _, ok := svc.out[f]; !ok {
		svc.mu.Unlock()
		return ErrNotOwned
	}
	delete(svc.out, f)
	svc.returns++
	svc.mu.Unlock()

	// Never blocks: at most size frames are ever checked out
	svc.free <- f
	return nil
}

// Free drops the frame's buffer. Freeing a pool frame shrinks the pool for good.
func (svc *fixedService) Free(f *model.Frame) {
	svc.mu.Lock()
	if _, ok := svc.out[f]; ok {
		delete(svc.out, f)
		svc.lost++
	}
	svc.frees++
	svc.mu.Unlock()

	f.Buf = nil
}

func (svc *fixedService) Stats() Stats {
	svc.mu.Lock()
	defer svc.mu.Unlock()

	return Stats{
		Size:        svc.size,
		Available:   len(svc.free),
		Outstanding: len(svc.out),
		Returns:     svc.returns,
		Frees:       svc.frees,
		Lost:        svc.lost,
	}
}
