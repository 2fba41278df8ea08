package pipeline

import (
	"context"

	"github.com/khaledhikmat/vs-steer/model"
	"github.com/khaledhikmat/vs-steer/service/framepool"
)

// Disposer hands a consumed frame to exactly one of: the output queue, its
// pool, or the garbage collector.
type Disposer struct {
	output     chan<- *model.Frame
	poolReturn bool
	pool       framepool.IService
}

func NewDisposer(output chan<- *model.Frame, poolReturn bool, pool framepool.IService) *Disposer {
	return &Disposer{
		output:     output,
		poolReturn: poolReturn,
		pool:       pool,
	}
}

// Dispose blocks on the output queue. If ctx ends first the frame falls
// through to the return or free path so it is still disposed once.
func (d *Disposer) Dispose(ctx context.Context, f *model.Frame) (model.Disposition, error) {
	if d.output != nil {
		select {
		case d.output <- f:
			return model.DispositionForwarded, nil
		case <-ctx.Done():
		}
	}

	// Heap frames have no pool to go back to
	if d.poolReturn && d.pool != nil && f.Source == model.SourcePool {
		return model.DispositionReturned, d.pool.Return(f)
	}

	if d.pool != nil {
		d.pool.Free(f)
	} else {
		f.Buf = nil
	}
	return model.DispositionFreed, nil
}
