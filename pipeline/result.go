package pipeline

import (
	"sync/atomic"

	"github.com/khaledhikmat/vs-steer/model"
)

// ResultSlot holds the latest prediction. The processing loop is its only
// writer; consumers read it after a signal on the result queue.
type ResultSlot struct {
	p atomic.Pointer[model.Prediction]
}

func (s *ResultSlot) Store(p model.Prediction) {
	s.p.Store(&p)
}

func (s *ResultSlot) Load() (model.Prediction, bool) {
	p := s.p.Load()
	if p == nil {
		return model.Prediction{}, false
	}
	return *p, true
}
