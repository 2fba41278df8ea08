package pipeline

import "sync/atomic"

// Gate is the processing on/off switch. The control loop is its only writer
// and the processing loop its only reader.
type Gate struct {
	enabled atomic.Bool
	changes atomic.Int64
	changed chan struct{}
}

func NewGate(enabled bool) *Gate {
	g := &Gate{changed: make(chan struct{}, 1)}
	g.enabled.Store(enabled)
	return g
}

func (g *Gate) Enabled() bool {
	return g.enabled.Load()
}

func (g *Gate) Set(enabled bool) {
	if g.enabled.Swap(enabled) == enabled {
		return
	}
	g.changes.Add(1)

	select {
	case g.changed <- struct{}{}:
	default:
	}
}

// Changed receives after at least one flip since the last receive.
func (g *Gate) Changed() <-chan struct{} {
	return g.changed
}

func (g *Gate) Changes() int64 {
	return g.changes.Load()
}
