package inference

import "golang.org/x/xerrors"

const (
	// MaxArenaSize is the largest arena the device's external RAM can hold.
	MaxArenaSize    = 8 << 20
	tensorAlignment = 16
)

// Arena is the single allocation all tensor views of a model live in.
type Arena struct {
	buf  []byte
	used int
}

func NewArena(size int) (*Arena, error) {
	if size <= 0 || size > MaxArenaSize {
		return nil, xerrors.Errorf("couldn't allocate memory of %d bytes (max %d): %w", size, MaxArenaSize, ErrArenaAlloc)
	}
	return &Arena{buf: make([]byte, size)}, nil
}

func (a *Arena) Allocate(spec TensorSpec) (*TensorView, error) {
	n := spec.Bytes()
	if n <= 0 || n > len(a.buf) {
		return nil, xerrors.Errorf("tensor %q has shape %v and type %s: %w", spec.Name, spec.Shape, spec.Type, ErrTensorAlloc)
	}

	start := (a.used + tensorAlignment - 1) &^ (tensorAlignment - 1)
	if start+n > len(a.buf) {
		return nil, xerrors.Errorf("tensor %q needs %d bytes, arena has %d of %d left: %w",
			spec.Name, n, len(a.buf)-start, len(a.buf), ErrTensorAlloc)
	}

	a.used = start + n
	return &TensorView{TensorSpec: spec, data: a.buf[start:a.used:a.used]}, nil
}

func (a *Arena) Size() int { return len(a.buf) }
func (a *Arena) Used() int { return a.used }
