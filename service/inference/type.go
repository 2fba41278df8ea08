package inference

import "golang.org/x/xerrors"

var (
	ErrInvalidModel  = xerrors.New("invalid model")
	ErrSchemaVersion = xerrors.New("model schema version not supported")
	ErrArenaAlloc    = xerrors.New("tensor arena allocation failed")
	ErrTensorAlloc   = xerrors.New("tensor allocation failed")
)

// IService is a loaded model ready to run. Input and Output return views into
// the engine's arena; they stay valid until Close.
type IService interface {
	Schema() *Schema
	Input() *TensorView
	Output() *TensorView
	Invoke() error
	Close() error
}

// Backend executes the network on prepared tensor views.
type Backend interface {
	Invoke(in, out *TensorView) error
	Close() error
}

type BackendFactory func(model []byte, schema *Schema) (Backend, error)
