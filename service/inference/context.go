package inference

import "golang.org/x/xerrors"

// Context owns everything one loaded model needs: its schema, the arena, the
// input and output views and the backend that runs it.
type Context struct {
	schema  *Schema
	arena   *Arena
	input   *TensorView
	output  *TensorView
	backend Backend
}

func NewContext(model []byte, arenaSize int, factory BackendFactory) (*Context, error) {
	if factory == nil {
		return nil, xerrors.New("no inference backend")
	}

	schema, err := ParseModel(model)
	if err != nil {
		return nil, err
	}

	arena, err := NewArena(arenaSize)
	if err != nil {
		return nil, err
	}

	input, err := arena.Allocate(schema.Input)
	if err != nil {
		return nil, xerrors.Errorf("AllocateTensors() failed: %w", err)
	}
	output, err := arena.Allocate(schema.Output)
	if err != nil {
		return nil, xerrors.Errorf("AllocateTensors() failed: %w", err)
	}

	backend, err := factory(model, schema)
	if err != nil {
		return nil, xerrors.Errorf("error creating inference backend: %w", err)
	}

	return &Context{
		schema:  schema,
		arena:   arena,
		input:   input,
		output:  output,
		backend: backend,
	}, nil
}

func (c *Context) Schema() *Schema     { return c.schema }
func (c *Context) Input() *TensorView  { return c.input }
func (c *Context) Output() *TensorView { return c.output }
func (c *Context) Arena() *Arena       { return c.arena }

func (c *Context) Invoke() error {
	if err := c.backend.Invoke(c.input, c.output); err != nil {
		return xerrors.Errorf("invoke failed: %w", err)
	}
	return nil
}

func (c *Context) Close() error {
	return c.backend.Close()
}
