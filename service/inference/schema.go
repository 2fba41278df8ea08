package inference

import (
	flatbuffers "github.com/google/flatbuffers/go"
	"golang.org/x/xerrors"
)

const (
	// SchemaVersion is the .tflite schema revision this engine understands.
	SchemaVersion  uint32 = 3
	FileIdentifier        = "TFL3"
)

// Field slots of the .tflite schema tables that are read here.
const (
	modelVersion   = 0
	modelSubgraphs = 2
	modelDesc      = 3

	subgraphTensors = 0
	subgraphInputs  = 1
	subgraphOutputs = 2

	tensorShape = 0
	tensorType  = 1
	tensorName  = 3
	tensorQuant = 4

	quantScale     = 2
	quantZeroPoint = 3
)

type Schema struct {
	Version     uint32     `json:"version"`
	Description string     `json:"description"`
	Input       TensorSpec `json:"input"`
	Output      TensorSpec `json:"output"`
}

// ParseModel reads the header and the first subgraph's first input and output
// tensors of a .tflite flatbuffer.
func ParseModel(buf []byte) (schema *Schema, err error) {
	if len(buf) < 8 {
		return nil, xerrors.Errorf("model is %d bytes: %w", len(buf), ErrInvalidModel)
	}
	if id := string(buf[4:8]); id != FileIdentifier {
		return nil, xerrors.Errorf("file identifier %q: %w", id, ErrInvalidModel)
	}

	// flatbuffers accessors panic on out-of-range offsets
	defer func() {
		if r := recover(); r != nil {
			schema = nil
			err = xerrors.Errorf("malformed model (%v): %w", r, ErrInvalidModel)
		}
	}()

	root := flatbuffers.Table{Bytes: buf, Pos: flatbuffers.GetUOffsetT(buf)}

	schema = &Schema{}
	if o := slot(&root, modelVersion); o != 0 {
		schema.Version = root.GetUint32(o + root.Pos)
	}
	if schema.Version != SchemaVersion {
		return nil, xerrors.Errorf("model provided is schema version %d not equal to supported version %d: %w",
			schema.Version, SchemaVersion, ErrSchemaVersion)
	}
	if o := slot(&root, modelDesc); o != 0 {
		schema.Description = string(root.ByteVector(o + root.Pos))
	}

	subgraph, ok := tableAt(&root, modelSubgraphs, 0)
	if !ok {
		return nil, xerrors.Errorf("model has no subgraph: %w", ErrInvalidModel)
	}

	inputs := int32Vector(&subgraph, subgraphInputs)
	outputs := int32Vector(&subgraph, subgraphOutputs)
	if len(inputs) == 0 || len(outputs) == 0 {
		return nil, xerrors.Errorf("subgraph has %d inputs and %d outputs: %w", len(inputs), len(outputs), ErrInvalidModel)
	}

	if schema.Input, err = tensorSpec(&subgraph, int(inputs[0])); err != nil {
		return nil, err
	}
	if schema.Output, err = tensorSpec(&subgraph, int(outputs[0])); err != nil {
		return nil, err
	}

	return schema, nil
}

func tensorSpec(subgraph *flatbuffers.Table, idx int) (TensorSpec, error) {
	t, ok := tableAt(subgraph, subgraphTensors, idx)
	if !ok {
		return TensorSpec{}, xerrors.Errorf("tensor %d not found: %w", idx, ErrInvalidModel)
	}

	spec := TensorSpec{}
	for _, d := range int32Vector(&t, tensorShape) {
		spec.Shape = append(spec.Shape, int(d))
	}
	if o := slot(&t, tensorType); o != 0 {
		spec.Type = DType(t.GetInt8(o + t.Pos))
	}
	if o := slot(&t, tensorName); o != 0 {
		spec.Name = string(t.ByteVector(o + t.Pos))
	}

	if o := slot(&t, tensorQuant); o != 0 {
		q := flatbuffers.Table{Bytes: t.Bytes, Pos: t.Indirect(o + t.Pos)}
		if o := slot(&q, quantScale); o != 0 && q.VectorLen(o) > 0 {
			spec.Quant.Scale = q.GetFloat32(q.Vector(o))
		}
		if o := slot(&q, quantZeroPoint); o != 0 && q.VectorLen(o) > 0 {
			spec.Quant.ZeroPoint = int32(q.GetInt64(q.Vector(o)))
		}
	}

	return spec, nil
}

func slot(t *flatbuffers.Table, field int) flatbuffers.UOffsetT {
	return flatbuffers.UOffsetT(t.Offset(flatbuffers.VOffsetT(4 + 2*field)))
}

func tableAt(t *flatbuffers.Table, field, j int) (flatbuffers.Table, bool) {
	o := slot(t, field)
	if o == 0 || j >= t.VectorLen(o) {
		return flatbuffers.Table{}, false
	}
	x := t.Vector(o) + flatbuffers.UOffsetT(j*4)
	return flatbuffers.Table{Bytes: t.Bytes, Pos: t.Indirect(x)}, true
}

func int32Vector(t *flatbuffers.Table, field int) []int32 {
	o := slot(t, field)
	if o == 0 {
		return nil
	}
	n := t.VectorLen(o)
	a := t.Vector(o)
	out := make([]int32, n)
	for j := 0; j < n; j++ {
		out[j] = t.GetInt32(a + flatbuffers.UOffsetT(j*4))
	}
	return out
}
