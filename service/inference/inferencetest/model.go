// Package inferencetest builds minimal .tflite flatbuffers for tests.
package inferencetest

import (
	flatbuffers "github.com/google/flatbuffers/go"

	"github.com/khaledhikmat/vs-steer/service/inference"
)

// BuildModel returns a model with one subgraph whose tensor 0 is the input
// and tensor 1 the output. Operators and weights are left out.
func BuildModel(version uint32, in, out inference.TensorSpec) []byte {
	b := flatbuffers.NewBuilder(1024)

	desc := b.CreateString("inferencetest")
	tin := buildTensor(b, in)
	tout := buildTensor(b, out)

	b.StartVector(4, 2, 4)
	b.PrependUOffsetT(tout)
	b.PrependUOffsetT(tin)
	tensors := b.EndVector(2)

	inputs := int32Vector(b, []int32{0})
	outputs := int32Vector(b, []int32{1})

	b.StartObject(5)
	b.PrependUOffsetTSlot(0, tensors, 0)
	b.PrependUOffsetTSlot(1, inputs, 0)
	b.PrependUOffsetTSlot(2, outputs, 0)
	subgraph := b.EndObject()

	b.StartVector(4, 1, 4)
	b.PrependUOffsetT(subgraph)
	subgraphs := b.EndVector(1)

	b.StartObject(5)
	b.PrependUint32Slot(0, version, 0)
	b.PrependUOffsetTSlot(2, subgraphs, 0)
	b.PrependUOffsetTSlot(3, desc, 0)
	root := b.EndObject()

	b.FinishWithFileIdentifier(root, []byte(inference.FileIdentifier))
	return b.FinishedBytes()
}

// PilotNet returns the tensor layout of the steering model: a 66x200xC int8
// image in and one int8 angle out.
func PilotNet(channels int) (inference.TensorSpec, inference.TensorSpec) {
	in := inference.TensorSpec{
		Name:  "input",
		Shape: []int{1, 66, 200, channels},
		Type:  inference.Int8,
		Quant: inference.QuantParams{Scale: 0.0078, ZeroPoint: 0},
	}
	out := inference.TensorSpec{
		Name:  "angle",
		Shape: []int{1, 1},
		Type:  inference.Int8,
		Quant: inference.QuantParams{Scale: 0.0039, ZeroPoint: -10},
	}
	return in, out
}

func buildTensor(b *flatbuffers.Builder, spec inference.TensorSpec) flatbuffers.UOffsetT {
	name := b.CreateString(spec.Name)

	dims := make([]int32, len(spec.Shape))
	for i, d := range spec.Shape {
		dims[i] = int32(d)
	}
	shape := int32Vector(b, dims)

	b.StartVector(4, 1, 4)
	b.PrependFloat32(spec.Quant.Scale)
	scale := b.EndVector(1)

	b.StartVector(8, 1, 8)
	b.PrependInt64(int64(spec.Quant.ZeroPoint))
	zeroPoint := b.EndVector(1)

	b.StartObject(4)
	b.PrependUOffsetTSlot(2, scale, 0)
	b.PrependUOffsetTSlot(3, zeroPoint, 0)
	quant := b.EndObject()

	b.StartObject(5)
	b.PrependUOffsetTSlot(0, shape, 0)
	b.PrependInt8Slot(1, int8(spec.Type), 0)
	b.PrependUOffsetTSlot(3, name, 0)
	b.PrependUOffsetTSlot(4, quant, 0)
	return b.EndObject()
}

func int32Vector(b *flatbuffers.Builder, values []int32) flatbuffers.UOffsetT {
	b.StartVector(4, len(values), 4)
	for i := len(values) - 1; i >= 0; i-- {
		b.PrependInt32(values[i])
	}
	return b.EndVector(len(values))
}
