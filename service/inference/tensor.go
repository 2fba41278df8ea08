package inference

import (
	"encoding/binary"
	"fmt"
	"math"
)

// DType values follow the .tflite TensorType enum.
type DType int8

const (
	Float32 DType = 0
	Int32   DType = 2
	UInt8   DType = 3
	Int8    DType = 9
)

func (d DType) Size() int {
	switch d {
	case Float32, Int32:
		return 4
	case UInt8, Int8:
		return 1
	}
	return 0
}

func (d DType) String() string {
	switch d {
	case Float32:
		return "float32"
	case Int32:
		return "int32"
	case UInt8:
		return "uint8"
	case Int8:
		return "int8"
	}
	return fmt.Sprintf("dtype(%d)", int8(d))
}

// QuantParams define real = (q - ZeroPoint) * Scale.
type QuantParams struct {
	Scale     float32 `json:"scale"`
	ZeroPoint int32   `json:"zeroPoint"`
}

func (q QuantParams) Dequantize(v int32) float64 {
	return float64(v-q.ZeroPoint) * float64(q.Scale)
}

// Quantize maps a real value into [lo, hi], rounding half away from zero.
func (q QuantParams) Quantize(x float64, lo, hi int32) int32 {
	if q.Scale == 0 {
		return clamp(q.ZeroPoint, lo, hi)
	}
	v := math.Round(x/float64(q.Scale)) + float64(q.ZeroPoint)
	if v < float64(lo) {
		return lo
	}
	if v > float64(hi) {
		return hi
	}
	return int32(v)
}

func clamp(v, lo, hi int32) int32 {
	return max(lo, min(v, hi))
}

type TensorSpec struct {
	Name  string      `json:"name"`
	Shape []int       `json:"shape"`
	Type  DType       `json:"type"`
	Quant QuantParams `json:"quant"`
}

// Elements is the element count of the shape. A rank-0 shape is a scalar.
// Zero means a dimension is non-positive or the shape is too large for any arena.
func (s TensorSpec) Elements() int {
	n := 1
	for _, d := range s.Shape {
		if d <= 0 || d > MaxArenaSize || n > MaxArenaSize/d {
			return 0
		}
		n *= d
	}
	return n
}

func (s TensorSpec) Bytes() int {
	return s.Elements() * s.Type.Size()
}

// Height, Width and Channels read an NHWC shape.
func (s TensorSpec) Height() int   { return s.dim(1) }
func (s TensorSpec) Width() int    { return s.dim(2) }
func (s TensorSpec) Channels() int { return s.dim(3) }

func (s TensorSpec) dim(i int) int {
	if len(s.Shape) != 4 {
		return 0
	}
	return s.Shape[i]
}

// TensorView is a fixed-shape buffer carved out of an Arena.
type TensorView struct {
	TensorSpec
	data []byte
}

func (t *TensorView) Bytes() []byte {
	return t.data
}

// Raw returns the stored integer at element i for quantized types.
func (t *TensorView) Raw(i int) int32 {
	switch t.Type {
	case Int8:
		return int32(int8(t.data[i]))
	case UInt8:
		return int32(t.data[i])
	case Int32:
		return int32(binary.LittleEndian.Uint32(t.data[i*4:]))
	}
	return 0
}

// Float returns element i as a real value.
func (t *TensorView) Float(i int) float64 {
	switch t.Type {
	case Float32:
		return float64(math.Float32frombits(binary.LittleEndian.Uint32(t.data[i*4:])))
	case Int8, UInt8:
		return t.Quant.Dequantize(t.Raw(i))
	case Int32:
		return float64(t.Raw(i))
	}
	return 0
}

// SetFloat stores a real value at element i, quantizing when the type asks for it.
func (t *TensorView) SetFloat(i int, v float64) {
	switch t.Type {
	case Float32:
		binary.LittleEndian.PutUint32(t.data[i*4:], math.Float32bits(float32(v)))
	case Int8:
		t.data[i] = byte(int8(t.Quant.Quantize(v, math.MinInt8, math.MaxInt8)))
	case UInt8:
		t.data[i] = byte(t.Quant.Quantize(v, 0, math.MaxUint8))
	case Int32:
		binary.LittleEndian.PutUint32(t.data[i*4:], uint32(int32(math.Round(v))))
	}
}
