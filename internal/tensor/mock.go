package tensor

import (
	"fmt"
	"math"
)

// Verify that MockBackend implements Backend.
var _ Backend = (*MockBackend)(nil)

// MockBackend is a simple backend for testing.
// It implements element-wise and reduction operations naively for correctness
// verification; structural operations panic and are covered by the CPU backend.
type MockBackend struct{}

// NewMockBackend creates a new MockBackend.
func NewMockBackend() *MockBackend {
	return &MockBackend{}
}

// Name returns the backend name.
func (m *MockBackend) Name() string {
	return "mock"
}

// Device returns the device type.
func (m *MockBackend) Device() Device {
	return CPU
}

// Add performs element-wise addition with broadcasting.
func (m *MockBackend) Add(a, b *RawTensor) *RawTensor {
	return m.elementWise(a, b, func(x, y float64) float64 { return x + y })
}

// Sub performs element-wise subtraction with broadcasting.
func (m *MockBackend) Sub(a, b *RawTensor) *RawTensor {
	return m.elementWise(a, b, func(x, y float64) float64 { return x - y })
}

// Mul performs element-wise multiplication with broadcasting.
func (m *MockBackend) Mul(a, b *RawTensor) *RawTensor {
	return m.elementWise(a, b, func(x, y float64) float64 { return x * y })
}

// Div performs element-wise division with broadcasting.
func (m *MockBackend) Div(a, b *RawTensor) *RawTensor {
	return m.elementWise(a, b, func(x, y float64) float64 { return x / y })
}

// MatMul performs naive 2D matrix multiplication.
func (m *MockBackend) MatMul(a, b *RawTensor) *RawTensor {
	aShape, bShape := a.Shape(), b.Shape()
	if len(aShape) != 2 || len(bShape) != 2 || aShape[1] != bShape[0] {
		panic(fmt.Sprintf("matmul: incompatible shapes %v @ %v", aShape, bShape))
	}
	rows, inner, cols := aShape[0], aShape[1], bShape[1]

	result, err := NewRaw(Shape{rows, cols}, a.DType(), m.Device())
	if err != nil {
		panic(err)
	}

	aData := m.toFloat64Slice(a)
	bData := m.toFloat64Slice(b)
	out := make([]float64, rows*cols)
	for i := 0; i < rows; i++ {
		for j := 0; j < cols; j++ {
			sum := 0.0
			for k := 0; k < inner; k++ {
				sum += aData[i*inner+k] * bData[k*cols+j]
			}
			out[i*cols+j] = sum
		}
	}
	m.fromFloat64Slice(out, result)
	return result
}

// AddScalar adds a scalar to every element.
func (m *MockBackend) AddScalar(x *RawTensor, scalar any) *RawTensor {
	s := toFloat64(scalar)
	return m.unary(x, func(v float64) float64 { return v + s })
}

// SubScalar subtracts a scalar from every element.
func (m *MockBackend) SubScalar(x *RawTensor, scalar any) *RawTensor {
	s := toFloat64(scalar)
	return m.unary(x, func(v float64) float64 { return v - s })
}

// MulScalar multiplies every element by a scalar.
func (m *MockBackend) MulScalar(x *RawTensor, scalar any) *RawTensor {
	s := toFloat64(scalar)
	return m.unary(x, func(v float64) float64 { return v * s })
}

// DivScalar divides every element by a scalar.
func (m *MockBackend) DivScalar(x *RawTensor, scalar any) *RawTensor {
	s := toFloat64(scalar)
	return m.unary(x, func(v float64) float64 { return v / s })
}

// Exp computes the element-wise exponential.
func (m *MockBackend) Exp(x *RawTensor) *RawTensor {
	return m.unary(x, math.Exp)
}

// Log computes the element-wise natural logarithm.
func (m *MockBackend) Log(x *RawTensor) *RawTensor {
	return m.unary(x, math.Log)
}

// Sqrt computes the element-wise square root.
func (m *MockBackend) Sqrt(x *RawTensor) *RawTensor {
	return m.unary(x, math.Sqrt)
}

// Neg negates every element.
func (m *MockBackend) Neg(x *RawTensor) *RawTensor {
	return m.unary(x, func(v float64) float64 { return -v })
}

// Sum reduces all elements to a single-element tensor.
func (m *MockBackend) Sum(x *RawTensor) *RawTensor {
	result, err := NewRaw(Shape{1}, x.DType(), m.Device())
	if err != nil {
		panic(err)
	}
	sum := 0.0
	for _, v := range m.toFloat64Slice(x) {
		sum += v
	}
	m.fromFloat64Slice([]float64{sum}, result)
	return result
}

// SumDim is not implemented in MockBackend.
func (m *MockBackend) SumDim(_ *RawTensor, _ int, _ bool) *RawTensor {
	panic("SumDim not implemented in MockBackend")
}

// MeanDim is not implemented in MockBackend.
func (m *MockBackend) MeanDim(_ *RawTensor, _ int, _ bool) *RawTensor {
	panic("MeanDim not implemented in MockBackend")
}

// Reshape is not implemented in MockBackend.
func (m *MockBackend) Reshape(_ *RawTensor, _ Shape) *RawTensor {
	panic("Reshape not implemented in MockBackend")
}

// Transpose is not implemented in MockBackend.
func (m *MockBackend) Transpose(_ *RawTensor, _ ...int) *RawTensor {
	panic("Transpose not implemented in MockBackend")
}

// Expand is not implemented in MockBackend.
func (m *MockBackend) Expand(_ *RawTensor, _ Shape) *RawTensor {
	panic("Expand not implemented in MockBackend")
}

// Unsqueeze is not implemented in MockBackend.
func (m *MockBackend) Unsqueeze(_ *RawTensor, _ int) *RawTensor {
	panic("Unsqueeze not implemented in MockBackend")
}

// Squeeze is not implemented in MockBackend.
func (m *MockBackend) Squeeze(_ *RawTensor, _ int) *RawTensor {
	panic("Squeeze not implemented in MockBackend")
}

// Cat is not implemented in MockBackend.
func (m *MockBackend) Cat(_ []*RawTensor, _ int) *RawTensor {
	panic("Cat not implemented in MockBackend")
}

// Stack is not implemented in MockBackend.
func (m *MockBackend) Stack(_ []*RawTensor, _ int) *RawTensor {
	panic("Stack not implemented in MockBackend")
}

// Narrow is not implemented in MockBackend.
func (m *MockBackend) Narrow(_ *RawTensor, _, _, _ int) *RawTensor {
	panic("Narrow not implemented in MockBackend")
}

// Cast is not implemented in MockBackend.
func (m *MockBackend) Cast(_ *RawTensor, _ DataType) *RawTensor {
	panic("Cast not implemented in MockBackend")
}

// elementWise performs element-wise operations with broadcasting.
func (m *MockBackend) elementWise(a, b *RawTensor, op func(float64, float64) float64) *RawTensor {
	outShape, _, err := BroadcastShapes(a.Shape(), b.Shape())
	if err != nil {
		panic(err)
	}

	result, err := NewRaw(outShape, a.DType(), m.Device())
	if err != nil {
		panic(err)
	}

	numElements := outShape.NumElements()

	aData := m.toFloat64Slice(a)
	bData := m.toFloat64Slice(b)
	out := make([]float64, numElements)

	for i := 0; i < numElements; i++ {
		aIdx := m.broadcastIndex(i, outShape, a.Shape())
		bIdx := m.broadcastIndex(i, outShape, b.Shape())
		out[i] = op(aData[aIdx], bData[bIdx])
	}

	m.fromFloat64Slice(out, result)
	return result
}

func (m *MockBackend) unary(x *RawTensor, op func(float64) float64) *RawTensor {
	result, err := NewRaw(x.Shape(), x.DType(), m.Device())
	if err != nil {
		panic(err)
	}
	data := m.toFloat64Slice(x)
	out := make([]float64, len(data))
	for i, v := range data {
		out[i] = op(v)
	}
	m.fromFloat64Slice(out, result)
	return result
}

// broadcastIndex maps a flat index in outShape to the flat index in srcShape
// following broadcasting semantics.
func (m *MockBackend) broadcastIndex(flatIdx int, outShape, srcShape Shape) int {
	if outShape.Equal(srcShape) {
		return flatIdx
	}

	outStrides := outShape.ComputeStrides()
	srcStrides := srcShape.ComputeStrides()
	offset := len(outShape) - len(srcShape)

	srcIdx := 0
	for i, stride := range outStrides {
		coord := (flatIdx / stride) % outShape[i]
		srcDim := i - offset
		if srcDim < 0 {
			continue
		}
		if srcShape[srcDim] == 1 {
			continue
		}
		srcIdx += coord * srcStrides[srcDim]
	}
	return srcIdx
}

func (m *MockBackend) toFloat64Slice(r *RawTensor) []float64 {
	n := r.NumElements()
	out := make([]float64, n)
	switch r.DType() {
	case Float32:
		for i, v := range r.AsFloat32() {
			out[i] = float64(v)
		}
	case Float64:
		copy(out, r.AsFloat64())
	case Int32:
		for i, v := range r.AsInt32() {
			out[i] = float64(v)
		}
	case Int64:
		for i, v := range r.AsInt64() {
			out[i] = float64(v)
		}
	default:
		panic(fmt.Sprintf("MockBackend: unsupported dtype %s", r.DType()))
	}
	return out
}

func (m *MockBackend) fromFloat64Slice(data []float64, r *RawTensor) {
	switch r.DType() {
	case Float32:
		dst := r.AsFloat32()
		for i, v := range data {
			dst[i] = float32(v)
		}
	case Float64:
		copy(r.AsFloat64(), data)
	case Int32:
		dst := r.AsInt32()
		for i, v := range data {
			dst[i] = int32(v)
		}
	case Int64:
		dst := r.AsInt64()
		for i, v := range data {
			dst[i] = int64(v)
		}
	default:
		panic(fmt.Sprintf("MockBackend: unsupported dtype %s", r.DType()))
	}
}

func toFloat64(scalar any) float64 {
	switch v := scalar.(type) {
	case float32:
		return float64(v)
	case float64:
		return v
	case int32:
		return float64(v)
	case int64:
		return float64(v)
	case int:
		return float64(v)
	case uint8:
		return float64(v)
	default:
		panic(fmt.Sprintf("unsupported scalar type %T", scalar))
	}
}
