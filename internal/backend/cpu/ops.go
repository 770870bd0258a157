package cpu

import (
	"fmt"

	"github.com/morphic-ml/morphic/internal/parallel"
	"github.com/morphic-ml/morphic/internal/tensor"
)

// number is the constraint for arithmetic element types.
type number interface {
	~float32 | ~float64 | ~int32 | ~int64
}

// Add performs element-wise addition with NumPy-style broadcasting.
func (cpu *CPUBackend) Add(a, b *tensor.RawTensor) *tensor.RawTensor {
	return cpu.binary("add", a, b, addOp)
}

// Sub performs element-wise subtraction with broadcasting.
func (cpu *CPUBackend) Sub(a, b *tensor.RawTensor) *tensor.RawTensor {
	return cpu.binary("sub", a, b, subOp)
}

// Mul performs element-wise multiplication with broadcasting.
func (cpu *CPUBackend) Mul(a, b *tensor.RawTensor) *tensor.RawTensor {
	return cpu.binary("mul", a, b, mulOp)
}

// Div performs element-wise division with broadcasting.
func (cpu *CPUBackend) Div(a, b *tensor.RawTensor) *tensor.RawTensor {
	return cpu.binary("div", a, b, divOp)
}

type binKind int

const (
	addOp binKind = iota
	subOp
	mulOp
	divOp
)

func (cpu *CPUBackend) binary(name string, a, b *tensor.RawTensor, op binKind) *tensor.RawTensor {
	outShape, needsBroadcast, err := tensor.BroadcastShapes(a.Shape(), b.Shape())
	if err != nil {
		panic(fmt.Sprintf("%s: %v", name, err))
	}

	result, err := tensor.NewRaw(outShape, a.DType(), cpu.device)
	if err != nil {
		panic(fmt.Sprintf("%s: failed to create result tensor: %v", name, err))
	}

	fastPath := !needsBroadcast && a.Shape().Equal(b.Shape())

	switch a.DType() {
	case tensor.Float32:
		binaryTyped(result.AsFloat32(), a.AsFloat32(), b.AsFloat32(), a.Shape(), b.Shape(), outShape, op, fastPath, cpu.par)
	case tensor.Float64:
		binaryTyped(result.AsFloat64(), a.AsFloat64(), b.AsFloat64(), a.Shape(), b.Shape(), outShape, op, fastPath, cpu.par)
	case tensor.Int32:
		binaryTyped(result.AsInt32(), a.AsInt32(), b.AsInt32(), a.Shape(), b.Shape(), outShape, op, fastPath, cpu.par)
	case tensor.Int64:
		binaryTyped(result.AsInt64(), a.AsInt64(), b.AsInt64(), a.Shape(), b.Shape(), outShape, op, fastPath, cpu.par)
	default:
		panic(fmt.Sprintf("%s: unsupported dtype %s", name, a.DType()))
	}

	return result
}

func binaryTyped[T number](dst, a, b []T, aShape, bShape, outShape tensor.Shape, op binKind, fastPath bool, cfg parallel.Config) {
	if fastPath {
		parallel.ForChunked(len(dst), func(start, end int) {
			applyBinary(dst[start:end], a[start:end], b[start:end], op)
		}, cfg)
		return
	}

	aIdx := broadcastIndexer(outShape, aShape)
	bIdx := broadcastIndexer(outShape, bShape)
	parallel.For(len(dst), func(i int) {
		dst[i] = applyBinaryScalar(a[aIdx(i)], b[bIdx(i)], op)
	}, cfg)
}

func applyBinary[T number](dst, a, b []T, op binKind) {
	switch op {
	case addOp:
		for i := range dst {
			dst[i] = a[i] + b[i]
		}
	case subOp:
		for i := range dst {
			dst[i] = a[i] - b[i]
		}
	case mulOp:
		for i := range dst {
			dst[i] = a[i] * b[i]
		}
	case divOp:
		for i := range dst {
			dst[i] = a[i] / b[i]
		}
	}
}

func applyBinaryScalar[T number](a, b T, op binKind) T {
	switch op {
	case addOp:
		return a + b
	case subOp:
		return a - b
	case mulOp:
		return a * b
	default:
		return a / b
	}
}

// broadcastIndexer returns a function mapping flat output indices to flat
// source indices under broadcasting semantics.
func broadcastIndexer(outShape, srcShape tensor.Shape) func(int) int {
	if outShape.Equal(srcShape) {
		return func(i int) int { return i }
	}

	outStrides := outShape.ComputeStrides()
	srcStrides := srcShape.ComputeStrides()
	offset := len(outShape) - len(srcShape)

	return func(flatIdx int) int {
		srcIdx := 0
		for i, stride := range outStrides {
			srcDim := i - offset
			if srcDim < 0 {
				continue
			}
			if srcShape[srcDim] == 1 {
				continue
			}
			coord := (flatIdx / stride) % outShape[i]
			srcIdx += coord * srcStrides[srcDim]
		}
		return srcIdx
	}
}
