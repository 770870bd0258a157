package cpu

import (
	"fmt"

	"github.com/morphic-ml/morphic/internal/parallel"
	"github.com/morphic-ml/morphic/internal/tensor"
)

// AddScalar adds a scalar to every element.
func (cpu *CPUBackend) AddScalar(x *tensor.RawTensor, scalar any) *tensor.RawTensor {
	return cpu.scalarOp("add_scalar", x, scalar, addOp)
}

// SubScalar subtracts a scalar from every element.
func (cpu *CPUBackend) SubScalar(x *tensor.RawTensor, scalar any) *tensor.RawTensor {
	return cpu.scalarOp("sub_scalar", x, scalar, subOp)
}

// MulScalar multiplies every element by a scalar.
func (cpu *CPUBackend) MulScalar(x *tensor.RawTensor, scalar any) *tensor.RawTensor {
	return cpu.scalarOp("mul_scalar", x, scalar, mulOp)
}

// DivScalar divides every element by a scalar.
func (cpu *CPUBackend) DivScalar(x *tensor.RawTensor, scalar any) *tensor.RawTensor {
	return cpu.scalarOp("div_scalar", x, scalar, divOp)
}

func (cpu *CPUBackend) scalarOp(name string, x *tensor.RawTensor, scalar any, op binKind) *tensor.RawTensor {
	result, err := tensor.NewRaw(x.Shape(), x.DType(), cpu.device)
	if err != nil {
		panic(fmt.Sprintf("%s: %v", name, err))
	}

	switch x.DType() {
	case tensor.Float32:
		scalarTyped(result.AsFloat32(), x.AsFloat32(), scalarAs[float32](name, scalar), op, cpu.par)
	case tensor.Float64:
		scalarTyped(result.AsFloat64(), x.AsFloat64(), scalarAs[float64](name, scalar), op, cpu.par)
	case tensor.Int32:
		scalarTyped(result.AsInt32(), x.AsInt32(), scalarAs[int32](name, scalar), op, cpu.par)
	case tensor.Int64:
		scalarTyped(result.AsInt64(), x.AsInt64(), scalarAs[int64](name, scalar), op, cpu.par)
	default:
		panic(fmt.Sprintf("%s: unsupported dtype %s", name, x.DType()))
	}

	return result
}

func scalarTyped[T number](dst, src []T, s T, op binKind, cfg parallel.Config) {
	parallel.ForChunked(len(dst), func(start, end int) {
		switch op {
		case addOp:
			for i := start; i < end; i++ {
				dst[i] = src[i] + s
			}
		case subOp:
			for i := start; i < end; i++ {
				dst[i] = src[i] - s
			}
		case mulOp:
			for i := start; i < end; i++ {
				dst[i] = src[i] * s
			}
		case divOp:
			for i := start; i < end; i++ {
				dst[i] = src[i] / s
			}
		}
	}, cfg)
}

// scalarAs converts an any scalar to the tensor's element type, accepting
// common numeric source types.
func scalarAs[T number](name string, scalar any) T {
	switch v := scalar.(type) {
	case float32:
		return T(v)
	case float64:
		return T(v)
	case int:
		return T(v)
	case int32:
		return T(v)
	case int64:
		return T(v)
	default:
		panic(fmt.Sprintf("%s: unsupported scalar type %T", name, scalar))
	}
}
