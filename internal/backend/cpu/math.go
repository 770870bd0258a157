package cpu

import (
	"fmt"
	"math"

	"github.com/morphic-ml/morphic/internal/parallel"
	"github.com/morphic-ml/morphic/internal/tensor"
)

// Exp computes the element-wise exponential.
func (cpu *CPUBackend) Exp(x *tensor.RawTensor) *tensor.RawTensor {
	return cpu.unaryFloat("exp", x, math.Exp)
}

// Log computes the element-wise natural logarithm.
func (cpu *CPUBackend) Log(x *tensor.RawTensor) *tensor.RawTensor {
	return cpu.unaryFloat("log", x, math.Log)
}

// Sqrt computes the element-wise square root.
func (cpu *CPUBackend) Sqrt(x *tensor.RawTensor) *tensor.RawTensor {
	return cpu.unaryFloat("sqrt", x, math.Sqrt)
}

// Neg negates every element.
func (cpu *CPUBackend) Neg(x *tensor.RawTensor) *tensor.RawTensor {
	result, err := tensor.NewRaw(x.Shape(), x.DType(), cpu.device)
	if err != nil {
		panic(fmt.Sprintf("neg: %v", err))
	}

	switch x.DType() {
	case tensor.Float32:
		negTyped(result.AsFloat32(), x.AsFloat32(), cpu.par)
	case tensor.Float64:
		negTyped(result.AsFloat64(), x.AsFloat64(), cpu.par)
	case tensor.Int32:
		negTyped(result.AsInt32(), x.AsInt32(), cpu.par)
	case tensor.Int64:
		negTyped(result.AsInt64(), x.AsInt64(), cpu.par)
	default:
		panic(fmt.Sprintf("neg: unsupported dtype %s", x.DType()))
	}
	return result
}

func negTyped[T number](dst, src []T, cfg parallel.Config) {
	parallel.ForChunked(len(dst), func(start, end int) {
		for i := start; i < end; i++ {
			dst[i] = -src[i]
		}
	}, cfg)
}

// unaryFloat applies a float64 function element-wise. Float tensors only.
func (cpu *CPUBackend) unaryFloat(name string, x *tensor.RawTensor, f func(float64) float64) *tensor.RawTensor {
	result, err := tensor.NewRaw(x.Shape(), x.DType(), cpu.device)
	if err != nil {
		panic(fmt.Sprintf("%s: %v", name, err))
	}

	switch x.DType() {
	case tensor.Float32:
		dst, src := result.AsFloat32(), x.AsFloat32()
		parallel.ForChunked(len(dst), func(start, end int) {
			for i := start; i < end; i++ {
				dst[i] = float32(f(float64(src[i])))
			}
		}, cpu.par)
	case tensor.Float64:
		dst, src := result.AsFloat64(), x.AsFloat64()
		parallel.ForChunked(len(dst), func(start, end int) {
			for i := start; i < end; i++ {
				dst[i] = f(src[i])
			}
		}, cpu.par)
	default:
		panic(fmt.Sprintf("%s: unsupported dtype %s (float tensors only)", name, x.DType()))
	}
	return result
}
