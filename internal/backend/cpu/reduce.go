package cpu

import (
	"fmt"

	"github.com/morphic-ml/morphic/internal/tensor"
)

// Sum reduces all elements to a single-element tensor of shape {1}.
func (cpu *CPUBackend) Sum(x *tensor.RawTensor) *tensor.RawTensor {
	result, err := tensor.NewRaw(tensor.Shape{1}, x.DType(), cpu.device)
	if err != nil {
		panic(fmt.Sprintf("sum: %v", err))
	}

	switch x.DType() {
	case tensor.Float32:
		result.AsFloat32()[0] = sumAll(x.AsFloat32())
	case tensor.Float64:
		result.AsFloat64()[0] = sumAll(x.AsFloat64())
	case tensor.Int32:
		result.AsInt32()[0] = sumAll(x.AsInt32())
	case tensor.Int64:
		result.AsInt64()[0] = sumAll(x.AsInt64())
	default:
		panic(fmt.Sprintf("sum: unsupported dtype %s", x.DType()))
	}
	return result
}

func sumAll[T number](src []T) T {
	var total T
	for _, v := range src {
		total += v
	}
	return total
}

// SumDim sums along the given dimension.
func (cpu *CPUBackend) SumDim(x *tensor.RawTensor, dim int, keepDim bool) *tensor.RawTensor {
	return cpu.reduceDim("sum_dim", x, dim, keepDim, false)
}

// MeanDim averages along the given dimension. Float tensors only.
func (cpu *CPUBackend) MeanDim(x *tensor.RawTensor, dim int, keepDim bool) *tensor.RawTensor {
	if x.DType() != tensor.Float32 && x.DType() != tensor.Float64 {
		panic(fmt.Sprintf("mean_dim: unsupported dtype %s (float tensors only)", x.DType()))
	}
	return cpu.reduceDim("mean_dim", x, dim, keepDim, true)
}

func (cpu *CPUBackend) reduceDim(name string, x *tensor.RawTensor, dim int, keepDim, mean bool) *tensor.RawTensor {
	shape := x.Shape()
	wrapped, err := shape.WrapDim(dim)
	if err != nil {
		panic(fmt.Sprintf("%s: %v", name, err))
	}
	dim = wrapped

	outShape := make(tensor.Shape, 0, len(shape))
	for i, d := range shape {
		switch {
		case i != dim:
			outShape = append(outShape, d)
		case keepDim:
			outShape = append(outShape, 1)
		}
	}
	if len(outShape) == 0 {
		outShape = tensor.Shape{1}
	}

	result, err := tensor.NewRaw(outShape, x.DType(), cpu.device)
	if err != nil {
		panic(fmt.Sprintf("%s: %v", name, err))
	}

	// Reduction geometry: outer × reduce × inner over the contiguous layout.
	outer, inner := 1, 1
	for i := 0; i < dim; i++ {
		outer *= shape[i]
	}
	for i := dim + 1; i < len(shape); i++ {
		inner *= shape[i]
	}
	reduceN := shape[dim]

	switch x.DType() {
	case tensor.Float32:
		reduceDimTyped(result.AsFloat32(), x.AsFloat32(), outer, reduceN, inner, mean)
	case tensor.Float64:
		reduceDimTyped(result.AsFloat64(), x.AsFloat64(), outer, reduceN, inner, mean)
	case tensor.Int32:
		reduceDimTyped(result.AsInt32(), x.AsInt32(), outer, reduceN, inner, mean)
	case tensor.Int64:
		reduceDimTyped(result.AsInt64(), x.AsInt64(), outer, reduceN, inner, mean)
	default:
		panic(fmt.Sprintf("%s: unsupported dtype %s", name, x.DType()))
	}
	return result
}

func reduceDimTyped[T number](dst, src []T, outer, reduceN, inner int, mean bool) {
	for o := 0; o < outer; o++ {
		for in := 0; in < inner; in++ {
			var total T
			for r := 0; r < reduceN; r++ {
				total += src[o*reduceN*inner+r*inner+in]
			}
			if mean {
				total /= T(reduceN)
			}
			dst[o*inner+in] = total
		}
	}
}
