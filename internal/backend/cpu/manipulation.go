package cpu

import (
	"fmt"

	"github.com/morphic-ml/morphic/internal/tensor"
)

// Cat concatenates tensors along an existing dimension.
// All tensors must have the same shape except along dim.
func (cpu *CPUBackend) Cat(tensors []*tensor.RawTensor, dim int) *tensor.RawTensor {
	if len(tensors) == 0 {
		panic("cat: at least one tensor required")
	}

	first := tensors[0]
	shape := first.Shape()
	wrapped, err := shape.WrapDim(dim)
	if err != nil {
		panic(fmt.Sprintf("cat: %v", err))
	}
	dim = wrapped

	catSize := 0
	for _, t := range tensors {
		tShape := t.Shape()
		if len(tShape) != len(shape) {
			panic(fmt.Sprintf("cat: rank mismatch %v vs %v", shape, tShape))
		}
		for i := range shape {
			if i != dim && tShape[i] != shape[i] {
				panic(fmt.Sprintf("cat: shape mismatch at dimension %d: %v vs %v", i, shape, tShape))
			}
		}
		if t.DType() != first.DType() {
			panic(fmt.Sprintf("cat: dtype mismatch %s vs %s", first.DType(), t.DType()))
		}
		catSize += tShape[dim]
	}

	outShape := shape.Clone()
	outShape[dim] = catSize

	result, err := tensor.NewRaw(outShape, first.DType(), cpu.device)
	if err != nil {
		panic(fmt.Sprintf("cat: %v", err))
	}

	elemSize := first.DType().Size()
	outer := 1
	for i := 0; i < dim; i++ {
		outer *= shape[i]
	}
	innerBytes := elemSize
	for i := dim + 1; i < len(shape); i++ {
		innerBytes *= shape[i]
	}

	dst := result.Data()
	outRowBytes := catSize * innerBytes

	for o := 0; o < outer; o++ {
		written := 0
		for _, t := range tensors {
			rowBytes := t.Shape()[dim] * innerBytes
			src := t.Data()[o*rowBytes : (o+1)*rowBytes]
			copy(dst[o*outRowBytes+written:], src)
			written += rowBytes
		}
	}

	return result
}

// Stack stacks tensors along a new dimension. All shapes must be identical.
func (cpu *CPUBackend) Stack(tensors []*tensor.RawTensor, dim int) *tensor.RawTensor {
	if len(tensors) == 0 {
		panic("stack: at least one tensor required")
	}

	shape := tensors[0].Shape()
	if dim < 0 {
		dim += len(shape) + 1
	}
	if dim < 0 || dim > len(shape) {
		panic(fmt.Sprintf("stack: dimension %d out of range for shape %v", dim, shape))
	}

	unsqueezed := make([]*tensor.RawTensor, len(tensors))
	for i, t := range tensors {
		if !t.Shape().Equal(shape) {
			panic(fmt.Sprintf("stack: shape mismatch %v vs %v", shape, t.Shape()))
		}
		unsqueezed[i] = cpu.Unsqueeze(t, dim)
	}

	return cpu.Cat(unsqueezed, dim)
}

// Narrow slices the range [start, start+length) along dim.
func (cpu *CPUBackend) Narrow(x *tensor.RawTensor, dim, start, length int) *tensor.RawTensor {
	shape := x.Shape()
	wrapped, err := shape.WrapDim(dim)
	if err != nil {
		panic(fmt.Sprintf("narrow: %v", err))
	}
	dim = wrapped

	if start < 0 || length <= 0 || start+length > shape[dim] {
		panic(fmt.Sprintf("narrow: range [%d, %d) out of bounds for dimension %d (size %d)",
			start, start+length, dim, shape[dim]))
	}

	outShape := shape.Clone()
	outShape[dim] = length

	result, err := tensor.NewRaw(outShape, x.DType(), cpu.device)
	if err != nil {
		panic(fmt.Sprintf("narrow: %v", err))
	}

	elemSize := x.DType().Size()
	outer := 1
	for i := 0; i < dim; i++ {
		outer *= shape[i]
	}
	innerBytes := elemSize
	for i := dim + 1; i < len(shape); i++ {
		innerBytes *= shape[i]
	}

	srcRowBytes := shape[dim] * innerBytes
	dstRowBytes := length * innerBytes
	src := x.Data()
	dst := result.Data()

	for o := 0; o < outer; o++ {
		from := o*srcRowBytes + start*innerBytes
		copy(dst[o*dstRowBytes:(o+1)*dstRowBytes], src[from:from+dstRowBytes])
	}

	return result
}
