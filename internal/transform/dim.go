package transform

import (
	"fmt"

	"github.com/morphic-ml/morphic/internal/tensor"
)

// WrapDimIndex normalizes a possibly negative dimension index against rank.
func WrapDimIndex(dim, rank int) (int, error) {
	if rank <= 0 {
		rank = 1
	}
	if dim < -rank || dim >= rank {
		return 0, fmt.Errorf("transform: dimension %d out of range for rank %d", dim, rank)
	}
	if dim < 0 {
		dim += rank
	}
	return dim, nil
}

// MoveDim moves the dimension at src to dst, preserving the order of the
// remaining dimensions.
func MoveDim(b tensor.Backend, x *tensor.RawTensor, src, dst int) (*tensor.RawTensor, error) {
	rank := len(x.Shape())
	src, err := WrapDimIndex(src, rank)
	if err != nil {
		return nil, err
	}
	dst, err = WrapDimIndex(dst, rank)
	if err != nil {
		return nil, err
	}
	if src == dst {
		return x, nil
	}

	perm := make([]int, 0, rank)
	for d := 0; d < rank; d++ {
		if d == src {
			continue
		}
		perm = append(perm, d)
	}
	perm = append(perm[:dst], append([]int{src}, perm[dst:]...)...)
	return b.Transpose(x, perm...), nil
}

// ReshapeDimInto collapses the dimension at src into the dimension at dst.
// The result has one fewer dimension, with dst grown by a factor of the
// src dimension's size.
func ReshapeDimInto(b tensor.Backend, src, dst int, x *tensor.RawTensor) (*tensor.RawTensor, error) {
	rank := len(x.Shape())
	src, err := WrapDimIndex(src, rank)
	if err != nil {
		return nil, err
	}
	// The result has rank-1 dims, so dst wraps against rank-1.
	dst, err = WrapDimIndex(dst, rank-1)
	if err != nil {
		return nil, err
	}

	sizes := x.Shape()
	newShape := make(tensor.Shape, 0, rank-1)
	for d, size := range sizes {
		if d == src {
			continue
		}
		newShape = append(newShape, size)
	}
	newShape[dst] *= sizes[src]

	moved, err := MoveDim(b, x, src, dst)
	if err != nil {
		return nil, err
	}
	return b.Reshape(moved, newShape), nil
}

// ReshapeDimOutOf splits the dimension at src into two: an outer dimension
// of size1 and an inner dimension holding the remainder. The src dimension's
// size must be divisible by size1.
func ReshapeDimOutOf(b tensor.Backend, src, size1 int, x *tensor.RawTensor) (*tensor.RawTensor, error) {
	rank := len(x.Shape())
	src, err := WrapDimIndex(src, rank)
	if err != nil {
		return nil, err
	}
	sizes := x.Shape()
	if size1 <= 0 || sizes[src]%size1 != 0 {
		return nil, fmt.Errorf("transform: cannot split dimension of size %d into chunks of %d", sizes[src], size1)
	}
	size2 := sizes[src] / size1

	newShape := make(tensor.Shape, 0, rank+1)
	newShape = append(newShape, sizes[:src]...)
	newShape = append(newShape, size1, size2)
	newShape = append(newShape, sizes[src+1:]...)
	return b.Reshape(x, newShape), nil
}
