package ops

import "github.com/morphic-ml/morphic/internal/tensor"

// reduceBroadcast sums grad along broadcast dimensions so that the result has
// targetShape. Needed because a forward op may have broadcast its input: the
// gradient then arrives in the broadcast (larger) shape and must be reduced
// back to the input's shape.
func reduceBroadcast(grad *tensor.RawTensor, targetShape tensor.Shape, backend tensor.Backend) *tensor.RawTensor {
	if grad.Shape().Equal(targetShape) {
		return grad
	}

	// Reduce leading dimensions the target doesn't have.
	for len(grad.Shape()) > len(targetShape) {
		grad = backend.SumDim(grad, 0, false)
	}

	// Reduce dimensions the target holds at size 1.
	for i, dim := range targetShape {
		if dim == 1 && grad.Shape()[i] != 1 {
			grad = backend.SumDim(grad, i, true)
		}
	}

	if !grad.Shape().Equal(targetShape) {
		// Same element count, different rank bookkeeping (e.g. scalar {1}).
		grad = backend.Reshape(grad, targetShape)
	}
	return grad
}
