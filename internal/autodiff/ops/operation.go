// Package ops defines the differentiable operations recorded on the gradient tape.
package ops

import "github.com/morphic-ml/morphic/internal/tensor"

// Operation is a recorded forward operation that knows how to compute the
// gradients of its inputs from the gradient of its output.
type Operation interface {
	// Backward computes input gradients given the output gradient.
	// The returned slice is aligned with Inputs().
	Backward(outputGrad *tensor.RawTensor, backend tensor.Backend) []*tensor.RawTensor

	// Inputs returns the input tensors of the forward operation.
	Inputs() []*tensor.RawTensor

	// Output returns the output tensor of the forward operation.
	Output() *tensor.RawTensor
}
