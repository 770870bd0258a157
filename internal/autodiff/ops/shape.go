package ops

import "github.com/morphic-ml/morphic/internal/tensor"

// ReshapeOp represents a shape change preserving element order.
// Used for reshape, unsqueeze and squeeze. Backward reshapes the gradient
// back to the input shape.
type ReshapeOp struct{ unaryOp }

// NewReshapeOp creates a new ReshapeOp.
func NewReshapeOp(x, output *tensor.RawTensor) *ReshapeOp {
	return &ReshapeOp{unaryOp{inputs: []*tensor.RawTensor{x}, output: output}}
}

// Backward reshapes the gradient back to the input shape.
func (op *ReshapeOp) Backward(outputGrad *tensor.RawTensor, backend tensor.Backend) []*tensor.RawTensor {
	return []*tensor.RawTensor{backend.Reshape(outputGrad, op.inputs[0].Shape())}
}

// TransposeOp represents a dimension permutation.
// Backward applies the inverse permutation to the gradient.
type TransposeOp struct {
	unaryOp
	axes []int // resolved permutation used in forward
}

// NewTransposeOp creates a new TransposeOp. axes must be the resolved
// (non-negative, complete) permutation applied in the forward pass.
func NewTransposeOp(x, output *tensor.RawTensor, axes []int) *TransposeOp {
	return &TransposeOp{unaryOp{inputs: []*tensor.RawTensor{x}, output: output}, axes}
}

// Backward applies the inverse permutation to the gradient.
func (op *TransposeOp) Backward(outputGrad *tensor.RawTensor, backend tensor.Backend) []*tensor.RawTensor {
	axes := op.axes
	if len(axes) == 0 {
		// Full reverse is its own inverse.
		return []*tensor.RawTensor{backend.Transpose(outputGrad)}
	}
	inverse := make([]int, len(axes))
	for i, ax := range axes {
		inverse[ax] = i
	}
	return []*tensor.RawTensor{backend.Transpose(outputGrad, inverse...)}
}

// ExpandOp represents broadcasting to a larger shape.
// Backward sums the gradient along the broadcast dimensions.
type ExpandOp struct{ unaryOp }

// NewExpandOp creates a new ExpandOp.
func NewExpandOp(x, output *tensor.RawTensor) *ExpandOp {
	return &ExpandOp{unaryOp{inputs: []*tensor.RawTensor{x}, output: output}}
}

// Backward reduces the gradient back to the input shape.
func (op *ExpandOp) Backward(outputGrad *tensor.RawTensor, backend tensor.Backend) []*tensor.RawTensor {
	return []*tensor.RawTensor{reduceBroadcast(outputGrad, op.inputs[0].Shape(), backend)}
}
