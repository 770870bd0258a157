package ops

import "github.com/morphic-ml/morphic/internal/tensor"

// SumOp represents a full reduction: output = sum(x), shape {1}.
// Backward: grad_x = outputGrad broadcast to x's shape.
type SumOp struct{ unaryOp }

// NewSumOp creates a new SumOp.
func NewSumOp(x, output *tensor.RawTensor) *SumOp {
	return &SumOp{unaryOp{inputs: []*tensor.RawTensor{x}, output: output}}
}

// Backward broadcasts the output gradient back to the input shape.
func (op *SumOp) Backward(outputGrad *tensor.RawTensor, backend tensor.Backend) []*tensor.RawTensor {
	return []*tensor.RawTensor{backend.Expand(outputGrad, op.inputs[0].Shape())}
}

// SumDimOp represents a reduction along one dimension.
// Backward: the output gradient is re-inserted at dim (when keepDim was false)
// and broadcast along it.
type SumDimOp struct {
	unaryOp
	dim     int
	keepDim bool
}

// NewSumDimOp creates a new SumDimOp.
func NewSumDimOp(x, output *tensor.RawTensor, dim int, keepDim bool) *SumDimOp {
	return &SumDimOp{unaryOp{inputs: []*tensor.RawTensor{x}, output: output}, dim, keepDim}
}

// Backward broadcasts the output gradient along the reduced dimension.
func (op *SumDimOp) Backward(outputGrad *tensor.RawTensor, backend tensor.Backend) []*tensor.RawTensor {
	grad := outputGrad
	if !op.keepDim {
		dim, err := op.inputs[0].Shape().WrapDim(op.dim)
		if err != nil {
			panic(err)
		}
		grad = backend.Unsqueeze(grad, dim)
	}
	return []*tensor.RawTensor{backend.Expand(grad, op.inputs[0].Shape())}
}
