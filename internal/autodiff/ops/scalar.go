package ops

import "github.com/morphic-ml/morphic/internal/tensor"

// ScalarOp represents an element-wise operation with a scalar second operand.
// Only the tensor input receives a gradient.
type ScalarOp struct {
	unaryOp
	kind   scalarKind
	scalar any
}

type scalarKind int

const (
	scalarAdd scalarKind = iota
	scalarSub
	scalarMul
	scalarDiv
)

// NewAddScalarOp records output = x + s.
func NewAddScalarOp(x, output *tensor.RawTensor, s any) *ScalarOp {
	return &ScalarOp{unaryOp{inputs: []*tensor.RawTensor{x}, output: output}, scalarAdd, s}
}

// NewSubScalarOp records output = x - s.
func NewSubScalarOp(x, output *tensor.RawTensor, s any) *ScalarOp {
	return &ScalarOp{unaryOp{inputs: []*tensor.RawTensor{x}, output: output}, scalarSub, s}
}

// NewMulScalarOp records output = x * s.
func NewMulScalarOp(x, output *tensor.RawTensor, s any) *ScalarOp {
	return &ScalarOp{unaryOp{inputs: []*tensor.RawTensor{x}, output: output}, scalarMul, s}
}

// NewDivScalarOp records output = x / s.
func NewDivScalarOp(x, output *tensor.RawTensor, s any) *ScalarOp {
	return &ScalarOp{unaryOp{inputs: []*tensor.RawTensor{x}, output: output}, scalarDiv, s}
}

// Backward computes the input gradient.
// Add/Sub pass the gradient through; Mul scales it; Div divides it.
func (op *ScalarOp) Backward(outputGrad *tensor.RawTensor, backend tensor.Backend) []*tensor.RawTensor {
	switch op.kind {
	case scalarMul:
		return []*tensor.RawTensor{backend.MulScalar(outputGrad, op.scalar)}
	case scalarDiv:
		return []*tensor.RawTensor{backend.DivScalar(outputGrad, op.scalar)}
	default:
		return []*tensor.RawTensor{outputGrad}
	}
}
