package ops

import "github.com/morphic-ml/morphic/internal/tensor"

// unaryOp is the common structure for single-input operations.
type unaryOp struct {
	inputs []*tensor.RawTensor // [x]
	output *tensor.RawTensor
}

// Inputs returns the input tensor [x].
func (op *unaryOp) Inputs() []*tensor.RawTensor { return op.inputs }

// Output returns the output tensor.
func (op *unaryOp) Output() *tensor.RawTensor { return op.output }

// ExpOp represents the element-wise exponential: output = exp(x).
// Backward: grad_x = outputGrad * output.
type ExpOp struct{ unaryOp }

// NewExpOp creates a new ExpOp.
func NewExpOp(x, output *tensor.RawTensor) *ExpOp {
	return &ExpOp{unaryOp{inputs: []*tensor.RawTensor{x}, output: output}}
}

// Backward computes the input gradient for exp.
func (op *ExpOp) Backward(outputGrad *tensor.RawTensor, backend tensor.Backend) []*tensor.RawTensor {
	return []*tensor.RawTensor{backend.Mul(outputGrad, op.output)}
}

// LogOp represents the element-wise natural logarithm: output = log(x).
// Backward: grad_x = outputGrad / x.
type LogOp struct{ unaryOp }

// NewLogOp creates a new LogOp.
func NewLogOp(x, output *tensor.RawTensor) *LogOp {
	return &LogOp{unaryOp{inputs: []*tensor.RawTensor{x}, output: output}}
}

// Backward computes the input gradient for log.
func (op *LogOp) Backward(outputGrad *tensor.RawTensor, backend tensor.Backend) []*tensor.RawTensor {
	return []*tensor.RawTensor{backend.Div(outputGrad, op.inputs[0])}
}

// SqrtOp represents the element-wise square root: output = sqrt(x).
// Backward: grad_x = outputGrad * 0.5 / output.
type SqrtOp struct{ unaryOp }

// NewSqrtOp creates a new SqrtOp.
func NewSqrtOp(x, output *tensor.RawTensor) *SqrtOp {
	return &SqrtOp{unaryOp{inputs: []*tensor.RawTensor{x}, output: output}}
}

// Backward computes the input gradient for sqrt.
func (op *SqrtOp) Backward(outputGrad *tensor.RawTensor, backend tensor.Backend) []*tensor.RawTensor {
	half := backend.MulScalar(outputGrad, 0.5)
	return []*tensor.RawTensor{backend.Div(half, op.output)}
}

// NegOp represents element-wise negation: output = -x.
// Backward: grad_x = -outputGrad.
type NegOp struct{ unaryOp }

// NewNegOp creates a new NegOp.
func NewNegOp(x, output *tensor.RawTensor) *NegOp {
	return &NegOp{unaryOp{inputs: []*tensor.RawTensor{x}, output: output}}
}

// Backward computes the input gradient for negation.
func (op *NegOp) Backward(outputGrad *tensor.RawTensor, backend tensor.Backend) []*tensor.RawTensor {
	return []*tensor.RawTensor{backend.Neg(outputGrad)}
}
