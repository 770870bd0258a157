package transform

import (
	"fmt"

	"github.com/morphic-ml/morphic/internal/autodiff"
	"github.com/morphic-ml/morphic/internal/tensor"
)

// GradFunc is a function differentiated by Grad. It computes a scalar loss
// from the input using the supplied backend; only operations executed on
// that backend contribute to the gradient.
type GradFunc func(b tensor.Backend, x *tensor.RawTensor) (*tensor.RawTensor, error)

// Grad computes the gradient of f at input.
//
// A grad layer is pushed for the duration of the call and the input is
// wrapped at that level, so nested Grad calls see distinct levels. f runs
// on a tape-recording backend over the interpreter's backend; its output
// must be a scalar. The result has the input's shape.
func Grad(interp *Interpreter, f GradFunc, input Value) (Value, error) {
	if !interp.GradEnabled() {
		return nil, fmt.Errorf("transform: grad called while gradient mode is disabled")
	}

	level := interp.GradIncrementNesting()
	defer func() {
		_, _ = interp.GradDecrementNesting()
	}()

	wrapped, err := interp.WrapForGrad(input, level)
	if err != nil {
		return nil, err
	}

	ad := autodiff.New[tensor.Backend](interp.backend)
	ad.Tape().StartRecording()

	raw := innerRaw(interp.UnwrapForGrad(wrapped, level))
	out, err := f(ad, raw)
	if err != nil {
		return nil, err
	}
	if out.NumElements() != 1 {
		return nil, fmt.Errorf("transform: grad requires a scalar output, got shape %v", out.Shape())
	}

	seed, err := onesLike(out)
	if err != nil {
		return nil, err
	}
	grads := ad.Tape().Backward(out, seed, ad)

	g, ok := grads[raw]
	if !ok {
		// Output does not depend on the input.
		g, err = tensor.NewRaw(raw.Shape(), raw.DType(), raw.Device())
		if err != nil {
			return nil, err
		}
	}
	return NewPlain(g), nil
}

func onesLike(x *tensor.RawTensor) (*tensor.RawTensor, error) {
	out, err := tensor.NewRaw(x.Shape(), x.DType(), x.Device())
	if err != nil {
		return nil, err
	}
	switch x.DType() {
	case tensor.Float32:
		data := out.AsFloat32()
		for i := range data {
			data[i] = 1
		}
	case tensor.Float64:
		data := out.AsFloat64()
		for i := range data {
			data[i] = 1
		}
	default:
		return nil, fmt.Errorf("transform: grad requires a float output, got %s", x.DType())
	}
	return out, nil
}
