package transform

import (
	"errors"
	"fmt"

	"github.com/morphic-ml/morphic/internal/parallel"
	"github.com/morphic-ml/morphic/internal/tensor"
)

// ErrVmapFallbackDisabled is returned by Vmap when no batch rule exists and
// the per-example fallback has been switched off.
var ErrVmapFallbackDisabled = errors.New("transform: vmap fallback is disabled")

// VmapFunc is a function batched by Vmap. It receives per-example slices of
// the batched inputs and must return one output tensor.
type VmapFunc func(b tensor.Backend, inputs []*tensor.RawTensor) (*tensor.RawTensor, error)

// Vmap maps f over a batch dimension of the inputs.
//
// inDims gives, per input, the dimension to map over, or -1 for inputs
// shared across the whole batch. All mapped dimensions must have the same
// size. The per-example outputs are stacked at outDim of the result.
//
// There are no batch rules in this runtime: Vmap always runs the fallback
// loop, slicing each mapped input along its batch dim and calling f once
// per batch element. The loop runs sequentially unless the interpreter was
// built WithParallel; see that option for the reentrancy constraint. When
// the fallback warning is enabled, a vmap.fallback event is published
// before the loop runs.
func Vmap(interp *Interpreter, f VmapFunc, inputs []Value, inDims []int, outDim int, r Randomness) (Value, error) {
	if len(inputs) != len(inDims) {
		return nil, fmt.Errorf("transform: vmap got %d inputs but %d in_dims", len(inputs), len(inDims))
	}

	// Inputs batched at some other vmap level cannot be sliced by this
	// level's fallback loop; drivers unwrap one level at a time.
	for k, v := range inputs {
		if b, ok := v.(*Batched); ok {
			return nil, fmt.Errorf("transform: vmap input %d already carries a batch dim at level %d", k, b.Level())
		}
	}

	// Resolve batch dims and the common batch size.
	dims := make([]int, len(inDims))
	batchSize := -1
	for k, d := range inDims {
		if d < 0 {
			dims[k] = -1
			continue
		}
		if len(inputs[k].Shape()) == 0 {
			return nil, fmt.Errorf("transform: vmap in_dims[%d] maps a scalar input; at least one dimension is required", k)
		}
		wrapped, err := WrapDimIndex(d, len(inputs[k].Shape()))
		if err != nil {
			return nil, fmt.Errorf("transform: vmap in_dims[%d]: %w", k, err)
		}
		dims[k] = wrapped
		size := inputs[k].Shape()[wrapped]
		if batchSize == -1 {
			batchSize = size
		} else if size != batchSize {
			return nil, fmt.Errorf("transform: vmap inputs disagree on batch size: %d vs %d", batchSize, size)
		}
	}
	if batchSize == -1 {
		return nil, errors.New("transform: vmap requires at least one mapped input")
	}

	level, err := interp.VmapIncrementNesting(batchSize, r)
	if err != nil {
		return nil, err
	}
	defer func() {
		_, _ = interp.VmapDecrementNesting()
	}()

	batched := make([]Value, len(inputs))
	for k := range inputs {
		if dims[k] < 0 {
			batched[k] = inputs[k]
			continue
		}
		batched[k], err = interp.AddBatchDim(inputs[k], dims[k], level)
		if err != nil {
			return nil, err
		}
	}

	if !interp.VmapFallbackEnabled() {
		return nil, ErrVmapFallbackDisabled
	}
	if interp.VmapFallbackWarningEnabled() {
		interp.emit("vmap.fallback", map[string]any{
			"level":      level,
			"batch_size": batchSize,
			"randomness": r.String(),
		})
	}

	backend := interp.backend
	outputs := make([]*tensor.RawTensor, batchSize)
	errs := make([]error, batchSize)
	parallel.For(batchSize, func(e int) {
		slices := make([]*tensor.RawTensor, len(inputs))
		for k := range inputs {
			bv, ok := batched[k].(*Batched)
			if !ok {
				slices[k] = innerRaw(inputs[k])
				continue
			}
			raw := innerRaw(bv.inner)
			slices[k] = backend.Squeeze(backend.Narrow(raw, bv.bdim, e, 1), bv.bdim)
		}
		outputs[e], errs[e] = f(backend, slices)
	}, interp.par)

	for e, err := range errs {
		if err != nil {
			return nil, fmt.Errorf("transform: vmap element %d: %w", e, err)
		}
	}

	out, err := WrapDimIndex(outDim, len(outputs[0].Shape())+1)
	if err != nil {
		return nil, fmt.Errorf("transform: vmap out_dim: %w", err)
	}
	return NewPlain(backend.Stack(outputs, out)), nil
}
