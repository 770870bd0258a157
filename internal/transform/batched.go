package transform

import (
	"fmt"

	"github.com/morphic-ml/morphic/internal/tensor"
)

// AddBatchDim marks dimension bdim of v as the batch dimension for the given
// vmap level. The dimension disappears from the logical shape.
func (i *Interpreter) AddBatchDim(v Value, bdim, level int) (Value, error) {
	if level < 1 {
		return nil, fmt.Errorf("transform: batch level must be >= 1, got %d", level)
	}
	if len(v.Shape()) == 0 {
		return nil, fmt.Errorf("transform: batching requires at least a 1-dimensional value, got a scalar")
	}
	wrapped, err := WrapDimIndex(bdim, len(v.Shape()))
	if err != nil {
		return nil, err
	}
	return &Batched{inner: v, bdim: wrapped, level: level}, nil
}

// hasBatchLevel reports whether v carries a batch dimension at or above the
// given level.
func hasBatchLevel(v Value, level int) bool {
	b, ok := v.(*Batched)
	return ok && b.level >= level
}

// RemoveBatchDim removes the batch dimension with the given level from v,
// placing the exposed dimension at outDim.
//
// If v carries no batch dimension at that level, the value never interacted
// with a batched tensor inside the vmap scope; a new dimension of batchSize
// is broadcast in at outDim instead. For example:
//
//	x of shape (3), y of shape (5)
//	vmap over x of (vmap over y of func() { return x })
//
// produces shape (3, 5) even though the inner function ignores y.
func (i *Interpreter) RemoveBatchDim(v Value, level, batchSize, outDim int) (Value, error) {
	if !hasBatchLevel(v, level) {
		p, ok := v.(*Plain)
		if !ok {
			return nil, fmt.Errorf("transform: remove batch dim on wrapped non-batched value %T", v)
		}
		rank := len(p.raw.Shape())
		out, err := WrapDimIndex(outDim, rank+1)
		if err != nil {
			return nil, err
		}

		newShape := make(tensor.Shape, 0, rank+1)
		newShape = append(newShape, p.raw.Shape()[:out]...)
		newShape = append(newShape, batchSize)
		newShape = append(newShape, p.raw.Shape()[out:]...)

		unsqueezed := i.backend.Unsqueeze(p.raw, out)
		return NewPlain(i.backend.Expand(unsqueezed, newShape)), nil
	}

	b := v.(*Batched)
	if b.level != level {
		return nil, fmt.Errorf("transform: remove batch dim at level %d but wrapper has level %d", level, b.level)
	}
	if b.BatchSize() != batchSize {
		return nil, fmt.Errorf("transform: remove batch dim expected batch size %d, wrapper has %d", batchSize, b.BatchSize())
	}

	inner, ok := b.inner.(*Plain)
	if !ok {
		// Nested wrapper dispatch is not implemented; drivers unwrap
		// one level at a time, so the inner value is plain here.
		return nil, fmt.Errorf("transform: remove batch dim over nested wrapper %T", b.inner)
	}

	moved, err := MoveDim(i.backend, inner.raw, b.bdim, outDim)
	if err != nil {
		return nil, err
	}
	return NewPlain(moved), nil
}

// UnwrapAtCurrentLevel strips a batch wrapper belonging to the innermost
// transform layer, moving its batch dimension to the front. The returned
// int is the front batch dim (0) when a wrapper was removed, or -1 when the
// value does not participate in the current level.
func (i *Interpreter) UnwrapAtCurrentLevel(v Value) (Value, int, error) {
	level, err := i.CurrentLevel()
	if err != nil {
		return nil, 0, err
	}

	b, ok := v.(*Batched)
	if !ok || b.level != level {
		return v, -1, nil
	}

	inner, ok := b.inner.(*Plain)
	if !ok {
		return nil, 0, fmt.Errorf("transform: unwrap over nested wrapper %T", b.inner)
	}

	moved, err := MoveDim(i.backend, inner.raw, b.bdim, 0)
	if err != nil {
		return nil, 0, err
	}
	return NewPlain(moved), 0, nil
}
