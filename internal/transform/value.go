package transform

import (
	"errors"
	"fmt"

	"github.com/morphic-ml/morphic/internal/tensor"
)

// ErrNoWrapper is returned by Unwrapped when the value carries no transform
// wrapper to remove.
var ErrNoWrapper = errors.New("transform: no wrappers present")

// Value is a tensor as seen by the transform runtime: either a plain raw
// tensor or a raw tensor inside one or more transform wrappers. Shape is
// always the logical shape, with wrapper-owned dimensions (a vmap batch
// dim) hidden.
type Value interface {
	Shape() tensor.Shape
	value()
}

// Plain is an unwrapped tensor value.
type Plain struct {
	raw *tensor.RawTensor
}

// NewPlain wraps a raw tensor as a transform value.
func NewPlain(raw *tensor.RawTensor) *Plain {
	return &Plain{raw: raw}
}

func (p *Plain) value() {}

// Shape returns the tensor shape.
func (p *Plain) Shape() tensor.Shape { return p.raw.Shape() }

// Raw returns the underlying tensor.
func (p *Plain) Raw() *tensor.RawTensor { return p.raw }

// Batched marks one dimension of the inner value as a vmap batch dimension
// belonging to a transform level. The batch dimension is hidden from the
// logical shape.
type Batched struct {
	inner Value
	bdim  int
	level int
}

func (b *Batched) value() {}

// Shape returns the logical shape, without the batch dimension.
func (b *Batched) Shape() tensor.Shape {
	phys := b.inner.Shape()
	logical := make(tensor.Shape, 0, len(phys)-1)
	for d, size := range phys {
		if d == b.bdim {
			continue
		}
		logical = append(logical, size)
	}
	return logical
}

// Inner returns the wrapped value.
func (b *Batched) Inner() Value { return b.inner }

// BDim returns the physical index of the batch dimension.
func (b *Batched) BDim() int { return b.bdim }

// Level returns the vmap level owning the batch dimension.
func (b *Batched) Level() int { return b.level }

// BatchSize returns the size of the batch dimension.
func (b *Batched) BatchSize() int { return b.inner.Shape()[b.bdim] }

// GradTracked wraps a value for differentiation at a transform level.
// A tangent, when present, carries the forward-mode dual.
type GradTracked struct {
	inner    Value
	level    int
	hasLevel bool
	tangent  Value
	life     *lifeHandle
}

func (g *GradTracked) value() {}

// Shape returns the inner value's shape.
func (g *GradTracked) Shape() tensor.Shape { return g.inner.Shape() }

// Inner returns the wrapped value.
func (g *GradTracked) Inner() Value { return g.inner }

// Level returns the grad level, and whether one was assigned.
func (g *GradTracked) Level() (int, bool) { return g.level, g.hasLevel }

// Alive reports whether the layer that created this wrapper still exists.
func (g *GradTracked) Alive() bool { return g.life == nil || g.life.alive }

// Tangent returns the forward-mode dual, or nil.
func (g *GradTracked) Tangent() Value { return g.tangent }

// SetTangent attaches a forward-mode dual. The tangent's shape must match.
func (g *GradTracked) SetTangent(t Value) error {
	if !t.Shape().Equal(g.inner.Shape()) {
		return fmt.Errorf("transform: tangent shape %v does not match primal shape %v", t.Shape(), g.inner.Shape())
	}
	g.tangent = t
	return nil
}

// Functional wraps a value for the functionalization pass. It snapshots the
// base storage at wrap time and tracks whether mutations are pending
// commitment back to that base.
type Functional struct {
	inner   Value
	level   int
	base    *tensor.RawTensor
	pending bool
}

func (f *Functional) value() {}

// Shape returns the inner value's shape.
func (f *Functional) Shape() tensor.Shape { return f.inner.Shape() }

// Inner returns the wrapped value.
func (f *Functional) Inner() Value { return f.inner }

// Level returns the functionalize level.
func (f *Functional) Level() int { return f.level }

// Base returns the storage snapshot taken at wrap time.
func (f *Functional) Base() *tensor.RawTensor { return f.base }

// HasPendingUpdates reports whether a Replace has not yet been synced.
func (f *Functional) HasPendingUpdates() bool { return f.pending }

// Replace installs a new inner value, recording a pending update. This is
// how a mutation of the wrapped tensor is expressed functionally.
func (f *Functional) Replace(raw *tensor.RawTensor) {
	f.inner = NewPlain(raw)
	f.pending = true
}

// Sync commits pending updates to the base snapshot.
func (f *Functional) Sync() {
	if !f.pending {
		return
	}
	f.base = innerRaw(f.inner)
	f.pending = false
}

// innerRaw strips every wrapper and returns the raw tensor underneath.
func innerRaw(v Value) *tensor.RawTensor {
	for {
		switch w := v.(type) {
		case *Plain:
			return w.raw
		case *Batched:
			v = w.inner
		case *GradTracked:
			v = w.inner
		case *Functional:
			v = w.inner
		default:
			panic(fmt.Sprintf("transform: unknown value type %T", v))
		}
	}
}
