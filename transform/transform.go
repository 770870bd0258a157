// Copyright 2026 Morphic ML Framework. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

// Package transform provides the public API for functional transforms:
// batching (vmap), gradient tracking (grad/jvp) and functionalization over
// the Morphic tensor runtime.
//
// All transform state lives in an explicitly constructed Interpreter; there
// is no process-global stack.
//
// Example:
//
//	import (
//	    "github.com/morphic-ml/morphic/backend/cpu"
//	    "github.com/morphic-ml/morphic/tensor"
//	    "github.com/morphic-ml/morphic/transform"
//	)
//
//	func main() {
//	    backend := cpu.New()
//	    interp := transform.NewInterpreter(backend)
//
//	    x, _ := tensor.FromSlice([]float32{1, 2, 3}, tensor.Shape{3, 1}, backend)
//	    double := func(b tensor.Backend, in []*tensor.RawTensor) (*tensor.RawTensor, error) {
//	        return b.MulScalar(in[0], float32(2)), nil
//	    }
//	    out, _ := transform.Vmap(interp, double,
//	        []transform.Value{transform.NewPlain(x.Raw())}, []int{0}, 0,
//	        transform.RandomnessError)
//	    _ = out
//	}
package transform

import (
	"github.com/morphic-ml/morphic/internal/parallel"
	"github.com/morphic-ml/morphic/internal/tensor"
	"github.com/morphic-ml/morphic/internal/transform"
	"github.com/morphic-ml/morphic/monitor"
)

// Kind identifies a functional transform.
type Kind = transform.Kind

// Transform kinds.
const (
	KindVmap          Kind = transform.KindVmap
	KindGrad          Kind = transform.KindGrad
	KindJvp           Kind = transform.KindJvp
	KindFunctionalize Kind = transform.KindFunctionalize
)

// Randomness controls how random operations behave under vmap.
type Randomness = transform.Randomness

// Randomness policies.
const (
	RandomnessError     Randomness = transform.RandomnessError
	RandomnessSame      Randomness = transform.RandomnessSame
	RandomnessDifferent Randomness = transform.RandomnessDifferent
)

// ParseRandomness converts a randomness name ("error", "same", "different")
// to its enum value.
func ParseRandomness(s string) (Randomness, error) {
	return transform.ParseRandomness(s)
}

// Interpreter owns one session of the transform runtime.
type Interpreter = transform.Interpreter

// Layer is one entry of the dynamic transform stack.
type Layer = transform.Layer

// Option configures an Interpreter.
type Option = transform.Option

// NewInterpreter creates an interpreter executing on the given backend.
func NewInterpreter(backend tensor.Backend, opts ...Option) *Interpreter {
	return transform.NewInterpreter(backend, opts...)
}

// WithEvents makes the interpreter publish runtime events to reg.
func WithEvents(reg *monitor.Registry) Option {
	return transform.WithEvents(reg)
}

// WithParallel sets the worker configuration used by the vmap fallback loop.
func WithParallel(cfg parallel.Config) Option {
	return transform.WithParallel(cfg)
}

// Sentinel errors.
var (
	ErrNoActiveTransform    = transform.ErrNoActiveTransform
	ErrNoWrapper            = transform.ErrNoWrapper
	ErrVmapFallbackDisabled = transform.ErrVmapFallbackDisabled
)

// Value is a tensor as seen by the transform runtime.
type Value = transform.Value

// Plain is an unwrapped tensor value.
type Plain = transform.Plain

// Batched marks one dimension of a value as a vmap batch dimension.
type Batched = transform.Batched

// GradTracked wraps a value for differentiation at a transform level.
type GradTracked = transform.GradTracked

// Functional wraps a value for the functionalization pass.
type Functional = transform.Functional

// NewPlain wraps a raw tensor as a transform value.
func NewPlain(raw *tensor.RawTensor) *Plain {
	return transform.NewPlain(raw)
}

// Introspection helpers.

// IsBatched reports whether the outermost wrapper is a batch wrapper.
func IsBatched(v Value) bool { return transform.IsBatched(v) }

// IsGradTracked reports whether the outermost wrapper is a grad wrapper.
func IsGradTracked(v Value) bool { return transform.IsGradTracked(v) }

// IsFunctional reports whether the outermost wrapper is a functionalization
// wrapper.
func IsFunctional(v Value) bool { return transform.IsFunctional(v) }

// Unwrapped removes the outermost wrapper.
func Unwrapped(v Value) (Value, error) { return transform.Unwrapped(v) }

// MaybeLevel returns the transform level of the outermost wrapper, -1 for a
// plain value, or -2 for a grad wrapper without a level.
func MaybeLevel(v Value) int { return transform.MaybeLevel(v) }

// MaybeBatchDim returns the batch dimension of a batch wrapper, or -1.
func MaybeBatchDim(v Value) int { return transform.MaybeBatchDim(v) }

// DLevel reports the grad-wrapper level of v for debugging.
func DLevel(v Value) int { return transform.DLevel(v) }

// Dimension utilities.

// MoveDim moves the dimension at src to dst.
func MoveDim(b tensor.Backend, x *tensor.RawTensor, src, dst int) (*tensor.RawTensor, error) {
	return transform.MoveDim(b, x, src, dst)
}

// ReshapeDimInto collapses the dimension at src into the dimension at dst.
func ReshapeDimInto(b tensor.Backend, src, dst int, x *tensor.RawTensor) (*tensor.RawTensor, error) {
	return transform.ReshapeDimInto(b, src, dst, x)
}

// ReshapeDimOutOf splits the dimension at src into an outer dimension of
// size1 and an inner remainder dimension.
func ReshapeDimOutOf(b tensor.Backend, src, size1 int, x *tensor.RawTensor) (*tensor.RawTensor, error) {
	return transform.ReshapeDimOutOf(b, src, size1, x)
}

// WrapDimIndex normalizes a possibly negative dimension index against rank.
func WrapDimIndex(dim, rank int) (int, error) {
	return transform.WrapDimIndex(dim, rank)
}

// Drivers.

// VmapFunc is a function batched by Vmap.
type VmapFunc = transform.VmapFunc

// GradFunc is a function differentiated by Grad.
type GradFunc = transform.GradFunc

// Vmap maps f over a batch dimension of the inputs. See the runtime package
// for the fallback-loop semantics.
func Vmap(interp *Interpreter, f VmapFunc, inputs []Value, inDims []int, outDim int, r Randomness) (Value, error) {
	return transform.Vmap(interp, f, inputs, inDims, outDim, r)
}

// Grad computes the gradient of f at input. f must return a scalar.
func Grad(interp *Interpreter, f GradFunc, input Value) (Value, error) {
	return transform.Grad(interp, f, input)
}
