// Copyright 2026 Morphic ML Framework. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

// Package bind installs the functional-transform primitives into a
// host-callable module: a flat table mapping stable snake_case names to
// functions closed over an interpreter.
//
// The table is a packaging boundary, not a protocol: each entry's argument
// and return types are whatever the underlying interpreter operation
// declares, and the table adds no policy of its own.
package bind

import (
	"github.com/morphic-ml/morphic/tensor"
	"github.com/morphic-ml/morphic/transform"
)

// Module is the host-side sink for bound functions. Implementations adapt
// the table to whatever calling convention the embedding host uses.
type Module interface {
	Define(name, doc string, fn any)
}

// Func is one bound entry.
type Func struct {
	Name string
	Doc  string
	Fn   any
}

// MapModule is an in-process Module backed by a map, usable directly from Go.
type MapModule map[string]Func

// Define records the function under its name.
func (m MapModule) Define(name, doc string, fn any) {
	m[name] = Func{Name: name, Doc: doc, Fn: fn}
}

// Lookup returns the entry with the given name.
func (m MapModule) Lookup(name string) (Func, bool) {
	f, ok := m[name]
	return f, ok
}

// Install registers the transform primitive table on mod, with every entry
// bound to interp.
func Install(mod Module, interp *transform.Interpreter) {
	mod.Define("_add_batch_dim", "add batch dim",
		func(v transform.Value, bdim, level int) (transform.Value, error) {
			return interp.AddBatchDim(v, bdim, level)
		})
	mod.Define("_remove_batch_dim", "remove batch dim",
		func(v transform.Value, level, batchSize, outDim int) (transform.Value, error) {
			return interp.RemoveBatchDim(v, level, batchSize, outDim)
		})
	mod.Define("_wrap_functional_tensor", "add functional wrapper",
		func(v transform.Value, level int) (transform.Value, error) {
			return interp.WrapFunctional(v, level)
		})
	mod.Define("_assert_wrapped_functional", "assert wrapped functional",
		func(unwrapped, wrapped transform.Value) error {
			return interp.AssertWrappedFunctional(unwrapped, wrapped)
		})
	mod.Define("_propagate_functional_input_mutation", "propagate functional input mutations",
		func(unwrapped, wrapped transform.Value) error {
			return interp.PropagateInputMutation(unwrapped, wrapped)
		})
	mod.Define("_unwrap_functional_tensor", "remove functional wrapper",
		func(v transform.Value, reapplyViews bool) (transform.Value, error) {
			return interp.UnwrapFunctional(v, reapplyViews)
		})
	mod.Define("_vmap_increment_nesting", "push vmap layer",
		func(batchSize int, randomness string) (int, error) {
			r, err := transform.ParseRandomness(randomness)
			if err != nil {
				return 0, err
			}
			return interp.VmapIncrementNesting(batchSize, r)
		})
	mod.Define("_vmap_decrement_nesting", "pop vmap layer",
		func() (int, error) { return interp.VmapDecrementNesting() })
	mod.Define("_func_increment_nesting", "functionalization start",
		func(reapplyViews bool) int { return interp.FuncIncrementNesting(reapplyViews) })
	mod.Define("_func_decrement_nesting", "functionalization end",
		func() (int, error) { return interp.FuncDecrementNesting() })
	mod.Define("_grad_increment_nesting", "push grad layer",
		func() int { return interp.GradIncrementNesting() })
	mod.Define("_grad_decrement_nesting", "pop grad layer",
		func() (int, error) { return interp.GradDecrementNesting() })
	mod.Define("_jvp_increment_nesting", "push jvp layer",
		func() int { return interp.JvpIncrementNesting() })
	mod.Define("_jvp_decrement_nesting", "pop jvp layer",
		func() (int, error) { return interp.JvpDecrementNesting() })
	mod.Define("_wrap_for_grad", "wrap as grad-tracking value",
		func(v transform.Value, level int) (transform.Value, error) {
			return interp.WrapForGrad(v, level)
		})
	mod.Define("_unwrap_for_grad", "unwrap from grad-tracking value",
		func(v transform.Value, level int) transform.Value {
			return interp.UnwrapForGrad(v, level)
		})
	mod.Define("_set_vmap_fallback_warning_enabled", "set vmap fallback warnings",
		func(enabled bool) { interp.SetVmapFallbackWarningEnabled(enabled) })
	mod.Define("_set_vmap_fallback_enabled", "",
		func(enabled bool) { interp.SetVmapFallbackEnabled(enabled) })
	mod.Define("_is_vmap_fallback_enabled", "",
		func() bool { return interp.VmapFallbackEnabled() })
	mod.Define("dlevel", "dlevel",
		func(v transform.Value) int { return transform.DLevel(v) })
	mod.Define("reshape_dim_into", "",
		func(src, dst int, x *tensor.RawTensor) (*tensor.RawTensor, error) {
			return transform.ReshapeDimInto(interp.Backend(), src, dst, x)
		})
	mod.Define("reshape_dim_outof", "",
		func(src, size1 int, x *tensor.RawTensor) (*tensor.RawTensor, error) {
			return transform.ReshapeDimOutOf(interp.Backend(), src, size1, x)
		})
	mod.Define("are_transforms_active", "",
		func() bool { return interp.TransformsActive() })
	mod.Define("is_batchedtensor", "",
		func(v transform.Value) bool { return transform.IsBatched(v) })
	mod.Define("is_gradtrackingtensor", "",
		func(v transform.Value) bool { return transform.IsGradTracked(v) })
	mod.Define("is_functionaltensor", "",
		func(v transform.Value) bool { return transform.IsFunctional(v) })
	mod.Define("get_unwrapped", "",
		func(v transform.Value) (transform.Value, error) { return transform.Unwrapped(v) })
	mod.Define("maybe_get_level", "",
		func(v transform.Value) int { return transform.MaybeLevel(v) })
	mod.Define("maybe_get_bdim", "",
		func(v transform.Value) int { return transform.MaybeBatchDim(v) })
	mod.Define("current_level", "",
		func() (int, error) { return interp.CurrentLevel() })
	mod.Define("unwrap_batchedtensor", "",
		func(v transform.Value) (transform.Value, int, error) {
			return interp.UnwrapAtCurrentLevel(v)
		})
	mod.Define("dump_dls", "",
		func() string { return interp.DumpStack() })
	mod.Define("set_fwd_grad_enabled", "",
		func(enabled bool) { interp.SetFwdGradEnabled(enabled) })
	mod.Define("get_fwd_grad_enabled", "",
		func() bool { return interp.FwdGradEnabled() })
}
