// Copyright 2026 Morphic ML Framework. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

// Package cpu provides the pure Go CPU compute backend.
package cpu

import (
	internalcpu "github.com/morphic-ml/morphic/internal/backend/cpu"
	"github.com/morphic-ml/morphic/internal/parallel"
	"github.com/morphic-ml/morphic/tensor"
)

// Backend represents the CPU backend implementation.
//
// The CPU backend provides pure Go implementations of all tensor operations,
// with chunked multi-goroutine execution for large tensors.
type Backend = internalcpu.CPUBackend

// Compile-time check that Backend implements tensor.Backend.
var _ tensor.Backend = (*Backend)(nil)

// New creates a new CPU backend.
//
// Example:
//
//	import (
//	    "github.com/morphic-ml/morphic/backend/cpu"
//	    "github.com/morphic-ml/morphic/tensor"
//	)
//
//	func main() {
//	    backend := cpu.New()
//	    x := tensor.Zeros[float32](tensor.Shape{2, 3}, backend)
//	}
func New() *Backend {
	return internalcpu.New()
}

// Config controls worker-pool execution of tensor kernels.
type Config = parallel.Config

// NewWithParallel creates a CPU backend with an explicit worker configuration.
func NewWithParallel(cfg Config) *Backend {
	return internalcpu.NewWithParallel(cfg)
}
