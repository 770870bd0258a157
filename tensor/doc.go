// Copyright 2026 Morphic ML Framework. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

// Package tensor provides type-safe tensor operations for the Morphic runtime.
//
// # Overview
//
// Tensors are the fundamental data structure in Morphic. This package provides:
//   - Generic type-safe tensors (Tensor[T, B])
//   - NumPy-style broadcasting
//   - Zero-copy operations where possible
//   - Device abstraction (CPU today, GPU backends planned)
//
// # Basic Usage
//
//	import (
//	    "github.com/morphic-ml/morphic/backend/cpu"
//	    "github.com/morphic-ml/morphic/tensor"
//	)
//
//	func main() {
//	    backend := cpu.New()
//
//	    // Create tensors
//	    x := tensor.Zeros[float32](tensor.Shape{2, 3}, backend)
//	    y := tensor.Ones[float32](tensor.Shape{2, 3}, backend)
//
//	    // Tensor operations
//	    z := x.Add(y)
//	    result := x.MatMul(y.T())
//	}
//
// # Supported Data Types
//
// The tensor package supports the following data types via the DType constraint:
//   - float32, float64 (floating-point)
//   - int32, int64 (signed integers)
//   - uint8 (unsigned integers, useful for images)
//   - bool (boolean masks)
//
// # Broadcasting
//
// Tensor operations follow NumPy broadcasting rules:
//
//	a := tensor.Zeros[float32](tensor.Shape{3, 1}, backend)     // (3, 1)
//	b := tensor.Ones[float32](tensor.Shape{3, 4}, backend)      // (3, 4)
//	c := a.Add(b)                                                // (3, 4)
//
// # Memory Management
//
// Tensors use zero-copy operations where possible. The underlying data is
// reference-counted and automatically freed when no longer needed.
//
// # Available Operations
//
// Tensor[T, B] provides type-safe operations in four groups.
//
// Scalar operations:
//
//	y := x.MulScalar(2.0)    // Multiply by scalar
//	y := x.AddScalar(1.0)    // Add scalar
//	y := x.SubScalar(0.5)    // Subtract scalar
//	y := x.DivScalar(2.0)    // Divide by scalar
//
// Math operations:
//
//	y := x.Exp()             // Exponential
//	y := x.Log()             // Natural logarithm
//	y := x.Sqrt()            // Square root
//	y := x.Neg()             // Negation
//
// Shape operations:
//
//	y := x.Reshape(6)            // Change shape, same data
//	y := x.Transpose(1, 0)       // Permute axes
//	y := x.Unsqueeze(0)          // Insert size-1 dim
//	y := x.Narrow(0, 1, 2)       // Slice along a dim
//
// Type conversion:
//
//	i := x.Int32()           // Convert to int32
//	f := x.Float64()         // Convert to float64
//
// See method documentation for the full list of operations.
package tensor
