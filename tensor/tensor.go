// Copyright 2025 Born ML Framework. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

// Package tensor provides the public API for the dense float64 tensors the
// optimizers operate on.
//
// The package defines:
//   - Tensor: identity-carrying dense tensor
//   - ID: tensor identity, the key of all per-parameter optimizer state
//   - Shape: tensor dimensions
//
// Example:
//
//	w := tensor.Vector(0.5, -1.0)
//	g := tensor.ZerosLike(w)
//	state[w.ID()] = g
package tensor

import (
	"github.com/born-ml/lookahead/internal/tensor"
)

// Type aliases for public API

// Tensor is a dense float64 tensor with a stable identity.
type Tensor = tensor.Tensor

// ID identifies a tensor for its whole lifetime. Clones get a new ID.
type ID = tensor.ID

// Shape represents the dimensions of a tensor.
// Example: Shape{2, 3, 4} represents a 3D tensor with dimensions 2×3×4.
type Shape = tensor.Shape

// ErrShapeMismatch is returned when two tensors must have equal shapes and don't.
var ErrShapeMismatch = tensor.ErrShapeMismatch

// Constructors

// New creates a zero-filled tensor.
func New(shape Shape) (*Tensor, error) {
	return tensor.New(shape)
}

// FromSlice creates a tensor over a copy of data.
func FromSlice(data []float64, shape Shape) (*Tensor, error) {
	return tensor.FromSlice(data, shape)
}

// Vector creates a 1-D tensor from its elements. Panics when data is empty.
func Vector(data ...float64) *Tensor {
	return tensor.Vector(data...)
}

// Full creates a tensor filled with value.
func Full(shape Shape, value float64) (*Tensor, error) {
	return tensor.Full(shape, value)
}

// ZerosLike creates a zero-filled tensor shaped like t.
func ZerosLike(t *Tensor) *Tensor {
	return tensor.ZerosLike(t)
}

// FullLike creates a tensor shaped like t filled with value.
func FullLike(t *Tensor, value float64) *Tensor {
	return tensor.FullLike(t, value)
}

// CheckSameShape returns an error wrapping ErrShapeMismatch unless a and b
// have equal shapes.
func CheckSameShape(a, b *Tensor) error {
	return tensor.CheckSameShape(a, b)
}
