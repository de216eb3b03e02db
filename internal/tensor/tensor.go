// Package tensor provides the identity-carrying numeric buffers that the
// optimizers operate on.
//
// A Tensor is a contiguous float64 array plus a shape and an opaque ID issued
// once at construction. Optimizer state is keyed by that ID, never by content:
// two tensors holding equal values are different keys.
package tensor

import (
	"errors"
	"fmt"

	"github.com/google/uuid"
)

// ErrShapeMismatch is returned when two tensors that must agree in shape do not.
var ErrShapeMismatch = errors.New("tensor shape mismatch")

// ID is the stable identity handle of a tensor.
type ID = uuid.UUID

// Tensor is a mutable float64 array with a stable identity.
//
// All mutating methods work in place; the ID never changes over the lifetime
// of the tensor. Use Clone to obtain an independent copy with a fresh ID.
type Tensor struct {
	id    ID
	shape Shape
	data  []float64
}

func newTensor(shape Shape, data []float64) *Tensor {
	return &Tensor{
		id:    uuid.New(),
		shape: shape.Clone(),
		data:  data,
	}
}

// ID returns the tensor's identity handle.
func (t *Tensor) ID() ID {
	return t.id
}

// Shape returns the tensor's shape.
func (t *Tensor) Shape() Shape {
	return t.shape
}

// Len returns the number of elements.
func (t *Tensor) Len() int {
	return len(t.data)
}

// Data returns the underlying storage. Writes are visible through the tensor.
func (t *Tensor) Data() []float64 {
	return t.data
}

// Item returns the single element of a one-element tensor.
func (t *Tensor) Item() float64 {
	if len(t.data) != 1 {
		panic(fmt.Sprintf("Item called on tensor with %d elements", len(t.data)))
	}
	return t.data[0]
}

// Clone returns a deep copy with a new identity.
func (t *Tensor) Clone() *Tensor {
	data := make([]float64, len(t.data))
	copy(data, t.data)
	return newTensor(t.shape, data)
}

// CopyFrom overwrites t's contents with src's. Shapes must match.
func (t *Tensor) CopyFrom(src *Tensor) error {
	if err := CheckSameShape(t, src); err != nil {
		return err
	}
	copy(t.data, src.data)
	return nil
}

// Fill sets every element to v.
func (t *Tensor) Fill(v float64) {
	for i := range t.data {
		t.data[i] = v
	}
}

// Zero sets every element to 0.
func (t *Tensor) Zero() {
	clear(t.data)
}

// String returns a short human-readable form.
func (t *Tensor) String() string {
	const maxShown = 8
	if len(t.data) <= maxShown {
		return fmt.Sprintf("Tensor%v%v", t.shape, t.data)
	}
	return fmt.Sprintf("Tensor%v%v...", t.shape, t.data[:maxShown])
}

// CheckSameShape returns ErrShapeMismatch (wrapped with both shapes) when a
// and b differ in shape.
func CheckSameShape(a, b *Tensor) error {
	if !a.shape.Equal(b.shape) {
		return fmt.Errorf("%w: %v vs %v", ErrShapeMismatch, a.shape, b.shape)
	}
	return nil
}
