package tensor

import "fmt"

// New creates a zero-filled tensor.
//
// Example:
//
//	t, err := tensor.New(tensor.Shape{3, 4})
func New(shape Shape) (*Tensor, error) {
	if err := shape.Validate(); err != nil {
		return nil, fmt.Errorf("invalid shape: %w", err)
	}
	return newTensor(shape, make([]float64, shape.NumElements())), nil
}

// FromSlice creates a tensor from a Go slice.
// The slice is copied into the tensor's memory.
func FromSlice(data []float64, shape Shape) (*Tensor, error) {
	if err := shape.Validate(); err != nil {
		return nil, fmt.Errorf("invalid shape: %w", err)
	}
	if shape.NumElements() != len(data) {
		return nil, fmt.Errorf("shape %v requires %d elements, but got %d", shape, shape.NumElements(), len(data))
	}
	buf := make([]float64, len(data))
	copy(buf, data)
	return newTensor(shape, buf), nil
}

// Vector is FromSlice for a 1-D tensor shaped like data. It panics on an
// empty slice.
func Vector(data ...float64) *Tensor {
	t, err := FromSlice(data, Shape{len(data)})
	if err != nil {
		panic(err)
	}
	return t
}

// Full creates a tensor filled with a specific value.
func Full(shape Shape, value float64) (*Tensor, error) {
	t, err := New(shape)
	if err != nil {
		return nil, err
	}
	t.Fill(value)
	return t, nil
}

// ZerosLike returns a zero-filled tensor with t's shape and a new identity.
func ZerosLike(t *Tensor) *Tensor {
	return newTensor(t.shape, make([]float64, len(t.data)))
}

// FullLike returns a tensor with t's shape filled with value.
func FullLike(t *Tensor, value float64) *Tensor {
	out := ZerosLike(t)
	out.Fill(value)
	return out
}
