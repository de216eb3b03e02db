package optim

import (
	"math"

	"gonum.org/v1/gonum/floats"

	"github.com/born-ml/lookahead/internal/tensor"
)

// WeightDecay adds L2 regularisation to the gradient: dx = dx + decay * x.
type WeightDecay struct {
	decay float64
}

// NewWeightDecay creates a WeightDecay modifier. A zero decay is a no-op.
func NewWeightDecay(decay float64) *WeightDecay {
	return &WeightDecay{decay: decay}
}

// Name implements Optimizer.
func (w *WeightDecay) Name() string { return "WeightDecay" }

// Style implements Optimizer.
func (w *WeightDecay) Style() GradientStyle { return Stateless }

// Apply implements Optimizer.
func (w *WeightDecay) Apply(x, dx *tensor.Tensor) (*tensor.Tensor, error) {
	if err := checkGrad(w.Name(), x, dx); err != nil {
		return nil, err
	}
	floats.AddScaled(dx.Data(), w.decay, x.Data())
	return dx, nil
}

// ClipValue clamps every gradient element to [-threshold, threshold].
type ClipValue struct {
	threshold float64
}

// NewClipValue creates a ClipValue modifier.
func NewClipValue(threshold float64) *ClipValue {
	return &ClipValue{threshold: threshold}
}

// Name implements Optimizer.
func (c *ClipValue) Name() string { return "ClipValue" }

// Style implements Optimizer.
func (c *ClipValue) Style() GradientStyle { return Stateless }

// Apply implements Optimizer.
func (c *ClipValue) Apply(x, dx *tensor.Tensor) (*tensor.Tensor, error) {
	if err := checkGrad(c.Name(), x, dx); err != nil {
		return nil, err
	}
	d := dx.Data()
	for i, g := range d {
		d[i] = math.Max(-c.threshold, math.Min(g, c.threshold))
	}
	return dx, nil
}

// ClipNorm rescales the gradient so its L2 norm does not exceed threshold.
type ClipNorm struct {
	threshold float64
}

// NewClipNorm creates a ClipNorm modifier.
func NewClipNorm(threshold float64) *ClipNorm {
	return &ClipNorm{threshold: threshold}
}

// Name implements Optimizer.
func (c *ClipNorm) Name() string { return "ClipNorm" }

// Style implements Optimizer.
func (c *ClipNorm) Style() GradientStyle { return Stateless }

// Apply implements Optimizer.
func (c *ClipNorm) Apply(x, dx *tensor.Tensor) (*tensor.Tensor, error) {
	if err := checkGrad(c.Name(), x, dx); err != nil {
		return nil, err
	}
	if norm := floats.Norm(dx.Data(), 2); norm > c.threshold {
		floats.Scale(c.threshold/norm, dx.Data())
	}
	return dx, nil
}
