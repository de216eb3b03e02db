package optim

import (
	"strings"

	"github.com/pkg/errors"

	"github.com/born-ml/lookahead/internal/tensor"
)

// Chain applies a sequence of optimizers and modifiers to the same gradient,
// in order.
//
// The Chain holds no state of its own; every Stateful member keeps its own
// Store. A Chain is Stateful if any member is.
//
// Example:
//
//	opt := optim.NewChain(
//	    optim.NewClipNorm(1.0),
//	    optim.NewMomentum(optim.MomentumConfig{LR: 0.01}),
//	    optim.NewWeightDecay(1e-4),
//	)
type Chain struct {
	steps []Optimizer
}

// NewChain creates a Chain over steps.
func NewChain(steps ...Optimizer) *Chain {
	return &Chain{steps: append([]Optimizer(nil), steps...)}
}

// Steps returns the members in application order.
func (c *Chain) Steps() []Optimizer {
	return append([]Optimizer(nil), c.steps...)
}

// Name implements Optimizer.
func (c *Chain) Name() string {
	names := make([]string, len(c.steps))
	for i, s := range c.steps {
		names[i] = s.Name()
	}
	return "Chain(" + strings.Join(names, ", ") + ")"
}

// Style folds member styles; Stateful dominates.
func (c *Chain) Style() GradientStyle {
	out := Stateless
	for _, s := range c.steps {
		out = out.Merge(Classify(s))
	}
	return out
}

// Apply feeds dx through every member in order and returns the final gradient.
func (c *Chain) Apply(x, dx *tensor.Tensor) (*tensor.Tensor, error) {
	var err error
	for i, s := range c.steps {
		dx, err = s.Apply(x, dx)
		if err != nil {
			return nil, errors.WithMessagef(err, "chain step %d (%s)", i, s.Name())
		}
	}
	return dx, nil
}

// State returns the state entries of the Stateful members for x, in order.
func (c *Chain) State(x *tensor.Tensor) any {
	var entries []any
	for _, s := range c.statefulSteps() {
		if h, ok := s.(StateHolder); ok {
			entries = append(entries, h.State(x))
		}
	}
	return entries
}

// ResetState resets the state of every Stateful member for x.
func (c *Chain) ResetState(x *tensor.Tensor) error {
	for _, s := range c.statefulSteps() {
		if err := ResetState(s, x); err != nil {
			return errors.WithMessagef(err, "chain member %s", s.Name())
		}
	}
	return nil
}

// MomentumBuffers concatenates the momentum buffers of the Stateful members.
func (c *Chain) MomentumBuffers(x *tensor.Tensor) ([]*tensor.Tensor, error) {
	var bufs []*tensor.Tensor
	for _, s := range c.statefulSteps() {
		b, err := MomentumBuffers(s, x)
		if err != nil {
			return nil, errors.WithMessagef(err, "chain member %s", s.Name())
		}
		bufs = append(bufs, b...)
	}
	return bufs, nil
}

func (c *Chain) statefulSteps() []Optimizer {
	var out []Optimizer
	for _, s := range c.steps {
		if IsStateful(s) {
			out = append(out, s)
		}
	}
	return out
}
