// Package optim implements the state-management core of the optimizers used
// by the training loop.
//
// This package provides:
//   - Optimizer interface: per-parameter gradient transform with an explicit
//     GradientStyle (Stateful or Stateless)
//   - Store: identity-keyed, lazily initialised per-parameter state
//   - Base optimizers: Descent, Momentum, Nesterov, RMSProp, AdaGrad,
//     AdaDelta, Adam, RAdam, AMSGrad and the stateless modifiers
//   - Chain: sequential composition of optimizers and modifiers
//   - Lookahead: slow/fast weight meta-optimizer with pluggable sync policies
//   - Updater: applies an optimizer to a parameter set, one step at a time
//
// Apply transforms the gradient in place and returns the update direction.
// The caller subtracts it from the parameter:
//
//	dx, err := opt.Apply(x, grad)
//	if err != nil {
//	    return err
//	}
//	floats.Sub(x.Data(), dx.Data())
package optim

import (
	"github.com/pkg/errors"

	"github.com/born-ml/lookahead/internal/tensor"
)

// Optimizer is the base interface for all optimization rules.
//
// All optimizers must implement:
//   - Name: human-readable identifier used in errors and logs
//   - Style: the declared GradientStyle of the variant
//   - Apply: transform dx in place for parameter x and return the update
type Optimizer interface {
	// Name returns a short identifier, e.g. "Momentum" or "Chain(Adam, WeightDecay)".
	Name() string

	// Style reports whether the variant carries per-parameter state.
	//
	// It depends only on the variant (and, for composites, on the variants of
	// its members), never on what has been applied so far.
	Style() GradientStyle

	// Apply transforms the gradient dx for parameter x.
	//
	// dx is modified in place and returned. x is read but never written.
	// Stateful variants create their state for x on first use.
	Apply(x, dx *tensor.Tensor) (*tensor.Tensor, error)
}

// StateHolder exposes a variant's state entry for a parameter.
//
// State returns the entry for x, creating it on first access. The returned
// value is a pointer; mutations are visible on later lookups.
type StateHolder interface {
	State(x *tensor.Tensor) any
}

// StateResetter reinitialises the state entry for a parameter in place.
type StateResetter interface {
	ResetState(x *tensor.Tensor) error
}

// MomentumHolder exposes the momentum-like buffers of a parameter's state.
//
// Scalar bookkeeping (bias-correction powers, step counters) is excluded.
type MomentumHolder interface {
	MomentumBuffers(x *tensor.Tensor) ([]*tensor.Tensor, error)
}

// StatefulOptimizer is implemented by every variant whose Style is Stateful.
type StatefulOptimizer interface {
	Optimizer
	StateHolder
	StateResetter
	MomentumHolder
}

// GetState returns the state entry of opt for parameter x.
//
// Fails with *StatelessAccessError when opt is classified Stateless.
func GetState(opt Optimizer, x *tensor.Tensor) (any, error) {
	h, err := statefulAs[StateHolder](opt, "get state")
	if err != nil {
		return nil, err
	}
	return h.State(x), nil
}

// ResetState reinitialises the state entry of opt for parameter x.
//
// Fails with *StatelessAccessError when opt is classified Stateless.
func ResetState(opt Optimizer, x *tensor.Tensor) error {
	r, err := statefulAs[StateResetter](opt, "reset state")
	if err != nil {
		return err
	}
	return r.ResetState(x)
}

// MomentumBuffers returns the momentum buffers of opt for parameter x.
//
// Fails with *StatelessAccessError when opt is classified Stateless.
func MomentumBuffers(opt Optimizer, x *tensor.Tensor) ([]*tensor.Tensor, error) {
	m, err := statefulAs[MomentumHolder](opt, "momentum buffers")
	if err != nil {
		return nil, err
	}
	return m.MomentumBuffers(x)
}

// statefulAs guards every state accessor: the declared style decides, the
// interface assertion only locates the implementation.
func statefulAs[T any](opt Optimizer, op string) (T, error) {
	var zero T
	if !IsStateful(opt) {
		return zero, &StatelessAccessError{Optimizer: opt.Name(), Op: op}
	}
	impl, ok := opt.(T)
	if !ok {
		return zero, errors.WithMessagef(ErrStatelessAccess,
			"%s: %s is classified Stateful but does not expose its state", op, opt.Name())
	}
	return impl, nil
}

// checkGrad verifies that the gradient is shaped like its parameter.
func checkGrad(name string, x, dx *tensor.Tensor) error {
	if err := tensor.CheckSameShape(x, dx); err != nil {
		return errors.WithMessagef(err, "%s: gradient does not match parameter", name)
	}
	return nil
}
