package optim

import (
	"math"

	"github.com/born-ml/lookahead/internal/tensor"
)

// defaultEps is the numerical-stability term shared by the adaptive rules.
const defaultEps = 1e-8

// AccumulatorState is the per-parameter state of RMSProp and AdaGrad.
type AccumulatorState struct {
	Acc *tensor.Tensor
}

// RMSProp scales the gradient by a moving average of its square.
//
// Update rule:
//
//	acc = rho * acc + (1 - rho) * dx²
//	dx = lr * dx / (sqrt(acc) + eps)
type RMSProp struct {
	lr    float64
	rho   float64
	eps   float64
	state *Store[*AccumulatorState]
}

// RMSPropConfig holds configuration for RMSProp. Zero fields take their
// defaults, so Rho cannot be set to 0.
type RMSPropConfig struct {
	LR  float64 // Learning rate (default: 0.001)
	Rho float64 // Decay of the squared-gradient average (default: 0.9)
	Eps float64 // Term for numerical stability (default: 1e-8)
}

// NewRMSProp creates an RMSProp optimizer.
func NewRMSProp(config RMSPropConfig) *RMSProp {
	if config.LR == 0 {
		config.LR = 0.001
	}
	if config.Rho == 0 {
		config.Rho = 0.9
	}
	if config.Eps == 0 {
		config.Eps = defaultEps
	}
	return &RMSProp{
		lr:  config.LR,
		rho: config.Rho,
		eps: config.Eps,
		state: NewStore(func(x *tensor.Tensor) *AccumulatorState {
			return &AccumulatorState{Acc: tensor.ZerosLike(x)}
		}),
	}
}

// Name implements Optimizer.
func (r *RMSProp) Name() string { return "RMSProp" }

// Style implements Optimizer.
func (r *RMSProp) Style() GradientStyle { return Stateful }

// Apply implements Optimizer.
func (r *RMSProp) Apply(x, dx *tensor.Tensor) (*tensor.Tensor, error) {
	if err := checkGrad(r.Name(), x, dx); err != nil {
		return nil, err
	}

	acc := r.state.Get(x).Acc.Data()
	d := dx.Data()
	for i, g := range d {
		acc[i] = r.rho*acc[i] + (1-r.rho)*g*g
		d[i] = g * r.lr / (math.Sqrt(acc[i]) + r.eps)
	}
	return dx, nil
}

// State implements StateHolder. Returns *AccumulatorState.
func (r *RMSProp) State(x *tensor.Tensor) any {
	return r.state.Get(x)
}

// ResetState zeroes the accumulator of x.
func (r *RMSProp) ResetState(x *tensor.Tensor) error {
	r.state.Get(x).Acc.Zero()
	return nil
}

// MomentumBuffers returns the accumulator of x.
func (r *RMSProp) MomentumBuffers(x *tensor.Tensor) ([]*tensor.Tensor, error) {
	return []*tensor.Tensor{r.state.Get(x).Acc}, nil
}

// AdaGrad scales the gradient by the root of its accumulated square.
//
// Update rule:
//
//	acc = acc + dx²
//	dx = lr * dx / (sqrt(acc) + eps)
//
// The accumulator starts at eps, not zero, and reset restores that floor.
type AdaGrad struct {
	lr    float64
	eps   float64
	state *Store[*AccumulatorState]
}

// AdaGradConfig holds configuration for AdaGrad. Zero fields take their
// defaults.
type AdaGradConfig struct {
	LR  float64 // Learning rate (default: 0.1)
	Eps float64 // Accumulator floor and stability term (default: 1e-8)
}

// NewAdaGrad creates an AdaGrad optimizer.
func NewAdaGrad(config AdaGradConfig) *AdaGrad {
	if config.LR == 0 {
		config.LR = 0.1
	}
	if config.Eps == 0 {
		config.Eps = defaultEps
	}
	a := &AdaGrad{lr: config.LR, eps: config.Eps}
	a.state = NewStore(func(x *tensor.Tensor) *AccumulatorState {
		return &AccumulatorState{Acc: tensor.FullLike(x, a.eps)}
	})
	return a
}

// Name implements Optimizer.
func (a *AdaGrad) Name() string { return "AdaGrad" }

// Style implements Optimizer.
func (a *AdaGrad) Style() GradientStyle { return Stateful }

// Apply implements Optimizer.
func (a *AdaGrad) Apply(x, dx *tensor.Tensor) (*tensor.Tensor, error) {
	if err := checkGrad(a.Name(), x, dx); err != nil {
		return nil, err
	}

	acc := a.state.Get(x).Acc.Data()
	d := dx.Data()
	for i, g := range d {
		acc[i] += g * g
		d[i] = g * a.lr / (math.Sqrt(acc[i]) + a.eps)
	}
	return dx, nil
}

// State implements StateHolder. Returns *AccumulatorState.
func (a *AdaGrad) State(x *tensor.Tensor) any {
	return a.state.Get(x)
}

// ResetState refills the accumulator of x with eps.
func (a *AdaGrad) ResetState(x *tensor.Tensor) error {
	a.state.Get(x).Acc.Fill(a.eps)
	return nil
}

// MomentumBuffers returns the accumulator of x.
func (a *AdaGrad) MomentumBuffers(x *tensor.Tensor) ([]*tensor.Tensor, error) {
	return []*tensor.Tensor{a.state.Get(x).Acc}, nil
}

// AdaDeltaState is the per-parameter state of AdaDelta.
type AdaDeltaState struct {
	Acc      *tensor.Tensor // Moving average of squared gradients
	DeltaAcc *tensor.Tensor // Moving average of squared updates
}

// AdaDelta adapts the step size from moving averages of squared gradients and
// squared updates; it has no learning rate.
//
// Update rule:
//
//	acc = rho * acc + (1 - rho) * dx²
//	dx = dx * sqrt(deltaAcc + eps) / sqrt(acc + eps)
//	deltaAcc = rho * deltaAcc + (1 - rho) * dx²
type AdaDelta struct {
	rho   float64
	eps   float64
	state *Store[*AdaDeltaState]
}

// AdaDeltaConfig holds configuration for AdaDelta. Zero fields take their
// defaults, so Rho cannot be set to 0.
type AdaDeltaConfig struct {
	Rho float64 // Decay of both averages (default: 0.9)
	Eps float64 // Term for numerical stability (default: 1e-8)
}

// NewAdaDelta creates an AdaDelta optimizer.
func NewAdaDelta(config AdaDeltaConfig) *AdaDelta {
	if config.Rho == 0 {
		config.Rho = 0.9
	}
	if config.Eps == 0 {
		config.Eps = defaultEps
	}
	return &AdaDelta{
		rho: config.Rho,
		eps: config.Eps,
		state: NewStore(func(x *tensor.Tensor) *AdaDeltaState {
			return &AdaDeltaState{Acc: tensor.ZerosLike(x), DeltaAcc: tensor.ZerosLike(x)}
		}),
	}
}

// Name implements Optimizer.
func (a *AdaDelta) Name() string { return "AdaDelta" }

// Style implements Optimizer.
func (a *AdaDelta) Style() GradientStyle { return Stateful }

// Apply implements Optimizer.
func (a *AdaDelta) Apply(x, dx *tensor.Tensor) (*tensor.Tensor, error) {
	if err := checkGrad(a.Name(), x, dx); err != nil {
		return nil, err
	}

	st := a.state.Get(x)
	acc, dacc := st.Acc.Data(), st.DeltaAcc.Data()
	d := dx.Data()
	for i, g := range d {
		acc[i] = a.rho*acc[i] + (1-a.rho)*g*g
		u := g * math.Sqrt(dacc[i]+a.eps) / math.Sqrt(acc[i]+a.eps)
		dacc[i] = a.rho*dacc[i] + (1-a.rho)*u*u
		d[i] = u
	}
	return dx, nil
}

// State implements StateHolder. Returns *AdaDeltaState.
func (a *AdaDelta) State(x *tensor.Tensor) any {
	return a.state.Get(x)
}

// ResetState zeroes both accumulators of x.
func (a *AdaDelta) ResetState(x *tensor.Tensor) error {
	st := a.state.Get(x)
	st.Acc.Zero()
	st.DeltaAcc.Zero()
	return nil
}

// MomentumBuffers returns both accumulators of x.
func (a *AdaDelta) MomentumBuffers(x *tensor.Tensor) ([]*tensor.Tensor, error) {
	st := a.state.Get(x)
	return []*tensor.Tensor{st.Acc, st.DeltaAcc}, nil
}
