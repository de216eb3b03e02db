package optim

import (
	"gonum.org/v1/gonum/floats"

	"github.com/born-ml/lookahead/internal/tensor"
)

// Descent is plain gradient descent.
//
// Update rule:
//
//	dx = lr * dx
//
// Descent keeps no state.
type Descent struct {
	lr float64
}

// DescentConfig holds configuration for Descent. A zero LR takes the default.
type DescentConfig struct {
	LR float64 // Learning rate (default: 0.1)
}

// NewDescent creates a Descent optimizer.
func NewDescent(config DescentConfig) *Descent {
	if config.LR == 0 {
		config.LR = 0.1
	}
	return &Descent{lr: config.LR}
}

// Name implements Optimizer.
func (d *Descent) Name() string { return "Descent" }

// Style implements Optimizer.
func (d *Descent) Style() GradientStyle { return Stateless }

// Apply scales dx by the learning rate.
func (d *Descent) Apply(x, dx *tensor.Tensor) (*tensor.Tensor, error) {
	if err := checkGrad(d.Name(), x, dx); err != nil {
		return nil, err
	}
	floats.Scale(d.lr, dx.Data())
	return dx, nil
}

// GetLR returns the current learning rate.
func (d *Descent) GetLR() float64 {
	return d.lr
}

// SetLR updates the learning rate.
//
// Useful for learning rate scheduling during training.
func (d *Descent) SetLR(lr float64) {
	d.lr = lr
}

// VelocityState is the per-parameter state of Momentum and Nesterov.
type VelocityState struct {
	Velocity *tensor.Tensor
}

func newVelocityState(x *tensor.Tensor) *VelocityState {
	return &VelocityState{Velocity: tensor.ZerosLike(x)}
}

// Momentum implements gradient descent with classical momentum.
//
// Update rule:
//
//	velocity = rho * velocity + lr * dx
//	dx = velocity
//
// Momentum helps accelerate descent in relevant directions and dampens
// oscillations.
//
// Example:
//
//	opt := optim.NewMomentum(optim.MomentumConfig{
//	    LR:  0.01,
//	    Rho: 0.9,
//	})
type Momentum struct {
	lr    float64
	rho   float64
	state *Store[*VelocityState]
}

// MomentumConfig holds configuration for Momentum and Nesterov.
//
// Zero fields take their defaults, so Rho cannot be set to 0; use Descent
// for an update without momentum.
type MomentumConfig struct {
	LR  float64 // Learning rate (default: 0.01 for Momentum, 0.001 for Nesterov)
	Rho float64 // Momentum factor (default: 0.9)
}

// NewMomentum creates a Momentum optimizer.
func NewMomentum(config MomentumConfig) *Momentum {
	if config.LR == 0 {
		config.LR = 0.01
	}
	if config.Rho == 0 {
		config.Rho = 0.9
	}
	return &Momentum{
		lr:    config.LR,
		rho:   config.Rho,
		state: NewStore(newVelocityState),
	}
}

// Name implements Optimizer.
func (m *Momentum) Name() string { return "Momentum" }

// Style implements Optimizer.
func (m *Momentum) Style() GradientStyle { return Stateful }

// Apply updates the velocity of x and replaces dx with it.
func (m *Momentum) Apply(x, dx *tensor.Tensor) (*tensor.Tensor, error) {
	if err := checkGrad(m.Name(), x, dx); err != nil {
		return nil, err
	}

	v := m.state.Get(x).Velocity.Data()
	floats.Scale(m.rho, v)
	floats.AddScaled(v, m.lr, dx.Data())
	copy(dx.Data(), v)
	return dx, nil
}

// State implements StateHolder. Returns *VelocityState.
func (m *Momentum) State(x *tensor.Tensor) any {
	return m.state.Get(x)
}

// ResetState zeroes the velocity of x.
func (m *Momentum) ResetState(x *tensor.Tensor) error {
	m.state.Get(x).Velocity.Zero()
	return nil
}

// MomentumBuffers returns the velocity of x.
func (m *Momentum) MomentumBuffers(x *tensor.Tensor) ([]*tensor.Tensor, error) {
	return []*tensor.Tensor{m.state.Get(x).Velocity}, nil
}

// GetLR returns the current learning rate.
func (m *Momentum) GetLR() float64 {
	return m.lr
}

// SetLR updates the learning rate.
func (m *Momentum) SetLR(lr float64) {
	m.lr = lr
}

// Nesterov implements gradient descent with Nesterov accelerated momentum.
//
// Update rule (velocity read before it is updated):
//
//	d = rho² * velocity + (1 + rho) * lr * dx
//	velocity = rho * velocity + lr * dx
//	dx = d
type Nesterov struct {
	lr    float64
	rho   float64
	state *Store[*VelocityState]
}

// NewNesterov creates a Nesterov optimizer.
func NewNesterov(config MomentumConfig) *Nesterov {
	if config.LR == 0 {
		config.LR = 0.001
	}
	if config.Rho == 0 {
		config.Rho = 0.9
	}
	return &Nesterov{
		lr:    config.LR,
		rho:   config.Rho,
		state: NewStore(newVelocityState),
	}
}

// Name implements Optimizer.
func (n *Nesterov) Name() string { return "Nesterov" }

// Style implements Optimizer.
func (n *Nesterov) Style() GradientStyle { return Stateful }

// Apply performs the look-ahead momentum update for x.
func (n *Nesterov) Apply(x, dx *tensor.Tensor) (*tensor.Tensor, error) {
	if err := checkGrad(n.Name(), x, dx); err != nil {
		return nil, err
	}

	v := n.state.Get(x).Velocity.Data()
	d := dx.Data()
	for i, g := range d {
		prev := v[i]
		v[i] = n.rho*prev + n.lr*g
		d[i] = n.rho*n.rho*prev + (1+n.rho)*n.lr*g
	}
	return dx, nil
}

// State implements StateHolder. Returns *VelocityState.
func (n *Nesterov) State(x *tensor.Tensor) any {
	return n.state.Get(x)
}

// ResetState zeroes the velocity of x.
func (n *Nesterov) ResetState(x *tensor.Tensor) error {
	n.state.Get(x).Velocity.Zero()
	return nil
}

// MomentumBuffers returns the velocity of x.
func (n *Nesterov) MomentumBuffers(x *tensor.Tensor) ([]*tensor.Tensor, error) {
	return []*tensor.Tensor{n.state.Get(x).Velocity}, nil
}
