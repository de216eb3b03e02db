package optim

import (
	"math"

	"github.com/born-ml/lookahead/internal/tensor"
)

// AdamState is the per-parameter state of Adam.
//
// BetaPow holds beta1^t and beta2^t for bias correction. It starts at the
// betas themselves and is advanced after every update of the parameter.
type AdamState struct {
	M       *tensor.Tensor // First moment estimate
	V       *tensor.Tensor // Second moment estimate
	BetaPow [2]float64
}

func (s *AdamState) reset(betas [2]float64) {
	s.M.Zero()
	s.V.Zero()
	s.BetaPow = betas
}

// Adam implements the Adam (Adaptive Moment Estimation) optimizer.
//
// Update rule:
//
//	m = beta1 * m + (1 - beta1) * dx
//	v = beta2 * v + (1 - beta2) * dx²
//	dx = lr * (m / (1 - beta1^t)) / (sqrt(v / (1 - beta2^t)) + eps)
//
// Bias-correction powers are kept per parameter, so parameters first seen at
// different steps are corrected independently.
//
// Reference: "Adam: A Method for Stochastic Optimization" (Kingma & Ba, 2014)
//
// Example:
//
//	opt := optim.NewAdam(optim.AdamConfig{
//	    LR:    0.001,
//	    Betas: [2]float64{0.9, 0.999},
//	    Eps:   1e-8,
//	})
type Adam struct {
	lr    float64
	betas [2]float64
	eps   float64
	state *Store[*AdamState]
}

// AdamConfig holds configuration for Adam, RAdam and AMSGrad.
//
// Zero fields take their defaults, each beta independently: a zero beta
// cannot be requested, and Betas{0, 0.99} means {0.9, 0.99}.
type AdamConfig struct {
	LR    float64    // Learning rate (default: 0.001)
	Betas [2]float64 // Coefficients for computing running averages (default: [0.9, 0.999])
	Eps   float64    // Term for numerical stability (default: 1e-8)
}

func (c AdamConfig) withDefaults() AdamConfig {
	if c.LR == 0 {
		c.LR = 0.001
	}
	if c.Betas[0] == 0 {
		c.Betas[0] = 0.9
	}
	if c.Betas[1] == 0 {
		c.Betas[1] = 0.999
	}
	if c.Eps == 0 {
		c.Eps = defaultEps
	}
	return c
}

// NewAdam creates a new Adam optimizer.
//
// Default hyperparameters:
//   - LR: 0.001
//   - Beta1: 0.9
//   - Beta2: 0.999
//   - Eps: 1e-8
func NewAdam(config AdamConfig) *Adam {
	config = config.withDefaults()
	return &Adam{
		lr:    config.LR,
		betas: config.Betas,
		eps:   config.Eps,
		state: NewStore(func(x *tensor.Tensor) *AdamState {
			return &AdamState{
				M:       tensor.ZerosLike(x),
				V:       tensor.ZerosLike(x),
				BetaPow: config.Betas,
			}
		}),
	}
}

// Name implements Optimizer.
func (a *Adam) Name() string { return "Adam" }

// Style implements Optimizer.
func (a *Adam) Style() GradientStyle { return Stateful }

// Apply implements Optimizer.
func (a *Adam) Apply(x, dx *tensor.Tensor) (*tensor.Tensor, error) {
	if err := checkGrad(a.Name(), x, dx); err != nil {
		return nil, err
	}

	st := a.state.Get(x)
	updateMoments(st, a.betas, dx)

	biasCorrection1 := 1 - st.BetaPow[0]
	biasCorrection2 := 1 - st.BetaPow[1]
	m, v, d := st.M.Data(), st.V.Data(), dx.Data()
	for i := range d {
		d[i] = a.lr * (m[i] / biasCorrection1) / (math.Sqrt(v[i]/biasCorrection2) + a.eps)
	}

	st.BetaPow[0] *= a.betas[0]
	st.BetaPow[1] *= a.betas[1]
	return dx, nil
}

// State implements StateHolder. Returns *AdamState.
func (a *Adam) State(x *tensor.Tensor) any {
	return a.state.Get(x)
}

// ResetState zeroes both moments of x and restarts bias correction.
func (a *Adam) ResetState(x *tensor.Tensor) error {
	a.state.Get(x).reset(a.betas)
	return nil
}

// MomentumBuffers returns the first and second moments of x.
func (a *Adam) MomentumBuffers(x *tensor.Tensor) ([]*tensor.Tensor, error) {
	st := a.state.Get(x)
	return []*tensor.Tensor{st.M, st.V}, nil
}

// GetLR returns the current learning rate.
func (a *Adam) GetLR() float64 {
	return a.lr
}

// SetLR updates the learning rate.
func (a *Adam) SetLR(lr float64) {
	a.lr = lr
}

// updateMoments advances the biased first and second moment estimates.
func updateMoments(st *AdamState, betas [2]float64, dx *tensor.Tensor) {
	m, v := st.M.Data(), st.V.Data()
	for i, g := range dx.Data() {
		m[i] = betas[0]*m[i] + (1-betas[0])*g
		v[i] = betas[1]*v[i] + (1-betas[1])*g*g
	}
}

// RAdamState is the per-parameter state of RAdam.
type RAdamState struct {
	AdamState
	Step int // Updates applied so far plus one
}

// RAdam is Adam with variance rectification.
//
// While the approximated SMA length rho_t is at most 4 the adaptive term is
// skipped and the update is the bias-corrected first moment alone.
//
// Reference: "On the Variance of the Adaptive Learning Rate and Beyond"
// (Liu et al., 2019)
type RAdam struct {
	lr    float64
	betas [2]float64
	eps   float64
	state *Store[*RAdamState]
}

// NewRAdam creates an RAdam optimizer. Defaults match NewAdam.
func NewRAdam(config AdamConfig) *RAdam {
	config = config.withDefaults()
	return &RAdam{
		lr:    config.LR,
		betas: config.Betas,
		eps:   config.Eps,
		state: NewStore(func(x *tensor.Tensor) *RAdamState {
			return &RAdamState{
				AdamState: AdamState{
					M:       tensor.ZerosLike(x),
					V:       tensor.ZerosLike(x),
					BetaPow: config.Betas,
				},
				Step: 1,
			}
		}),
	}
}

// Name implements Optimizer.
func (r *RAdam) Name() string { return "RAdam" }

// Style implements Optimizer.
func (r *RAdam) Style() GradientStyle { return Stateful }

// Apply implements Optimizer.
func (r *RAdam) Apply(x, dx *tensor.Tensor) (*tensor.Tensor, error) {
	if err := checkGrad(r.Name(), x, dx); err != nil {
		return nil, err
	}

	st := r.state.Get(x)
	rhoInf := 2/(1-r.betas[1]) - 1
	rho := rhoInf - 2*float64(st.Step)*st.BetaPow[1]/(1-st.BetaPow[1])

	updateMoments(&st.AdamState, r.betas, dx)

	biasCorrection1 := 1 - st.BetaPow[0]
	biasCorrection2 := 1 - st.BetaPow[1]
	m, v, d := st.M.Data(), st.V.Data(), dx.Data()
	if rho > 4 {
		rect := math.Sqrt((rho - 4) * (rho - 2) * rhoInf / ((rhoInf - 4) * (rhoInf - 2) * rho))
		for i := range d {
			d[i] = r.lr * rect * (m[i] / biasCorrection1) / (math.Sqrt(v[i]/biasCorrection2) + r.eps)
		}
	} else {
		for i := range d {
			d[i] = r.lr * m[i] / biasCorrection1
		}
	}

	st.BetaPow[0] *= r.betas[0]
	st.BetaPow[1] *= r.betas[1]
	st.Step++
	return dx, nil
}

// State implements StateHolder. Returns *RAdamState.
func (r *RAdam) State(x *tensor.Tensor) any {
	return r.state.Get(x)
}

// ResetState zeroes both moments, restarts bias correction and sets the
// rectification step back to 1.
func (r *RAdam) ResetState(x *tensor.Tensor) error {
	st := r.state.Get(x)
	st.reset(r.betas)
	st.Step = 1
	return nil
}

// MomentumBuffers returns the first and second moments of x.
func (r *RAdam) MomentumBuffers(x *tensor.Tensor) ([]*tensor.Tensor, error) {
	st := r.state.Get(x)
	return []*tensor.Tensor{st.M, st.V}, nil
}

// AMSGradState is the per-parameter state of AMSGrad.
type AMSGradState struct {
	M    *tensor.Tensor // First moment estimate
	V    *tensor.Tensor // Second moment estimate
	VHat *tensor.Tensor // Running maximum of V
}

// AMSGrad is Adam with a non-decreasing second moment and no bias correction.
//
// Update rule:
//
//	m = beta1 * m + (1 - beta1) * dx
//	v = beta2 * v + (1 - beta2) * dx²
//	vhat = max(vhat, v)
//	dx = lr * m / (sqrt(vhat) + eps)
//
// All three buffers start at eps and reset restores that floor.
type AMSGrad struct {
	lr    float64
	betas [2]float64
	eps   float64
	state *Store[*AMSGradState]
}

// NewAMSGrad creates an AMSGrad optimizer. Defaults match NewAdam.
func NewAMSGrad(config AdamConfig) *AMSGrad {
	config = config.withDefaults()
	return &AMSGrad{
		lr:    config.LR,
		betas: config.Betas,
		eps:   config.Eps,
		state: NewStore(func(x *tensor.Tensor) *AMSGradState {
			return &AMSGradState{
				M:    tensor.FullLike(x, config.Eps),
				V:    tensor.FullLike(x, config.Eps),
				VHat: tensor.FullLike(x, config.Eps),
			}
		}),
	}
}

// Name implements Optimizer.
func (a *AMSGrad) Name() string { return "AMSGrad" }

// Style implements Optimizer.
func (a *AMSGrad) Style() GradientStyle { return Stateful }

// Apply implements Optimizer.
func (a *AMSGrad) Apply(x, dx *tensor.Tensor) (*tensor.Tensor, error) {
	if err := checkGrad(a.Name(), x, dx); err != nil {
		return nil, err
	}

	st := a.state.Get(x)
	m, v, vhat, d := st.M.Data(), st.V.Data(), st.VHat.Data(), dx.Data()
	for i, g := range d {
		m[i] = a.betas[0]*m[i] + (1-a.betas[0])*g
		v[i] = a.betas[1]*v[i] + (1-a.betas[1])*g*g
		vhat[i] = math.Max(vhat[i], v[i])
		d[i] = a.lr * m[i] / (math.Sqrt(vhat[i]) + a.eps)
	}
	return dx, nil
}

// State implements StateHolder. Returns *AMSGradState.
func (a *AMSGrad) State(x *tensor.Tensor) any {
	return a.state.Get(x)
}

// ResetState refills all three buffers of x with eps.
func (a *AMSGrad) ResetState(x *tensor.Tensor) error {
	st := a.state.Get(x)
	st.M.Fill(a.eps)
	st.V.Fill(a.eps)
	st.VHat.Fill(a.eps)
	return nil
}

// MomentumBuffers returns the first and second moments of x.
func (a *AMSGrad) MomentumBuffers(x *tensor.Tensor) ([]*tensor.Tensor, error) {
	st := a.state.Get(x)
	return []*tensor.Tensor{st.M, st.V}, nil
}

// AdamWConfig holds configuration for NewAdamW.
type AdamWConfig struct {
	LR    float64    // Learning rate (default: 0.001)
	Betas [2]float64 // Adam betas (default: [0.9, 0.999])
	Eps   float64    // Adam stability term (default: 1e-8)
	Decay float64    // Decoupled weight decay (default: 0)
}

// NewAdamW builds AdamW as a chain: Adam with unit learning rate, then
// WeightDecay, then Descent with the learning rate. The decay is thereby
// decoupled from the adaptive scaling.
func NewAdamW(config AdamWConfig) *Chain {
	if config.LR == 0 {
		config.LR = 0.001
	}
	return NewChain(
		NewAdam(AdamConfig{LR: 1, Betas: config.Betas, Eps: config.Eps}),
		NewWeightDecay(config.Decay),
		NewDescent(DescentConfig{LR: config.LR}),
	)
}
