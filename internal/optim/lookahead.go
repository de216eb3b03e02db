package optim

import (
	"log/slog"
	"math"

	"github.com/pkg/errors"

	"github.com/born-ml/lookahead/internal/tensor"
)

// LookaheadState is Lookahead's per-parameter state.
type LookaheadState struct {
	Slow *tensor.Tensor // Slow-weight copy of the parameter
	Step int            // Calls until the next sync, in [1, k]
}

// Lookahead wraps an inner optimizer and keeps a slow copy of every parameter.
//
// The inner optimizer runs every call (fast weights). Every k-th call per
// parameter the slow copy moves towards the fast weights,
//
//	slow = alpha * (x - dx) + (1 - alpha) * slow
//
// and the outgoing update is rewritten to dx = x - slow, so the caller's
// x -= dx lands the parameter exactly on the slow copy. The sync policy then
// runs to reconcile the inner optimizer's momentum with the jump.
//
// Reference: "Lookahead Optimizer: k steps forward, 1 step back"
// (Zhang et al., 2019)
//
// Example:
//
//	opt, err := optim.NewLookahead(
//	    optim.NewAdam(optim.AdamConfig{}),
//	    optim.LookaheadConfig{Alpha: 0.5, K: 6, Sync: optim.PullbackSync{}},
//	)
type Lookahead struct {
	inner  Optimizer
	alpha  float64
	k      int
	sync   SyncPolicy
	logger *slog.Logger

	slow *Store[*LookaheadState]
	// Pullback companions, keyed by inner momentum-buffer identity rather
	// than parameter identity.
	blended *Store[*tensor.Tensor]
}

// LookaheadConfig holds configuration for Lookahead.
type LookaheadConfig struct {
	Alpha  float64      // Slow step size in (0, 1] (default: 0.5)
	K      int          // Sync period in calls per parameter (default: 6)
	Sync   SyncPolicy   // Inner momentum sync (default: NoOpSync)
	Logger *slog.Logger // Debug log of sync events (default: discard)
}

// NewLookahead creates a Lookahead around inner.
//
// Returns a *ConfigurationError when alpha is outside (0, 1], k is negative,
// or the sync policy needs inner state but inner is Stateless.
func NewLookahead(inner Optimizer, config LookaheadConfig) (*Lookahead, error) {
	const name = "Lookahead"
	if inner == nil {
		return nil, &ConfigurationError{Optimizer: name, Field: "inner", Reason: "inner optimizer is required"}
	}
	if config.Alpha == 0 {
		config.Alpha = 0.5
	}
	if config.K == 0 {
		config.K = 6
	}
	if config.Sync == nil {
		config.Sync = NoOpSync{}
	}
	if config.Logger == nil {
		config.Logger = slog.New(slog.DiscardHandler)
	}

	if math.IsNaN(config.Alpha) || config.Alpha <= 0 || config.Alpha > 1 {
		return nil, &ConfigurationError{Optimizer: name, Field: "alpha",
			Reason: "must be in (0, 1]"}
	}
	if config.K < 0 {
		return nil, &ConfigurationError{Optimizer: name, Field: "k",
			Reason: "must be a positive integer"}
	}
	if config.Sync.RequiresInnerState() && !IsStateful(inner) {
		return nil, &ConfigurationError{Optimizer: name, Field: "sync",
			Reason: config.Sync.Name() + " sync needs a stateful inner optimizer, got " + inner.Name()}
	}

	return &Lookahead{
		inner:  inner,
		alpha:  config.Alpha,
		k:      config.K,
		sync:   config.Sync,
		logger: config.Logger,
		slow: NewStore(func(x *tensor.Tensor) *LookaheadState {
			return &LookaheadState{Slow: x.Clone(), Step: 1}
		}),
		blended: NewStore(tensor.ZerosLike),
	}, nil
}

// Name implements Optimizer.
func (l *Lookahead) Name() string { return "Lookahead(" + l.inner.Name() + ")" }

// Style implements Optimizer. Lookahead always owns slow-weight state.
func (l *Lookahead) Style() GradientStyle { return Stateful }

// Inner returns the wrapped optimizer.
func (l *Lookahead) Inner() Optimizer { return l.inner }

// Alpha returns the slow step size.
func (l *Lookahead) Alpha() float64 { return l.alpha }

// K returns the sync period.
func (l *Lookahead) K() int { return l.k }

// SyncPolicy returns the configured sync policy.
func (l *Lookahead) SyncPolicy() SyncPolicy { return l.sync }

// Apply runs the inner optimizer and, every k-th call for x, pulls the update
// back onto the slow weights and runs the sync policy.
//
// A sync policy error is returned together with the already rewritten dx; the
// slow copy and counter have been stored by then.
func (l *Lookahead) Apply(x, dx *tensor.Tensor) (*tensor.Tensor, error) {
	if err := checkGrad(l.Name(), x, dx); err != nil {
		return nil, err
	}
	st := l.slow.Get(x)

	dx, err := l.inner.Apply(x, dx)
	if err != nil {
		return nil, errors.WithMessagef(err, "lookahead inner %s", l.inner.Name())
	}

	if st.Step < l.k {
		st.Step++
		return dx, nil
	}

	slow, xd, d := st.Slow.Data(), x.Data(), dx.Data()
	for i := range slow {
		fast := xd[i] - d[i]
		slow[i] = l.alpha*fast + (1-l.alpha)*slow[i]
		d[i] = xd[i] - slow[i]
	}
	// Counter restarts; the next call for x is step 1 again.
	st.Step = 1

	l.logger.Debug("lookahead sync",
		slog.String("optimizer", l.inner.Name()),
		slog.String("param", x.ID().String()),
		slog.String("policy", l.sync.Name()))

	if err := l.sync.Sync(l, x); err != nil {
		return dx, errors.WithMessagef(err, "lookahead %s sync", l.sync.Name())
	}
	return dx, nil
}

// State implements StateHolder. Returns *LookaheadState.
func (l *Lookahead) State(x *tensor.Tensor) any {
	return l.slow.Get(x)
}

// ResetState restores the slow copy of x from x, sets the counter back to 1
// and resets the inner optimizer's state when it has any.
//
// When this Lookahead is the inner optimizer of another Lookahead with
// ResetSync, the reset runs inside the outer Apply, before the caller
// subtracts the update: the slow copy is seeded from x as it was on entry,
// not from the value x lands on.
func (l *Lookahead) ResetState(x *tensor.Tensor) error {
	st := l.slow.Get(x)
	if err := st.Slow.CopyFrom(x); err != nil {
		return err
	}
	st.Step = 1
	if IsStateful(l.inner) {
		return ResetState(l.inner, x)
	}
	return nil
}

// MomentumBuffers returns the inner optimizer's momentum buffers for x, or
// none when the inner optimizer is Stateless.
func (l *Lookahead) MomentumBuffers(x *tensor.Tensor) ([]*tensor.Tensor, error) {
	if !IsStateful(l.inner) {
		return nil, nil
	}
	return MomentumBuffers(l.inner, x)
}
