package optim_test

import (
	"bytes"
	"errors"
	"log/slog"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/born-ml/lookahead/internal/optim"
	"github.com/born-ml/lookahead/internal/tensor"
)

func newLookahead(t *testing.T, inner optim.Optimizer, cfg optim.LookaheadConfig) *optim.Lookahead {
	t.Helper()
	l, err := optim.NewLookahead(inner, cfg)
	require.NoError(t, err)
	return l
}

func lookaheadState(t *testing.T, l *optim.Lookahead, x *tensor.Tensor) *optim.LookaheadState {
	t.Helper()
	st, err := optim.GetState(l, x)
	require.NoError(t, err)
	return st.(*optim.LookaheadState)
}

func TestLookahead_Defaults(t *testing.T) {
	l := newLookahead(t, optim.NewDescent(optim.DescentConfig{}), optim.LookaheadConfig{})

	assert.Equal(t, 0.5, l.Alpha())
	assert.Equal(t, 6, l.K())
	assert.Equal(t, optim.NoOpSync{}, l.SyncPolicy())
	assert.Equal(t, "Lookahead(Descent)", l.Name())
}

func TestLookahead_Configuration(t *testing.T) {
	descent := optim.NewDescent(optim.DescentConfig{})
	momentum := optim.NewMomentum(optim.MomentumConfig{})

	valid := []struct {
		name  string
		inner optim.Optimizer
		cfg   optim.LookaheadConfig
	}{
		{"noop/stateless", descent, optim.LookaheadConfig{}},
		{"noop/stateful", momentum, optim.LookaheadConfig{Sync: optim.NoOpSync{}}},
		{"reset/stateful", momentum, optim.LookaheadConfig{Sync: optim.ResetSync{}}},
		{"pullback/stateful", momentum, optim.LookaheadConfig{Sync: optim.PullbackSync{}}},
		{"pullback/stateful chain", optim.NewChain(descent, momentum), optim.LookaheadConfig{Sync: optim.PullbackSync{}}},
		{"alpha one", descent, optim.LookaheadConfig{Alpha: 1, K: 1}},
	}
	for _, tt := range valid {
		t.Run(tt.name, func(t *testing.T) {
			_, err := optim.NewLookahead(tt.inner, tt.cfg)
			assert.NoError(t, err)
		})
	}

	invalid := []struct {
		name  string
		inner optim.Optimizer
		cfg   optim.LookaheadConfig
		field string
	}{
		{"pullback/stateless", descent, optim.LookaheadConfig{Sync: optim.PullbackSync{}}, "sync"},
		{"reset/stateless", descent, optim.LookaheadConfig{Sync: optim.ResetSync{}}, "sync"},
		{"pullback/stateless chain", optim.NewChain(descent, optim.NewWeightDecay(0.1)), optim.LookaheadConfig{Sync: optim.PullbackSync{}}, "sync"},
		{"alpha above one", descent, optim.LookaheadConfig{Alpha: 1.5}, "alpha"},
		{"alpha negative", descent, optim.LookaheadConfig{Alpha: -0.1}, "alpha"},
		{"alpha NaN", descent, optim.LookaheadConfig{Alpha: math.NaN()}, "alpha"},
		{"k negative", descent, optim.LookaheadConfig{K: -2}, "k"},
		{"no inner", nil, optim.LookaheadConfig{}, "inner"},
	}
	for _, tt := range invalid {
		t.Run(tt.name, func(t *testing.T) {
			l, err := optim.NewLookahead(tt.inner, tt.cfg)
			require.ErrorIs(t, err, optim.ErrConfiguration)
			assert.Nil(t, l)

			var cfgErr *optim.ConfigurationError
			require.ErrorAs(t, err, &cfgErr)
			assert.Equal(t, tt.field, cfgErr.Field)
		})
	}
}

func TestLookahead_EveryStepWithFullAlpha(t *testing.T) {
	l := newLookahead(t, optim.NewDescent(optim.DescentConfig{LR: 0.1}), optim.LookaheadConfig{Alpha: 1, K: 1})
	x := tensor.Vector(1.0, 2.0)

	for step := range 5 {
		before := append([]float64(nil), x.Data()...)
		g := []float64{1.0, float64(step)}

		dx, err := l.Apply(x, tensor.Vector(g...))
		require.NoError(t, err)

		st := lookaheadState(t, l, x)
		assert.Equal(t, 1, st.Step, "counter resets every call")
		for i := range before {
			// slow = x - inner(dx) exactly when alpha = 1
			assert.InDelta(t, before[i]-0.1*g[i], st.Slow.Data()[i], 1e-12)
			assert.InDelta(t, 0.1*g[i], dx.Data()[i], 1e-12)
		}

		x.Data()[0] -= dx.Data()[0]
		x.Data()[1] -= dx.Data()[1]
		assert.InDeltaSlice(t, st.Slow.Data(), x.Data(), 1e-12)
	}
}

func TestLookahead_SyncPeriod(t *testing.T) {
	l := newLookahead(t, optim.NewDescent(optim.DescentConfig{LR: 0.1}), optim.LookaheadConfig{K: 6})
	x := tensor.Vector(1.0)
	st := lookaheadState(t, l, x)

	for call := 1; call <= 5; call++ {
		assert.Equal(t, call, st.Step, "counter before call %d", call)
		dx := applyOnce(t, l, x, 1.0)
		assert.InDelta(t, 0.1, dx[0], tol, "inner update passes through before the boundary")
		assert.Equal(t, 1.0, st.Slow.Item(), "no sync before call 6")
	}

	assert.Equal(t, 6, st.Step)
	dx := applyOnce(t, l, x, 1.0)

	// slow = 0.5 * (1 - 0.1) + 0.5 * 1; dx = x - slow
	assert.InDelta(t, 0.95, st.Slow.Item(), tol)
	assert.InDelta(t, 0.05, dx[0], tol)
	assert.Equal(t, 1, st.Step, "counter restarts after the boundary")

	applyOnce(t, l, x, 1.0)
	assert.Equal(t, 2, st.Step)
}

func TestLookahead_CountersPerParameter(t *testing.T) {
	l := newLookahead(t, optim.NewDescent(optim.DescentConfig{}), optim.LookaheadConfig{K: 3})
	a := tensor.Vector(1.0)
	b := tensor.Vector(1.0)

	applyOnce(t, l, a, 1.0)
	applyOnce(t, l, a, 1.0)
	applyOnce(t, l, b, 1.0)

	assert.Equal(t, 3, lookaheadState(t, l, a).Step)
	assert.Equal(t, 2, lookaheadState(t, l, b).Step)
}

// TestLookahead_MomentumScenario walks through two steps of
// Lookahead(Momentum(0.1, 0.9), alpha=0.5, k=2) from x = 0 with a constant
// unit gradient.
func TestLookahead_MomentumScenario(t *testing.T) {
	inner := optim.NewMomentum(optim.MomentumConfig{LR: 0.1, Rho: 0.9})
	l := newLookahead(t, inner, optim.LookaheadConfig{Alpha: 0.5, K: 2})
	x := tensor.Vector(0.0)

	// Step 1: velocity 0.1, below the period.
	dx := applyOnce(t, l, x, 1.0)
	assert.InDelta(t, 0.1, dx[0], tol)
	st := lookaheadState(t, l, x)
	assert.Equal(t, 0.0, st.Slow.Item())
	assert.Equal(t, 2, st.Step)
	x.Data()[0] -= dx[0]
	assert.InDelta(t, -0.1, x.Item(), tol)

	// Step 2: velocity 0.19, fast = -0.29, slow = -0.145, dx = 0.045.
	dx = applyOnce(t, l, x, 1.0)
	assert.InDelta(t, 0.19, inner.State(x).(*optim.VelocityState).Velocity.Item(), tol)
	assert.InDelta(t, -0.145, st.Slow.Item(), tol)
	assert.InDelta(t, 0.045, dx[0], tol)
	assert.Equal(t, 1, st.Step)

	x.Data()[0] -= dx[0]
	assert.InDelta(t, -0.145, x.Item(), tol)
	assert.InDelta(t, st.Slow.Item(), x.Item(), 1e-15, "parameter lands on the slow weights")
}

func TestLookahead_WrapsChain(t *testing.T) {
	chain := optim.NewChain(optim.NewMomentum(optim.MomentumConfig{LR: 0.1, Rho: 0.9}), optim.NewWeightDecay(0))
	l := newLookahead(t, chain, optim.LookaheadConfig{Alpha: 0.5, K: 2, Sync: optim.PullbackSync{}})
	x := tensor.Vector(0.0)

	assert.Equal(t, "Lookahead(Chain(Momentum, WeightDecay))", l.Name())

	dx := applyOnce(t, l, x, 1.0)
	x.Data()[0] -= dx[0]
	dx = applyOnce(t, l, x, 1.0)
	x.Data()[0] -= dx[0]
	assert.InDelta(t, -0.145, x.Item(), tol)
}

// failingOptimizer rejects every gradient.
type failingOptimizer struct{}

func (failingOptimizer) Name() string { return "Failing" }
func (failingOptimizer) Style() optim.GradientStyle { return optim.Stateless }
func (failingOptimizer) Apply(_, _ *tensor.Tensor) (*tensor.Tensor, error) {
	return nil, errors.New("rejected")
}

func TestLookahead_InnerErrorWrapped(t *testing.T) {
	l := newLookahead(t, failingOptimizer{}, optim.LookaheadConfig{})

	dx, err := l.Apply(tensor.Vector(1.0), tensor.Vector(1.0))
	require.Error(t, err)
	assert.Nil(t, dx)
	assert.Contains(t, err.Error(), "lookahead inner Failing")
	assert.Contains(t, err.Error(), "rejected")
}

func TestLookahead_ShapeMismatch(t *testing.T) {
	// An empty Chain passes the gradient through without checking it.
	tests := []struct {
		name  string
		inner optim.Optimizer
	}{
		{"empty chain", optim.NewChain()},
		{"momentum", optim.NewMomentum(optim.MomentumConfig{})},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			l := newLookahead(t, tt.inner, optim.LookaheadConfig{K: 1})
			x := tensor.Vector(1, 2, 3)

			dx, err := l.Apply(x, tensor.Vector(1))
			require.ErrorIs(t, err, tensor.ErrShapeMismatch)
			assert.Nil(t, dx)
			assert.Contains(t, err.Error(), l.Name())
			assert.Equal(t, []float64{1, 2, 3}, x.Data())

			// A well-shaped call afterwards starts from a fresh counter.
			applyOnce(t, l, x, 1, 1, 1)
			assert.Equal(t, 1, lookaheadState(t, l, x).Step)
		})
	}
}

func TestLookahead_SyncErrorSurfaces(t *testing.T) {
	// Declared Stateful, so construction succeeds; the pullback can only
	// discover the missing buffers when it runs.
	l := newLookahead(t, statefulNoState{}, optim.LookaheadConfig{K: 1, Sync: optim.PullbackSync{}})
	x := tensor.Vector(1.0)

	dx, err := l.Apply(x, tensor.Vector(0.5))
	require.ErrorIs(t, err, optim.ErrStatelessAccess)
	require.NotNil(t, dx, "the rewritten update is still returned")
	assert.InDelta(t, 0.25, dx.Item(), tol)
	assert.Equal(t, 1, lookaheadState(t, l, x).Step, "counter stored before the sync runs")
}

func TestLookahead_ResetState(t *testing.T) {
	inner := optim.NewMomentum(optim.MomentumConfig{LR: 0.1})
	l := newLookahead(t, inner, optim.LookaheadConfig{K: 4})
	x := tensor.Vector(1.0)

	for range 2 {
		dx := applyOnce(t, l, x, 1.0)
		x.Data()[0] -= dx[0]
	}
	require.NoError(t, optim.ResetState(l, x))

	st := lookaheadState(t, l, x)
	assert.Equal(t, 1, st.Step)
	assert.Equal(t, x.Item(), st.Slow.Item())
	assert.Zero(t, inner.State(x).(*optim.VelocityState).Velocity.Item())
}

func TestLookahead_MomentumBuffers(t *testing.T) {
	x := tensor.Vector(1.0)

	stateless := newLookahead(t, optim.NewDescent(optim.DescentConfig{}), optim.LookaheadConfig{})
	bufs, err := optim.MomentumBuffers(stateless, x)
	require.NoError(t, err)
	assert.Empty(t, bufs)

	inner := optim.NewMomentum(optim.MomentumConfig{})
	stateful := newLookahead(t, inner, optim.LookaheadConfig{})
	bufs, err = optim.MomentumBuffers(stateful, x)
	require.NoError(t, err)
	require.Len(t, bufs, 1)
	assert.Same(t, inner.State(x).(*optim.VelocityState).Velocity, bufs[0])
}

func TestLookahead_NestedPullback(t *testing.T) {
	inner := newLookahead(t, optim.NewMomentum(optim.MomentumConfig{LR: 0.1}), optim.LookaheadConfig{K: 2})
	outer := newLookahead(t, inner, optim.LookaheadConfig{K: 3, Sync: optim.PullbackSync{}})
	x := tensor.Vector(0.0)

	for range 6 {
		dx := applyOnce(t, outer, x, 1.0)
		x.Data()[0] -= dx[0]
	}
	assert.True(t, optim.IsStateful(outer))
	assert.False(t, math.IsNaN(x.Item()))
}

func TestLookahead_LogsSync(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug}))
	l := newLookahead(t, optim.NewDescent(optim.DescentConfig{}), optim.LookaheadConfig{K: 2, Logger: logger})
	x := tensor.Vector(1.0)

	applyOnce(t, l, x, 1.0)
	assert.Empty(t, buf.String())

	applyOnce(t, l, x, 1.0)
	assert.Contains(t, buf.String(), "lookahead sync")
	assert.Contains(t, buf.String(), "policy=noop")
}

func TestLookahead_NestedResetSeedsFromEntryValue(t *testing.T) {
	momentum := optim.NewMomentum(optim.MomentumConfig{LR: 0.1, Rho: 0.9})
	inner := newLookahead(t, momentum, optim.LookaheadConfig{K: 2})
	outer := newLookahead(t, inner, optim.LookaheadConfig{K: 1, Sync: optim.ResetSync{}})
	x := tensor.Vector(0.0)

	dx := applyOnce(t, outer, x, 1.0)
	assert.InDelta(t, 0.05, dx[0], tol)

	// The outer sync resets the inner Lookahead before x moves.
	st := lookaheadState(t, inner, x)
	assert.Equal(t, 1, st.Step)
	assert.Equal(t, 0.0, st.Slow.Item())
	assert.Zero(t, velocity(t, momentum, x))

	x.Data()[0] -= dx[0]
	assert.InDelta(t, -0.05, x.Item(), tol)
	assert.InDelta(t, -0.05, lookaheadState(t, outer, x).Slow.Item(), tol)
}
