package optim_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/born-ml/lookahead/internal/optim"
	"github.com/born-ml/lookahead/internal/tensor"
)

func TestChain_AppliesInOrder(t *testing.T) {
	x := tensor.Vector(2.0)
	descent := optim.NewDescent(optim.DescentConfig{LR: 0.1})
	decay := optim.NewWeightDecay(0.5)

	// (1 + 0.5 * 2) * 0.1
	got := applyOnce(t, optim.NewChain(decay, descent), x, 1.0)
	assert.InDelta(t, 0.2, got[0], tol)

	// 1 * 0.1 + 0.5 * 2
	got = applyOnce(t, optim.NewChain(descent, decay), x, 1.0)
	assert.InDelta(t, 1.1, got[0], tol)
}

func TestChain_Empty(t *testing.T) {
	chain := optim.NewChain()

	assert.Equal(t, "Chain()", chain.Name())
	assert.Equal(t, optim.Stateless, chain.Style())
	assert.Equal(t, []float64{3.0}, applyOnce(t, chain, tensor.Vector(1.0), 3.0))
}

func TestChain_TransformsGradientInPlace(t *testing.T) {
	chain := optim.NewChain(optim.NewMomentum(optim.MomentumConfig{LR: 0.1}), optim.NewDescent(optim.DescentConfig{LR: 0.5}))
	grad := tensor.Vector(1.0)

	dx, err := chain.Apply(tensor.Vector(0.0), grad)
	require.NoError(t, err)
	assert.Same(t, grad, dx)
	assert.InDelta(t, 0.05, grad.Item(), tol)
}

func TestChain_MembersKeepIndependentState(t *testing.T) {
	first := optim.NewMomentum(optim.MomentumConfig{LR: 0.1, Rho: 0.9})
	second := optim.NewMomentum(optim.MomentumConfig{LR: 1, Rho: 0.5})
	chain := optim.NewChain(first, optim.NewDescent(optim.DescentConfig{LR: 1}), second)
	x := tensor.Vector(0.0)

	applyOnce(t, chain, x, 1.0)

	// first: v = 0.1; second sees 0.1: v = 0.1
	entries := chain.State(x).([]any)
	require.Len(t, entries, 2)
	assert.NotSame(t, entries[0], entries[1])
	assert.InDelta(t, 0.1, entries[0].(*optim.VelocityState).Velocity.Item(), tol)
	assert.InDelta(t, 0.1, entries[1].(*optim.VelocityState).Velocity.Item(), tol)

	// second step: first v = 0.19; second v = 0.5 * 0.1 + 0.19 = 0.24
	assert.InDelta(t, 0.24, applyOnce(t, chain, x, 1.0)[0], tol)
	assert.InDelta(t, 0.19, first.State(x).(*optim.VelocityState).Velocity.Item(), tol)
}

func TestChain_ResetState(t *testing.T) {
	momentum := optim.NewMomentum(optim.MomentumConfig{})
	adagrad := optim.NewAdaGrad(optim.AdaGradConfig{})
	chain := optim.NewChain(momentum, optim.NewClipValue(1), adagrad)
	x := tensor.Vector(0.0)

	applyOnce(t, chain, x, 1.0)
	require.NoError(t, optim.ResetState(chain, x))

	assert.Zero(t, momentum.State(x).(*optim.VelocityState).Velocity.Item())
	assert.Equal(t, 1e-8, adagrad.State(x).(*optim.AccumulatorState).Acc.Item())
}

func TestChain_ErrorNamesStep(t *testing.T) {
	chain := optim.NewChain(optim.NewClipNorm(1), optim.NewMomentum(optim.MomentumConfig{}))

	_, err := chain.Apply(tensor.Vector(1.0), tensor.Vector(1.0, 2.0))
	require.ErrorIs(t, err, tensor.ErrShapeMismatch)
	assert.Contains(t, err.Error(), "chain step 0 (ClipNorm)")
}

func TestChain_Steps(t *testing.T) {
	d := optim.NewDescent(optim.DescentConfig{})
	chain := optim.NewChain(d)

	steps := chain.Steps()
	require.Len(t, steps, 1)
	assert.Same(t, d, steps[0])

	steps[0] = nil
	assert.NotNil(t, chain.Steps()[0], "Steps returns a copy")
}
