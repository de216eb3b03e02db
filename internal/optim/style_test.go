package optim_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/born-ml/lookahead/internal/optim"
)

func TestGradientStyle_Merge(t *testing.T) {
	tests := []struct {
		a, b, want optim.GradientStyle
	}{
		{optim.Stateless, optim.Stateless, optim.Stateless},
		{optim.Stateless, optim.Stateful, optim.Stateful},
		{optim.Stateful, optim.Stateless, optim.Stateful},
		{optim.Stateful, optim.Stateful, optim.Stateful},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, tt.a.Merge(tt.b), "%v.Merge(%v)", tt.a, tt.b)
	}

	assert.Equal(t, optim.Stateless, optim.MergeStyles())
	assert.Equal(t, optim.Stateful, optim.MergeStyles(optim.Stateless, optim.Stateful, optim.Stateless))
}

func TestGradientStyle_String(t *testing.T) {
	assert.Equal(t, "Stateless", optim.Stateless.String())
	assert.Equal(t, "Stateful", optim.Stateful.String())
	assert.Equal(t, "Unknown", optim.GradientStyle(7).String())
}

func TestClassify_Variants(t *testing.T) {
	// Two instances per variant with different hyperparameters: the
	// classification must not depend on the instance.
	tests := []struct {
		name string
		a, b optim.Optimizer
		want optim.GradientStyle
	}{
		{"Descent", optim.NewDescent(optim.DescentConfig{LR: 0.1}), optim.NewDescent(optim.DescentConfig{LR: 3}), optim.Stateless},
		{"WeightDecay", optim.NewWeightDecay(0), optim.NewWeightDecay(0.1), optim.Stateless},
		{"ClipValue", optim.NewClipValue(1), optim.NewClipValue(5), optim.Stateless},
		{"ClipNorm", optim.NewClipNorm(1), optim.NewClipNorm(5), optim.Stateless},
		{"Momentum", optim.NewMomentum(optim.MomentumConfig{}), optim.NewMomentum(optim.MomentumConfig{Rho: 0.5}), optim.Stateful},
		{"Nesterov", optim.NewNesterov(optim.MomentumConfig{}), optim.NewNesterov(optim.MomentumConfig{LR: 1}), optim.Stateful},
		{"RMSProp", optim.NewRMSProp(optim.RMSPropConfig{}), optim.NewRMSProp(optim.RMSPropConfig{Rho: 0.5}), optim.Stateful},
		{"AdaGrad", optim.NewAdaGrad(optim.AdaGradConfig{}), optim.NewAdaGrad(optim.AdaGradConfig{LR: 1}), optim.Stateful},
		{"AdaDelta", optim.NewAdaDelta(optim.AdaDeltaConfig{}), optim.NewAdaDelta(optim.AdaDeltaConfig{Rho: 0.5}), optim.Stateful},
		{"Adam", optim.NewAdam(optim.AdamConfig{}), optim.NewAdam(optim.AdamConfig{LR: 1}), optim.Stateful},
		{"RAdam", optim.NewRAdam(optim.AdamConfig{}), optim.NewRAdam(optim.AdamConfig{LR: 1}), optim.Stateful},
		{"AMSGrad", optim.NewAMSGrad(optim.AdamConfig{}), optim.NewAMSGrad(optim.AdamConfig{LR: 1}), optim.Stateful},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, optim.Classify(tt.a))
			assert.Equal(t, tt.want, optim.Classify(tt.b))
			assert.Equal(t, tt.want == optim.Stateful, optim.IsStateful(tt.a))
			assert.Equal(t, tt.name, tt.a.Name())
		})
	}
}

func TestClassify_Chain(t *testing.T) {
	descent := optim.NewDescent(optim.DescentConfig{})
	decay := optim.NewWeightDecay(0.1)
	momentum := optim.NewMomentum(optim.MomentumConfig{})

	chains := [][]optim.Optimizer{
		{},
		{descent},
		{descent, decay},
		{momentum},
		{descent, momentum},
		{momentum, decay, descent},
		{optim.NewChain(descent, decay), descent},
		{optim.NewChain(descent, momentum), descent},
	}

	for _, members := range chains {
		chain := optim.NewChain(members...)

		anyStateful := false
		for _, m := range members {
			anyStateful = anyStateful || optim.IsStateful(m)
		}
		assert.Equal(t, anyStateful, optim.IsStateful(chain), chain.Name())
	}
}

func TestClassify_LookaheadAlwaysStateful(t *testing.T) {
	for _, inner := range []optim.Optimizer{
		optim.NewDescent(optim.DescentConfig{}),
		optim.NewChain(),
		optim.NewMomentum(optim.MomentumConfig{}),
	} {
		l, err := optim.NewLookahead(inner, optim.LookaheadConfig{})
		require.NoError(t, err)
		assert.Equal(t, optim.Stateful, optim.Classify(l), l.Name())
	}
}
