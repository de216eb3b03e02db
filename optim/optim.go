// Copyright 2025 Born ML Framework. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

package optim

import (
	"github.com/born-ml/lookahead/internal/optim"
	"github.com/born-ml/lookahead/internal/tensor"
)

// Optimizer interface defines the common interface for all optimizers.
type Optimizer = optim.Optimizer

// StateHolder exposes an optimizer's per-parameter state.
type StateHolder = optim.StateHolder

// StateResetter reinitialises an optimizer's per-parameter state.
type StateResetter = optim.StateResetter

// MomentumHolder exposes an optimizer's per-parameter momentum buffers.
type MomentumHolder = optim.MomentumHolder

// StatefulOptimizer is an Optimizer with all state capabilities.
type StatefulOptimizer = optim.StatefulOptimizer

// Classification

// GradientStyle classifies an optimizer as Stateless or Stateful.
type GradientStyle = optim.GradientStyle

// Gradient styles.
const (
	Stateless = optim.Stateless
	Stateful  = optim.Stateful
)

// Classify returns the gradient style of opt.
func Classify(opt Optimizer) GradientStyle {
	return optim.Classify(opt)
}

// IsStateful reports whether opt is Stateful.
func IsStateful(opt Optimizer) bool {
	return optim.IsStateful(opt)
}

// State access

// Store is a per-parameter state map keyed by tensor identity.
type Store[S any] = optim.Store[S]

// NewStore creates a Store whose entries are created by init on first use.
func NewStore[S any](init func(x *tensor.Tensor) S) *Store[S] {
	return optim.NewStore(init)
}

// GetState returns opt's state entry for x.
//
// Returns an error wrapping ErrStatelessAccess when opt is Stateless.
func GetState(opt Optimizer, x *tensor.Tensor) (any, error) {
	return optim.GetState(opt, x)
}

// ResetState reinitialises opt's state for x in place.
func ResetState(opt Optimizer, x *tensor.Tensor) error {
	return optim.ResetState(opt, x)
}

// MomentumBuffers returns opt's momentum buffers for x.
func MomentumBuffers(opt Optimizer, x *tensor.Tensor) ([]*tensor.Tensor, error) {
	return optim.MomentumBuffers(opt, x)
}

// Errors

// Sentinel errors.
var (
	ErrStatelessAccess = optim.ErrStatelessAccess
	ErrConfiguration   = optim.ErrConfiguration
)

// StatelessAccessError reports a state operation on a Stateless optimizer.
type StatelessAccessError = optim.StatelessAccessError

// ConfigurationError reports an invalid optimizer setup.
type ConfigurationError = optim.ConfigurationError

// Descent family

// Descent is plain gradient descent.
type Descent = optim.Descent

// DescentConfig contains configuration for Descent.
type DescentConfig = optim.DescentConfig

// NewDescent creates a Descent optimizer.
func NewDescent(config DescentConfig) *Descent {
	return optim.NewDescent(config)
}

// VelocityState is the per-parameter state of Momentum and Nesterov.
type VelocityState = optim.VelocityState

// Momentum is gradient descent with classical momentum.
type Momentum = optim.Momentum

// MomentumConfig contains configuration for Momentum and Nesterov.
type MomentumConfig = optim.MomentumConfig

// NewMomentum creates a Momentum optimizer.
//
// Example:
//
//	opt := optim.NewMomentum(optim.MomentumConfig{LR: 0.01, Rho: 0.9})
func NewMomentum(config MomentumConfig) *Momentum {
	return optim.NewMomentum(config)
}

// Nesterov is gradient descent with Nesterov momentum.
type Nesterov = optim.Nesterov

// NewNesterov creates a Nesterov optimizer.
func NewNesterov(config MomentumConfig) *Nesterov {
	return optim.NewNesterov(config)
}

// Gradient modifiers

// WeightDecay adds decay * x to the gradient.
type WeightDecay = optim.WeightDecay

// NewWeightDecay creates a WeightDecay modifier.
func NewWeightDecay(decay float64) *WeightDecay {
	return optim.NewWeightDecay(decay)
}

// ClipValue clamps every gradient element to [-threshold, threshold].
type ClipValue = optim.ClipValue

// NewClipValue creates a ClipValue modifier.
func NewClipValue(threshold float64) *ClipValue {
	return optim.NewClipValue(threshold)
}

// ClipNorm rescales the gradient to an L2 norm of at most threshold.
type ClipNorm = optim.ClipNorm

// NewClipNorm creates a ClipNorm modifier.
func NewClipNorm(threshold float64) *ClipNorm {
	return optim.NewClipNorm(threshold)
}

// Adaptive family

// AccumulatorState is the per-parameter state of RMSProp and AdaGrad.
type AccumulatorState = optim.AccumulatorState

// RMSProp scales the gradient by a moving average of its square.
type RMSProp = optim.RMSProp

// RMSPropConfig contains configuration for RMSProp.
type RMSPropConfig = optim.RMSPropConfig

// NewRMSProp creates an RMSProp optimizer.
func NewRMSProp(config RMSPropConfig) *RMSProp {
	return optim.NewRMSProp(config)
}

// AdaGrad scales the gradient by its accumulated square.
type AdaGrad = optim.AdaGrad

// AdaGradConfig contains configuration for AdaGrad.
type AdaGradConfig = optim.AdaGradConfig

// NewAdaGrad creates an AdaGrad optimizer.
func NewAdaGrad(config AdaGradConfig) *AdaGrad {
	return optim.NewAdaGrad(config)
}

// AdaDeltaState is the per-parameter state of AdaDelta.
type AdaDeltaState = optim.AdaDeltaState

// AdaDelta is the learning-rate free adaptive rule.
type AdaDelta = optim.AdaDelta

// AdaDeltaConfig contains configuration for AdaDelta.
type AdaDeltaConfig = optim.AdaDeltaConfig

// NewAdaDelta creates an AdaDelta optimizer.
func NewAdaDelta(config AdaDeltaConfig) *AdaDelta {
	return optim.NewAdaDelta(config)
}

// Adam (Adaptive Moment Estimation)

// AdamState is the per-parameter state of Adam.
type AdamState = optim.AdamState

// Adam represents the Adam optimizer.
type Adam = optim.Adam

// AdamConfig contains configuration for Adam, RAdam and AMSGrad.
type AdamConfig = optim.AdamConfig

// NewAdam creates a new Adam optimizer with bias correction.
//
// Example:
//
//	optimizer := optim.NewAdam(optim.AdamConfig{
//	    LR:    0.001,
//	    Betas: [2]float64{0.9, 0.999},
//	})
func NewAdam(config AdamConfig) *Adam {
	return optim.NewAdam(config)
}

// RAdamState is the per-parameter state of RAdam.
type RAdamState = optim.RAdamState

// RAdam is Adam with variance rectification.
type RAdam = optim.RAdam

// NewRAdam creates an RAdam optimizer.
func NewRAdam(config AdamConfig) *RAdam {
	return optim.NewRAdam(config)
}

// AMSGradState is the per-parameter state of AMSGrad.
type AMSGradState = optim.AMSGradState

// AMSGrad is Adam with a non-decreasing second moment.
type AMSGrad = optim.AMSGrad

// NewAMSGrad creates an AMSGrad optimizer.
func NewAMSGrad(config AdamConfig) *AMSGrad {
	return optim.NewAMSGrad(config)
}

// AdamWConfig contains configuration for AdamW.
type AdamWConfig = optim.AdamWConfig

// NewAdamW creates Adam with decoupled weight decay, built as a Chain.
func NewAdamW(config AdamWConfig) *Chain {
	return optim.NewAdamW(config)
}

// Composition

// Chain applies its members in order, feeding each one's output to the next.
type Chain = optim.Chain

// NewChain creates a Chain.
//
// Example:
//
//	opt := optim.NewChain(optim.NewClipNorm(1), optim.NewAdam(optim.AdamConfig{}))
func NewChain(steps ...Optimizer) *Chain {
	return optim.NewChain(steps...)
}

// Lookahead

// LookaheadState is Lookahead's per-parameter state.
type LookaheadState = optim.LookaheadState

// Lookahead wraps an inner optimizer with periodically synced slow weights.
type Lookahead = optim.Lookahead

// LookaheadConfig contains configuration for Lookahead.
type LookaheadConfig = optim.LookaheadConfig

// NewLookahead creates a Lookahead around inner.
//
// Example:
//
//	opt, err := optim.NewLookahead(
//	    optim.NewAdam(optim.AdamConfig{}),
//	    optim.LookaheadConfig{Alpha: 0.5, K: 6, Sync: optim.PullbackSync{}},
//	)
func NewLookahead(inner Optimizer, config LookaheadConfig) (*Lookahead, error) {
	return optim.NewLookahead(inner, config)
}

// SyncPolicy decides what happens to inner momentum at a Lookahead sync.
type SyncPolicy = optim.SyncPolicy

// Sync policies.
type (
	NoOpSync     = optim.NoOpSync
	ResetSync    = optim.ResetSync
	PullbackSync = optim.PullbackSync
)

// ParseSyncPolicy returns the policy named name.
func ParseSyncPolicy(name string) (SyncPolicy, error) {
	return optim.ParseSyncPolicy(name)
}

// Training loop

// Updater drives an optimizer over a fixed parameter set.
type Updater = optim.Updater

// UpdaterConfig contains configuration for Updater.
type UpdaterConfig = optim.UpdaterConfig

// NewUpdater creates an Updater for params.
func NewUpdater(opt Optimizer, params []*tensor.Tensor, config UpdaterConfig) *Updater {
	return optim.NewUpdater(opt, params, config)
}

// Declarative configuration

// Config is a declarative description of an optimizer tree.
type Config = optim.Config

// ParseConfig decodes a YAML optimizer description.
func ParseConfig(data []byte) (*Config, error) {
	return optim.ParseConfig(data)
}

// LoadConfig reads a YAML optimizer description from path.
func LoadConfig(path string) (*Config, error) {
	return optim.LoadConfig(path)
}
