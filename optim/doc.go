// Copyright 2025 Born ML Framework. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

// Package optim provides composable gradient optimizers with per-parameter
// state and the Lookahead wrapper.
//
// # Overview
//
// Every optimizer turns a gradient into an update: Apply(x, dx) returns the
// update the caller subtracts from x. Optimizers are classified by
// GradientStyle:
//   - Stateless: Descent, WeightDecay, ClipValue, ClipNorm
//   - Stateful: Momentum, Nesterov, RMSProp, AdaGrad, AdaDelta, Adam, RAdam, AMSGrad
//   - Chain: Stateful when any member is
//   - Lookahead: always Stateful
//
// State is kept per parameter, keyed by tensor identity, and created on
// first use. GetState, ResetState and MomentumBuffers fail with
// ErrStatelessAccess for Stateless optimizers.
//
// # Basic Usage
//
//	import (
//	    "github.com/born-ml/lookahead/optim"
//	    "github.com/born-ml/lookahead/tensor"
//	)
//
//	func main() {
//	    w := tensor.Vector(0.5, -1.0)
//
//	    opt, err := optim.NewLookahead(
//	        optim.NewChain(optim.NewClipNorm(1), optim.NewAdam(optim.AdamConfig{})),
//	        optim.LookaheadConfig{Alpha: 0.5, K: 6, Sync: optim.PullbackSync{}},
//	    )
//	    if err != nil {
//	        log.Fatal(err)
//	    }
//
//	    updater := optim.NewUpdater(opt, []*tensor.Tensor{w}, optim.UpdaterConfig{})
//	    for range 100 {
//	        grad := computeGrad(w)
//	        if err := updater.Step(map[tensor.ID]*tensor.Tensor{w.ID(): grad}); err != nil {
//	            log.Fatal(err)
//	        }
//	    }
//	}
//
// # Lookahead Sync Policies
//
// At every k-th step of a parameter Lookahead moves it onto its slow weights.
// The sync policy decides what happens to the inner optimizer's momentum:
//
//	optim.NoOpSync{}     // keep it
//	optim.ResetSync{}    // reinitialise it
//	optim.PullbackSync{} // blend it with a slow companion
//
// ResetSync and PullbackSync need a Stateful inner optimizer; NewLookahead
// returns a *ConfigurationError otherwise.
//
// # Declarative Configuration
//
// Optimizer trees can be described in YAML and built with Config.Build:
//
//	kind: lookahead
//	k: 6
//	sync: pullback
//	inner:
//	  kind: adam
//	  lr: 0.001
package optim
