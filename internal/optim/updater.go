package optim

import (
	"log/slog"

	"github.com/pkg/errors"
	"gonum.org/v1/gonum/floats"

	"github.com/born-ml/lookahead/internal/parallel"
	"github.com/born-ml/lookahead/internal/tensor"
)

// Updater drives an optimizer over a fixed parameter set.
//
// Each Step applies the optimizer to every parameter that has a gradient and
// subtracts the returned update from the parameter:
//
//	dx = opt.Apply(x, grad)
//	x = x - dx
//
// Example:
//
//	updater := optim.NewUpdater(opt, params, optim.UpdaterConfig{})
//	for step := range steps {
//	    grads := computeGrads(params)
//	    if err := updater.Step(grads); err != nil {
//	        return err
//	    }
//	}
type Updater struct {
	opt      Optimizer
	params   []*tensor.Tensor
	parallel parallel.Config
	logger   *slog.Logger
	steps    int
}

// UpdaterConfig holds configuration for Updater.
type UpdaterConfig struct {
	Parallel parallel.Config // Fan-out across parameters (default: sequential)
	Logger   *slog.Logger    // Debug log per step (default: discard)
}

// NewUpdater creates an Updater for params.
func NewUpdater(opt Optimizer, params []*tensor.Tensor, config UpdaterConfig) *Updater {
	if config.Logger == nil {
		config.Logger = slog.New(slog.DiscardHandler)
	}
	return &Updater{
		opt:      opt,
		params:   append([]*tensor.Tensor(nil), params...),
		parallel: config.Parallel,
		logger:   config.Logger,
	}
}

// Optimizer returns the driven optimizer.
func (u *Updater) Optimizer() Optimizer { return u.opt }

// Params returns the parameter set.
func (u *Updater) Params() []*tensor.Tensor { return u.params }

// Steps returns the number of completed Step calls.
func (u *Updater) Steps() int { return u.steps }

// Step performs a single optimization step.
//
// grads maps parameter ID to gradient; gradient buffers are consumed (they
// are transformed in place). Parameters with no gradient are skipped. One
// gradient buffer supplied for two parameters is rejected before anything is
// applied. An update returned together with an error (a failed Lookahead
// sync) is still subtracted, keeping parameters consistent with the state the
// optimizer has already stored.
func (u *Updater) Step(grads map[tensor.ID]*tensor.Tensor) error {
	owner := make(map[tensor.ID]int, len(grads))
	for i, p := range u.params {
		g := grads[p.ID()]
		if g == nil {
			continue
		}
		if j, dup := owner[g.ID()]; dup {
			return errors.Errorf("gradient %s supplied for parameters %d and %d", g.ID(), j, i)
		}
		owner[g.ID()] = i
	}

	err := parallel.For(len(u.params), func(i int) error {
		x := u.params[i]
		g := grads[x.ID()]
		if g == nil {
			// Parameter didn't participate in the step, skip
			return nil
		}

		dx, err := u.opt.Apply(x, g)
		if dx != nil && tensor.CheckSameShape(x, dx) == nil {
			floats.Sub(x.Data(), dx.Data())
		}
		if err != nil {
			return errors.WithMessagef(err, "parameter %d", i)
		}
		return nil
	}, u.parallel)

	u.steps++
	u.logger.Debug("optimizer step",
		slog.Int("step", u.steps),
		slog.String("optimizer", u.opt.Name()),
		slog.Int("params", len(grads)))
	return err
}
