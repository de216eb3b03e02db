package optim

import (
	"strings"

	"github.com/pkg/errors"
	"gonum.org/v1/gonum/floats"

	"github.com/born-ml/lookahead/internal/tensor"
)

// SyncPolicy decides what happens to the inner optimizer's momentum when
// Lookahead moves a parameter onto its slow weights.
//
// Implementations: NoOpSync, ResetSync, PullbackSync.
type SyncPolicy interface {
	// Name returns the policy name as accepted by ParseSyncPolicy.
	Name() string

	// RequiresInnerState reports whether the policy can only be used with a
	// Stateful inner optimizer. Checked when the Lookahead is constructed.
	RequiresInnerState() bool

	// Sync runs after the slow-weight update of x.
	Sync(l *Lookahead, x *tensor.Tensor) error
}

// NoOpSync leaves the inner optimizer untouched.
type NoOpSync struct{}

// Name implements SyncPolicy.
func (NoOpSync) Name() string { return "noop" }

// RequiresInnerState implements SyncPolicy.
func (NoOpSync) RequiresInnerState() bool { return false }

// Sync implements SyncPolicy.
func (NoOpSync) Sync(*Lookahead, *tensor.Tensor) error { return nil }

// ResetSync reinitialises the inner optimizer's state for the parameter.
//
// What "reset" means is up to the inner variant: zeroed velocities, eps-filled
// accumulators, restarted bias correction and so on.
type ResetSync struct{}

// Name implements SyncPolicy.
func (ResetSync) Name() string { return "reset" }

// RequiresInnerState implements SyncPolicy.
func (ResetSync) RequiresInnerState() bool { return true }

// Sync implements SyncPolicy.
func (ResetSync) Sync(l *Lookahead, x *tensor.Tensor) error {
	return ResetState(l.inner, x)
}

// PullbackSync blends each inner momentum buffer with a slow companion:
//
//	blended = alpha * buffer + (1 - alpha) * blended
//	buffer = blended
//
// Companions start at zero and are kept by Lookahead per buffer identity.
type PullbackSync struct{}

// Name implements SyncPolicy.
func (PullbackSync) Name() string { return "pullback" }

// RequiresInnerState implements SyncPolicy.
func (PullbackSync) RequiresInnerState() bool { return true }

// Sync implements SyncPolicy.
func (PullbackSync) Sync(l *Lookahead, x *tensor.Tensor) error {
	bufs, err := MomentumBuffers(l.inner, x)
	if err != nil {
		return err
	}
	for _, buf := range bufs {
		blended := l.blended.Get(buf)
		b := blended.Data()
		floats.Scale(1-l.alpha, b)
		floats.AddScaled(b, l.alpha, buf.Data())
		copy(buf.Data(), b)
	}
	return nil
}

// ParseSyncPolicy returns the policy named name ("noop", "reset" or
// "pullback", case-insensitive). The empty string selects NoOpSync.
func ParseSyncPolicy(name string) (SyncPolicy, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "", "noop", "none":
		return NoOpSync{}, nil
	case "reset":
		return ResetSync{}, nil
	case "pullback", "pullback_blend":
		return PullbackSync{}, nil
	default:
		return nil, errors.WithMessagef(ErrConfiguration, "unknown sync policy %q", name)
	}
}
