package optim

import (
	"fmt"

	"github.com/pkg/errors"
)

// Common errors.
var (
	ErrStatelessAccess = errors.New("state requested from a stateless optimizer")
	ErrConfiguration   = errors.New("invalid optimizer configuration")
)

// StatelessAccessError reports a state operation on a Stateless optimizer.
// It signals a programming error and is never retried.
type StatelessAccessError struct {
	Optimizer string // Name of the optimizer
	Op        string // Operation attempted (e.g., "get state", "reset state")
}

// Error implements the error interface.
func (e *StatelessAccessError) Error() string {
	return fmt.Sprintf("%s: %s is stateless", e.Op, e.Optimizer)
}

// Is makes errors.Is(err, ErrStatelessAccess) match.
func (e *StatelessAccessError) Is(target error) bool {
	return target == ErrStatelessAccess
}

// ConfigurationError reports an invalid optimizer setup, detected before any
// training step runs.
type ConfigurationError struct {
	Optimizer string // Optimizer being configured
	Field     string // Offending setting
	Reason    string
}

// Error implements the error interface.
func (e *ConfigurationError) Error() string {
	if e.Field != "" {
		return fmt.Sprintf("%s: %s: %s", e.Optimizer, e.Field, e.Reason)
	}
	return fmt.Sprintf("%s: %s", e.Optimizer, e.Reason)
}

// Is makes errors.Is(err, ErrConfiguration) match.
func (e *ConfigurationError) Is(target error) bool {
	return target == ErrConfiguration
}
