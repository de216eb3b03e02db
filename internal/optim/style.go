package optim

// GradientStyle classifies an optimizer variant by whether it keeps
// per-parameter state across steps.
type GradientStyle int

// Gradient styles.
const (
	// Stateless variants compute their output from the current gradient and
	// parameter only.
	Stateless GradientStyle = iota
	// Stateful variants maintain per-parameter buffers (momentum,
	// accumulators, moving averages).
	Stateful
)

// String returns a human-readable style name.
func (s GradientStyle) String() string {
	switch s {
	case Stateless:
		return "Stateless"
	case Stateful:
		return "Stateful"
	default:
		return "Unknown"
	}
}

// Merge combines two styles. Stateful dominates.
func (s GradientStyle) Merge(other GradientStyle) GradientStyle {
	if s == Stateful || other == Stateful {
		return Stateful
	}
	return Stateless
}

// MergeStyles folds Merge over styles. No styles yields Stateless.
func MergeStyles(styles ...GradientStyle) GradientStyle {
	out := Stateless
	for _, s := range styles {
		out = out.Merge(s)
	}
	return out
}

// Classify returns the declared GradientStyle of opt.
func Classify(opt Optimizer) GradientStyle {
	return opt.Style()
}

// IsStateful reports whether opt is classified Stateful.
func IsStateful(opt Optimizer) bool {
	return Classify(opt) == Stateful
}
