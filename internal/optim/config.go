package optim

import (
	"bytes"
	"log/slog"
	"os"
	"strings"

	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"
)

// Optimizer kinds accepted by Config.
const (
	KindDescent     = "descent"
	KindWeightDecay = "weight_decay"
	KindClipValue   = "clip_value"
	KindClipNorm    = "clip_norm"
	KindMomentum    = "momentum"
	KindNesterov    = "nesterov"
	KindRMSProp     = "rmsprop"
	KindAdaGrad     = "adagrad"
	KindAdaDelta    = "adadelta"
	KindAdam        = "adam"
	KindRAdam       = "radam"
	KindAMSGrad     = "amsgrad"
	KindAdamW       = "adamw"
	KindChain       = "chain"
	KindLookahead   = "lookahead"
)

// Config is a declarative description of an optimizer tree.
//
// Zero-valued hyperparameters take the defaults of the matching constructor.
//
// Example (YAML):
//
//	kind: lookahead
//	alpha: 0.5
//	k: 6
//	sync: pullback
//	inner:
//	  kind: chain
//	  steps:
//	    - kind: clip_norm
//	      threshold: 1.0
//	    - kind: adam
//	      lr: 0.001
type Config struct {
	Kind string `yaml:"kind"`

	LR        float64   `yaml:"lr,omitempty"`
	Rho       float64   `yaml:"rho,omitempty"`
	Eps       float64   `yaml:"eps,omitempty"`
	Betas     []float64 `yaml:"betas,omitempty"`
	Decay     float64   `yaml:"decay,omitempty"`
	Threshold float64   `yaml:"threshold,omitempty"`

	// Lookahead
	Alpha float64 `yaml:"alpha,omitempty"`
	K     int     `yaml:"k,omitempty"`
	Sync  string  `yaml:"sync,omitempty"`
	Inner *Config `yaml:"inner,omitempty"`

	// Chain
	Steps []Config `yaml:"steps,omitempty"`
}

// ParseConfig decodes a YAML optimizer description. Unknown fields are errors.
func ParseConfig(data []byte) (*Config, error) {
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)

	var cfg Config
	if err := dec.Decode(&cfg); err != nil {
		return nil, errors.Wrap(err, "decode optimizer config")
	}
	return &cfg, nil
}

// LoadConfig reads and decodes a YAML optimizer description from path.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrapf(err, "read optimizer config %s", path)
	}
	cfg, err := ParseConfig(data)
	if err != nil {
		return nil, errors.WithMessage(err, path)
	}
	return cfg, nil
}

// Build constructs the optimizer tree described by c. logger is handed to
// every Lookahead in the tree; nil discards.
func (c *Config) Build(logger *slog.Logger) (Optimizer, error) {
	kind := strings.ToLower(strings.TrimSpace(c.Kind))
	switch kind {
	case KindDescent:
		return NewDescent(DescentConfig{LR: c.LR}), nil
	case KindWeightDecay:
		return NewWeightDecay(c.Decay), nil
	case KindClipValue, KindClipNorm:
		if c.Threshold <= 0 {
			return nil, &ConfigurationError{Optimizer: kind, Field: "threshold", Reason: "must be positive"}
		}
		if kind == KindClipValue {
			return NewClipValue(c.Threshold), nil
		}
		return NewClipNorm(c.Threshold), nil
	case KindMomentum:
		return NewMomentum(MomentumConfig{LR: c.LR, Rho: c.Rho}), nil
	case KindNesterov:
		return NewNesterov(MomentumConfig{LR: c.LR, Rho: c.Rho}), nil
	case KindRMSProp:
		return NewRMSProp(RMSPropConfig{LR: c.LR, Rho: c.Rho, Eps: c.Eps}), nil
	case KindAdaGrad:
		return NewAdaGrad(AdaGradConfig{LR: c.LR, Eps: c.Eps}), nil
	case KindAdaDelta:
		return NewAdaDelta(AdaDeltaConfig{Rho: c.Rho, Eps: c.Eps}), nil
	case KindAdam, KindRAdam, KindAMSGrad, KindAdamW:
		betas, err := c.betas(kind)
		if err != nil {
			return nil, err
		}
		ac := AdamConfig{LR: c.LR, Betas: betas, Eps: c.Eps}
		switch kind {
		case KindAdam:
			return NewAdam(ac), nil
		case KindRAdam:
			return NewRAdam(ac), nil
		case KindAMSGrad:
			return NewAMSGrad(ac), nil
		default:
			return NewAdamW(AdamWConfig{LR: c.LR, Betas: betas, Eps: c.Eps, Decay: c.Decay}), nil
		}
	case KindChain:
		steps := make([]Optimizer, len(c.Steps))
		for i := range c.Steps {
			s, err := c.Steps[i].Build(logger)
			if err != nil {
				return nil, errors.WithMessagef(err, "chain step %d", i)
			}
			steps[i] = s
		}
		return NewChain(steps...), nil
	case KindLookahead:
		if c.Inner == nil {
			return nil, &ConfigurationError{Optimizer: kind, Field: "inner", Reason: "inner optimizer is required"}
		}
		inner, err := c.Inner.Build(logger)
		if err != nil {
			return nil, errors.WithMessage(err, "lookahead inner")
		}
		policy, err := ParseSyncPolicy(c.Sync)
		if err != nil {
			return nil, err
		}
		la, err := NewLookahead(inner, LookaheadConfig{Alpha: c.Alpha, K: c.K, Sync: policy, Logger: logger})
		if err != nil {
			return nil, err
		}
		return la, nil
	case "":
		return nil, &ConfigurationError{Optimizer: "config", Field: "kind", Reason: "missing optimizer kind"}
	default:
		return nil, &ConfigurationError{Optimizer: "config", Field: "kind", Reason: "unknown optimizer kind " + c.Kind}
	}
}

func (c *Config) betas(kind string) ([2]float64, error) {
	switch len(c.Betas) {
	case 0:
		return [2]float64{}, nil
	case 2:
		return [2]float64{c.Betas[0], c.Betas[1]}, nil
	default:
		return [2]float64{}, &ConfigurationError{Optimizer: kind, Field: "betas", Reason: "expected exactly two values"}
	}
}
