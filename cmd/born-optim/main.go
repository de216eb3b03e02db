// Package main provides the born-optim CLI: inspect and exercise optimizer
// trees described in YAML.
package main

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"

	"github.com/born-ml/lookahead/optim"
	"github.com/born-ml/lookahead/tensor"
)

const version = "v0.0.1-dev"

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "born-optim",
		Short: "Born optimizer toolkit",
		Long: `born-optim builds optimizer trees from YAML descriptions.

It can:
  - print an optimizer tree with the gradient style of every node
  - run an optimizer on a quadratic toy problem`,
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.AddCommand(newVersionCmd(), newClassifyCmd(), newRunCmd())
	return root
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Show version",
		Run: func(cmd *cobra.Command, _ []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "born-optim %s\n", version)
		},
	}
}

func newClassifyCmd() *cobra.Command {
	var configPath string

	cmd := &cobra.Command{
		Use:   "classify",
		Short: "Print an optimizer tree and its gradient styles",
		Example: `  # Show the tree of a Lookahead configuration
  born-optim classify -c lookahead.yaml`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			opt, err := buildOptimizer(configPath, nil)
			if err != nil {
				return err
			}
			printTree(cmd.OutOrStdout(), opt, 0)
			return nil
		},
	}
	cmd.Flags().StringVarP(&configPath, "config", "c", "", "optimizer YAML file")
	_ = cmd.MarkFlagRequired("config")
	return cmd
}

type runOptions struct {
	configPath string
	steps      int
	dim        int
	start      float64
	target     float64
	verbose    bool
}

func newRunCmd() *cobra.Command {
	var opts runOptions

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Minimise a quadratic with the configured optimizer",
		Long: `Run the configured optimizer on f(x) = 0.5 * ||x - target||²,
starting from x = start in every dimension, and report the final point.`,
		Example: `  # 200 steps from 5.0 towards 0, logging every Lookahead sync
  born-optim run -c lookahead.yaml --steps 200 --start 5 --verbose`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runQuadratic(cmd.OutOrStdout(), cmd.ErrOrStderr(), opts)
		},
	}
	f := cmd.Flags()
	f.StringVarP(&opts.configPath, "config", "c", "", "optimizer YAML file")
	f.IntVar(&opts.steps, "steps", 100, "number of optimizer steps")
	f.IntVar(&opts.dim, "dim", 1, "number of dimensions")
	f.Float64Var(&opts.start, "start", 1, "initial value of every coordinate")
	f.Float64Var(&opts.target, "target", 0, "minimum of the quadratic")
	f.BoolVarP(&opts.verbose, "verbose", "v", false, "log every step and sync")
	_ = cmd.MarkFlagRequired("config")
	return cmd
}

func buildOptimizer(path string, logger *slog.Logger) (optim.Optimizer, error) {
	cfg, err := optim.LoadConfig(path)
	if err != nil {
		return nil, err
	}
	opt, err := cfg.Build(logger)
	if err != nil {
		return nil, errors.WithMessage(err, path)
	}
	return opt, nil
}

func runQuadratic(stdout, stderr io.Writer, opts runOptions) error {
	if opts.dim < 1 {
		return errors.Errorf("--dim must be positive, got %d", opts.dim)
	}
	if opts.steps < 0 {
		return errors.Errorf("--steps must not be negative, got %d", opts.steps)
	}

	level := slog.LevelInfo
	if opts.verbose {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(stderr, &slog.HandlerOptions{Level: level}))

	opt, err := buildOptimizer(opts.configPath, logger)
	if err != nil {
		return err
	}

	x, err := tensor.Full(tensor.Shape{opts.dim}, opts.start)
	if err != nil {
		return err
	}
	updater := optim.NewUpdater(opt, []*tensor.Tensor{x}, optim.UpdaterConfig{Logger: logger})

	for range opts.steps {
		grad := x.Clone()
		for i := range grad.Data() {
			grad.Data()[i] -= opts.target
		}
		if err := updater.Step(map[tensor.ID]*tensor.Tensor{x.ID(): grad}); err != nil {
			return errors.WithMessagef(err, "step %d", updater.Steps())
		}
	}

	fmt.Fprintf(stdout, "optimizer: %s\n", opt.Name())
	fmt.Fprintf(stdout, "steps:     %d\n", updater.Steps())
	fmt.Fprintf(stdout, "x:         %s\n", x)
	fmt.Fprintf(stdout, "loss:      %.6g\n", quadraticLoss(x, opts.target))
	return nil
}

func quadraticLoss(x *tensor.Tensor, target float64) float64 {
	var sum float64
	for _, v := range x.Data() {
		d := v - target
		sum += d * d
	}
	return 0.5 * sum
}

func printTree(w io.Writer, opt optim.Optimizer, depth int) {
	indent := strings.Repeat("  ", depth)
	switch o := opt.(type) {
	case *optim.Chain:
		fmt.Fprintf(w, "%sChain [%s]\n", indent, optim.Classify(o))
		for _, step := range o.Steps() {
			printTree(w, step, depth+1)
		}
	case *optim.Lookahead:
		fmt.Fprintf(w, "%sLookahead alpha=%g k=%d sync=%s [%s]\n",
			indent, o.Alpha(), o.K(), o.SyncPolicy().Name(), optim.Classify(o))
		printTree(w, o.Inner(), depth+1)
	default:
		fmt.Fprintf(w, "%s%s [%s]\n", indent, o.Name(), optim.Classify(o))
	}
}
