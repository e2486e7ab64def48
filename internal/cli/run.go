package cli

import (
	"context"
	"errors"
	"fmt"

	"github.com/dshills/gitnewer/internal/config"
	"github.com/dshills/gitnewer/internal/gitctx"
	"github.com/dshills/gitnewer/internal/gitnewer"
	"github.com/dshills/gitnewer/internal/logger"
	"github.com/dshills/gitnewer/internal/runner"
	"github.com/dshills/gitnewer/internal/store"
	"github.com/dshills/gitnewer/internal/vault"
	"github.com/spf13/cobra"
)

var (
	flagPrefix bool
	flagForce  bool
)

var runCmd = &cobra.Command{
	Use:   "run <task> [target] [args...]",
	Short: "Run a task over the files changed since a revision",
	Long: "Run a task target with its file list narrowed to changed files. Without a target, " +
		"every target of the task is run. Extra args are passed through to the task.",
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		runSpecs(cmd, []string{buildSpec(args, flagPrefix)})
		return nil
	},
}

var queueCmd = &cobra.Command{
	Use:   "queue <spec>...",
	Short: "Run task specs (name[:target][:args]) in order",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		runSpecs(cmd, args)
		return nil
	},
}

// buildSpec turns `run` arguments into a gitnewer task spec.
func buildSpec(args []string, prefix bool) string {
	name := gitnewer.TaskName
	if prefix {
		name = gitnewer.PrefixTaskName
	}
	return runner.JoinSpec(name, args...)
}

func runSpecs(cmd *cobra.Command, specs []string) {
	cfg, err := loadConfig(cmd)
	if err != nil {
		fail(cmd, err)
		return
	}
	s, err := store.Load(cfg.TasksFile)
	if err != nil {
		fail(cmd, err)
		return
	}

	r := newRunner(s, cfg)
	r.Stdout = cmd.OutOrStdout()
	r.Stderr = cmd.ErrOrStderr()
	if err := r.Run(cmd.Context(), specs...); err != nil {
		fail(cmd, err)
	}
}

func newRunner(s *store.Store, cfg config.Config) *runner.Runner {
	r := runner.New(s, logger.Named("runner"))
	r.Force = flagForce
	p := gitnewer.New(gitctx.Client{}, cfg.Options())
	p.Override = flagOptions()
	p.Register(r)
	return r
}

// fail reports err and records the matching exit code.
func fail(cmd *cobra.Command, err error) {
	fmt.Fprintf(cmd.ErrOrStderr(), "Error: %v\n", err)
	exitCode = exitCodeFor(err)
}

func exitCodeFor(err error) int {
	switch {
	case err == nil:
		return ExitSuccess
	case errors.Is(err, runner.ErrTaskNotFound),
		errors.Is(err, runner.ErrTargetNotFound),
		errors.Is(err, gitnewer.ErrAliasUnsupported),
		errors.Is(err, config.ErrInvalid),
		errors.Is(err, store.ErrNotFound):
		return ExitUsageError
	case errors.Is(err, vault.ErrNotFound),
		errors.Is(err, context.Canceled):
		return ExitRuntimeError
	default:
		return ExitTaskFailed
	}
}

func init() {
	runCmd.Flags().BoolVar(&flagPrefix, "prefix", false, "Match directory targets by path prefix")
	for _, c := range []*cobra.Command{runCmd, queueCmd} {
		c.Flags().BoolVar(&flagForce, "force", false, "Keep running after a task fails")
	}
}
