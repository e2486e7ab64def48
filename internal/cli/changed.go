package cli

import (
	"fmt"
	"path/filepath"

	"github.com/dshills/gitnewer/internal/gitctx"
	"github.com/spf13/cobra"
)

var flagAbs bool

var changedCmd = &cobra.Command{
	Use:   "changed",
	Short: "Print the files changed since the configured revision",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig(cmd)
		if err != nil {
			fail(cmd, err)
			return nil
		}

		ctx := cmd.Context()
		git := gitctx.Client{}
		root, err := git.RepoRoot(ctx)
		if err != nil {
			fmt.Fprintf(cmd.ErrOrStderr(), "Error: %v\n", err)
			exitCode = ExitRuntimeError
			return nil
		}
		opts := cfg.Options()
		files, err := git.ChangedFiles(ctx, root, opts.Branch, opts.DiffFilter)
		if err != nil {
			fmt.Fprintf(cmd.ErrOrStderr(), "Error: %v\n", err)
			exitCode = ExitRuntimeError
			return nil
		}

		out := cmd.OutOrStdout()
		for _, f := range files {
			if !flagAbs {
				if rel, err := filepath.Rel(root, f); err == nil {
					f = rel
				}
			}
			fmt.Fprintln(out, f)
		}
		return nil
	},
}

func init() {
	changedCmd.Flags().BoolVar(&flagAbs, "abs", false, "Print absolute paths")
}
