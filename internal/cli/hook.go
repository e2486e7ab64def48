package cli

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/dshills/gitnewer/internal/gitctx"
	"github.com/spf13/cobra"
)

const (
	hookMarkerStart = "# >>> gitnewer pre-commit hook >>>"
	hookMarkerEnd   = "# <<< gitnewer pre-commit hook <<<"
)

var (
	hookTasks      []string
	hookPrefix     bool
	hookBranch     string
	hookDiffFilter string
)

var hookCmd = &cobra.Command{
	Use:   "hook",
	Short: "Manage git pre-commit hook",
}

var hookInstallCmd = &cobra.Command{
	Use:   "install",
	Short: "Install gitnewer as a git pre-commit hook",
	RunE: func(cmd *cobra.Command, args []string) error {
		if len(hookTasks) == 0 {
			return fmt.Errorf("at least one --task is required")
		}

		hookPath, err := getHookPath(cmd.Context())
		if err != nil {
			fmt.Fprintf(cmd.ErrOrStderr(), "Error: %v\n", err)
			exitCode = ExitRuntimeError
			return nil
		}

		section := generateHookScript(hookTasks, hookPrefix, hookBranch, hookDiffFilter)

		existing, err := os.ReadFile(hookPath)
		if err != nil && !os.IsNotExist(err) {
			fmt.Fprintf(cmd.ErrOrStderr(), "Error reading hook file: %v\n", err)
			exitCode = ExitRuntimeError
			return nil
		}

		var content string
		if os.IsNotExist(err) || len(existing) == 0 {
			content = "#!/bin/sh\n" + section
		} else {
			content = replaceHookSection(string(existing), section)
		}

		if err := os.MkdirAll(filepath.Dir(hookPath), 0o755); err != nil {
			fmt.Fprintf(cmd.ErrOrStderr(), "Error creating hooks directory: %v\n", err)
			exitCode = ExitRuntimeError
			return nil
		}

		if err := os.WriteFile(hookPath, []byte(content), 0o755); err != nil {
			fmt.Fprintf(cmd.ErrOrStderr(), "Error writing hook file: %v\n", err)
			exitCode = ExitRuntimeError
			return nil
		}

		fmt.Fprintf(cmd.OutOrStdout(), "Installed gitnewer pre-commit hook at %s\n", hookPath)
		return nil
	},
}

var hookUninstallCmd = &cobra.Command{
	Use:   "uninstall",
	Short: "Remove gitnewer pre-commit hook",
	RunE: func(cmd *cobra.Command, args []string) error {
		hookPath, err := getHookPath(cmd.Context())
		if err != nil {
			fmt.Fprintf(cmd.ErrOrStderr(), "Error: %v\n", err)
			exitCode = ExitRuntimeError
			return nil
		}

		existing, err := os.ReadFile(hookPath)
		if err != nil {
			if os.IsNotExist(err) {
				fmt.Fprintln(cmd.OutOrStdout(), "No pre-commit hook found.")
				return nil
			}
			fmt.Fprintf(cmd.ErrOrStderr(), "Error reading hook file: %v\n", err)
			exitCode = ExitRuntimeError
			return nil
		}

		content := removeHookSection(string(existing))

		// If only shebang (and whitespace) remains, delete the file entirely
		trimmed := strings.TrimSpace(content)
		if trimmed == "" || trimmed == "#!/bin/sh" || trimmed == "#!/bin/bash" {
			if err := os.Remove(hookPath); err != nil {
				fmt.Fprintf(cmd.ErrOrStderr(), "Error removing hook file: %v\n", err)
				exitCode = ExitRuntimeError
				return nil
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Removed gitnewer pre-commit hook at %s\n", hookPath)
			return nil
		}

		if err := os.WriteFile(hookPath, []byte(content), 0o755); err != nil {
			fmt.Fprintf(cmd.ErrOrStderr(), "Error writing hook file: %v\n", err)
			exitCode = ExitRuntimeError
			return nil
		}

		fmt.Fprintf(cmd.OutOrStdout(), "Removed gitnewer section from %s\n", hookPath)
		return nil
	},
}

func getHookPath(ctx context.Context) (string, error) {
	gitDir, err := gitctx.Client{}.GitDir(ctx)
	if err != nil {
		return "", err
	}
	return filepath.Join(gitDir, "hooks", "pre-commit"), nil
}

// generateHookScript renders one `gitnewer queue` call covering every task so
// a failure in any of them blocks the commit.
func generateHookScript(tasks []string, prefix bool, branch, diffFilter string) string {
	var b strings.Builder
	b.WriteString(hookMarkerStart + "\n")
	b.WriteString("gitnewer queue")
	if branch != "" {
		fmt.Fprintf(&b, " --branch %s", shellQuote(branch))
	}
	if diffFilter != "" {
		fmt.Fprintf(&b, " --diff-filter %s", shellQuote(diffFilter))
	}
	name := "gitnewer"
	if prefix {
		name = "gitnewer-prefix"
	}
	for _, task := range tasks {
		fmt.Fprintf(&b, " %s", shellQuote(name+":"+task))
	}
	b.WriteString("\n")
	b.WriteString("GITNEWER_EXIT=$?\n")
	b.WriteString("if [ $GITNEWER_EXIT -ne 0 ]; then\n")
	b.WriteString("  echo \"gitnewer: tasks failed on changed files (exit $GITNEWER_EXIT), commit blocked\"\n")
	b.WriteString("  exit 1\n")
	b.WriteString("fi\n")
	b.WriteString(hookMarkerEnd + "\n")
	return b.String()
}

// shellQuote wraps s in single quotes for /bin/sh.
func shellQuote(s string) string {
	return "'" + strings.ReplaceAll(s, "'", `'\''`) + "'"
}

func replaceHookSection(existing, section string) string {
	startIdx := strings.Index(existing, hookMarkerStart)
	endIdx := strings.Index(existing, hookMarkerEnd)

	if startIdx == -1 || endIdx == -1 {
		if !strings.HasSuffix(existing, "\n") {
			existing += "\n"
		}
		return existing + section
	}

	before := existing[:startIdx]
	after := existing[endIdx+len(hookMarkerEnd):]
	// Trim leading newline from after to avoid double newlines
	after = strings.TrimPrefix(after, "\n")
	return before + section + after
}

func removeHookSection(existing string) string {
	startIdx := strings.Index(existing, hookMarkerStart)
	endIdx := strings.Index(existing, hookMarkerEnd)

	if startIdx == -1 || endIdx == -1 {
		return existing
	}

	before := existing[:startIdx]
	after := existing[endIdx+len(hookMarkerEnd):]
	after = strings.TrimPrefix(after, "\n")

	return before + after
}

func init() {
	hookCmd.AddCommand(hookInstallCmd)
	hookCmd.AddCommand(hookUninstallCmd)
	hookInstallCmd.Flags().StringSliceVar(&hookTasks, "task", nil, "Task to run on changed files (repeatable)")
	hookInstallCmd.Flags().BoolVar(&hookPrefix, "prefix", false, "Match directory targets by path prefix")
	hookInstallCmd.Flags().StringVar(&hookBranch, "branch", "", "Revision to diff against")
	hookInstallCmd.Flags().StringVar(&hookDiffFilter, "diff-filter", "", "git --diff-filter letters")
}
