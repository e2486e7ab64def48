package runner

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"sort"

	"github.com/dshills/gitnewer/internal/store"
)

// ExecOptions is the "options" block of an exec multi-task.
type ExecOptions struct {
	Cmd []string
	Dir string
	Env []string
}

func (r *Runner) isExecTask(name string) bool {
	v, ok := r.store.Get(name, "options", "cmd")
	return ok && v != nil
}

// execOptions reads task-level options, then lets the target's own options
// block override them.
func (r *Runner) execOptions(name string, target map[string]any) (ExecOptions, error) {
	var opts ExecOptions
	taskOpts, _ := r.store.Get(name, "options")
	for _, raw := range []any{taskOpts, target["options"]} {
		m, ok := raw.(map[string]any)
		if !ok {
			continue
		}
		if v, ok := m["cmd"]; ok {
			cmd, ok := store.Strings(v)
			if !ok || len(cmd) == 0 {
				return opts, fmt.Errorf("options.cmd must be a non-empty string or list of strings")
			}
			opts.Cmd = cmd
		}
		if v, ok := m["dir"].(string); ok {
			opts.Dir = v
		}
		if env, ok := m["env"].(map[string]any); ok {
			keys := make([]string, 0, len(env))
			for k := range env {
				keys = append(keys, k)
			}
			sort.Strings(keys)
			for _, k := range keys {
				opts.Env = append(opts.Env, fmt.Sprintf("%s=%v", k, env[k]))
			}
		}
	}
	return opts, nil
}

func (r *Runner) runExec(ctx context.Context, t *Task) error {
	if len(t.Args) == 0 {
		targets, _ := t.Targets(t.Name)
		for _, target := range targets {
			t.Run(JoinSpec(t.Name, target))
		}
		return nil
	}

	targetName, extra := t.Args[0], t.Args[1:]
	raw, ok := r.store.Get(t.Name, targetName)
	if !ok || !IsTargetName(targetName) {
		return fmt.Errorf("%w: %s:%s", ErrTargetNotFound, t.Name, targetName)
	}
	target, _ := raw.(map[string]any)
	if target == nil {
		return fmt.Errorf("target %s:%s must be an object", t.Name, targetName)
	}

	opts, err := r.execOptions(t.Name, target)
	if err != nil {
		return err
	}
	groups, err := r.Host.Normalize(target)
	if err != nil {
		return fmt.Errorf("resolving files for %s:%s: %w", t.Name, targetName, err)
	}
	var files []string
	seen := make(map[string]bool)
	for _, g := range groups {
		for _, f := range g.Src {
			if !seen[f] {
				seen[f] = true
				files = append(files, f)
			}
		}
	}

	log := t.Log().With().Str("task", t.Name).Str("target", targetName).Logger()
	if len(files) == 0 {
		log.Warn().Msg("no files matched, skipping command")
		return nil
	}

	if opts.Dir != "" {
		if files, err = relativeTo(opts.Dir, files); err != nil {
			return err
		}
	}

	args := append(append(append([]string{}, opts.Cmd[1:]...), extra...), files...)
	cmd := exec.CommandContext(ctx, opts.Cmd[0], args...)
	cmd.Dir = opts.Dir
	cmd.Env = append(os.Environ(), opts.Env...)
	cmd.Stdout = r.Stdout
	cmd.Stderr = r.Stderr

	log.Info().Int("files", len(files)).Strs("cmd", opts.Cmd).Msg("running command")
	if err := cmd.Run(); err != nil {
		return fmt.Errorf("%s: %w", opts.Cmd[0], err)
	}
	return nil
}

// relativeTo rewrites files, which are relative to the working directory, so
// they resolve from dir instead.
func relativeTo(dir string, files []string) ([]string, error) {
	base, err := filepath.Abs(dir)
	if err != nil {
		return nil, fmt.Errorf("resolving dir %s: %w", dir, err)
	}
	out := make([]string, len(files))
	for i, f := range files {
		abs, err := filepath.Abs(f)
		if err != nil {
			return nil, fmt.Errorf("resolving %s: %w", f, err)
		}
		if out[i], err = filepath.Rel(base, abs); err != nil {
			out[i] = abs
		}
	}
	return out, nil
}
