package gitnewer

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	"github.com/dshills/gitnewer/internal/config"
	"github.com/dshills/gitnewer/internal/fileset"
	"github.com/dshills/gitnewer/internal/filter"
	"github.com/dshills/gitnewer/internal/runner"
	"github.com/dshills/gitnewer/internal/vault"
)

// Registered task names.
const (
	TaskName        = "gitnewer"
	PrefixTaskName  = "gitnewer-prefix"
	PostrunTaskName = "gitnewer-postrun"
)

// ErrAliasUnsupported is returned when no target is given and the task has no
// configuration to enumerate targets from.
var ErrAliasUnsupported = errors.New("prefix is not supported for aliases")

// VCS is the version-control collaborator.
type VCS interface {
	RepoRoot(ctx context.Context) (string, error)
	ChangedFiles(ctx context.Context, root, branch, diffFilter string) ([]string, error)
}

// Plugin holds the collaborators shared by the gitnewer tasks.
type Plugin struct {
	VCS   VCS
	Vault *vault.Vault
	Host  filter.Host
	// Defaults come from the user config and environment.
	Defaults config.Options
	// Override fields, when non-empty, beat every task-file setting.
	Override config.Options
}

// New returns a Plugin using on-disk file expansion and a fresh vault.
func New(vcs VCS, defaults config.Options) *Plugin {
	return &Plugin{
		VCS:      vcs,
		Vault:    vault.New(),
		Host:     fileset.Disk{},
		Defaults: defaults,
	}
}

// Register adds the gitnewer tasks to r.
func (p *Plugin) Register(r *runner.Runner) {
	r.Register(TaskName,
		"Run a task with only those source files that have been modified since a git revision.",
		p.filterTask(filter.Exact))
	r.Register(PrefixTaskName,
		"Run a task with only those source directories containing files modified since a git revision.",
		p.filterTask(filter.Prefix))
	r.Register(PostrunTaskName, "Internal task.", p.restoreTask)
}

func (p *Plugin) filterTask(mode filter.Mode) runner.TaskFunc {
	return func(ctx context.Context, t *runner.Task) error {
		if len(t.Args) == 0 {
			return fmt.Errorf("usage: %s:<task>[:<target>][:<args>...]", t.Name)
		}
		taskName := t.Args[0]

		if len(t.Args) < 2 || t.Args[1] == "" {
			targets, ok := t.Targets(taskName)
			if !ok {
				return fmt.Errorf("the %q %w", t.Name, ErrAliasUnsupported)
			}
			for _, target := range targets {
				t.Run(runner.JoinSpec(t.Name, taskName, target))
			}
			return nil
		}
		targetName, extra := t.Args[1], t.Args[2:]
		return p.filterTarget(ctx, t, mode, taskName, targetName, extra)
	}
}

func (p *Plugin) filterTarget(ctx context.Context, t *runner.Task, mode filter.Mode, taskName, targetName string, extra []string) error {
	log := t.Log().With().
		Str("task", taskName).
		Str("target", targetName).
		Stringer("mode", mode).
		Logger()

	raw, ok := t.Store().Get(taskName, targetName)
	if !ok {
		return fmt.Errorf("%w: %s:%s", runner.ErrTargetNotFound, taskName, targetName)
	}
	target, ok := raw.(map[string]any)
	if !ok {
		return fmt.Errorf("target %s:%s must be an object", taskName, targetName)
	}
	opts, err := p.options(t, taskName, targetName)
	if err != nil {
		return err
	}

	handle := p.Vault.Store(target)
	discard := func() { _, _ = p.Vault.Take(handle) }

	root, err := p.VCS.RepoRoot(ctx)
	if err != nil {
		discard()
		return err
	}
	changed, err := p.VCS.ChangedFiles(ctx, root, opts.Branch, opts.DiffFilter)
	if err != nil {
		discard()
		return err
	}
	log.Debug().
		Str("branch", opts.Branch).
		Str("diffFilter", opts.DiffFilter).
		Strs("changed", changed).
		Msg("modified files")

	res, err := filter.Filter{Mode: mode, Host: p.Host}.Rewrite(target, changed)
	if err != nil {
		discard()
		return fmt.Errorf("filtering %s:%s: %w", taskName, targetName, err)
	}
	if len(res.Matched) == 0 {
		discard()
		log.Debug().Stringer("shape", res.Shape).Msg("no changed files, skipping")
		return nil
	}

	if err := t.Store().Set([]string{taskName, targetName}, res.Target); err != nil {
		discard()
		return err
	}
	log.Info().
		Int("files", len(res.Matched)).
		Stringer("shape", res.Shape).
		Int("handle", handle).
		Msg("running with changed files")

	t.Run(runner.JoinSpec(taskName, append([]string{targetName}, extra...)...))
	t.RunAlways(runner.JoinSpec(PostrunTaskName, taskName, targetName, strconv.Itoa(handle)))
	return nil
}

func (p *Plugin) restoreTask(ctx context.Context, t *runner.Task) error {
	if len(t.Args) != 3 {
		return fmt.Errorf("usage: %s:<task>:<target>:<handle>", t.Name)
	}
	taskName, targetName := t.Args[0], t.Args[1]
	handle, err := strconv.Atoi(t.Args[2])
	if err != nil {
		return fmt.Errorf("invalid handle %q: %w", t.Args[2], err)
	}
	cfg, err := p.Vault.Take(handle)
	if err != nil {
		return err
	}
	if err := t.Store().Set([]string{taskName, targetName}, cfg); err != nil {
		return err
	}
	t.Log().Debug().
		Str("task", taskName).
		Str("target", targetName).
		Int("handle", handle).
		Msg("configuration restored")
	return nil
}

// options layers the diff settings: defaults, then the task file's
// "<plugin task>.options", then the target's "gitnewer" block, then overrides.
func (p *Plugin) options(t *runner.Task, taskName, targetName string) (config.Options, error) {
	opts := p.Defaults
	layers := [][]string{
		{t.Name, "options"},
		{taskName, targetName, TaskName},
	}
	for _, path := range layers {
		raw, _ := t.Store().Get(path...)
		var err error
		if opts, err = config.MergeOptions(opts, raw); err != nil {
			return opts, err
		}
	}
	if p.Override.DiffFilter != "" {
		opts.DiffFilter = p.Override.DiffFilter
	}
	if p.Override.Branch != "" {
		opts.Branch = p.Override.Branch
	}
	if err := config.Validate(opts); err != nil {
		return opts, err
	}
	return opts, nil
}
