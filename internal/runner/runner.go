package runner

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"sort"
	"strings"

	"github.com/dshills/gitnewer/internal/fileset"
	"github.com/dshills/gitnewer/internal/logger"
	"github.com/dshills/gitnewer/internal/store"
	"github.com/google/uuid"
)

var (
	// ErrTaskNotFound means a spec names no registered task, alias, or exec task.
	ErrTaskNotFound = errors.New("task not found")
	// ErrTargetNotFound means a spec names a target its task does not configure.
	ErrTargetNotFound = errors.New("target not found")
)

// TaskFunc is the body of a registered task.
type TaskFunc func(ctx context.Context, t *Task) error

// Normalizer expands a target's file declaration into groups.
type Normalizer interface {
	Normalize(target map[string]any) ([]fileset.Group, error)
}

type registered struct {
	desc string
	fn   TaskFunc
}

type entry struct {
	spec   string
	always bool
}

// Runner executes task specs one at a time.
type Runner struct {
	Stdout io.Writer
	Stderr io.Writer
	// Force keeps the queue running after a failure.
	Force bool
	Host  Normalizer

	store *store.Store
	log   *logger.Logger
	tasks map[string]registered
}

// New returns a Runner over s. A nil log uses the root logger.
func New(s *store.Store, log *logger.Logger) *Runner {
	if log == nil {
		log = logger.Named("runner")
	}
	return &Runner{
		Stdout: os.Stdout,
		Stderr: os.Stderr,
		Host:   fileset.Disk{},
		store:  s,
		log:    log,
		tasks:  make(map[string]registered),
	}
}

// Store returns the live configuration store.
func (r *Runner) Store() *store.Store {
	return r.store
}

// Register adds a named task.
func (r *Runner) Register(name, desc string, fn TaskFunc) {
	r.tasks[name] = registered{desc: desc, fn: fn}
}

// Describe returns the description of a registered task.
func (r *Runner) Describe(name string) (string, bool) {
	reg, ok := r.tasks[name]
	return reg.desc, ok
}

// Registered returns the registered task names in sorted order.
func (r *Runner) Registered() []string {
	names := make([]string, 0, len(r.tasks))
	for n := range r.tasks {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

// Run executes specs and everything they schedule. It returns the first task
// error; follow-ups scheduled with RunAlways run even after a failure.
func (r *Runner) Run(ctx context.Context, specs ...string) error {
	log := r.log.With().Str("run_id", uuid.NewString()).Logger()
	queue := toEntries(specs, false)

	var firstErr error
	for len(queue) > 0 {
		e := queue[0]
		queue = queue[1:]

		if firstErr == nil && ctx.Err() != nil {
			firstErr = ctx.Err()
		}
		if firstErr != nil && !r.Force && !e.always {
			log.Debug().Str("task", e.spec).Msg("skipped after failure")
			continue
		}

		log.Debug().Str("task", e.spec).Msg("running task")
		next, err := r.dispatch(ctx, e.spec, &log)
		queue = append(next, queue...)
		if err != nil {
			err = fmt.Errorf("task %q: %w", e.spec, err)
			log.Error().Err(err).Msg("task failed")
			if firstErr == nil {
				firstErr = err
			}
		}
	}
	return firstErr
}

func (r *Runner) dispatch(ctx context.Context, spec string, log *logger.Logger) ([]entry, error) {
	name, args := ParseSpec(spec)
	if name == "" {
		return nil, fmt.Errorf("%w: empty task name", ErrTaskNotFound)
	}
	t := &Task{Name: name, Args: args, runner: r, log: log}

	if reg, ok := r.tasks[name]; ok {
		err := reg.fn(ctx, t)
		return t.scheduled, err
	}
	if alias, ok := r.store.Alias(name); ok {
		return toEntries(alias, false), nil
	}
	if r.isExecTask(name) {
		err := r.runExec(ctx, t)
		return t.scheduled, err
	}
	return nil, fmt.Errorf("%w: %s", ErrTaskNotFound, name)
}

// ParseSpec splits "name:arg1:arg2" into its name and arguments.
func ParseSpec(spec string) (string, []string) {
	parts := strings.Split(spec, ":")
	return parts[0], parts[1:]
}

// JoinSpec builds a spec from a name and arguments, dropping empty trailing
// arguments.
func JoinSpec(name string, args ...string) string {
	for len(args) > 0 && args[len(args)-1] == "" {
		args = args[:len(args)-1]
	}
	return strings.Join(append([]string{name}, args...), ":")
}

// IsTargetName reports whether a task configuration key names a runnable
// target rather than options or a private entry.
func IsTargetName(key string) bool {
	return key != "options" && !strings.HasPrefix(key, "_")
}

func toEntries(specs []string, always bool) []entry {
	out := make([]entry, 0, len(specs))
	for _, s := range specs {
		out = append(out, entry{spec: s, always: always})
	}
	return out
}

// Task is the handle a running task uses to talk to the runner.
type Task struct {
	Name string
	Args []string

	runner    *Runner
	log       *logger.Logger
	scheduled []entry
}

// Store returns the live configuration store.
func (t *Task) Store() *store.Store {
	return t.runner.store
}

// Log returns the run-scoped logger.
func (t *Task) Log() *logger.Logger {
	return t.log
}

// Run schedules specs to run right after this task, in order.
func (t *Task) Run(specs ...string) {
	t.scheduled = append(t.scheduled, toEntries(specs, false)...)
}

// RunAlways schedules specs that run even if an earlier task fails.
func (t *Task) RunAlways(specs ...string) {
	t.scheduled = append(t.scheduled, toEntries(specs, true)...)
}

// Targets returns the runnable targets configured for task, sorted. ok is
// false when the task has no configuration object.
func (t *Task) Targets(task string) ([]string, bool) {
	keys, ok := t.runner.store.Targets(task)
	if !ok {
		return nil, false
	}
	var targets []string
	for _, k := range keys {
		if IsTargetName(k) {
			targets = append(targets, k)
		}
	}
	return targets, true
}
