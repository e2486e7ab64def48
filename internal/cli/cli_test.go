package cli

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"testing"

	"github.com/dshills/gitnewer/internal/config"
	"github.com/dshills/gitnewer/internal/gitnewer"
	"github.com/dshills/gitnewer/internal/runner"
	"github.com/dshills/gitnewer/internal/store"
	"github.com/dshills/gitnewer/internal/vault"
)

// resetFlags resets all package-level flag variables to their zero values.
func resetFlags() {
	flagFile = ""
	flagBranch = ""
	flagDiffFilter = ""
	flagLogLevel = ""
	flagLogFormat = ""
	flagVerbose = false
	flagPrefix = false
	flagForce = false
	flagAbs = false
	exitCode = ExitSuccess
}

// --- buildOverrides tests ---

func TestBuildOverrides_NoFlags(t *testing.T) {
	resetFlags()
	m := buildOverrides()
	if len(m) != 0 {
		t.Errorf("expected empty overrides, got %v", m)
	}
}

func TestBuildOverrides_AllFlags(t *testing.T) {
	resetFlags()
	flagFile = "tasks.toml"
	flagBranch = "origin/main"
	flagDiffFilter = "AM"
	flagLogLevel = "warn"
	flagLogFormat = "json"

	m := buildOverrides()
	want := map[string]string{
		"tasksFile":  "tasks.toml",
		"branch":     "origin/main",
		"diffFilter": "AM",
		"logLevel":   "warn",
		"logFormat":  "json",
	}
	for k, v := range want {
		if m[k] != v {
			t.Errorf("overrides[%q] = %q, want %q", k, m[k], v)
		}
	}
}

func TestBuildOverrides_VerboseWins(t *testing.T) {
	resetFlags()
	flagLogLevel = "error"
	flagVerbose = true

	if got := buildOverrides()["logLevel"]; got != "debug" {
		t.Errorf("logLevel = %q, want debug", got)
	}
}

func TestFlagOptions(t *testing.T) {
	resetFlags()
	flagBranch = "v1.0"

	got := flagOptions()
	if got.Branch != "v1.0" || got.DiffFilter != "" {
		t.Errorf("flagOptions() = %+v", got)
	}
}

// --- run spec tests ---

func TestBuildSpec(t *testing.T) {
	tests := []struct {
		name   string
		args   []string
		prefix bool
		want   string
	}{
		{"task only", []string{"lint"}, false, "gitnewer:lint"},
		{"task and target", []string{"lint", "js"}, false, "gitnewer:lint:js"},
		{"extra args", []string{"lint", "js", "--quiet"}, false, "gitnewer:lint:js:--quiet"},
		{"prefix", []string{"copy", "assets"}, true, "gitnewer-prefix:copy:assets"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := buildSpec(tt.args, tt.prefix); got != tt.want {
				t.Errorf("buildSpec(%v, %v) = %q, want %q", tt.args, tt.prefix, got, tt.want)
			}
		})
	}
}

func TestExitCodeFor(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{"nil", nil, ExitSuccess},
		{"unknown task", fmt.Errorf("queue: %w", runner.ErrTaskNotFound), ExitUsageError},
		{"unknown target", runner.ErrTargetNotFound, ExitUsageError},
		{"alias", gitnewer.ErrAliasUnsupported, ExitUsageError},
		{"invalid config", config.ErrInvalid, ExitUsageError},
		{"missing task file", store.ErrNotFound, ExitUsageError},
		{"lost snapshot", fmt.Errorf("handle 3: %w", vault.ErrNotFound), ExitRuntimeError},
		{"task failure", errors.New("eslint: exit status 1"), ExitTaskFailed},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := exitCodeFor(tt.err); got != tt.want {
				t.Errorf("exitCodeFor(%v) = %d, want %d", tt.err, got, tt.want)
			}
		})
	}
}

// --- queue command tests ---

// writeProject creates a task file with an echo exec task in a fresh working
// directory.
func writeProject(t *testing.T) {
	t.Helper()
	if _, err := exec.LookPath("echo"); err != nil {
		t.Skip("echo not available")
	}
	dir := t.TempDir()
	chdir(t, dir)
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())

	os.WriteFile("a.js", []byte("a\n"), 0o644)
	os.WriteFile("b.js", []byte("b\n"), 0o644)
	tasks := `{
  "tasks": {
    "lint": {
      "options": {"cmd": ["echo", "lint"]},
      "js": {"src": ["*.js"]},
      "_hidden": {"src": ["a.js"]}
    }
  },
  "aliases": {"check": ["lint:js"]}
}`
	if err := os.WriteFile("gitnewer.json", []byte(tasks), 0o644); err != nil {
		t.Fatal(err)
	}
}

func TestQueueCmd_ExecTask(t *testing.T) {
	resetFlags()
	writeProject(t)

	var out bytes.Buffer
	queueCmd.SetOut(&out)
	queueCmd.SetErr(&bytes.Buffer{})
	queueCmd.SetArgs([]string{"check"})
	if err := queueCmd.Execute(); err != nil {
		t.Fatalf("queue returned error: %v", err)
	}
	if exitCode != ExitSuccess {
		t.Fatalf("exitCode = %d, want %d", exitCode, ExitSuccess)
	}
	if got := strings.TrimSpace(out.String()); got != "lint a.js b.js" {
		t.Errorf("output = %q, want %q", got, "lint a.js b.js")
	}
}

func TestQueueCmd_UnknownTask(t *testing.T) {
	resetFlags()
	writeProject(t)

	var errOut bytes.Buffer
	queueCmd.SetOut(&bytes.Buffer{})
	queueCmd.SetErr(&errOut)
	queueCmd.SetArgs([]string{"nope"})
	if err := queueCmd.Execute(); err != nil {
		t.Fatalf("queue returned error: %v", err)
	}
	if exitCode != ExitUsageError {
		t.Errorf("exitCode = %d, want %d", exitCode, ExitUsageError)
	}
	if !strings.Contains(errOut.String(), "Error:") {
		t.Errorf("stderr = %q, want an Error: line", errOut.String())
	}
}

func TestQueueCmd_MissingTaskFile(t *testing.T) {
	resetFlags()
	chdir(t, t.TempDir())
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())

	queueCmd.SetOut(&bytes.Buffer{})
	queueCmd.SetErr(&bytes.Buffer{})
	queueCmd.SetArgs([]string{"lint"})
	if err := queueCmd.Execute(); err != nil {
		t.Fatalf("queue returned error: %v", err)
	}
	if exitCode != ExitUsageError {
		t.Errorf("exitCode = %d, want %d", exitCode, ExitUsageError)
	}
}

func TestQueueCmd_MissingArgs(t *testing.T) {
	resetFlags()
	queueCmd.SetArgs([]string{})
	if err := queueCmd.Execute(); err == nil {
		t.Error("queue with no specs should return error")
	}
}

// --- list command tests ---

func TestListCmd_Execute(t *testing.T) {
	resetFlags()
	writeProject(t)

	var out bytes.Buffer
	listCmd.SetOut(&out)
	listCmd.SetErr(&bytes.Buffer{})
	listCmd.SetArgs([]string{})
	if err := listCmd.Execute(); err != nil {
		t.Fatalf("list returned error: %v", err)
	}

	got := out.String()
	for _, want := range []string{"lint: js", "check -> lint:js", gitnewer.TaskName, gitnewer.PrefixTaskName} {
		if !strings.Contains(got, want) {
			t.Errorf("list output missing %q:\n%s", want, got)
		}
	}
	if strings.Contains(got, "_hidden") {
		t.Errorf("list output should not show private targets:\n%s", got)
	}
}

// --- version command tests ---

func TestVersionCmd_Execute(t *testing.T) {
	var out bytes.Buffer
	versionCmd.SetOut(&out)
	if err := versionCmd.Execute(); err != nil {
		t.Errorf("version command returned error: %v", err)
	}
	if !strings.Contains(out.String(), version) {
		t.Errorf("version output = %q", out.String())
	}
}

// --- config command tests ---

func TestConfigInit_CreatesFile(t *testing.T) {
	resetFlags()
	tmpDir := t.TempDir()
	t.Setenv("XDG_CONFIG_HOME", tmpDir)

	configCmd.SetOut(&bytes.Buffer{})
	configCmd.SetArgs([]string{"init"})
	if err := configCmd.Execute(); err != nil {
		t.Fatalf("config init returned error: %v", err)
	}

	data, err := os.ReadFile(filepath.Join(tmpDir, "gitnewer", "config.json"))
	if err != nil {
		t.Fatalf("config init did not create config.json: %v", err)
	}
	var cfg config.Config
	if err := json.Unmarshal(data, &cfg); err != nil {
		t.Fatalf("config file is not valid JSON: %v", err)
	}
	if cfg.DiffFilter != config.Default().DiffFilter {
		t.Errorf("diffFilter = %q, want default", cfg.DiffFilter)
	}
}

func TestConfigInit_AlreadyExists(t *testing.T) {
	resetFlags()
	tmpDir := t.TempDir()
	t.Setenv("XDG_CONFIG_HOME", tmpDir)

	cfgDir := filepath.Join(tmpDir, "gitnewer")
	if err := os.MkdirAll(cfgDir, 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(cfgDir, "config.json"), []byte(`{"branch":"develop"}`), 0o644); err != nil {
		t.Fatal(err)
	}

	configCmd.SetErr(&bytes.Buffer{})
	configCmd.SetArgs([]string{"init"})
	if err := configCmd.Execute(); err != nil {
		t.Fatalf("config init with existing file returned error: %v", err)
	}

	data, err := os.ReadFile(filepath.Join(cfgDir, "config.json"))
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(string(data), "develop") {
		t.Errorf("config init overwrote existing file: %s", data)
	}
}

func TestConfigSet_UpdatesFile(t *testing.T) {
	resetFlags()
	tmpDir := t.TempDir()
	t.Setenv("XDG_CONFIG_HOME", tmpDir)

	configCmd.SetOut(&bytes.Buffer{})
	configCmd.SetArgs([]string{"set", "diffFilter", "AMR"})
	if err := configCmd.Execute(); err != nil {
		t.Fatalf("config set returned error: %v", err)
	}

	data, err := os.ReadFile(filepath.Join(tmpDir, "gitnewer", "config.json"))
	if err != nil {
		t.Fatalf("cannot read config file: %v", err)
	}
	var cfg config.Config
	if err := json.Unmarshal(data, &cfg); err != nil {
		t.Fatalf("config file is not valid JSON: %v", err)
	}
	if cfg.DiffFilter != "AMR" {
		t.Errorf("diffFilter = %q, want %q", cfg.DiffFilter, "AMR")
	}
}

func TestConfigSet_PartialFile(t *testing.T) {
	resetFlags()
	tmpDir := t.TempDir()
	t.Setenv("XDG_CONFIG_HOME", tmpDir)

	cfgDir := filepath.Join(tmpDir, "gitnewer")
	if err := os.MkdirAll(cfgDir, 0o755); err != nil {
		t.Fatal(err)
	}
	cfgPath := filepath.Join(cfgDir, "config.json")
	if err := os.WriteFile(cfgPath, []byte(`{"branch":"develop"}`), 0o644); err != nil {
		t.Fatal(err)
	}

	configCmd.SetOut(&bytes.Buffer{})
	configCmd.SetArgs([]string{"set", "diffFilter", "AM"})
	if err := configCmd.Execute(); err != nil {
		t.Fatalf("config set returned error: %v", err)
	}

	data, err := os.ReadFile(cfgPath)
	if err != nil {
		t.Fatal(err)
	}
	var cfg config.Config
	if err := json.Unmarshal(data, &cfg); err != nil {
		t.Fatalf("config file is not valid JSON: %v", err)
	}
	if cfg.Branch != "develop" || cfg.DiffFilter != "AM" {
		t.Errorf("branch = %q, diffFilter = %q, want develop and AM", cfg.Branch, cfg.DiffFilter)
	}
	if cfg.TasksFile != config.Default().TasksFile {
		t.Errorf("tasksFile = %q, want default", cfg.TasksFile)
	}
}

func TestConfigSet_InvalidValue(t *testing.T) {
	resetFlags()
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())

	configCmd.SetArgs([]string{"set", "diffFilter", "not letters"})
	if err := configCmd.Execute(); err == nil {
		t.Error("config set with invalid diff filter should return error")
	}
}

func TestConfigSet_InvalidKey(t *testing.T) {
	resetFlags()
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())

	configCmd.SetArgs([]string{"set", "unknownKey", "value"})
	if err := configCmd.Execute(); err == nil {
		t.Error("config set with invalid key should return error")
	}
}

func TestConfigSet_MissingArgs(t *testing.T) {
	resetFlags()

	configCmd.SetArgs([]string{"set", "branch"})
	if err := configCmd.Execute(); err == nil {
		t.Error("config set with 1 arg should return error (requires 2)")
	}
}

func TestConfigShow_Execute(t *testing.T) {
	resetFlags()
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())
	t.Setenv("GITNEWER_BRANCH", "release")

	var out bytes.Buffer
	configCmd.SetOut(&out)
	configCmd.SetArgs([]string{"show"})
	if err := configCmd.Execute(); err != nil {
		t.Errorf("config show returned error: %v", err)
	}
	if !strings.Contains(out.String(), `"release"`) {
		t.Errorf("config show output missing env branch:\n%s", out.String())
	}
}

// --- exit code constants tests ---

func TestExitCodes(t *testing.T) {
	tests := []struct {
		name string
		code int
		want int
	}{
		{"ExitSuccess", ExitSuccess, 0},
		{"ExitTaskFailed", ExitTaskFailed, 1},
		{"ExitUsageError", ExitUsageError, 2},
		{"ExitRuntimeError", ExitRuntimeError, 4},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.code != tt.want {
				t.Errorf("%s = %d, want %d", tt.name, tt.code, tt.want)
			}
		})
	}
}
