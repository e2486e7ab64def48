package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
)

// Config represents the gitnewer configuration.
type Config struct {
	TasksFile  string    `json:"tasksFile" validate:"required"`
	DiffFilter string    `json:"diffFilter" validate:"required,difffilter"`
	Branch     string    `json:"branch" validate:"required"`
	Log        LogConfig `json:"log"`
}

// LogConfig controls log output.
type LogConfig struct {
	Level  string `json:"level" validate:"oneof=trace debug info warn error"`
	Format string `json:"format" validate:"oneof=console json"`
}

// Options are the diff settings a filtered run uses.
type Options struct {
	DiffFilter string `json:"diffFilter" validate:"required,difffilter"`
	Branch     string `json:"branch" validate:"required"`
}

// Default returns a Config with all defaults applied.
func Default() Config {
	return Config{
		TasksFile:  "gitnewer.json",
		DiffFilter: "ACM",
		Branch:     "HEAD",
		Log: LogConfig{
			Level:  "info",
			Format: "console",
		},
	}
}

// Options returns the diff settings carried by the config.
func (c Config) Options() Options {
	return Options{DiffFilter: c.DiffFilter, Branch: c.Branch}
}

// ConfigDir returns the platform-appropriate config directory for gitnewer.
func ConfigDir() (string, error) {
	if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
		return filepath.Join(xdg, "gitnewer"), nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("cannot determine home directory: %w", err)
	}
	switch runtime.GOOS {
	case "darwin":
		return filepath.Join(home, "Library", "Application Support", "gitnewer"), nil
	case "windows":
		if appData := os.Getenv("APPDATA"); appData != "" {
			return filepath.Join(appData, "gitnewer"), nil
		}
		return filepath.Join(home, "AppData", "Roaming", "gitnewer"), nil
	default:
		return filepath.Join(home, ".config", "gitnewer"), nil
	}
}

// ConfigPath returns the full path to the config file.
func ConfigPath() (string, error) {
	dir, err := ConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "config.json"), nil
}

// LoadFile loads config from the config file. Returns zero Config and nil error if file doesn't exist.
func LoadFile() (Config, error) {
	path, err := ConfigPath()
	if err != nil {
		return Config{}, err
	}
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return Config{}, nil
		}
		return Config{}, fmt.Errorf("reading config file: %w", err)
	}
	var cfg Config
	if err := json.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("parsing config file: %w", err)
	}
	return cfg, nil
}

// Save writes the config to the config file.
func Save(cfg Config) error {
	path, err := ConfigPath()
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("creating config directory: %w", err)
	}
	data, err := json.MarshalIndent(cfg, "", "  ")
	if err != nil {
		return fmt.Errorf("marshaling config: %w", err)
	}
	return os.WriteFile(path, data, 0o644)
}

// LoadMerged returns the defaults with the config file, if any, merged on top.
// Fields missing from a partial file keep their default values.
func LoadMerged() (Config, error) {
	cfg := Default()
	fileCfg, err := LoadFile()
	if err != nil {
		return Config{}, err
	}
	mergeFile(&cfg, fileCfg)
	return cfg, nil
}

// Load builds the effective config by merging: defaults <- file <- env <- overrides,
// then validates it. The overrides map comes from CLI flags (only non-empty values should be set).
func Load(overrides map[string]string) (Config, error) {
	cfg, err := LoadMerged()
	if err != nil {
		return Config{}, err
	}
	mergeEnv(&cfg)
	mergeOverrides(&cfg, overrides)

	if err := Validate(cfg); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func mergeFile(dst *Config, src Config) {
	if src.TasksFile != "" {
		dst.TasksFile = src.TasksFile
	}
	if src.DiffFilter != "" {
		dst.DiffFilter = src.DiffFilter
	}
	if src.Branch != "" {
		dst.Branch = src.Branch
	}
	if src.Log.Level != "" {
		dst.Log.Level = src.Log.Level
	}
	if src.Log.Format != "" {
		dst.Log.Format = src.Log.Format
	}
}

func mergeEnv(cfg *Config) {
	if v := os.Getenv("GITNEWER_TASKS_FILE"); v != "" {
		cfg.TasksFile = v
	}
	if v := os.Getenv("GITNEWER_DIFF_FILTER"); v != "" {
		cfg.DiffFilter = v
	}
	if v := os.Getenv("GITNEWER_BRANCH"); v != "" {
		cfg.Branch = v
	}
	if v := os.Getenv("GITNEWER_LOG_LEVEL"); v != "" {
		cfg.Log.Level = v
	}
	if v := os.Getenv("GITNEWER_LOG_FORMAT"); v != "" {
		cfg.Log.Format = v
	}
}

func mergeOverrides(cfg *Config, overrides map[string]string) {
	for k, v := range overrides {
		if v == "" {
			continue
		}
		// Unknown keys are ignored; SetField reports them for `config set`.
		_ = SetField(cfg, k, v)
	}
}

// SetField sets a single config field by key name. Returns error if key is unknown.
func SetField(cfg *Config, key, value string) error {
	switch key {
	case "tasksFile":
		cfg.TasksFile = value
	case "diffFilter":
		cfg.DiffFilter = value
	case "branch":
		cfg.Branch = value
	case "logLevel", "log.level":
		cfg.Log.Level = value
	case "logFormat", "log.format":
		cfg.Log.Format = value
	default:
		return fmt.Errorf("unknown config key: %s", key)
	}
	return nil
}

// MergeOptions overlays diff settings found in a decoded task-file object
// onto base. A nil raw value leaves base unchanged.
func MergeOptions(base Options, raw any) (Options, error) {
	if raw == nil {
		return base, nil
	}
	m, ok := raw.(map[string]any)
	if !ok {
		return base, fmt.Errorf("%w: options must be an object, got %T", ErrInvalid, raw)
	}
	for key, dst := range map[string]*string{"diffFilter": &base.DiffFilter, "branch": &base.Branch} {
		v, ok := m[key]
		if !ok {
			continue
		}
		s, ok := v.(string)
		if !ok {
			return base, fmt.Errorf("%w: %s must be a string, got %T", ErrInvalid, key, v)
		}
		if s != "" {
			*dst = s
		}
	}
	return base, nil
}
