package cli

import (
	"github.com/dshills/gitnewer/internal/config"
	"github.com/dshills/gitnewer/internal/logger"
	"github.com/spf13/cobra"
)

// Shared flags
var (
	flagFile       string
	flagBranch     string
	flagDiffFilter string
	flagLogLevel   string
	flagLogFormat  string
	flagVerbose    bool
)

func init() {
	pf := rootCmd.PersistentFlags()
	pf.StringVar(&flagFile, "file", "", "Task file (default gitnewer.json)")
	pf.StringVar(&flagBranch, "branch", "", "Revision to diff against (default HEAD)")
	pf.StringVar(&flagDiffFilter, "diff-filter", "", "git --diff-filter letters (default ACM)")
	pf.StringVar(&flagLogLevel, "log-level", "", "Log level (trace, debug, info, warn, error)")
	pf.StringVar(&flagLogFormat, "log-format", "", "Log format (console, json)")
	pf.BoolVarP(&flagVerbose, "verbose", "v", false, "Verbose logging (same as --log-level debug)")
}

func buildOverrides() map[string]string {
	m := make(map[string]string)
	if flagFile != "" {
		m["tasksFile"] = flagFile
	}
	if flagBranch != "" {
		m["branch"] = flagBranch
	}
	if flagDiffFilter != "" {
		m["diffFilter"] = flagDiffFilter
	}
	if flagLogLevel != "" {
		m["logLevel"] = flagLogLevel
	}
	if flagVerbose {
		m["logLevel"] = "debug"
	}
	if flagLogFormat != "" {
		m["logFormat"] = flagLogFormat
	}
	return m
}

// flagOptions returns the diff settings given explicitly on the command line.
func flagOptions() config.Options {
	return config.Options{DiffFilter: flagDiffFilter, Branch: flagBranch}
}

// loadConfig merges configuration sources and initialises logging.
func loadConfig(cmd *cobra.Command) (config.Config, error) {
	cfg, err := config.Load(buildOverrides())
	if err != nil {
		return config.Config{}, err
	}
	logger.Init(logger.Options{
		Level:  cfg.Log.Level,
		Format: cfg.Log.Format,
		Writer: cmd.ErrOrStderr(),
	})
	return cfg, nil
}
