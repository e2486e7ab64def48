// Package cli wires together the Cobra command tree for the gitnewer binary.
//
// It defines the root command and all subcommands (run, queue, changed, list,
// config, hook, version), binds flags, reads configuration, drives the task
// runner, and returns deterministic exit codes.
package cli
