// Package config loads and merges gitnewer configuration from multiple sources.
//
// Precedence (highest to lowest):
//  1. CLI flags
//  2. Environment variables (GITNEWER_BRANCH, GITNEWER_DIFF_FILTER, etc.)
//  3. Config file ($XDG_CONFIG_HOME/gitnewer/config.json)
//  4. Built-in defaults
//
// Task files may further override the diff options per task and per target;
// [MergeOptions] applies those layers and [Validate] checks the result.
package config
