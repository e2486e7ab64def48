// Package filter narrows a task target's files to those reported as changed.
//
// [Filter.Match] expands candidate globs, resolves each match to an absolute
// path, and keeps candidates found in the changed set (exact mode) or that are
// a string prefix of some changed path (prefix mode, for directory targets).
//
// [Filter.Rewrite] detects which of the five file declaration shapes a target
// uses and rewrites only that shape. The fallback shape collapses multi-group
// declarations into a single {src: [...]} list, which drops destination
// mappings.
package filter
