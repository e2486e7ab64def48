// Package store is the live configuration store that tasks read and rewrite.
//
// The store holds the decoded task file: a tree of task configurations keyed
// by task name then target name, plus alias task lists. Values are whatever
// JSON or TOML decoding produced (maps, slices, strings, numbers, bools), and
// [Clone] produces the deep copies used for snapshots.
package store
