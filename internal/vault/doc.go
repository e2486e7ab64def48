// Package vault holds configuration snapshots for in-flight filtered runs.
//
// Each snapshot is addressed by an integer handle drawn from a counter that is
// never reused, so two runs of the same target can never restore each other's
// configuration. A handle can be taken exactly once.
package vault
