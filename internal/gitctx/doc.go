// Package gitctx asks git for the repository root and the files changed
// since a revision.
//
// It shells out to the git binary: `rev-parse --show-toplevel` for the root and
// `diff <rev> --name-only --diff-filter=<filter>` for the changed set. Changed
// paths are joined with the root so callers can compare them against absolute
// candidate paths.
package gitctx
