// Gitnewer runs project tasks over only the files changed since a git revision.
//
// It narrows a task target's configured files to those reported by
// `git diff --name-only`, runs the task, and restores the original target
// configuration afterward, even when the task fails.
//
// Usage:
//
//	gitnewer run lint js              # lint:js over changed files
//	gitnewer run lint                 # every target of lint
//	gitnewer run --prefix copy assets # match directory targets by prefix
//	gitnewer queue gitnewer:lint test # run task specs in order
//	gitnewer changed                  # print the changed file set
package main
