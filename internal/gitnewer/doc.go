// Package gitnewer registers the tasks that run another task over only the
// files changed since a git revision.
//
//	gitnewer:<task>[:<target>][:<args>...]         exact path matching
//	gitnewer-prefix:<task>[:<target>][:<args>...]  directory prefix matching
//	gitnewer-postrun:<task>:<target>:<handle>      internal restore step
//
// A run snapshots the target's configuration in a [vault.Vault], rewrites its
// file list through [filter.Filter], installs the rewrite in the live store,
// and schedules the target followed by an always-run restore that puts the
// snapshot back. If nothing changed, nothing is scheduled.
package gitnewer
