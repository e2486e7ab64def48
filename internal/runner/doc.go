// Package runner is a small serial task queue in the style of a build-tool
// task runner.
//
// Task specs are colon-separated: "name[:target][:args...]". A spec resolves,
// in order, to a registered task, an alias from the task file, or a task-file
// entry whose options carry a "cmd" (an exec multi-task that runs the command
// over the target's files). Tasks can schedule follow-up specs that run
// immediately after them, ahead of the rest of the queue.
//
// When a task fails the queue stops, except for follow-ups scheduled with
// [Task.RunAlways], which still run so that cleanup steps are never skipped.
package runner
