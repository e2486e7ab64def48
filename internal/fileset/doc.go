// Package fileset expands glob patterns to on-disk paths and normalises the
// file declarations of a task target into source/destination groups.
//
// Patterns support "**" via doublestar. A pattern prefixed with "!" removes
// earlier matches. Patterns without glob metacharacters are returned verbatim
// when the path exists, so a directory written as "build/" keeps its slash.
package fileset
