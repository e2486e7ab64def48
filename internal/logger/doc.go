// Package logger wraps zerolog with the defaults used across gitnewer.
//
// Logs go to stderr so task output on stdout stays clean. The console format
// is coloured only when stderr is a terminal.
package logger
