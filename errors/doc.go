// Package errors provides user-facing error wrapping for CLI output.
//
// CLIError pairs an underlying error with a human message and an
// actionable suggestion, usually the git command that recovers from the
// situation. The ErrorMessenger interface lets a CLI customize the
// wording; DefaultMessenger covers the common cases: authentication,
// connectivity, conflict halts, stash restore conflicts and blocked
// pushes.
package errors
