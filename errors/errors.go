package errors

import "errors"

// Common CLI errors with actionable guidance.
var (
	// ErrNotAuthenticated indicates a platform token is missing or invalid.
	ErrNotAuthenticated = errors.New("not authenticated")

	// ErrNotInGitRepo indicates the command requires a git repository.
	ErrNotInGitRepo = errors.New("not in a git repository")

	// ErrConnectionFailed indicates the platform is unreachable.
	ErrConnectionFailed = errors.New("connection failed")

	// ErrConflictHalt indicates a git operation stopped on conflicts and
	// is waiting for resolution.
	ErrConflictHalt = errors.New("operation halted on conflicts")

	// ErrWorkspaceBlocked indicates the working tree could not be made
	// safe for a history rewrite.
	ErrWorkspaceBlocked = errors.New("workspace blocked")
)
