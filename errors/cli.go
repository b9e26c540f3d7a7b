package errors

import (
	"fmt"
	"strings"
)

// CLIError wraps an error with user-friendly context and suggestions.
type CLIError struct {
	// Err is the underlying error
	Err error

	// Message is a user-friendly description of what went wrong
	Message string

	// Suggestion is an actionable hint for the user, usually a git
	// command that recovers from the situation
	Suggestion string

	// Details provides additional context (optional)
	Details string
}

func (e *CLIError) Error() string {
	var sb strings.Builder
	sb.WriteString(e.Message)

	if e.Details != "" {
		sb.WriteString("\n")
		sb.WriteString(e.Details)
	}

	if e.Suggestion != "" {
		sb.WriteString("\n\n")
		sb.WriteString(e.Suggestion)
	}

	return sb.String()
}

func (e *CLIError) Unwrap() error {
	return e.Err
}

// ErrorMessenger provides customizable error messages.
// Implement this interface to customize suggestions for your CLI.
type ErrorMessenger interface {
	// AuthErrorMessage returns the message and suggestion for missing
	// or rejected platform credentials.
	AuthErrorMessage(platform string) (message, suggestion string)

	// ConnectionErrorMessage returns the message and suggestion for
	// connection errors. The serverURL parameter is the URL that failed.
	ConnectionErrorMessage(serverURL string) (message, suggestion string)

	// NotInGitRepoMessage returns the message and suggestion for git repo errors.
	NotInGitRepoMessage() (message, suggestion string)

	// ConflictHaltMessage returns the message and suggestion when a git
	// operation stops on conflicts. recoveryCommand aborts it by hand.
	ConflictHaltMessage(paths []string, recoveryCommand string) (message, suggestion string)

	// StashConflictMessage returns the message and suggestion when
	// restoring stashed changes conflicted. stashRef names the entry
	// still holding the changes.
	StashConflictMessage(stashRef string) (message, suggestion string)

	// RemoteDivergedMessage returns the message and suggestion when a
	// push was blocked because the remote branch moved.
	RemoteDivergedMessage(branch string) (message, suggestion string)
}

// DefaultMessenger provides default error messages.
type DefaultMessenger struct{}

func (m DefaultMessenger) AuthErrorMessage(platform string) (string, string) {
	if platform == "" {
		platform = "the platform"
	}
	return fmt.Sprintf("Authentication with %s failed.", platform),
		"Check that your access token is set and has not expired."
}

func (m DefaultMessenger) ConnectionErrorMessage(serverURL string) (string, string) {
	return fmt.Sprintf("Cannot connect to %s", serverURL),
		"Check that:\n  - The URL is correct\n  - Your network connection is working"
}

func (m DefaultMessenger) NotInGitRepoMessage() (string, string) {
	return "This command must be run from within a git repository.",
		"Run this command from a git repository."
}

func (m DefaultMessenger) ConflictHaltMessage(paths []string, recoveryCommand string) (string, string) {
	msg := "The operation stopped on merge conflicts."
	if len(paths) > 0 {
		msg = "The operation stopped on merge conflicts in:\n  " + strings.Join(paths, "\n  ")
	}
	suggestion := "Resolve the conflicts and continue, or abort"
	if recoveryCommand != "" {
		suggestion += " with `" + recoveryCommand + "`"
	}
	return msg, suggestion + "."
}

func (m DefaultMessenger) StashConflictMessage(stashRef string) (string, string) {
	if stashRef == "" {
		stashRef = "stash@{0}"
	}
	return "Your stashed changes conflicted while being restored.",
		fmt.Sprintf("Your changes are kept in %s.\nResolve the conflicts, then run `git stash drop %s`.", stashRef, stashRef)
}

func (m DefaultMessenger) RemoteDivergedMessage(branch string) (string, string) {
	return fmt.Sprintf("The remote branch %q has new commits that are not part of this rewrite.", branch),
		"Fetch and inspect the remote changes before pushing.\nForce-pushing now would discard someone else's work."
}

// WrapConfig configures error wrapping behavior.
type WrapConfig struct {
	Messenger ErrorMessenger
}

// Option configures WrapConfig.
type Option func(*WrapConfig)

// WithMessenger sets a custom error messenger.
func WithMessenger(m ErrorMessenger) Option {
	return func(c *WrapConfig) {
		c.Messenger = m
	}
}

func getMessenger(opts []Option) ErrorMessenger {
	cfg := &WrapConfig{
		Messenger: DefaultMessenger{},
	}
	for _, opt := range opts {
		opt(cfg)
	}
	return cfg.Messenger
}

// WrapAuthError wraps authentication-related errors with helpful guidance.
func WrapAuthError(err error, platform string, opts ...Option) error {
	if err == nil {
		return nil
	}

	errStr := strings.ToLower(err.Error())
	messenger := getMessenger(opts)

	if strings.Contains(errStr, "authentication") ||
		strings.Contains(errStr, "unauthorized") ||
		strings.Contains(errStr, "401") ||
		strings.Contains(errStr, "403") {
		msg, suggestion := messenger.AuthErrorMessage(platform)
		return &CLIError{
			Err:        ErrNotAuthenticated,
			Message:    msg,
			Suggestion: suggestion,
		}
	}

	return err
}

// WrapConnectionError wraps connection-related errors with helpful guidance.
func WrapConnectionError(err error, serverURL string, opts ...Option) error {
	if err == nil {
		return nil
	}

	errStr := strings.ToLower(err.Error())
	messenger := getMessenger(opts)

	if strings.Contains(errStr, "connection refused") ||
		strings.Contains(errStr, "no such host") ||
		strings.Contains(errStr, "network is unreachable") ||
		strings.Contains(errStr, "dial tcp") ||
		strings.Contains(errStr, "timeout") ||
		strings.Contains(errStr, "deadline exceeded") {
		msg, suggestion := messenger.ConnectionErrorMessage(serverURL)
		return &CLIError{
			Err:        ErrConnectionFailed,
			Message:    msg,
			Suggestion: suggestion,
		}
	}

	return err
}

// NewNotInGitRepoError creates an error for commands that require a git repository.
func NewNotInGitRepoError(opts ...Option) error {
	messenger := getMessenger(opts)
	msg, suggestion := messenger.NotInGitRepoMessage()
	return &CLIError{
		Err:        ErrNotInGitRepo,
		Message:    msg,
		Suggestion: suggestion,
	}
}

// NewConflictHaltError creates an error describing a halted operation.
// paths are the conflicted files; recoveryCommand aborts the operation.
func NewConflictHaltError(err error, paths []string, recoveryCommand string, opts ...Option) error {
	messenger := getMessenger(opts)
	msg, suggestion := messenger.ConflictHaltMessage(paths, recoveryCommand)
	if err == nil {
		err = ErrConflictHalt
	}
	return &CLIError{
		Err:        err,
		Message:    msg,
		Suggestion: suggestion,
	}
}

// NewStashConflictError creates an error for a stash that could not be
// restored cleanly.
func NewStashConflictError(err error, stashRef string, opts ...Option) error {
	messenger := getMessenger(opts)
	msg, suggestion := messenger.StashConflictMessage(stashRef)
	if err == nil {
		err = ErrWorkspaceBlocked
	}
	return &CLIError{
		Err:        err,
		Message:    msg,
		Suggestion: suggestion,
	}
}

// NewRemoteDivergedError creates an error for a push blocked by remote
// divergence.
func NewRemoteDivergedError(err error, branch string, opts ...Option) error {
	messenger := getMessenger(opts)
	msg, suggestion := messenger.RemoteDivergedMessage(branch)
	return &CLIError{
		Err:        err,
		Message:    msg,
		Suggestion: suggestion,
	}
}
