package errors_test

import (
	stderrors "errors"
	"fmt"
	"strings"
	"testing"

	"github.com/zevwings/workflow/errors"
)

func TestCLIErrorFormatting(t *testing.T) {
	e := &errors.CLIError{
		Err:        errors.ErrConflictHalt,
		Message:    "The operation stopped on merge conflicts.",
		Suggestion: "Resolve the conflicts and continue.",
		Details:    "2 files conflicted",
	}

	got := e.Error()
	if !strings.HasPrefix(got, "The operation stopped on merge conflicts.\n2 files conflicted") {
		t.Errorf("unexpected prefix:\n%s", got)
	}
	if !strings.HasSuffix(got, "\n\nResolve the conflicts and continue.") {
		t.Errorf("suggestion not separated by a blank line:\n%s", got)
	}

	if !stderrors.Is(e, errors.ErrConflictHalt) {
		t.Error("CLIError should unwrap to its cause")
	}
}

func TestWrapAuthError(t *testing.T) {
	wrapped := errors.WrapAuthError(fmt.Errorf("GET /user: 401 unauthorized"), "GitHub")

	var cliErr *errors.CLIError
	if !stderrors.As(wrapped, &cliErr) {
		t.Fatalf("expected a CLIError, got %T", wrapped)
	}
	if !stderrors.Is(wrapped, errors.ErrNotAuthenticated) {
		t.Error("expected ErrNotAuthenticated cause")
	}
	if !strings.Contains(cliErr.Message, "GitHub") {
		t.Errorf("message = %q", cliErr.Message)
	}

	// Unrelated errors pass through untouched.
	plain := fmt.Errorf("file not found")
	if got := errors.WrapAuthError(plain, "GitHub"); got != plain {
		t.Errorf("unrelated error was wrapped: %v", got)
	}

	if errors.WrapAuthError(nil, "GitHub") != nil {
		t.Error("nil should stay nil")
	}
}

func TestWrapConnectionError(t *testing.T) {
	wrapped := errors.WrapConnectionError(fmt.Errorf("dial tcp: connection refused"), "https://gitlab.example.com")

	if !stderrors.Is(wrapped, errors.ErrConnectionFailed) {
		t.Error("expected ErrConnectionFailed cause")
	}
	if !strings.Contains(wrapped.Error(), "https://gitlab.example.com") {
		t.Errorf("message missing server URL:\n%s", wrapped.Error())
	}

	plain := fmt.Errorf("bad request")
	if got := errors.WrapConnectionError(plain, "url"); got != plain {
		t.Errorf("unrelated error was wrapped: %v", got)
	}
}

func TestNewConflictHaltError(t *testing.T) {
	err := errors.NewConflictHaltError(nil, []string{"a.go", "b.go"}, "git cherry-pick --abort")

	if !errors.IsConflictError(err) {
		t.Error("expected a conflict error")
	}
	msg := err.Error()
	if !strings.Contains(msg, "a.go") || !strings.Contains(msg, "b.go") {
		t.Errorf("conflicted paths missing:\n%s", msg)
	}
	if !strings.Contains(msg, "git cherry-pick --abort") {
		t.Errorf("recovery command missing:\n%s", msg)
	}
}

func TestNewStashConflictError(t *testing.T) {
	err := errors.NewStashConflictError(nil, "stash@{0}")

	if !stderrors.Is(err, errors.ErrWorkspaceBlocked) {
		t.Error("expected ErrWorkspaceBlocked cause")
	}
	if !strings.Contains(err.Error(), "git stash drop stash@{0}") {
		t.Errorf("drop instruction missing:\n%s", err.Error())
	}
}

func TestNewRemoteDivergedError(t *testing.T) {
	cause := fmt.Errorf("remote branch moved")
	err := errors.NewRemoteDivergedError(cause, "feature")

	if !stderrors.Is(err, cause) {
		t.Error("expected the cause to unwrap")
	}
	if !strings.Contains(err.Error(), `"feature"`) {
		t.Errorf("branch missing:\n%s", err.Error())
	}
}

func TestPredicates(t *testing.T) {
	tests := []struct {
		name string
		err  error
		fn   func(error) bool
		want bool
	}{
		{"auth sentinel", errors.ErrNotAuthenticated, errors.IsAuthError, true},
		{"auth text", fmt.Errorf("401 Unauthorized"), errors.IsAuthError, true},
		{"auth miss", fmt.Errorf("not found"), errors.IsAuthError, false},
		{"auth nil", nil, errors.IsAuthError, false},
		{"conn sentinel", errors.ErrConnectionFailed, errors.IsConnectionError, true},
		{"conn text", fmt.Errorf("no such host"), errors.IsConnectionError, true},
		{"conn miss", fmt.Errorf("denied"), errors.IsConnectionError, false},
		{"conflict sentinel", errors.ErrConflictHalt, errors.IsConflictError, true},
		{"conflict wrapped", fmt.Errorf("sync: %w", errors.ErrConflictHalt), errors.IsConflictError, true},
		{"conflict miss", fmt.Errorf("conflict-ish text"), errors.IsConflictError, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.fn(tt.err); got != tt.want {
				t.Errorf("predicate = %v, want %v", got, tt.want)
			}
		})
	}
}

type bracketMessenger struct {
	errors.DefaultMessenger
}

func (bracketMessenger) AuthErrorMessage(platform string) (string, string) {
	return "[auth] " + platform, "[fix] rotate the token"
}

func TestCustomMessenger(t *testing.T) {
	err := errors.WrapAuthError(fmt.Errorf("401"), "GitLab", errors.WithMessenger(bracketMessenger{}))

	msg := err.Error()
	if !strings.Contains(msg, "[auth] GitLab") {
		t.Errorf("custom message not used:\n%s", msg)
	}
	if !strings.Contains(msg, "[fix] rotate the token") {
		t.Errorf("custom suggestion not used:\n%s", msg)
	}
}
