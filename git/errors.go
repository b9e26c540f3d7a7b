package git

import "errors"

// Git operation errors.
var (
	// ErrNotGitRepo indicates the path is not a git repository.
	ErrNotGitRepo = errors.New("not a git repository")

	// ErrBranchExists indicates the branch already exists.
	ErrBranchExists = errors.New("branch already exists")

	// ErrBranchNotFound indicates the branch does not exist.
	ErrBranchNotFound = errors.New("branch not found")

	// ErrNothingToCommit indicates there are no staged changes to commit.
	ErrNothingToCommit = errors.New("nothing to commit")

	// ErrCommitNotFound indicates the commit reference could not be resolved.
	ErrCommitNotFound = errors.New("commit not found")

	// ErrWorkspaceDirtyUnstashable indicates the working tree is dirty and
	// could not be stashed, so no destructive step may begin.
	ErrWorkspaceDirtyUnstashable = errors.New("working tree is dirty and could not be stashed")

	// ErrStashRestoreConflict indicates restoring the stash conflicted with
	// the resulting working tree. The stash entry is kept.
	ErrStashRestoreConflict = errors.New("stash restore conflicted; stash entry kept")

	// ErrGuardActive indicates a WorkspaceGuard is already held for this
	// repository. Nested guard acquisition is a programming error.
	ErrGuardActive = errors.New("workspace guard already held for this repository")

	// ErrUnresolvedConflicts indicates a continue was requested while
	// unmerged paths remain in the index.
	ErrUnresolvedConflicts = errors.New("unresolved conflicts remain")

	// ErrNoOperationInProgress indicates continue/abort was requested with
	// no rebase, cherry-pick, or merge in progress.
	ErrNoOperationInProgress = errors.New("no operation in progress")

	// ErrRemoteDiverged indicates the remote branch tip moved since it was
	// last observed; pushing would clobber unknown work.
	ErrRemoteDiverged = errors.New("remote branch has diverged")
)

// Error wraps a git command error with context.
type Error struct {
	Op     string // Operation that failed (e.g., "commit", "push")
	Cmd    string // Git command that was run
	Output string // Combined stdout/stderr output
	Err    error  // Underlying error
}

func (e *Error) Error() string {
	if e.Output != "" {
		return e.Op + ": " + e.Output
	}
	return e.Op + ": " + e.Err.Error()
}

func (e *Error) Unwrap() error {
	return e.Err
}
