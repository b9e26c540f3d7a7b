package git

import (
	"os"
	"path/filepath"
	"strings"
)

// OperationKind identifies the plumbing operation that halted on conflicts.
type OperationKind string

const (
	OpRebase     OperationKind = "rebase"
	OpCherryPick OperationKind = "cherry-pick"
	OpMerge      OperationKind = "merge"
)

// ConflictState describes an in-progress conflicted operation.
//
// Conflicts are expected, recoverable states surfaced as data: the caller
// must explicitly continue (after resolving) or abort. It is not an error
// value.
type ConflictState struct {
	Op            OperationKind
	UnmergedPaths []string
}

// RecoveryCommand returns the git command that abandons the operation.
// Fatal error messages include it so corruption is never silently hidden.
func (c *ConflictState) RecoveryCommand() string {
	switch c.Op {
	case OpRebase:
		return "git rebase --abort"
	case OpCherryPick:
		return "git cherry-pick --abort"
	case OpMerge:
		return "git merge --abort"
	}
	return "git status"
}

// DetectConflict inspects the repository for an in-progress conflicted
// operation. Returns nil when no operation is in progress or the index has
// no unmerged entries.
func (g *Context) DetectConflict() (*ConflictState, error) {
	op, err := g.operationInProgress()
	if err != nil {
		return nil, err
	}
	if op == "" {
		return nil, nil
	}

	paths, err := g.UnmergedPaths()
	if err != nil {
		return nil, err
	}
	if len(paths) == 0 {
		return nil, nil
	}

	return &ConflictState{Op: op, UnmergedPaths: paths}, nil
}

// operationInProgress reads the repository's operation markers.
func (g *Context) operationInProgress() (OperationKind, error) {
	gitDir, err := g.runGit("rev-parse", "--git-dir")
	if err != nil {
		return "", &Error{Op: "locate git dir", Err: err}
	}
	if !filepath.IsAbs(gitDir) {
		gitDir = filepath.Join(g.repoPath, gitDir)
	}

	for _, marker := range []struct {
		path string
		op   OperationKind
	}{
		{"rebase-merge", OpRebase},
		{"rebase-apply", OpRebase},
		{"CHERRY_PICK_HEAD", OpCherryPick},
		{"MERGE_HEAD", OpMerge},
	} {
		if _, statErr := os.Stat(filepath.Join(gitDir, marker.path)); statErr == nil {
			return marker.op, nil
		}
	}

	return "", nil
}

// ContinueOperation resumes the in-progress operation after conflicts have
// been resolved and staged. Fails with ErrUnresolvedConflicts while
// unmerged paths remain.
func (g *Context) ContinueOperation() error {
	op, err := g.operationInProgress()
	if err != nil {
		return err
	}
	if op == "" {
		return ErrNoOperationInProgress
	}

	paths, err := g.UnmergedPaths()
	if err != nil {
		return err
	}
	if len(paths) > 0 {
		return &Error{
			Op:     "continue " + string(op),
			Output: "unmerged paths: " + strings.Join(paths, ", "),
			Err:    ErrUnresolvedConflicts,
		}
	}

	switch op {
	case OpRebase:
		// GIT_EDITOR=true keeps the sequencer from opening an editor for
		// the resumed commit message.
		if _, err := g.runner.RunEnv(g.repoPath, []string{"GIT_EDITOR=true"}, "git", "rebase", "--continue"); err != nil {
			return &Error{Op: "rebase continue", Err: err}
		}
	case OpCherryPick:
		if _, err := g.runner.RunEnv(g.repoPath, []string{"GIT_EDITOR=true"}, "git", "cherry-pick", "--continue"); err != nil {
			return &Error{Op: "cherry-pick continue", Err: err}
		}
	case OpMerge:
		if _, err := g.runner.RunEnv(g.repoPath, []string{"GIT_EDITOR=true"}, "git", "commit", "--no-edit"); err != nil {
			return &Error{Op: "merge continue", Err: err}
		}
	}

	return nil
}

// AbortOperation unconditionally resets the repository to its
// pre-operation state and clears the operation markers.
//
// A failure here means the repository is left mid-operation; the error is
// reported verbatim and never masked.
func (g *Context) AbortOperation() error {
	op, err := g.operationInProgress()
	if err != nil {
		return err
	}
	if op == "" {
		return ErrNoOperationInProgress
	}

	var abortErr error
	switch op {
	case OpRebase:
		_, abortErr = g.runGit("rebase", "--abort")
	case OpCherryPick:
		_, abortErr = g.runGit("cherry-pick", "--abort")
	case OpMerge:
		_, abortErr = g.runGit("merge", "--abort")
	}
	if abortErr != nil {
		return &Error{Op: "abort " + string(op), Err: abortErr}
	}
	return nil
}
