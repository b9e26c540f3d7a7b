package rewrite

import "errors"

// Rewrite errors.
var (
	// ErrRootCommit indicates the target is the repository's root commit,
	// which has no parent to rebase onto.
	ErrRootCommit = errors.New("cannot rewrite the root commit (commit has no parent)")

	// ErrInsufficientCommits indicates a squash was requested with fewer
	// than two commits.
	ErrInsufficientCommits = errors.New("squash requires at least two commits")

	// ErrNonContiguousSelection indicates the squash selection has gaps.
	ErrNonContiguousSelection = errors.New("selected commits are not contiguous")

	// ErrMergeInRange indicates the rewrite range contains a merge commit.
	ErrMergeInRange = errors.New("rewrite range contains a merge commit")

	// ErrDetachedHead indicates HEAD is not on a branch; a rewrite has
	// no branch ref to move.
	ErrDetachedHead = errors.New("HEAD is detached, check out a branch first")

	// ErrTreeChanged indicates the rewritten tip's tree no longer matches
	// the original, which a message-only rewrite must never cause.
	ErrTreeChanged = errors.New("rewrite altered tree contents")
)
