// Package git provides the plumbing layer for history-rewriting
// operations: repository access, ref and commit resolution, stash
// management, conflict tracking, and push safety checks.
//
// Core types:
//   - Context: repository handle; every mutating operation goes through it
//   - CommandRunner: interface for executing git commands (with mock for testing)
//   - WorkspaceGuard: scoped stash of a dirty working tree with guaranteed restore
//   - ConflictState: in-progress conflicted operation surfaced as data
//   - PushDecision: normal / force-with-lease / blocked push classification
//
// Example usage:
//
//	ctx, err := git.NewContext("/path/to/repo")
//	guard, err := ctx.AcquireWorkspace("reword")
//	defer guard.Release()
//	commit, err := ctx.ResolveCommit("HEAD~2")
package git
