// Package sync brings a branch up to date with its base branch.
//
// Engine.Sync supports four strategies: merge, squash, rebase and
// fast-forward-only. Dirty working trees are stashed for the duration
// and restored afterwards. Conflicts surface as a Halt for the caller
// to resolve and continue, or abort. When pushing is requested, the
// push mode is decided against the remote tip observed before the sync
// started: a rebase pushes with --force-with-lease pinned to that tip,
// and a remote that moved in the meantime blocks the push entirely.
package sync
