package git

import (
	"errors"
	"log/slog"

	wferrors "github.com/zevwings/workflow/errors"
)

// WorkspaceGuard holds exclusive ownership of the stash slot for the
// duration of one orchestration operation.
//
// Acquire inspects the working tree; if it is dirty the changes are
// stashed under an operation-specific label. Release must run on every
// exit path and restores the stash exactly once. If restoring would
// conflict, the stash entry is kept and the error names it so the user
// can recover manually.
//
// At most one guard may exist per Context at a time; nested acquisition
// is rejected at construction.
type WorkspaceGuard struct {
	git      *Context
	entry    *StashEntry // nil when the tree was already clean
	released bool
}

// AcquireWorkspace prepares the working tree for a history-rewriting
// operation. label tags the stash entry (e.g. "reword", "port develop").
//
// Returns ErrGuardActive if a guard is already held, and
// ErrWorkspaceDirtyUnstashable if the dirty tree could not be stashed;
// in that case the operation must not start.
func (g *Context) AcquireWorkspace(label string) (*WorkspaceGuard, error) {
	if g.guardHeld {
		return nil, ErrGuardActive
	}

	clean, err := g.IsClean()
	if err != nil {
		return nil, err
	}

	guard := &WorkspaceGuard{git: g}
	if !clean {
		entry, err := g.StashPush("workflow: " + label)
		if err != nil {
			return nil, err
		}
		guard.entry = entry
		slog.Debug("stashed dirty working tree", "label", label)
	}

	g.guardHeld = true
	return guard, nil
}

// Stashed reports whether the guard stashed changes at acquisition.
func (w *WorkspaceGuard) Stashed() bool {
	return w.entry != nil
}

// Release restores the stash entry created at acquisition, if any.
// Safe to call more than once; only the first call has effect, so it can
// be deferred and also called explicitly on early-exit paths.
//
// On ErrStashRestoreConflict the entry remains in the stash stack; the
// returned error carries the stash reference for manual recovery.
func (w *WorkspaceGuard) Release() error {
	if w.released {
		return nil
	}
	w.released = true
	w.git.guardHeld = false

	if w.entry == nil {
		return nil
	}
	if err := w.git.StashPop(); err != nil {
		if errors.Is(err, ErrStashRestoreConflict) {
			return wferrors.NewStashConflictError(err, w.entry.Ref)
		}
		return err
	}
	return nil
}
