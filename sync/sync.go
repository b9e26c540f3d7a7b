package sync

import (
	"fmt"
	"strings"

	"github.com/zevwings/workflow/git"
)

// Strategy selects how base changes are brought into a branch.
type Strategy string

const (
	// Merge creates a merge commit from the base.
	Merge Strategy = "merge"

	// Squash applies the base's changes as a single commit.
	Squash Strategy = "squash"

	// Rebase replays the branch's commits on top of the base. Pushing
	// afterwards requires force-with-lease.
	Rebase Strategy = "rebase"

	// FastForwardOnly moves the branch pointer forward and fails when
	// the branch has commits of its own.
	FastForwardOnly Strategy = "ff-only"
)

// Engine synchronizes a branch with its base branch.
type Engine struct {
	git    *git.Context
	remote string
}

// NewEngine creates a sync engine. remote is used for fetch and push;
// empty means "origin".
func NewEngine(g *git.Context, remote string) *Engine {
	if remote == "" {
		remote = "origin"
	}
	return &Engine{git: g, remote: remote}
}

// Options configures a sync run.
type Options struct {
	// Fetch updates the remote refs before syncing.
	Fetch bool

	// Push pushes the branch after a successful sync. The push mode is
	// decided from the remote state observed before the sync started.
	Push bool

	// BaseCandidates overrides the base branch detection order when no
	// base is given explicitly.
	BaseCandidates []string
}

// Result is the outcome of a completed sync.
type Result struct {
	Branch   string       // synced branch
	Base     string       // base branch merged in
	Strategy Strategy     // strategy applied
	Tip      string       // branch tip after the sync
	Updated  bool         // false when the branch was already up to date
	Stashed  bool         // whether dirty changes were stashed and restored
	Pushed   bool         // whether the branch was pushed
	PushMode git.PushMode // how the push was performed
}

// Halt reports a sync stopped on conflicts. The workspace guard stays
// held until Continue completes or Abort runs.
type Halt struct {
	State *git.ConflictState

	eng      *Engine
	guard    *git.WorkspaceGuard
	restore  string
	branch   string
	base     string
	strategy Strategy
	opts     Options
	observed string
	message  string
}

// Sync brings branch up to date with base using the given strategy.
// Empty branch means the current branch; empty base triggers detection
// against the configured candidates. On conflict a Halt is returned and
// the repository is left mid-operation for resolution.
func (e *Engine) Sync(branch, base string, strategy Strategy, opts Options) (*Result, *Halt, error) {
	switch strategy {
	case Merge, Squash, Rebase, FastForwardOnly:
	default:
		return nil, nil, fmt.Errorf("%w: %q", ErrUnknownStrategy, strategy)
	}

	if branch == "" {
		current, err := e.git.CurrentBranch()
		if err != nil {
			return nil, nil, err
		}
		branch = current
	}

	if opts.Fetch {
		if err := e.git.Fetch(e.remote); err != nil {
			return nil, nil, err
		}
	}

	if base == "" {
		candidates := opts.BaseCandidates
		if candidates == nil {
			candidates = git.DefaultBaseCandidates
		}
		detected, err := e.git.DetectBaseBranch(branch, candidates)
		if err != nil {
			return nil, nil, err
		}
		if detected == "" {
			return nil, nil, fmt.Errorf("%w: no candidate is an ancestor of %s", ErrBaseNotFound, branch)
		}
		base = detected
	}

	if _, err := e.git.MergeBase(branch, base); err != nil {
		return nil, nil, fmt.Errorf("%w: %s and %s", ErrUnrelatedHistories, branch, base)
	}

	// Snapshot the remote tip before rewriting anything so the push
	// decision can detect interleaved remote pushes.
	var observed string
	if opts.Push {
		tip, err := e.remoteTip(branch)
		if err != nil {
			return nil, nil, err
		}
		observed = tip
	}

	upToDate, err := e.git.IsAncestor(base, branch)
	if err != nil {
		return nil, nil, err
	}
	if upToDate {
		tip, err := e.git.ResolveCommit(branch)
		if err != nil {
			return nil, nil, err
		}
		res := &Result{Branch: branch, Base: base, Strategy: strategy, Tip: tip.SHA}
		return res, nil, e.maybePush(res, opts, observed)
	}

	guard, err := e.git.AcquireWorkspace(string(strategy) + " " + base)
	if err != nil {
		return nil, nil, err
	}

	// The guard's stash belongs to the branch checked out right now;
	// every exit path must return here before releasing it.
	restore, err := e.git.CurrentBranch()
	if err != nil {
		if relErr := guard.Release(); relErr != nil {
			return nil, nil, fmt.Errorf("%w; additionally: %v", err, relErr)
		}
		return nil, nil, err
	}
	if restore != branch {
		if err := e.git.Checkout(branch); err != nil {
			if relErr := guard.Release(); relErr != nil {
				return nil, nil, fmt.Errorf("%w; additionally: %v", err, relErr)
			}
			return nil, nil, err
		}
	}

	return e.run(guard, restore, branch, base, strategy, opts, observed)
}

func (e *Engine) run(guard *git.WorkspaceGuard, restore, branch, base string, strategy Strategy, opts Options, observed string) (*Result, *Halt, error) {
	var message string
	var err error

	switch strategy {
	case FastForwardOnly:
		_, err = e.git.RunGit("merge", "--ff-only", base)
		if err != nil {
			ffErr := fmt.Errorf("%w: %s has its own commits", ErrNotFastForwardable, branch)
			return nil, nil, e.rollback(guard, restore, branch, ffErr)
		}

	case Merge:
		message = fmt.Sprintf("Merge branch '%s' into %s", base, branch)
		_, err = e.git.RunGit("merge", "--no-ff", "-m", message, base)

	case Squash:
		message = fmt.Sprintf("Squashed commit of branch '%s'", base)
		_, err = e.git.RunGit("merge", "--squash", base)
		if err == nil {
			err = e.git.Commit(message)
		}

	case Rebase:
		_, err = e.git.RunGit("rebase", base)
	}

	if err != nil {
		return e.haltOrFail(guard, restore, branch, base, strategy, opts, observed, message, err)
	}

	return e.finish(guard, restore, branch, base, strategy, opts, observed)
}

// finish returns to the starting branch, releases the guard, decides
// the push and assembles the result.
func (e *Engine) finish(guard *git.WorkspaceGuard, restore, branch, base string, strategy Strategy, opts Options, observed string) (*Result, *Halt, error) {
	tip, err := e.git.ResolveCommit(branch)
	if err != nil {
		return nil, nil, e.rollback(guard, restore, branch, err)
	}

	stashed := guard.Stashed()
	if restore != "" && restore != branch {
		if err := e.git.Checkout(restore); err != nil {
			return nil, nil, fmt.Errorf("could not return to %s, run `git checkout %s && git stash pop` manually: %w",
				restore, restore, err)
		}
	}
	if err := guard.Release(); err != nil {
		return nil, nil, err
	}

	res := &Result{
		Branch:   branch,
		Base:     base,
		Strategy: strategy,
		Tip:      tip.SHA,
		Updated:  true,
		Stashed:  stashed,
	}
	return res, nil, e.maybePush(res, opts, observed)
}

// haltOrFail turns a conflicted sync into a Halt and rolls back
// anything else.
func (e *Engine) haltOrFail(guard *git.WorkspaceGuard, restore, branch, base string, strategy Strategy, opts Options, observed, message string, cause error) (*Result, *Halt, error) {
	state, derr := e.git.DetectConflict()
	if derr == nil && state == nil && strategy == Squash {
		// A conflicted squash merge leaves no sequencer marker, only
		// unmerged paths.
		if unmerged, uerr := e.git.HasUnmergedPaths(); uerr == nil && unmerged {
			paths, _ := e.git.UnmergedPaths()
			state = &git.ConflictState{Op: git.OpMerge, UnmergedPaths: paths}
		}
	}
	if state != nil {
		return nil, &Halt{
			State:    state,
			eng:      e,
			guard:    guard,
			restore:  restore,
			branch:   branch,
			base:     base,
			strategy: strategy,
			opts:     opts,
			observed: observed,
			message:  message,
		}, nil
	}

	if err := e.git.ResetHard("HEAD"); err != nil {
		return nil, nil, fmt.Errorf("%w; reset failed (%v), run `git reset --hard` manually", cause, err)
	}
	return nil, nil, e.rollback(guard, restore, branch, cause)
}

// rollback returns the user to their starting branch and restores the
// stash, chaining any rollback failure onto cause.
func (e *Engine) rollback(guard *git.WorkspaceGuard, restore, branch string, cause error) error {
	if restore != "" && restore != branch {
		if err := e.git.Checkout(restore); err != nil {
			return fmt.Errorf("%w; could not return to %s, run `git checkout %s && git stash pop` manually",
				cause, restore, restore)
		}
	}
	if err := guard.Release(); err != nil {
		return fmt.Errorf("%w; additionally: %v", cause, err)
	}
	return cause
}

// maybePush pushes the branch when requested, deciding the mode from
// the remote tip observed before the sync.
func (e *Engine) maybePush(res *Result, opts Options, observed string) error {
	if !opts.Push {
		return nil
	}

	decision, err := e.git.DecidePush(e.remote, res.Branch, observed)
	if err != nil {
		return err
	}
	if err := e.git.PushWith(e.remote, res.Branch, decision); err != nil {
		return err
	}

	res.Pushed = true
	res.PushMode = decision.Mode
	return nil
}

// remoteTip returns the remote branch's current SHA, or "" when the
// branch does not exist on the remote.
func (e *Engine) remoteTip(branch string) (string, error) {
	out, err := e.git.RunGit("ls-remote", "--heads", e.remote, branch)
	if err != nil {
		return "", err
	}
	out = strings.TrimSpace(out)
	if out == "" {
		return "", nil
	}
	fields := strings.Fields(out)
	return fields[0], nil
}

// Continue resumes a halted sync after the caller has resolved and
// staged the conflicted paths. A rebase may halt again on a later
// commit; a new Halt is returned in that case.
func (h *Halt) Continue() (*Result, *Halt, error) {
	unmerged, err := h.eng.git.HasUnmergedPaths()
	if err != nil {
		return nil, nil, err
	}
	if unmerged {
		return nil, nil, git.ErrUnresolvedConflicts
	}

	if h.strategy == Squash {
		if err := h.eng.git.Commit(h.message); err != nil {
			return nil, nil, err
		}
		return h.eng.finish(h.guard, h.restore, h.branch, h.base, h.strategy, h.opts, h.observed)
	}

	if err := h.eng.git.ContinueOperation(); err != nil {
		// A rebase reports the next commit's conflict as a non-zero
		// continue; that is a fresh halt, not a failure.
		if state, derr := h.eng.git.DetectConflict(); derr == nil && state != nil {
			next := *h
			next.State = state
			return nil, &next, nil
		}
		return nil, nil, err
	}

	return h.eng.finish(h.guard, h.restore, h.branch, h.base, h.strategy, h.opts, h.observed)
}

// Abort abandons a halted sync, restoring the branch to its state
// before the operation and reapplying stashed changes.
func (h *Halt) Abort() error {
	if h.strategy == Squash {
		if err := h.eng.git.ResetHard("HEAD"); err != nil {
			return err
		}
	} else {
		if err := h.eng.git.AbortOperation(); err != nil {
			return err
		}
	}
	if h.restore != "" && h.restore != h.branch {
		if err := h.eng.git.Checkout(h.restore); err != nil {
			return fmt.Errorf("could not return to %s, run `git checkout %s && git stash pop` manually: %w",
				h.restore, h.restore, err)
		}
	}
	return h.guard.Release()
}
