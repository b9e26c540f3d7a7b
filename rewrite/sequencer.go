package rewrite

import (
	"fmt"
	"log/slog"

	wferrors "github.com/zevwings/workflow/errors"
	"github.com/zevwings/workflow/git"
)

// Sequencer rewrites branch history from a Plan without driving an
// interactive editor.
//
// Plans that only pick, reword, or squash preserve every commit's tree, so
// the sequencer rebuilds the affected range directly with commit objects
// (commit-tree chains). That path never touches the working tree and
// cannot conflict. Plans that drop commits change subsequent trees and are
// replayed with cherry-pick; those can halt on conflicts, surfaced as a
// Halt for the caller to continue or abort.
type Sequencer struct {
	git *git.Context
}

// NewSequencer creates a sequencer over the repository.
func NewSequencer(g *git.Context) *Sequencer {
	return &Sequencer{git: g}
}

// Result is the outcome of a completed rewrite.
type Result struct {
	Branch  string      // Rewritten branch
	Tip     string      // New branch tip hash
	Commit  *git.Commit // The rewritten commit (reworded target or combined squash)
	Stashed bool        // Whether dirty changes were stashed and restored
}

// Halt reports a replay stopped on conflicts. The workspace guard stays
// held (the stash stays stashed) until Continue completes or Abort runs.
type Halt struct {
	State *git.ConflictState

	seq        *Sequencer
	guard      *git.WorkspaceGuard
	plan       *Plan
	conflicted CommitAction   // Action that hit the conflict
	remaining  []CommitAction // Actions not yet applied, in order
}

// Reword rewrites the message of the commit named by ref, leaving its tree
// and every other commit's tree untouched. Returns the new commit.
//
// The root commit is rejected up front: it has no parent to rebase onto.
func (s *Sequencer) Reword(ref, newMessage string) (*Result, error) {
	plan, err := BuildRewordPlan(s.git, ref, newMessage)
	if err != nil {
		return nil, err
	}
	res, _, err := s.Apply(plan)
	return res, err
}

// Squash folds the commits named by refs (oldest to newest, contiguous)
// into a single commit. newMessage may be empty; the oldest selected
// commit's message is then used.
func (s *Sequencer) Squash(refs []string, newMessage string) (*Result, error) {
	plan, err := BuildSquashPlan(s.git, refs, newMessage)
	if err != nil {
		return nil, err
	}
	res, _, err := s.Apply(plan)
	return res, err
}

// Drop removes the commits named by refs from history, replaying the rest
// of the range. May halt on conflicts.
func (s *Sequencer) Drop(refs []string) (*Result, *Halt, error) {
	plan, err := BuildDropPlan(s.git, refs)
	if err != nil {
		return nil, nil, err
	}
	return s.Apply(plan)
}

// Apply executes a plan inside a WorkspaceGuard.
//
// On success or fatal error the guard is released (the stash restored).
// On a Halt the guard stays held; the caller must finish with Continue or
// Abort on the returned Halt.
func (s *Sequencer) Apply(plan *Plan) (*Result, *Halt, error) {
	tip, err := s.git.HeadCommit()
	if err != nil {
		return nil, nil, err
	}
	if tip != plan.OriginalTip {
		return nil, nil, fmt.Errorf("branch %s moved since the plan was built (now %s)",
			plan.Branch, tip[:8])
	}

	guard, err := s.git.AcquireWorkspace(s.operationLabel(plan))
	if err != nil {
		return nil, nil, err
	}

	if !plan.hasDrops() {
		res, err := s.rebuild(plan)
		if relErr := guard.Release(); relErr != nil && err == nil {
			return nil, nil, relErr
		}
		if res != nil {
			res.Stashed = guard.Stashed()
		}
		return res, nil, err
	}

	res, halt, err := s.replay(plan, guard, plan.Actions, false)
	if halt != nil {
		return nil, halt, nil
	}
	if relErr := guard.Release(); relErr != nil && err == nil {
		return nil, nil, relErr
	}
	if res != nil {
		res.Stashed = guard.Stashed()
	}
	return res, nil, err
}

func (s *Sequencer) operationLabel(plan *Plan) string {
	for _, a := range plan.Actions {
		switch a.Verb {
		case Reword:
			return "reword " + a.Commit.ShortSHA()
		case Squash:
			return "squash onto " + a.Commit.ShortSHA()
		case Drop:
			return "drop " + a.Commit.ShortSHA()
		}
	}
	return "rewrite"
}

// rebuild rewrites a tree-preserving plan as a chain of commit objects.
// Leading picks are left untouched so their hashes survive.
func (s *Sequencer) rebuild(plan *Plan) (*Result, error) {
	actions := plan.Actions
	parent := plan.Parent.SHA
	for len(actions) > 0 && actions[0].Verb == Pick {
		parent = actions[0].Commit.SHA
		actions = actions[1:]
	}
	if len(actions) == 0 {
		return nil, fmt.Errorf("plan has no actions to apply")
	}

	var primary string
	i := 0
	for i < len(actions) {
		a := actions[i]
		switch a.Verb {
		case Pick:
			sha, err := s.git.CommitTree(a.Commit.Tree, parent, a.Commit.Message, a.Commit)
			if err != nil {
				return nil, err
			}
			parent = sha
			i++
		case Reword:
			sha, err := s.git.CommitTree(a.Commit.Tree, parent, a.NewMessage, a.Commit)
			if err != nil {
				return nil, err
			}
			if primary == "" {
				primary = sha
			}
			parent = sha
			i++
		case Squash:
			// A squash group collapses to the tree of its newest member.
			last := a
			author := a.Commit
			for i < len(actions) && actions[i].Verb == Squash {
				last = actions[i]
				i++
			}
			sha, err := s.git.CommitTree(last.Commit.Tree, parent, plan.Message, author)
			if err != nil {
				return nil, err
			}
			if primary == "" {
				primary = sha
			}
			parent = sha
		default:
			return nil, fmt.Errorf("verb %s requires replay", a.Verb)
		}
	}

	newTip := parent
	if err := s.verifyTree(plan.OriginalTip, newTip); err != nil {
		return nil, err
	}

	if err := s.git.UpdateRef(plan.Branch, newTip, plan.OriginalTip); err != nil {
		return nil, err
	}

	commit, err := s.git.ResolveCommit(primary)
	if err != nil {
		return nil, err
	}

	slog.Debug("history rewritten", "branch", plan.Branch,
		"old_tip", plan.OriginalTip[:8], "new_tip", newTip[:8])

	return &Result{Branch: plan.Branch, Tip: newTip, Commit: commit}, nil
}

// verifyTree checks that a message-only rewrite left the branch content
// untouched: the new tip's tree must equal the original tip's tree.
func (s *Sequencer) verifyTree(oldTip, newTip string) error {
	oldTree, err := s.git.TreeOf(oldTip)
	if err != nil {
		return err
	}
	newTree, err := s.git.TreeOf(newTip)
	if err != nil {
		return err
	}
	if oldTree != newTree {
		return fmt.Errorf("%w: %s vs %s", ErrTreeChanged, oldTree[:8], newTree[:8])
	}
	return nil
}

// replay applies actions with cherry-pick on a detached HEAD, used for
// plans that drop commits. Reword and squash never reach here; their
// plans preserve trees and go through rebuild. resume indicates HEAD is
// already positioned mid-replay (continuation after a conflict).
func (s *Sequencer) replay(plan *Plan, guard *git.WorkspaceGuard, actions []CommitAction, resume bool) (*Result, *Halt, error) {
	if !resume {
		if err := s.git.CheckoutDetached(plan.Parent.SHA); err != nil {
			releaseErr := guard.Release()
			if releaseErr != nil {
				slog.Warn("stash restore failed after checkout error", "error", releaseErr)
			}
			return nil, nil, err
		}
	}

	for i, a := range actions {
		switch a.Verb {
		case Drop:

		case Pick:
			if _, err := s.git.RunGit("cherry-pick", "--allow-empty", a.Commit.SHA); err != nil {
				return s.haltOrFail(plan, guard, err, a, actions[i+1:])
			}

		default:
			return nil, nil, s.failReplay(plan, guard,
				fmt.Errorf("verb %s cannot be replayed", a.Verb))
		}
	}

	return s.finishReplay(plan, guard)
}

// haltOrFail turns a cherry-pick failure into a Halt when the repository
// reports unmerged paths, and into a rolled-back fatal error otherwise.
func (s *Sequencer) haltOrFail(plan *Plan, guard *git.WorkspaceGuard, cause error, conflicted CommitAction, remaining []CommitAction) (*Result, *Halt, error) {
	state, detectErr := s.git.DetectConflict()
	if detectErr == nil && state != nil {
		return nil, &Halt{
			State:      state,
			seq:        s,
			guard:      guard,
			plan:       plan,
			conflicted: conflicted,
			remaining:  remaining,
		}, nil
	}
	return nil, nil, s.failReplay(plan, guard, cause)
}

// failReplay rolls a failed replay back to the original branch and tip.
func (s *Sequencer) failReplay(plan *Plan, guard *git.WorkspaceGuard, cause error) error {
	if state, err := s.git.DetectConflict(); err == nil && state != nil {
		if abortErr := s.git.AbortOperation(); abortErr != nil {
			return wferrors.NewConflictHaltError(
				fmt.Errorf("%w; rollback also failed: %v", cause, abortErr),
				state.UnmergedPaths, state.RecoveryCommand())
		}
	}
	if err := s.git.Checkout(plan.Branch); err != nil {
		return fmt.Errorf("%w; could not return to %s, run `git checkout %s` manually",
			cause, plan.Branch, plan.Branch)
	}
	if err := guard.Release(); err != nil {
		return fmt.Errorf("%w; additionally: %v", cause, err)
	}
	return cause
}

// finishReplay moves the branch onto the rebuilt history and re-checks it out.
func (s *Sequencer) finishReplay(plan *Plan, guard *git.WorkspaceGuard) (*Result, *Halt, error) {
	newTip, err := s.git.HeadCommit()
	if err != nil {
		return nil, nil, err
	}
	if err := s.git.ForceBranch(plan.Branch, newTip); err != nil {
		return nil, nil, err
	}
	if err := s.git.Checkout(plan.Branch); err != nil {
		return nil, nil, err
	}

	return &Result{Branch: plan.Branch, Tip: newTip, Stashed: guard.Stashed()}, nil, nil
}

// Continue resumes a halted replay after the caller has resolved and
// staged the conflicted paths. Only the actions that had not yet been
// applied are replayed; completed ones are never re-processed.
//
// Returns a new Halt if a later action conflicts as well.
func (h *Halt) Continue() (*Result, *Halt, error) {
	unmerged, err := h.seq.git.HasUnmergedPaths()
	if err != nil {
		return nil, nil, err
	}
	if unmerged {
		return nil, nil, git.ErrUnresolvedConflicts
	}

	if err := h.seq.git.ContinueOperation(); err != nil {
		return nil, nil, err
	}
	res, halt, err := h.seq.replay(h.plan, h.guard, h.remaining, true)
	if halt != nil {
		return nil, halt, nil
	}
	return res, nil, err
}

// Abort abandons the halted replay: the in-progress cherry-pick is
// aborted, the original branch is checked out at its original tip, and
// the stash is restored.
func (h *Halt) Abort() error {
	if state, err := h.seq.git.DetectConflict(); err == nil && state != nil {
		if err := h.seq.git.AbortOperation(); err != nil {
			return fmt.Errorf("abort failed, run `%s` manually: %w",
				state.RecoveryCommand(), err)
		}
	} else {
		if _, quitErr := h.seq.git.RunGit("cherry-pick", "--quit"); quitErr != nil {
			slog.Debug("cherry-pick quit during abort", "error", quitErr)
		}
		if err := h.seq.git.ResetHard("HEAD"); err != nil {
			return err
		}
	}

	if err := h.seq.git.Checkout(h.plan.Branch); err != nil {
		return fmt.Errorf("could not return to %s, run `git checkout %s && git stash pop` manually: %w",
			h.plan.Branch, h.plan.Branch, err)
	}
	if err := h.seq.git.ResetHard(h.plan.OriginalTip); err != nil {
		return err
	}
	return h.guard.Release()
}
