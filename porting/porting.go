package porting

import (
	"fmt"
	"log/slog"
	"strings"

	gonanoid "github.com/matoous/go-nanoid/v2"

	wferrors "github.com/zevwings/workflow/errors"
	"github.com/zevwings/workflow/git"
	"github.com/zevwings/workflow/jira"
	"github.com/zevwings/workflow/pr"
)

const (
	scratchAlphabet = "0123456789abcdefghijklmnopqrstuvwxyz"
	scratchIDLen    = 6
)

// Engine ports commits from one branch onto another as a single
// squashed commit on a fresh scratch branch. The source branch is never
// modified.
type Engine struct {
	git           *git.Context
	scratchPrefix string
}

// NewEngine creates a porting engine. scratchPrefix names the namespace
// for scratch branches; empty means "pick".
func NewEngine(g *git.Context, scratchPrefix string) *Engine {
	if scratchPrefix == "" {
		scratchPrefix = "pick"
	}
	return &Engine{git: g, scratchPrefix: scratchPrefix}
}

// Request selects what to port and where.
type Request struct {
	// Source is the branch the commits come from. Empty means the
	// currently checked-out branch.
	Source string

	// Target is the branch the scratch branch starts from.
	Target string

	// Commits are the specific commits to port, oldest first. Empty
	// means every commit on Source that is not on Target.
	Commits []string

	// Message is the squashed commit message. Empty means a message is
	// generated from the ported commits' subjects.
	Message string

	// BranchName overrides the generated scratch branch name.
	BranchName string

	// PRBody is the body text of the source branch's pull request, when
	// it has one. Ticket, description and change types are parsed out
	// of it and carried on the Result; a body that parses to nothing is
	// not an error.
	PRBody string
}

// Result is the outcome of a completed port.
type Result struct {
	Branch   string        // scratch branch holding the squashed commit
	Commit   *git.Commit   // the squashed commit
	Ported   []*git.Commit // source commits that were applied
	Metadata pr.Metadata   // parsed from Request.PRBody
	Stashed  bool          // whether dirty changes were stashed and restored
}

// Halt reports that a cherry-pick stopped on conflicts. The scratch
// branch stays checked out with the conflict in place; the workspace
// guard stays held until Continue completes or Abort runs.
type Halt struct {
	State *git.ConflictState

	eng       *Engine
	guard     *git.WorkspaceGuard
	req       Request
	source    string
	branch    string
	message   string
	meta      pr.Metadata
	ported    []*git.Commit
	remaining []*git.Commit
}

// Port applies the request. On conflict a Halt is returned instead of a
// Result and the repository is left mid-cherry-pick for resolution.
func (e *Engine) Port(req Request) (*Result, *Halt, error) {
	source := req.Source
	if source == "" {
		current, err := e.git.CurrentBranch()
		if err != nil {
			return nil, nil, err
		}
		source = current
	}
	if source == req.Target {
		return nil, nil, ErrSameBranch
	}
	if !e.git.BranchExists(req.Target) {
		return nil, nil, fmt.Errorf("%w: %s", ErrTargetNotFound, req.Target)
	}

	commits, err := e.selectCommits(req, source)
	if err != nil {
		return nil, nil, err
	}
	if len(commits) == 0 {
		return nil, nil, ErrNothingToPort
	}

	meta := pr.ParseBody(req.PRBody)

	branch := req.BranchName
	if branch == "" {
		branch, err = e.scratchName(source, meta)
		if err != nil {
			return nil, nil, err
		}
	}

	message := req.Message
	if message == "" {
		message = DefaultMessage(source, commits)
	}

	guard, err := e.git.AcquireWorkspace("port onto " + req.Target)
	if err != nil {
		return nil, nil, err
	}

	if err := e.git.CreateBranchAt(branch, req.Target); err != nil {
		guard.Release()
		return nil, nil, err
	}
	if err := e.git.Checkout(branch); err != nil {
		e.git.DeleteBranch(branch, true)
		guard.Release()
		return nil, nil, err
	}

	return e.apply(guard, req, source, branch, message, meta, nil, commits)
}

// apply cherry-picks the remaining commits without committing, then
// commits the accumulated index once.
func (e *Engine) apply(guard *git.WorkspaceGuard, req Request, source, branch, message string, meta pr.Metadata, ported, remaining []*git.Commit) (*Result, *Halt, error) {
	for i, c := range remaining {
		if _, err := e.git.RunGit("cherry-pick", "-n", c.SHA); err != nil {
			state, derr := e.git.DetectConflict()
			if derr == nil && state != nil {
				// Once resolved, the conflicted commit's changes land
				// with the rest, so it counts as ported.
				return nil, &Halt{
					State:     state,
					eng:       e,
					guard:     guard,
					req:       req,
					source:    source,
					branch:    branch,
					message:   message,
					meta:      meta,
					ported:    append(ported, c),
					remaining: remaining[i+1:],
				}, nil
			}
			return nil, nil, e.fail(guard, source, branch, err)
		}
		ported = append(ported, c)
	}

	if err := e.git.Commit(message); err != nil {
		return nil, nil, e.fail(guard, source, branch, err)
	}

	tip, err := e.git.HeadCommit()
	if err != nil {
		return nil, nil, e.fail(guard, source, branch, err)
	}
	commit, err := e.git.ResolveCommit(tip)
	if err != nil {
		return nil, nil, e.fail(guard, source, branch, err)
	}

	stashed := guard.Stashed()
	if err := e.git.Checkout(source); err != nil {
		// The guard stays held on purpose: popping the stash onto the
		// scratch branch would strand the changes there.
		return nil, nil, fmt.Errorf("could not return to %s, run `git checkout %s && git stash pop` manually: %w",
			source, source, err)
	}
	if err := guard.Release(); err != nil {
		return nil, nil, err
	}

	return &Result{Branch: branch, Commit: commit, Ported: ported, Metadata: meta, Stashed: stashed}, nil, nil
}

// fail rolls back a failed port: any partial application is discarded,
// the scratch branch is deleted and the source branch restored. Every
// rollback failure is chained onto cause so nothing goes quiet.
func (e *Engine) fail(guard *git.WorkspaceGuard, source, branch string, cause error) error {
	if state, derr := e.git.DetectConflict(); derr == nil && state != nil {
		if err := e.git.AbortOperation(); err != nil {
			return wferrors.NewConflictHaltError(
				fmt.Errorf("%w; abort failed: %v", cause, err),
				state.UnmergedPaths, state.RecoveryCommand())
		}
	} else {
		if _, err := e.git.RunGit("cherry-pick", "--quit"); err != nil {
			slog.Debug("cherry-pick --quit failed during rollback", "error", err)
		}
	}
	if err := e.git.ResetHard("HEAD"); err != nil {
		return fmt.Errorf("%w; reset failed (%v), run `git reset --hard` manually", cause, err)
	}
	if err := e.git.Checkout(source); err != nil {
		return fmt.Errorf("%w; could not return to %s, run `git checkout %s` manually", cause, source, source)
	}
	if err := e.git.DeleteBranch(branch, true); err != nil {
		return fmt.Errorf("%w; could not remove %s, run `git branch -D %s` manually", cause, branch, branch)
	}
	if err := guard.Release(); err != nil {
		return fmt.Errorf("%w; additionally: %v", cause, err)
	}
	return cause
}

// selectCommits resolves the requested commits, defaulting to the range
// unique to the source branch.
func (e *Engine) selectCommits(req Request, source string) ([]*git.Commit, error) {
	var shas []string
	if len(req.Commits) > 0 {
		shas = req.Commits
	} else {
		var err error
		shas, err = e.git.CommitsBetween(req.Target, source)
		if err != nil {
			return nil, err
		}
	}

	commits := make([]*git.Commit, 0, len(shas))
	for _, ref := range shas {
		c, err := e.git.ResolveCommit(ref)
		if err != nil {
			return nil, err
		}
		commits = append(commits, c)
	}
	return commits, nil
}

// scratchName builds a branch name like pick/PROJ-123-k3x9q2. The Jira
// ticket is taken from the source branch when present, then from the PR
// metadata; otherwise the sanitized source name is used.
func (e *Engine) scratchName(source string, meta pr.Metadata) (string, error) {
	stem := git.SanitizeBranchName(source)
	if ticket, err := jira.ExtractTicketID(source); err == nil {
		stem = ticket
	} else if meta.TicketID != "" {
		stem = meta.TicketID
	}

	id, err := gonanoid.Generate(scratchAlphabet, scratchIDLen)
	if err != nil {
		return "", fmt.Errorf("generating branch suffix: %w", err)
	}

	return fmt.Sprintf("%s/%s-%s", e.scratchPrefix, stem, id), nil
}

// DefaultMessage builds a squashed commit message from the ported
// commits: the first subject as title, the rest as a bulleted body.
func DefaultMessage(source string, commits []*git.Commit) string {
	if len(commits) == 1 {
		return commits[0].Message
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Port %d commits from %s\n\n", len(commits), source)
	for _, c := range commits {
		fmt.Fprintf(&b, "* %s\n", c.Subject)
	}
	return strings.TrimRight(b.String(), "\n")
}

// Continue resumes a halted port after the caller has resolved and
// staged the conflicted paths. The conflicted commit's changes stay in
// the index; only the commits after it are applied.
func (h *Halt) Continue() (*Result, *Halt, error) {
	unmerged, err := h.eng.git.HasUnmergedPaths()
	if err != nil {
		return nil, nil, err
	}
	if unmerged {
		return nil, nil, git.ErrUnresolvedConflicts
	}

	// The pick ran with --no-commit, so clear the sequencer state and
	// keep the resolved index.
	if _, err := h.eng.git.RunGit("cherry-pick", "--quit"); err != nil {
		return nil, nil, err
	}

	return h.eng.apply(h.guard, h.req, h.source, h.branch, h.message, h.meta, h.ported, h.remaining)
}

// Abort abandons a halted port: the cherry-pick is aborted, the scratch
// branch deleted, the source branch restored and stashed changes
// reapplied.
func (h *Halt) Abort() error {
	if _, err := h.eng.git.RunGit("cherry-pick", "--quit"); err != nil {
		return err
	}
	if err := h.eng.git.ResetHard("HEAD"); err != nil {
		return err
	}
	if err := h.eng.git.Checkout(h.source); err != nil {
		return err
	}
	if err := h.eng.git.DeleteBranch(h.branch, true); err != nil {
		return err
	}
	return h.guard.Release()
}
