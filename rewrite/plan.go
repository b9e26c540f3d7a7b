package rewrite

import (
	"fmt"

	"github.com/zevwings/workflow/git"
)

// Verb is the action applied to one commit in a Plan.
type Verb int

const (
	// Pick replays the commit unchanged.
	Pick Verb = iota

	// Reword keeps the commit's tree and gives it a new message.
	Reword

	// Squash folds the commit into a single combined commit together with
	// the adjacent squash-marked commits.
	Squash

	// Drop removes the commit from history.
	Drop
)

func (v Verb) String() string {
	switch v {
	case Pick:
		return "pick"
	case Reword:
		return "reword"
	case Squash:
		return "squash"
	case Drop:
		return "drop"
	}
	return "unknown"
}

// CommitAction pairs a commit with the verb applied to it.
type CommitAction struct {
	Commit     *git.Commit
	Verb       Verb
	NewMessage string // Reword only
}

// Plan is an ordered edit list over one contiguous range of the current
// branch's history, oldest to newest, rooted at Parent (the parent of the
// oldest affected commit).
type Plan struct {
	Branch      string        // Branch being rewritten
	OriginalTip string        // Branch tip before the rewrite
	Parent      *git.Commit   // Rebase onto-point; never nil (root rewrites are rejected)
	Actions     []CommitAction
	Message     string // Combined message for the squash group, if any
}

// Preview renders the plan the way a sequencer todo list reads.
// The caller renders it; this package prints nothing itself.
func (p *Plan) Preview() string {
	out := ""
	for _, a := range p.Actions {
		out += fmt.Sprintf("%s %s %s\n", a.Verb, a.Commit.ShortSHA(), a.Commit.Subject)
	}
	return out
}

// hasDrops reports whether the plan removes commits. Plans without drops
// preserve every commit's tree and can be rebuilt without touching the
// working tree; plans with drops must be replayed.
func (p *Plan) hasDrops() bool {
	for _, a := range p.Actions {
		if a.Verb == Drop {
			return true
		}
	}
	return false
}

// BuildRewordPlan builds a plan that rewrites the message of the commit
// named by ref, picking every later commit unchanged.
func BuildRewordPlan(g *git.Context, ref, newMessage string) (*Plan, error) {
	target, err := g.ResolveCommit(ref)
	if err != nil {
		return nil, err
	}
	if target.IsRoot() {
		return nil, ErrRootCommit
	}
	if len(target.Parents) > 1 {
		return nil, fmt.Errorf("%w: %s is a merge commit", ErrMergeInRange, target.ShortSHA())
	}

	plan, err := scaffoldPlan(g, target.Parent())
	if err != nil {
		return nil, err
	}

	found := false
	for i := range plan.Actions {
		if plan.Actions[i].Commit.SHA == target.SHA {
			plan.Actions[i].Verb = Reword
			plan.Actions[i].NewMessage = newMessage
			found = true
			break
		}
	}
	if !found {
		return nil, fmt.Errorf("%w: %s is not reachable from %s",
			git.ErrCommitNotFound, target.ShortSHA(), plan.Branch)
	}

	return plan, nil
}

// BuildSquashPlan builds a plan that folds the commits named by refs into
// one combined commit. The refs must name at least two commits forming a
// contiguous run of history; the oldest one's message is the default
// combined message when newMessage is empty.
func BuildSquashPlan(g *git.Context, refs []string, newMessage string) (*Plan, error) {
	if len(refs) < 2 {
		return nil, ErrInsufficientCommits
	}

	selected := make([]*git.Commit, 0, len(refs))
	for _, ref := range refs {
		c, err := g.ResolveCommit(ref)
		if err != nil {
			return nil, err
		}
		if len(c.Parents) > 1 {
			return nil, fmt.Errorf("%w: %s is a merge commit", ErrMergeInRange, c.ShortSHA())
		}
		selected = append(selected, c)
	}

	// The selection must be contiguous, oldest to newest.
	for i := 1; i < len(selected); i++ {
		if selected[i].Parent() != selected[i-1].SHA {
			return nil, fmt.Errorf("%w: %s does not follow %s",
				ErrNonContiguousSelection, selected[i].ShortSHA(), selected[i-1].ShortSHA())
		}
	}

	oldest := selected[0]
	if oldest.IsRoot() {
		return nil, ErrRootCommit
	}

	plan, err := scaffoldPlan(g, oldest.Parent())
	if err != nil {
		return nil, err
	}

	inSelection := make(map[string]bool, len(selected))
	for _, c := range selected {
		inSelection[c.SHA] = true
	}
	matched := 0
	for i := range plan.Actions {
		if inSelection[plan.Actions[i].Commit.SHA] {
			plan.Actions[i].Verb = Squash
			matched++
		}
	}
	if matched != len(selected) {
		return nil, fmt.Errorf("%w: selection is not part of %s",
			git.ErrCommitNotFound, plan.Branch)
	}

	plan.Message = newMessage
	if plan.Message == "" {
		plan.Message = oldest.Message
	}

	return plan, nil
}

// BuildDropPlan builds a plan that removes the commits named by refs from
// history, replaying every other commit in the range.
func BuildDropPlan(g *git.Context, refs []string) (*Plan, error) {
	if len(refs) == 0 {
		return nil, git.ErrCommitNotFound
	}

	dropped := make([]*git.Commit, 0, len(refs))
	for _, ref := range refs {
		c, err := g.ResolveCommit(ref)
		if err != nil {
			return nil, err
		}
		if c.IsRoot() {
			return nil, ErrRootCommit
		}
		dropped = append(dropped, c)
	}

	oldest := dropped[0]
	for _, c := range dropped[1:] {
		ok, err := g.IsAncestor(c.SHA, oldest.SHA)
		if err != nil {
			return nil, err
		}
		if ok {
			oldest = c
		}
	}

	plan, err := scaffoldPlan(g, oldest.Parent())
	if err != nil {
		return nil, err
	}

	inSelection := make(map[string]bool, len(dropped))
	for _, c := range dropped {
		inSelection[c.SHA] = true
	}
	for i := range plan.Actions {
		if inSelection[plan.Actions[i].Commit.SHA] {
			plan.Actions[i].Verb = Drop
		}
	}

	return plan, nil
}

// scaffoldPlan enumerates commits from parent (exclusive) to HEAD
// (inclusive) as Pick actions on the current branch.
func scaffoldPlan(g *git.Context, parentSHA string) (*Plan, error) {
	branch, err := g.CurrentBranch()
	if err != nil {
		return nil, err
	}
	if branch == "HEAD" {
		return nil, ErrDetachedHead
	}
	tip, err := g.HeadCommit()
	if err != nil {
		return nil, err
	}

	parent, err := g.ResolveCommit(parentSHA)
	if err != nil {
		return nil, err
	}

	shas, err := g.CommitsBetween(parentSHA, "HEAD")
	if err != nil {
		return nil, err
	}
	if len(shas) == 0 {
		return nil, fmt.Errorf("%w: nothing between %s and HEAD",
			git.ErrCommitNotFound, parent.ShortSHA())
	}

	actions := make([]CommitAction, 0, len(shas))
	for _, sha := range shas {
		c, err := g.ResolveCommit(sha)
		if err != nil {
			return nil, err
		}
		if len(c.Parents) > 1 {
			return nil, fmt.Errorf("%w: %s is a merge commit", ErrMergeInRange, c.ShortSHA())
		}
		actions = append(actions, CommitAction{Commit: c, Verb: Pick})
	}

	return &Plan{
		Branch:      branch,
		OriginalTip: tip,
		Parent:      parent,
		Actions:     actions,
	}, nil
}
