package git

import (
	"fmt"
	"strings"

	wferrors "github.com/zevwings/workflow/errors"
)

// PushMode says how a branch may be pushed.
type PushMode int

const (
	// PushNormal is a plain push (remote branch absent or fast-forward).
	PushNormal PushMode = iota

	// PushForceWithLease force-pushes only if the remote tip still matches
	// the last observed value.
	PushForceWithLease

	// PushBlocked means the remote tip moved since it was observed; the
	// caller must re-fetch and decide again.
	PushBlocked
)

func (m PushMode) String() string {
	switch m {
	case PushNormal:
		return "normal"
	case PushForceWithLease:
		return "force-with-lease"
	case PushBlocked:
		return "blocked"
	}
	return "unknown"
}

// PushDecision is the outcome of checking remote state before a push.
// Decisions are computed freshly before every push and never cached:
// remote state can change between checks.
type PushDecision struct {
	Mode      PushMode
	RemoteSHA string // Current remote tip, empty if the branch is absent
	Reason    string // Set when Mode == PushBlocked
}

// DecidePush determines how branch may be pushed to remote after a history
// rewrite. observedSHA is the remote tip recorded when the rewrite began
// (empty if the branch had no remote counterpart).
//
//   - remote branch absent            -> PushNormal
//   - remote tip == observedSHA       -> PushForceWithLease
//   - remote tip moved                -> PushBlocked
func (g *Context) DecidePush(remote, branch, observedSHA string) (*PushDecision, error) {
	out, err := g.runGit("ls-remote", "--heads", remote, "refs/heads/"+branch)
	if err != nil {
		return nil, &Error{Op: "query remote tip", Err: err}
	}

	out = strings.TrimSpace(out)
	if out == "" {
		return &PushDecision{Mode: PushNormal}, nil
	}

	remoteSHA := strings.Fields(out)[0]
	if remoteSHA == observedSHA {
		return &PushDecision{Mode: PushForceWithLease, RemoteSHA: remoteSHA}, nil
	}

	return &PushDecision{
		Mode:      PushBlocked,
		RemoteSHA: remoteSHA,
		Reason:    fmt.Sprintf("remote diverged: %s is at %s, expected %s", branch, short(remoteSHA), short(observedSHA)),
	}, nil
}

// Push pushes the branch to the remote.
// If setUpstream is true, uses -u to set upstream tracking.
func (g *Context) Push(remote, branch string, setUpstream bool) error {
	args := []string{"push"}
	if setUpstream {
		args = append(args, "-u")
	}
	args = append(args, remote, branch)

	if _, err := g.runGit(args...); err != nil {
		return &Error{Op: "push", Err: err}
	}
	return nil
}

// PushWith executes a push according to the decision. Blocked decisions
// return ErrRemoteDiverged without touching the remote.
func (g *Context) PushWith(remote, branch string, decision *PushDecision) error {
	switch decision.Mode {
	case PushNormal:
		return g.Push(remote, branch, !g.RemoteBranchExists(remote, branch))
	case PushForceWithLease:
		lease := fmt.Sprintf("--force-with-lease=%s:%s", branch, decision.RemoteSHA)
		if _, err := g.runGit("push", lease, remote, branch); err != nil {
			return &Error{Op: "push force-with-lease", Err: err}
		}
		return nil
	case PushBlocked:
		err := &Error{Op: "push", Output: decision.Reason, Err: ErrRemoteDiverged}
		return wferrors.NewRemoteDivergedError(err, branch)
	}
	return &Error{Op: "push", Err: fmt.Errorf("unknown push mode %d", decision.Mode)}
}

func short(sha string) string {
	if sha == "" {
		return "(none)"
	}
	if len(sha) > 8 {
		return sha[:8]
	}
	return sha
}
