package git

import (
	"fmt"
	"os/exec"
	"path/filepath"
	"regexp"
	"strings"
)

// Context manages git operations for a repository.
//
// A Context is the single handle through which every orchestration entry
// point mutates the repository. Git's working tree, index, and ref
// namespace have no internal concurrency control, so callers must not
// run two mutating operations against the same Context concurrently.
type Context struct {
	repoPath  string        // Path to the repository
	runner    CommandRunner // Command runner (defaults to ExecRunner)
	guardHeld bool          // Set while a WorkspaceGuard owns the stash slot
}

// Option configures Context.
type Option func(*Context)

// NewContext creates a new git context for the repository.
// It validates that the path is a git repository and applies any options.
func NewContext(repoPath string, opts ...Option) (*Context, error) {
	absPath, err := filepath.Abs(repoPath)
	if err != nil {
		return nil, fmt.Errorf("resolve path: %w", err)
	}

	// Verify it's a git repository
	cmd := exec.Command("git", "rev-parse", "--git-dir")
	cmd.Dir = absPath
	if err := cmd.Run(); err != nil {
		return nil, ErrNotGitRepo
	}

	g := &Context{
		repoPath: absPath,
		runner:   NewExecRunner(),
	}

	for _, opt := range opts {
		opt(g)
	}

	return g, nil
}

// WithRunner sets a custom command runner for git operations.
// This is primarily used for testing to inject mock command execution.
func WithRunner(runner CommandRunner) Option {
	return func(g *Context) {
		g.runner = runner
	}
}

// RepoPath returns the path to the repository.
func (g *Context) RepoPath() string {
	return g.repoPath
}

// CurrentBranch returns the current branch name.
func (g *Context) CurrentBranch() (string, error) {
	branch, err := g.runGit("rev-parse", "--abbrev-ref", "HEAD")
	if err != nil {
		return "", &Error{Op: "get current branch", Err: err}
	}
	return branch, nil
}

// Checkout switches to the specified ref (branch, tag, or commit).
func (g *Context) Checkout(ref string) error {
	if _, err := g.runGit("checkout", ref); err != nil {
		return &Error{Op: "checkout", Err: err}
	}
	return nil
}

// CheckoutDetached detaches HEAD at the specified ref.
func (g *Context) CheckoutDetached(ref string) error {
	if _, err := g.runGit("checkout", "--detach", ref); err != nil {
		return &Error{Op: "checkout detached", Err: err}
	}
	return nil
}

// CreateBranch creates a new branch at HEAD.
func (g *Context) CreateBranch(name string) error {
	if _, err := g.runGit("branch", name); err != nil {
		if strings.Contains(err.Error(), "already exists") {
			return ErrBranchExists
		}
		return &Error{Op: "create branch", Err: err}
	}
	return nil
}

// CreateBranchAt creates a new branch pointing at the specified ref.
func (g *Context) CreateBranchAt(name, ref string) error {
	if _, err := g.runGit("branch", name, ref); err != nil {
		if strings.Contains(err.Error(), "already exists") {
			return ErrBranchExists
		}
		return &Error{Op: "create branch", Err: err}
	}
	return nil
}

// ForceBranch moves (or creates) a branch to point at the specified ref
// without checking it out.
func (g *Context) ForceBranch(name, ref string) error {
	if _, err := g.runGit("branch", "-f", name, ref); err != nil {
		return &Error{Op: "move branch", Err: err}
	}
	return nil
}

// DeleteBranch deletes a branch. If force is true, uses -D instead of -d.
func (g *Context) DeleteBranch(name string, force bool) error {
	flag := "-d"
	if force {
		flag = "-D"
	}
	if _, err := g.runGit("branch", flag, name); err != nil {
		return &Error{Op: "delete branch", Err: err}
	}
	return nil
}

// BranchExists checks if a local branch exists.
func (g *Context) BranchExists(name string) bool {
	_, err := g.runGit("rev-parse", "--verify", "refs/heads/"+name)
	return err == nil
}

// RemoteBranchExists checks if the branch exists on the remote tracking refs.
func (g *Context) RemoteBranchExists(remote, name string) bool {
	_, err := g.runGit("rev-parse", "--verify", "refs/remotes/"+remote+"/"+name)
	return err == nil
}

// Stage adds files to the staging area.
func (g *Context) Stage(files ...string) error {
	if len(files) == 0 {
		return nil
	}
	args := append([]string{"add", "--"}, files...)
	if _, err := g.runGit(args...); err != nil {
		return &Error{Op: "stage files", Err: err}
	}
	return nil
}

// StageAll stages all changes (git add -A).
func (g *Context) StageAll() error {
	if _, err := g.runGit("add", "-A"); err != nil {
		return &Error{Op: "stage all", Err: err}
	}
	return nil
}

// Commit creates a commit with the given message.
// Returns ErrNothingToCommit if there are no staged changes.
func (g *Context) Commit(message string) error {
	output, err := g.runGit("commit", "-m", message)
	if err != nil {
		if strings.Contains(output, "nothing to commit") ||
			strings.Contains(err.Error(), "nothing to commit") {
			return ErrNothingToCommit
		}
		return &Error{Op: "commit", Output: output, Err: err}
	}
	return nil
}

// Fetch fetches updates from the remote.
func (g *Context) Fetch(remote string) error {
	if _, err := g.runGit("fetch", remote); err != nil {
		return &Error{Op: "fetch", Err: err}
	}
	return nil
}

// Status returns the working tree status in short format.
func (g *Context) Status() (string, error) {
	status, err := g.runGit("status", "--short")
	if err != nil {
		return "", &Error{Op: "status", Err: err}
	}
	return status, nil
}

// IsClean returns true if the working tree has no uncommitted changes.
func (g *Context) IsClean() (bool, error) {
	status, err := g.Status()
	if err != nil {
		return false, err
	}
	return status == "", nil
}

// HeadCommit returns the current HEAD commit SHA.
func (g *Context) HeadCommit() (string, error) {
	sha, err := g.runGit("rev-parse", "HEAD")
	if err != nil {
		return "", &Error{Op: "get HEAD commit", Err: err}
	}
	return sha, nil
}

// ResetHard resets the current branch and working tree to the given ref.
func (g *Context) ResetHard(ref string) error {
	if _, err := g.runGit("reset", "--hard", ref); err != nil {
		return &Error{Op: "reset hard", Err: err}
	}
	return nil
}

// GetRemoteURL returns the URL of the specified remote.
func (g *Context) GetRemoteURL(remote string) (string, error) {
	url, err := g.runGit("remote", "get-url", remote)
	if err != nil {
		return "", &Error{Op: "get remote URL", Err: err}
	}
	return url, nil
}

// RunGit executes a raw git command in the repository.
// Orchestration packages use this for plumbing not covered by a method.
func (g *Context) RunGit(args ...string) (string, error) {
	return g.runGit(args...)
}

// runGit executes a git command and returns stdout.
func (g *Context) runGit(args ...string) (string, error) {
	return g.runner.Run(g.repoPath, "git", args...)
}

// SanitizeBranchName converts a branch name to a safe directory name.
func SanitizeBranchName(branch string) string {
	safe := strings.ReplaceAll(branch, "/", "-")
	safe = strings.ToLower(safe)
	safe = regexp.MustCompile(`[^a-z0-9-]`).ReplaceAllString(safe, "")
	safe = regexp.MustCompile(`-+`).ReplaceAllString(safe, "-")
	safe = strings.Trim(safe, "-")
	return safe
}
