package git

import (
	"errors"
	"strings"
)

// Commit is an immutable snapshot of a resolved commit.
//
// A Commit is created by resolving a user-supplied reference (HEAD, HEAD~n,
// short hash, branch name) and never mutated. History rewrites produce new
// Commit values with new hashes; the old ones become historical.
type Commit struct {
	SHA         string   // Full commit hash
	Tree        string   // Tree hash
	Parents     []string // Parent hashes, empty for the root commit
	Message     string   // Full commit message
	Subject     string   // First line of the message
	AuthorName  string
	AuthorEmail string
	AuthorDate  string // Strict ISO 8601
}

// IsRoot reports whether the commit has no parent.
func (c *Commit) IsRoot() bool {
	return len(c.Parents) == 0
}

// Parent returns the first parent hash, or empty for the root commit.
func (c *Commit) Parent() string {
	if len(c.Parents) == 0 {
		return ""
	}
	return c.Parents[0]
}

// ShortSHA returns the abbreviated hash.
func (c *Commit) ShortSHA() string {
	if len(c.SHA) < 8 {
		return c.SHA
	}
	return c.SHA[:8]
}

// commitFormat lays out the fields read by ResolveCommit, NUL-separated.
const commitFormat = "%H%x00%T%x00%P%x00%an%x00%ae%x00%aI%x00%B"

// ResolveCommit resolves a reference to a Commit with cached metadata.
// Returns ErrCommitNotFound if the reference does not name a commit.
func (g *Context) ResolveCommit(ref string) (*Commit, error) {
	out, err := g.runGit("show", "-s", "--format="+commitFormat, ref+"^{commit}")
	if err != nil {
		return nil, ErrCommitNotFound
	}

	fields := strings.SplitN(out, "\x00", 7)
	if len(fields) != 7 {
		return nil, &Error{Op: "resolve commit", Output: out, Err: ErrCommitNotFound}
	}

	c := &Commit{
		SHA:         fields[0],
		Tree:        fields[1],
		Message:     strings.TrimRight(fields[6], "\n"),
		AuthorName:  fields[3],
		AuthorEmail: fields[4],
		AuthorDate:  fields[5],
	}
	if fields[2] != "" {
		c.Parents = strings.Fields(fields[2])
	}
	if idx := strings.IndexByte(c.Message, '\n'); idx >= 0 {
		c.Subject = c.Message[:idx]
	} else {
		c.Subject = c.Message
	}

	return c, nil
}

// TreeOf returns the tree hash of the given ref.
func (g *Context) TreeOf(ref string) (string, error) {
	tree, err := g.runGit("rev-parse", ref+"^{tree}")
	if err != nil {
		return "", &Error{Op: "resolve tree", Err: err}
	}
	return tree, nil
}

// CommitsBetween returns the hashes reachable from head but not from base,
// ordered oldest to newest. This is the commit set unique to head.
func (g *Context) CommitsBetween(base, head string) ([]string, error) {
	out, err := g.runGit("rev-list", "--reverse", base+".."+head)
	if err != nil {
		return nil, &Error{Op: "list commits", Err: err}
	}
	if out == "" {
		return nil, nil
	}
	return strings.Split(out, "\n"), nil
}

// IsAncestor reports whether ancestor is reachable from descendant.
func (g *Context) IsAncestor(ancestor, descendant string) (bool, error) {
	_, err := g.runGit("merge-base", "--is-ancestor", ancestor, descendant)
	if err == nil {
		return true, nil
	}
	// Exit status 1 means "not an ancestor"; anything else is a real failure.
	var cmdErr *CommandError
	if errors.As(err, &cmdErr) && cmdErr.Output == "" {
		return false, nil
	}
	return false, &Error{Op: "check ancestry", Err: err}
}

// MergeBase returns the best common ancestor of the two refs, or an error
// if the histories are unrelated.
func (g *Context) MergeBase(a, b string) (string, error) {
	base, err := g.runGit("merge-base", a, b)
	if err != nil {
		return "", &Error{Op: "merge base", Err: err}
	}
	return base, nil
}

// IsCommitOnRemote reports whether the commit is contained in the remote
// tracking ref for the branch. Used to decide force-push warnings.
func (g *Context) IsCommitOnRemote(remote, branch, sha string) (bool, error) {
	if !g.RemoteBranchExists(remote, branch) {
		return false, nil
	}
	return g.IsAncestor(sha, remote+"/"+branch)
}

// CommitTree creates a commit object directly from a tree, bypassing the
// index and working tree. The original author identity and date are
// preserved; parent may be empty for a root commit.
//
// This is the plumbing-level replacement for driving the interactive
// sequencer with a substituted editor: rewrites build their commits here
// and move the branch ref afterward.
func (g *Context) CommitTree(tree, parent, message string, author *Commit) (string, error) {
	args := []string{"commit-tree", tree}
	if parent != "" {
		args = append(args, "-p", parent)
	}
	args = append(args, "-m", message)

	var env []string
	if author != nil {
		env = []string{
			"GIT_AUTHOR_NAME=" + author.AuthorName,
			"GIT_AUTHOR_EMAIL=" + author.AuthorEmail,
			"GIT_AUTHOR_DATE=" + author.AuthorDate,
		}
	}

	sha, err := g.runner.RunEnv(g.repoPath, env, "git", args...)
	if err != nil {
		return "", &Error{Op: "commit tree", Err: err}
	}
	return sha, nil
}

// UpdateRef moves a branch ref from oldSHA to newSHA, failing if the ref
// no longer points at oldSHA.
func (g *Context) UpdateRef(branch, newSHA, oldSHA string) error {
	if _, err := g.runGit("update-ref", "refs/heads/"+branch, newSHA, oldSHA); err != nil {
		return &Error{Op: "update ref", Err: err}
	}
	return nil
}
