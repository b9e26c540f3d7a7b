package git

import (
	"regexp"
	"strings"
)

// DefaultBaseCandidates is the priority order used to detect which branch
// a feature branch was created from when no candidates are configured.
var DefaultBaseCandidates = []string{"develop", "dev", "staging", "test", "master", "main"}

// DefaultBranch returns the branch the remote HEAD points at, falling back
// to main/master when the remote HEAD is not set locally.
func (g *Context) DefaultBranch(remote string) (string, error) {
	out, err := g.runGit("symbolic-ref", "refs/remotes/"+remote+"/HEAD")
	if err == nil {
		return strings.TrimPrefix(out, "refs/remotes/"+remote+"/"), nil
	}

	for _, name := range []string{"main", "master"} {
		if g.BranchExists(name) {
			return name, nil
		}
	}
	return "", ErrBranchNotFound
}

// DetectBaseBranch guesses which of the candidate branches the current
// branch was forked from: the first candidate, in priority order, that is
// an ancestor of branch and is not the branch itself.
// Returns empty when no candidate matches.
func (g *Context) DetectBaseBranch(branch string, candidates []string) (string, error) {
	if len(candidates) == 0 {
		candidates = DefaultBaseCandidates
	}

	for _, candidate := range candidates {
		if candidate == branch || !g.BranchExists(candidate) {
			continue
		}
		ok, err := g.IsAncestor(candidate, branch)
		if err != nil {
			return "", err
		}
		if ok {
			return candidate, nil
		}
	}
	return "", nil
}

// BranchNamer generates branch names following conventions.
type BranchNamer struct {
	TypePrefix   string // Branch type prefix (e.g., "feature", "bugfix", "pick")
	IncludeTitle bool   // Whether to include title slug in branch name
	MaxLength    int    // Maximum branch name length
}

// DefaultBranchNamer returns a namer with default settings.
func DefaultBranchNamer() *BranchNamer {
	return &BranchNamer{
		TypePrefix:   "feature",
		IncludeTitle: true,
		MaxLength:    100,
	}
}

// ForTicket generates a branch name from a ticket ID and title.
// Example: "PROJ-421", "Add User Authentication" -> "feature/proj-421-add-user-authentication"
func (n *BranchNamer) ForTicket(ticketID, title string) string {
	parts := []string{strings.ToLower(ticketID)}

	if n.IncludeTitle && title != "" {
		slug := Slugify(title)
		if len(slug) > 50 {
			slug = slug[:50]
			slug = strings.TrimRight(slug, "-")
		}
		parts = append(parts, slug)
	}

	branch := n.TypePrefix + "/" + strings.Join(parts, "-")

	if n.MaxLength > 0 && len(branch) > n.MaxLength {
		branch = branch[:n.MaxLength]
	}

	return CleanBranch(branch)
}

// Slugify converts a string to a URL-safe slug.
func Slugify(s string) string {
	s = strings.ToLower(s)
	s = strings.ReplaceAll(s, " ", "-")
	s = strings.ReplaceAll(s, "_", "-")
	s = regexp.MustCompile(`[^a-z0-9-]`).ReplaceAllString(s, "")
	s = regexp.MustCompile(`-+`).ReplaceAllString(s, "-")
	s = strings.Trim(s, "-")
	return s
}

// CleanBranch ensures a branch name is valid.
func CleanBranch(s string) string {
	s = regexp.MustCompile(`-+`).ReplaceAllString(s, "-")

	parts := strings.Split(s, "/")
	for i, part := range parts {
		parts[i] = strings.TrimRight(part, "-")
	}
	return strings.Join(parts, "/")
}
