package git

import (
	"log/slog"
	"strings"
)

// StashEntry identifies a stash-stack slot created by StashPush.
type StashEntry struct {
	Ref     string // Stash reference at creation time (stash@{0})
	Message string // Label passed to stash push
}

// StashPush saves uncommitted working-tree and index changes to the stash.
// The message labels the entry so a kept entry can be identified later.
func (g *Context) StashPush(message string) (*StashEntry, error) {
	args := []string{"stash", "push", "--include-untracked"}
	if message != "" {
		args = append(args, "-m", message)
	}
	output, err := g.runGit(args...)
	if err != nil {
		return nil, &Error{Op: "stash push", Output: output, Err: ErrWorkspaceDirtyUnstashable}
	}
	return &StashEntry{Ref: "stash@{0}", Message: message}, nil
}

// StashPop restores the most recent stash entry.
//
// If popping conflicts with the current working tree, the entry is kept in
// the stash stack and ErrStashRestoreConflict is returned; the entry must
// never be dropped silently.
func (g *Context) StashPop() error {
	output, err := g.runGit("stash", "pop")
	if err == nil {
		return nil
	}

	unmerged, unmergedErr := g.HasUnmergedPaths()
	if unmergedErr == nil && unmerged {
		slog.Warn("stash pop conflicted; entry kept",
			"hint", "resolve conflicts, stage files, then `git stash drop`")
		return &Error{Op: "stash pop", Output: output, Err: ErrStashRestoreConflict}
	}

	slog.Warn("failed to restore stashed changes",
		"error", err, "hint", "run `git stash pop` manually")
	return &Error{Op: "stash pop", Output: output, Err: err}
}

// HasUnmergedPaths reports whether the index contains unmerged entries.
func (g *Context) HasUnmergedPaths() (bool, error) {
	output, err := g.runGit("ls-files", "-u")
	if err != nil {
		return false, &Error{Op: "check unmerged files", Err: err}
	}
	return strings.TrimSpace(output) != "", nil
}

// UnmergedPaths returns the conflicted paths in the index, ordered as git
// reports them, de-duplicated across stages.
func (g *Context) UnmergedPaths() ([]string, error) {
	output, err := g.runGit("diff", "--name-only", "--diff-filter=U")
	if err != nil {
		return nil, &Error{Op: "list unmerged files", Err: err}
	}
	if output == "" {
		return nil, nil
	}

	var paths []string
	for _, line := range strings.Split(output, "\n") {
		if line != "" {
			paths = append(paths, line)
		}
	}
	return paths, nil
}
