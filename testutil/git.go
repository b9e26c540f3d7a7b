// Package testutil provides helpers for building real git repositories
// in tests.
package testutil

import (
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"testing"
)

// SetupTestRepo creates a temporary git repository with one initial
// commit on branch "main". The repository is cleaned up when the test
// ends.
func SetupTestRepo(t *testing.T) string {
	t.Helper()

	dir := t.TempDir()

	RunGit(t, dir, "init", "-b", "main")
	RunGit(t, dir, "config", "user.email", "test@test.com")
	RunGit(t, dir, "config", "user.name", "Test User")

	readme := filepath.Join(dir, "README.md")
	if err := os.WriteFile(readme, []byte("# Test Repository\n"), 0o644); err != nil {
		t.Fatalf("failed to create README: %v", err)
	}
	RunGit(t, dir, "add", ".")
	RunGit(t, dir, "commit", "-m", "Initial commit")

	return dir
}

// CommitFile creates or updates a file and commits it, returning the
// new HEAD SHA.
func CommitFile(t *testing.T, repoDir, path, content, message string) string {
	t.Helper()

	WriteFile(t, repoDir, path, content)
	RunGit(t, repoDir, "add", path)
	RunGit(t, repoDir, "commit", "-m", message)

	return HeadSHA(t, repoDir)
}

// WriteFile writes a file in the repo without staging or committing it.
func WriteFile(t *testing.T, repoDir, path, content string) {
	t.Helper()

	fullPath := filepath.Join(repoDir, path)
	if err := os.MkdirAll(filepath.Dir(fullPath), 0o755); err != nil {
		t.Fatalf("failed to create directory for %s: %v", path, err)
	}
	if err := os.WriteFile(fullPath, []byte(content), 0o644); err != nil {
		t.Fatalf("failed to write file %s: %v", path, err)
	}
}

// CreateBranch creates and checks out a new branch.
func CreateBranch(t *testing.T, repoDir, branch string) {
	t.Helper()
	RunGit(t, repoDir, "checkout", "-b", branch)
}

// SwitchBranch checks out an existing branch.
func SwitchBranch(t *testing.T, repoDir, branch string) {
	t.Helper()
	RunGit(t, repoDir, "checkout", branch)
}

// HeadSHA returns the current HEAD SHA.
func HeadSHA(t *testing.T, repoDir string) string {
	t.Helper()
	return GitOutput(t, repoDir, "rev-parse", "HEAD")
}

// TreeSHA returns the tree SHA of the given ref.
func TreeSHA(t *testing.T, repoDir, ref string) string {
	t.Helper()
	return GitOutput(t, repoDir, "rev-parse", ref+"^{tree}")
}

// Subject returns the commit subject of the given ref.
func Subject(t *testing.T, repoDir, ref string) string {
	t.Helper()
	return GitOutput(t, repoDir, "show", "-s", "--format=%s", ref)
}

// CurrentBranch returns the checked-out branch name.
func CurrentBranch(t *testing.T, repoDir string) string {
	t.Helper()
	return GitOutput(t, repoDir, "branch", "--show-current")
}

// IsClean reports whether the working tree has no pending changes.
func IsClean(t *testing.T, repoDir string) bool {
	t.Helper()
	return GitOutput(t, repoDir, "status", "--porcelain") == ""
}

// SetupBareRemote creates a bare repository, registers it as "origin"
// and pushes the current branch to it. Returns the bare repo path.
func SetupBareRemote(t *testing.T, repoDir string) string {
	t.Helper()

	bare := t.TempDir()
	RunGit(t, bare, "init", "--bare")
	RunGit(t, repoDir, "remote", "add", "origin", bare)
	RunGit(t, repoDir, "push", "-u", "origin", CurrentBranch(t, repoDir))

	return bare
}

// SetupConflictingBranches creates branch "ours" and branch "theirs"
// off the current HEAD, each committing different content to the same
// file. Leaves "ours" checked out. Cherry-picking or merging "theirs"
// into "ours" will conflict.
func SetupConflictingBranches(t *testing.T, repoDir, path string) {
	t.Helper()

	base := CurrentBranch(t, repoDir)

	CreateBranch(t, repoDir, "theirs")
	CommitFile(t, repoDir, path, "their side\n", "Their change")

	SwitchBranch(t, repoDir, base)
	CreateBranch(t, repoDir, "ours")
	CommitFile(t, repoDir, path, "our side\n", "Our change")
}

// RunGit runs a git command in the repo, failing the test on error.
func RunGit(t *testing.T, dir string, args ...string) {
	t.Helper()

	cmd := exec.Command("git", args...)
	cmd.Dir = dir
	cmd.Env = gitEnv()

	output, err := cmd.CombinedOutput()
	if err != nil {
		t.Fatalf("git %v failed: %v\n%s", args, err, output)
	}
}

// RunGitAllowError runs a git command and returns its combined output
// and error instead of failing the test. Used to set up mid-conflict
// states where git exits nonzero on purpose.
func RunGitAllowError(t *testing.T, dir string, args ...string) (string, error) {
	t.Helper()

	cmd := exec.Command("git", args...)
	cmd.Dir = dir
	cmd.Env = gitEnv()

	output, err := cmd.CombinedOutput()
	return strings.TrimSpace(string(output)), err
}

// GitOutput runs a git command and returns its trimmed stdout.
func GitOutput(t *testing.T, dir string, args ...string) string {
	t.Helper()

	cmd := exec.Command("git", args...)
	cmd.Dir = dir
	cmd.Env = gitEnv()

	output, err := cmd.Output()
	if err != nil {
		t.Fatalf("git %v failed: %v", args, err)
	}
	return strings.TrimSpace(string(output))
}

func gitEnv() []string {
	return append(os.Environ(),
		"GIT_AUTHOR_NAME=Test User",
		"GIT_AUTHOR_EMAIL=test@test.com",
		"GIT_COMMITTER_NAME=Test User",
		"GIT_COMMITTER_EMAIL=test@test.com",
	)
}
