package sync_test

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/zevwings/workflow/git"
	"github.com/zevwings/workflow/sync"
	"github.com/zevwings/workflow/testutil"
)

// setupDivergedRepo builds a feature branch with one commit of its own
// and advances main past the fork point. Leaves feature checked out.
func setupDivergedRepo(t *testing.T) (string, *git.Context) {
	t.Helper()

	dir := testutil.SetupTestRepo(t)
	testutil.CreateBranch(t, dir, "feature")
	testutil.CommitFile(t, dir, "feature.txt", "f\n", "Feature work")

	testutil.SwitchBranch(t, dir, "main")
	testutil.CommitFile(t, dir, "upstream.txt", "u\n", "Upstream work")
	testutil.SwitchBranch(t, dir, "feature")

	g, err := git.NewContext(dir)
	if err != nil {
		t.Fatalf("NewContext failed: %v", err)
	}
	return dir, g
}

func TestSyncMerge(t *testing.T) {
	dir, g := setupDivergedRepo(t)

	res, halt, err := sync.NewEngine(g, "").Sync("", "", sync.Merge, sync.Options{})
	if err != nil {
		t.Fatalf("Sync failed: %v", err)
	}
	if halt != nil {
		t.Fatalf("unexpected halt: %+v", halt.State)
	}

	if res.Base != "main" {
		t.Errorf("Base = %q, want detected main", res.Base)
	}
	if !res.Updated {
		t.Error("expected Updated")
	}

	if subject := testutil.Subject(t, dir, "HEAD"); subject != "Merge branch 'main' into feature" {
		t.Errorf("merge subject = %q", subject)
	}
	parents := testutil.GitOutput(t, dir, "show", "-s", "--format=%P", "HEAD")
	if len(strings.Fields(parents)) != 2 {
		t.Errorf("expected a merge commit, parents = %q", parents)
	}
	if _, err := os.Stat(filepath.Join(dir, "upstream.txt")); err != nil {
		t.Error("upstream change missing after merge")
	}
}

func TestSyncSquash(t *testing.T) {
	dir, g := setupDivergedRepo(t)

	res, halt, err := sync.NewEngine(g, "").Sync("feature", "main", sync.Squash, sync.Options{})
	if err != nil {
		t.Fatalf("Sync failed: %v", err)
	}
	if halt != nil {
		t.Fatalf("unexpected halt: %+v", halt.State)
	}
	if !res.Updated {
		t.Error("expected Updated")
	}

	if subject := testutil.Subject(t, dir, "HEAD"); subject != "Squashed commit of branch 'main'" {
		t.Errorf("squash subject = %q", subject)
	}
	parents := testutil.GitOutput(t, dir, "show", "-s", "--format=%P", "HEAD")
	if len(strings.Fields(parents)) != 1 {
		t.Errorf("squash commit should have one parent, got %q", parents)
	}
	if _, err := os.Stat(filepath.Join(dir, "upstream.txt")); err != nil {
		t.Error("upstream change missing after squash")
	}
}

func TestSyncRebase(t *testing.T) {
	dir, g := setupDivergedRepo(t)
	mainTip := testutil.GitOutput(t, dir, "rev-parse", "main")

	res, halt, err := sync.NewEngine(g, "").Sync("feature", "main", sync.Rebase, sync.Options{})
	if err != nil {
		t.Fatalf("Sync failed: %v", err)
	}
	if halt != nil {
		t.Fatalf("unexpected halt: %+v", halt.State)
	}
	if !res.Updated {
		t.Error("expected Updated")
	}

	// Linear history: main's tip is now the parent chain of feature.
	ok, err := g.IsAncestor(mainTip, "feature")
	if err != nil {
		t.Fatalf("IsAncestor failed: %v", err)
	}
	if !ok {
		t.Error("main tip should be an ancestor after rebase")
	}
	if subject := testutil.Subject(t, dir, "HEAD"); subject != "Feature work" {
		t.Errorf("HEAD subject = %q", subject)
	}
	parents := testutil.GitOutput(t, dir, "show", "-s", "--format=%P", "HEAD")
	if len(strings.Fields(parents)) != 1 {
		t.Errorf("rebased commit should have one parent, got %q", parents)
	}
}

func TestSyncFastForwardOnly(t *testing.T) {
	t.Run("behind only", func(t *testing.T) {
		dir := testutil.SetupTestRepo(t)
		testutil.CreateBranch(t, dir, "feature")
		testutil.SwitchBranch(t, dir, "main")
		testutil.CommitFile(t, dir, "upstream.txt", "u\n", "Upstream work")
		mainTip := testutil.HeadSHA(t, dir)
		testutil.SwitchBranch(t, dir, "feature")

		g, err := git.NewContext(dir)
		if err != nil {
			t.Fatalf("NewContext failed: %v", err)
		}

		res, halt, err := sync.NewEngine(g, "").Sync("feature", "main", sync.FastForwardOnly, sync.Options{})
		if err != nil {
			t.Fatalf("Sync failed: %v", err)
		}
		if halt != nil {
			t.Fatalf("unexpected halt: %+v", halt.State)
		}
		if res.Tip != mainTip {
			t.Errorf("Tip = %s, want %s", res.Tip, mainTip)
		}
	})

	t.Run("diverged", func(t *testing.T) {
		_, g := setupDivergedRepo(t)

		_, _, err := sync.NewEngine(g, "").Sync("feature", "main", sync.FastForwardOnly, sync.Options{})
		if !errors.Is(err, sync.ErrNotFastForwardable) {
			t.Errorf("expected ErrNotFastForwardable, got %v", err)
		}
	})
}

func TestSyncAlreadyUpToDate(t *testing.T) {
	dir := testutil.SetupTestRepo(t)
	testutil.CreateBranch(t, dir, "feature")
	testutil.CommitFile(t, dir, "feature.txt", "f\n", "Feature work")
	tip := testutil.HeadSHA(t, dir)

	g, err := git.NewContext(dir)
	if err != nil {
		t.Fatalf("NewContext failed: %v", err)
	}

	res, halt, err := sync.NewEngine(g, "").Sync("feature", "main", sync.Merge, sync.Options{})
	if err != nil {
		t.Fatalf("Sync failed: %v", err)
	}
	if halt != nil {
		t.Fatalf("unexpected halt: %+v", halt.State)
	}
	if res.Updated {
		t.Error("expected Updated == false")
	}
	if res.Tip != tip {
		t.Errorf("Tip = %s, want %s", res.Tip, tip)
	}
}

func TestSyncUnknownStrategy(t *testing.T) {
	_, g := setupDivergedRepo(t)

	_, _, err := sync.NewEngine(g, "").Sync("feature", "main", "rewrite", sync.Options{})
	if !errors.Is(err, sync.ErrUnknownStrategy) {
		t.Errorf("expected ErrUnknownStrategy, got %v", err)
	}
}

func TestSyncStashesDirtyTree(t *testing.T) {
	dir, g := setupDivergedRepo(t)
	testutil.WriteFile(t, dir, "notes.txt", "wip\n")

	res, halt, err := sync.NewEngine(g, "").Sync("feature", "main", sync.Merge, sync.Options{})
	if err != nil {
		t.Fatalf("Sync failed: %v", err)
	}
	if halt != nil {
		t.Fatalf("unexpected halt: %+v", halt.State)
	}
	if !res.Stashed {
		t.Error("expected dirty tree to be stashed")
	}
	if _, err := os.Stat(filepath.Join(dir, "notes.txt")); err != nil {
		t.Error("dirty file not restored")
	}
}

func TestSyncFromAnotherBranchRestoresCheckout(t *testing.T) {
	dir, g := setupDivergedRepo(t)

	// Work from main with local edits while syncing feature.
	testutil.SwitchBranch(t, dir, "main")
	testutil.WriteFile(t, dir, "README.md", "work in progress\n")

	res, halt, err := sync.NewEngine(g, "").Sync("feature", "main", sync.Merge, sync.Options{})
	if err != nil {
		t.Fatalf("Sync failed: %v", err)
	}
	if halt != nil {
		t.Fatalf("unexpected halt: %+v", halt.State)
	}
	if !res.Updated {
		t.Error("expected Updated")
	}
	if !res.Stashed {
		t.Error("expected dirty tree to be stashed")
	}

	// The sync lands on feature but the user stays on main, with their
	// edits back where they left them.
	if branch := testutil.CurrentBranch(t, dir); branch != "main" {
		t.Errorf("current branch = %s, want main", branch)
	}
	data, err := os.ReadFile(filepath.Join(dir, "README.md"))
	if err != nil {
		t.Fatalf("reading restored file: %v", err)
	}
	if string(data) != "work in progress\n" {
		t.Errorf("restored content = %q", data)
	}
	if subject := testutil.Subject(t, dir, "feature"); subject != "Merge branch 'main' into feature" {
		t.Errorf("feature subject = %q", subject)
	}
}

// setupConflictingSync makes the same file diverge on main and feature.
func setupConflictingSync(t *testing.T) (string, *git.Context) {
	t.Helper()

	dir := testutil.SetupTestRepo(t)
	testutil.CreateBranch(t, dir, "feature")
	testutil.CommitFile(t, dir, "README.md", "feature version\n", "Feature change")

	testutil.SwitchBranch(t, dir, "main")
	testutil.CommitFile(t, dir, "README.md", "main version\n", "Main change")
	testutil.SwitchBranch(t, dir, "feature")

	g, err := git.NewContext(dir)
	if err != nil {
		t.Fatalf("NewContext failed: %v", err)
	}
	return dir, g
}

func TestSyncMergeConflictContinue(t *testing.T) {
	dir, g := setupConflictingSync(t)

	_, halt, err := sync.NewEngine(g, "").Sync("feature", "main", sync.Merge, sync.Options{})
	if err != nil {
		t.Fatalf("Sync failed: %v", err)
	}
	if halt == nil {
		t.Fatal("expected a conflict halt")
	}
	if halt.State.Op != git.OpMerge {
		t.Errorf("Op = %s, want merge", halt.State.Op)
	}

	if _, _, err := halt.Continue(); !errors.Is(err, git.ErrUnresolvedConflicts) {
		t.Fatalf("expected ErrUnresolvedConflicts, got %v", err)
	}

	testutil.WriteFile(t, dir, "README.md", "merged version\n")
	testutil.RunGit(t, dir, "add", "README.md")

	res, nextHalt, err := halt.Continue()
	if err != nil {
		t.Fatalf("Continue failed: %v", err)
	}
	if nextHalt != nil {
		t.Fatalf("unexpected second halt: %+v", nextHalt.State)
	}
	if !res.Updated {
		t.Error("expected Updated")
	}

	parents := testutil.GitOutput(t, dir, "show", "-s", "--format=%P", "HEAD")
	if len(strings.Fields(parents)) != 2 {
		t.Errorf("expected a merge commit, parents = %q", parents)
	}
}

func TestSyncRebaseConflictAbort(t *testing.T) {
	dir, g := setupConflictingSync(t)
	featureTip := testutil.HeadSHA(t, dir)

	_, halt, err := sync.NewEngine(g, "").Sync("feature", "main", sync.Rebase, sync.Options{})
	if err != nil {
		t.Fatalf("Sync failed: %v", err)
	}
	if halt == nil {
		t.Fatal("expected a conflict halt")
	}
	if halt.State.Op != git.OpRebase {
		t.Errorf("Op = %s, want rebase", halt.State.Op)
	}

	if err := halt.Abort(); err != nil {
		t.Fatalf("Abort failed: %v", err)
	}

	if tip := testutil.HeadSHA(t, dir); tip != featureTip {
		t.Errorf("tip = %s, want %s", tip, featureTip)
	}
	if branch := testutil.CurrentBranch(t, dir); branch != "feature" {
		t.Errorf("current branch = %s", branch)
	}
	if !testutil.IsClean(t, dir) {
		t.Error("tree should be clean after abort")
	}
}

func TestSyncRebaseConflictsTwiceThenContinues(t *testing.T) {
	dir := testutil.SetupTestRepo(t)
	testutil.CommitFile(t, dir, "f.txt", "base\n", "Base")
	testutil.CreateBranch(t, dir, "feature")
	testutil.CommitFile(t, dir, "f.txt", "feature one\n", "Feature one")
	testutil.CommitFile(t, dir, "f.txt", "feature two\n", "Feature two")

	testutil.SwitchBranch(t, dir, "main")
	testutil.CommitFile(t, dir, "f.txt", "main version\n", "Main change")
	testutil.SwitchBranch(t, dir, "feature")

	g, err := git.NewContext(dir)
	if err != nil {
		t.Fatalf("NewContext failed: %v", err)
	}

	_, halt, err := sync.NewEngine(g, "").Sync("feature", "main", sync.Rebase, sync.Options{})
	if err != nil {
		t.Fatalf("Sync failed: %v", err)
	}
	if halt == nil {
		t.Fatal("expected a conflict halt")
	}

	// Each commit conflicts in turn; the first continue must surface the
	// second conflict as a new halt, not as a fatal error.
	testutil.WriteFile(t, dir, "f.txt", "resolved one\n")
	testutil.RunGit(t, dir, "add", "f.txt")

	res, second, err := halt.Continue()
	if err != nil {
		t.Fatalf("Continue failed: %v", err)
	}
	if res != nil {
		t.Fatal("sync should not finish with a commit still conflicted")
	}
	if second == nil {
		t.Fatal("expected a second halt")
	}
	if second.State.Op != git.OpRebase {
		t.Errorf("Op = %s, want rebase", second.State.Op)
	}

	if _, _, err := second.Continue(); !errors.Is(err, git.ErrUnresolvedConflicts) {
		t.Fatalf("expected ErrUnresolvedConflicts, got %v", err)
	}

	testutil.WriteFile(t, dir, "f.txt", "resolved two\n")
	testutil.RunGit(t, dir, "add", "f.txt")

	res, third, err := second.Continue()
	if err != nil {
		t.Fatalf("second Continue failed: %v", err)
	}
	if third != nil {
		t.Fatalf("unexpected third halt: %+v", third.State)
	}
	if !res.Updated {
		t.Error("expected Updated")
	}

	if subject := testutil.Subject(t, dir, "HEAD"); subject != "Feature two" {
		t.Errorf("HEAD subject = %q", subject)
	}
	data, err := os.ReadFile(filepath.Join(dir, "f.txt"))
	if err != nil {
		t.Fatalf("reading file: %v", err)
	}
	if string(data) != "resolved two\n" {
		t.Errorf("f.txt = %q", data)
	}
	if branch := testutil.CurrentBranch(t, dir); branch != "feature" {
		t.Errorf("current branch = %s", branch)
	}
	if !testutil.IsClean(t, dir) {
		t.Error("tree should be clean after the rebase completes")
	}
}

func TestSyncSquashConflictContinue(t *testing.T) {
	dir, g := setupConflictingSync(t)

	_, halt, err := sync.NewEngine(g, "").Sync("feature", "main", sync.Squash, sync.Options{})
	if err != nil {
		t.Fatalf("Sync failed: %v", err)
	}
	if halt == nil {
		t.Fatal("expected a conflict halt")
	}

	testutil.WriteFile(t, dir, "README.md", "merged version\n")
	testutil.RunGit(t, dir, "add", "README.md")

	res, nextHalt, err := halt.Continue()
	if err != nil {
		t.Fatalf("Continue failed: %v", err)
	}
	if nextHalt != nil {
		t.Fatalf("unexpected second halt: %+v", nextHalt.State)
	}
	if !res.Updated {
		t.Error("expected Updated")
	}
	if subject := testutil.Subject(t, dir, "HEAD"); subject != "Squashed commit of branch 'main'" {
		t.Errorf("subject = %q", subject)
	}
}

func TestSyncPush(t *testing.T) {
	dir, g := setupDivergedRepo(t)
	testutil.SetupBareRemote(t, dir)

	res, halt, err := sync.NewEngine(g, "origin").Sync("feature", "main", sync.Rebase, sync.Options{Push: true})
	if err != nil {
		t.Fatalf("Sync failed: %v", err)
	}
	if halt != nil {
		t.Fatalf("unexpected halt: %+v", halt.State)
	}
	if !res.Pushed {
		t.Error("expected a push")
	}
	if res.PushMode != git.PushForceWithLease {
		t.Errorf("PushMode = %s, want force-with-lease", res.PushMode)
	}

	remoteTip := testutil.GitOutput(t, dir, "ls-remote", "--heads", "origin", "refs/heads/feature")
	if !strings.HasPrefix(remoteTip, res.Tip) {
		t.Errorf("remote tip = %q, want %s", remoteTip, res.Tip)
	}
}
