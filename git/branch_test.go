package git_test

import (
	"testing"

	"github.com/zevwings/workflow/git"
	"github.com/zevwings/workflow/testutil"
)

func TestDetectBaseBranch(t *testing.T) {
	dir := testutil.SetupTestRepo(t)

	// develop branches off main, feature branches off develop.
	testutil.CreateBranch(t, dir, "develop")
	testutil.CommitFile(t, dir, "dev.txt", "dev\n", "Develop work")
	testutil.CreateBranch(t, dir, "feature/PROJ-1-login")
	testutil.CommitFile(t, dir, "login.txt", "login\n", "Add login")

	g, err := git.NewContext(dir)
	if err != nil {
		t.Fatalf("NewContext failed: %v", err)
	}

	base, err := g.DetectBaseBranch("feature/PROJ-1-login", nil)
	if err != nil {
		t.Fatalf("DetectBaseBranch failed: %v", err)
	}
	if base != "develop" {
		t.Errorf("base = %q, want develop", base)
	}

	t.Run("explicit candidates", func(t *testing.T) {
		base, err := g.DetectBaseBranch("feature/PROJ-1-login", []string{"main"})
		if err != nil {
			t.Fatalf("DetectBaseBranch failed: %v", err)
		}
		if base != "main" {
			t.Errorf("base = %q, want main", base)
		}
	})

	t.Run("no candidate matches", func(t *testing.T) {
		base, err := g.DetectBaseBranch("feature/PROJ-1-login", []string{"release"})
		if err != nil {
			t.Fatalf("DetectBaseBranch failed: %v", err)
		}
		if base != "" {
			t.Errorf("base = %q, want empty", base)
		}
	})
}

func TestBranchNamerForTicket(t *testing.T) {
	tests := []struct {
		name     string
		namer    *git.BranchNamer
		ticketID string
		title    string
		want     string
	}{
		{
			name:     "default",
			namer:    git.DefaultBranchNamer(),
			ticketID: "PROJ-421",
			title:    "Add User Authentication",
			want:     "feature/proj-421-add-user-authentication",
		},
		{
			name:     "no title",
			namer:    git.DefaultBranchNamer(),
			ticketID: "PROJ-7",
			title:    "",
			want:     "feature/proj-7",
		},
		{
			name:     "custom prefix",
			namer:    &git.BranchNamer{TypePrefix: "pick", IncludeTitle: false},
			ticketID: "OPS-12",
			title:    "ignored",
			want:     "pick/ops-12",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.namer.ForTicket(tt.ticketID, tt.title); got != tt.want {
				t.Errorf("ForTicket() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestSlugify(t *testing.T) {
	tests := []struct {
		input string
		want  string
	}{
		{"Add User Authentication", "add-user-authentication"},
		{"fix_login  crash!", "fix-login-crash"},
		{"--edge--", "edge"},
	}

	for _, tt := range tests {
		if got := git.Slugify(tt.input); got != tt.want {
			t.Errorf("Slugify(%q) = %q, want %q", tt.input, got, tt.want)
		}
	}
}
