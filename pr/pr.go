package pr

import (
	"context"
	"fmt"
	"strings"
	"time"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// State represents the state of a pull request.
type State string

const (
	StateOpen   State = "open"
	StateClosed State = "closed"
	StateMerged State = "merged"
)

// Provider is the platform boundary for pull requests. The orchestration
// engines never perform HTTP themselves: they parse body text handed to
// them and request base updates through this interface.
// Implementations exist for GitHub and GitLab.
type Provider interface {
	// CreatePR creates a new pull request.
	CreatePR(ctx context.Context, opts Options) (*PullRequest, error)

	// GetPR retrieves a pull request by ID.
	GetPR(ctx context.Context, id int) (*PullRequest, error)

	// UpdatePR updates an existing pull request. Setting UpdateOptions.Base
	// retargets the PR after its base branch was rewritten.
	UpdatePR(ctx context.Context, id int, opts UpdateOptions) (*PullRequest, error)

	// ListPRs lists pull requests matching the filter.
	ListPRs(ctx context.Context, filter Filter) ([]*PullRequest, error)
}

// Options configures pull request creation.
type Options struct {
	Title  string   // PR title (required)
	Body   string   // PR description (markdown)
	Base   string   // Target branch (default: "main")
	Head   string   // Source branch
	Labels []string // Labels to apply
	Draft  bool     // Create as draft
}

// UpdateOptions configures pull request updates.
type UpdateOptions struct {
	Title  *string  // New title (nil = no change)
	Body   *string  // New body (nil = no change)
	Base   *string  // New base branch (nil = no change)
	Labels []string // Labels to set (replaces existing)
}

// Filter configures pull request listing.
type Filter struct {
	State State  // Filter by state (empty = all)
	Base  string // Filter by base branch
	Head  string // Filter by head branch
	Limit int    // Maximum number to return (0 = default)
}

// PullRequest represents a pull request on the platform.
type PullRequest struct {
	ID        int        // PR number/IID
	URL       string     // Web URL
	Title     string     // PR title
	Body      string     // PR description
	State     State      // Current state
	Draft     bool       // Whether it's a draft
	Head      string     // Source branch
	Base      string     // Target branch
	CreatedAt time.Time  // Creation time
	UpdatedAt time.Time  // Last update time
	MergedAt  *time.Time // Merge time (nil if not merged)
	Labels    []string   // Applied labels
}

// FindForBranch returns the open PR whose head is the given branch, or
// ErrNotFound when the branch has no open PR.
func FindForBranch(ctx context.Context, p Provider, branch string) (*PullRequest, error) {
	prs, err := p.ListPRs(ctx, Filter{State: StateOpen, Head: branch, Limit: 1})
	if err != nil {
		return nil, err
	}
	if len(prs) == 0 {
		return nil, ErrNotFound
	}
	return prs[0], nil
}

// UpdateBase retargets an existing PR onto a new base branch.
func UpdateBase(ctx context.Context, p Provider, id int, base string) (*PullRequest, error) {
	return p.UpdatePR(ctx, id, UpdateOptions{Base: &base})
}

// TitleForTicket formats a PR title from a ticket ID and description:
// "PROJ-123", "fix login crash" -> "PROJ-123: Fix login crash".
func TitleForTicket(ticketID, description string) string {
	description = strings.TrimSpace(description)
	if description != "" {
		first := cases.Title(language.English).String(description[:1])
		description = first + description[1:]
	}
	if ticketID == "" {
		return description
	}
	if description == "" {
		return ticketID
	}
	return fmt.Sprintf("%s: %s", ticketID, description)
}

// DetectProvider attempts to detect the PR provider from a remote URL.
func DetectProvider(remoteURL string) (string, error) {
	remoteURL = strings.ToLower(remoteURL)

	if strings.Contains(remoteURL, "github.com") {
		return "github", nil
	}
	if strings.Contains(remoteURL, "gitlab.com") || strings.Contains(remoteURL, "gitlab") {
		return "gitlab", nil
	}

	return "", ErrUnknownProvider
}

// ParseRepoFromURL extracts owner and repo from a git remote URL.
func ParseRepoFromURL(remoteURL string) (owner, repo string, err error) {
	// Handle SSH URLs: git@github.com:owner/repo.git
	if strings.HasPrefix(remoteURL, "git@") {
		parts := strings.Split(remoteURL, ":")
		if len(parts) != 2 {
			return "", "", fmt.Errorf("invalid SSH URL format")
		}
		path := strings.TrimSuffix(parts[1], ".git")
		pathParts := strings.Split(path, "/")
		if len(pathParts) != 2 {
			return "", "", fmt.Errorf("invalid repository path")
		}
		return pathParts[0], pathParts[1], nil
	}

	// Handle HTTPS URLs: https://github.com/owner/repo.git
	remoteURL = strings.TrimPrefix(remoteURL, "https://")
	remoteURL = strings.TrimPrefix(remoteURL, "http://")
	remoteURL = strings.TrimSuffix(remoteURL, ".git")

	parts := strings.Split(remoteURL, "/")
	if len(parts) < 3 {
		return "", "", fmt.Errorf("invalid URL format")
	}

	return parts[len(parts)-2], parts[len(parts)-1], nil
}
