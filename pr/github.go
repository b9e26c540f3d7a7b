package pr

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"strings"

	"github.com/google/go-github/v57/github"
	"golang.org/x/oauth2"
)

// GitHubProvider implements Provider for GitHub.
type GitHubProvider struct {
	client *github.Client
	owner  string
	repo   string
}

// NewGitHubProvider creates a GitHub PR provider.
func NewGitHubProvider(token, owner, repo string) (*GitHubProvider, error) {
	if token == "" {
		return nil, ErrAuthRequired
	}
	if owner == "" || repo == "" {
		return nil, fmt.Errorf("owner and repo are required")
	}

	ts := oauth2.StaticTokenSource(&oauth2.Token{AccessToken: token})
	tc := oauth2.NewClient(context.Background(), ts)

	return &GitHubProvider{
		client: github.NewClient(tc),
		owner:  owner,
		repo:   repo,
	}, nil
}

// CreatePR creates a new pull request on GitHub.
func (p *GitHubProvider) CreatePR(ctx context.Context, opts Options) (*PullRequest, error) {
	if opts.Base == "" {
		opts.Base = "main"
	}

	newPR := &github.NewPullRequest{
		Title: github.String(opts.Title),
		Body:  github.String(opts.Body),
		Base:  github.String(opts.Base),
		Head:  github.String(opts.Head),
		Draft: github.Bool(opts.Draft),
	}

	ghPR, resp, err := p.client.PullRequests.Create(ctx, p.owner, p.repo, newPR)
	if err != nil {
		return nil, p.mapError(resp, err)
	}

	if len(opts.Labels) > 0 {
		_, _, err := p.client.Issues.AddLabelsToIssue(ctx, p.owner, p.repo, ghPR.GetNumber(), opts.Labels)
		if err != nil {
			// Labels are best-effort; the PR itself was created.
			slog.Warn("failed to add labels to PR",
				"pr", ghPR.GetNumber(),
				"labels", opts.Labels,
				"error", err)
		}
	}

	return prFromGitHub(ghPR), nil
}

// GetPR retrieves a pull request by number.
func (p *GitHubProvider) GetPR(ctx context.Context, id int) (*PullRequest, error) {
	ghPR, resp, err := p.client.PullRequests.Get(ctx, p.owner, p.repo, id)
	if err != nil {
		return nil, p.mapError(resp, err)
	}
	return prFromGitHub(ghPR), nil
}

// UpdatePR updates an existing pull request.
func (p *GitHubProvider) UpdatePR(ctx context.Context, id int, opts UpdateOptions) (*PullRequest, error) {
	update := &github.PullRequest{}
	if opts.Title != nil {
		update.Title = opts.Title
	}
	if opts.Body != nil {
		update.Body = opts.Body
	}
	if opts.Base != nil {
		update.Base = &github.PullRequestBranch{Ref: opts.Base}
	}

	ghPR, resp, err := p.client.PullRequests.Edit(ctx, p.owner, p.repo, id, update)
	if err != nil {
		return nil, p.mapError(resp, err)
	}

	if opts.Labels != nil {
		_, _, err := p.client.Issues.ReplaceLabelsForIssue(ctx, p.owner, p.repo, id, opts.Labels)
		if err != nil {
			slog.Warn("failed to replace labels on PR",
				"pr", id,
				"labels", opts.Labels,
				"error", err)
		}
	}

	return prFromGitHub(ghPR), nil
}

// ListPRs lists pull requests matching the filter.
func (p *GitHubProvider) ListPRs(ctx context.Context, filter Filter) ([]*PullRequest, error) {
	state := "all"
	switch filter.State {
	case StateOpen:
		state = "open"
	case StateClosed, StateMerged:
		state = "closed"
	}

	listOpts := &github.PullRequestListOptions{
		State: state,
		Base:  filter.Base,
	}
	if filter.Head != "" {
		listOpts.Head = p.owner + ":" + filter.Head
	}
	if filter.Limit > 0 {
		listOpts.PerPage = filter.Limit
	}

	ghPRs, resp, err := p.client.PullRequests.List(ctx, p.owner, p.repo, listOpts)
	if err != nil {
		return nil, p.mapError(resp, err)
	}

	prs := make([]*PullRequest, 0, len(ghPRs))
	for _, ghPR := range ghPRs {
		pr := prFromGitHub(ghPR)
		if filter.State == StateMerged && pr.State != StateMerged {
			continue
		}
		prs = append(prs, pr)
		if filter.Limit > 0 && len(prs) >= filter.Limit {
			break
		}
	}

	return prs, nil
}

func (p *GitHubProvider) mapError(resp *github.Response, err error) error {
	if resp == nil {
		return err
	}
	switch resp.StatusCode {
	case http.StatusUnauthorized, http.StatusForbidden:
		return fmt.Errorf("%w: %v", ErrAuthRequired, err)
	case http.StatusNotFound:
		return fmt.Errorf("%w: %v", ErrNotFound, err)
	case http.StatusUnprocessableEntity:
		msg := err.Error()
		if strings.Contains(msg, "already exists") {
			return fmt.Errorf("%w: %v", ErrAlreadyExists, err)
		}
		if strings.Contains(msg, "No commits between") {
			return fmt.Errorf("%w: %v", ErrNoChanges, err)
		}
		return err
	default:
		return err
	}
}

func prFromGitHub(ghPR *github.PullRequest) *PullRequest {
	pr := &PullRequest{
		ID:        ghPR.GetNumber(),
		URL:       ghPR.GetHTMLURL(),
		Title:     ghPR.GetTitle(),
		Body:      ghPR.GetBody(),
		Draft:     ghPR.GetDraft(),
		Head:      ghPR.GetHead().GetRef(),
		Base:      ghPR.GetBase().GetRef(),
		CreatedAt: ghPR.GetCreatedAt().Time,
		UpdatedAt: ghPR.GetUpdatedAt().Time,
	}

	switch {
	case ghPR.GetMerged() || ghPR.MergedAt != nil:
		pr.State = StateMerged
		if ghPR.MergedAt != nil {
			t := ghPR.GetMergedAt().Time
			pr.MergedAt = &t
		}
	case ghPR.GetState() == "closed":
		pr.State = StateClosed
	default:
		pr.State = StateOpen
	}

	for _, label := range ghPR.Labels {
		pr.Labels = append(pr.Labels, label.GetName())
	}

	return pr
}
