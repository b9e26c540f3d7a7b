package pr

import (
	"context"
	"fmt"
	"strings"

	gitlab "github.com/xanzy/go-gitlab"
)

// GitLabProvider implements Provider for GitLab.
type GitLabProvider struct {
	client    *gitlab.Client
	projectID string
}

// NewGitLabProvider creates a GitLab MR provider. projectID is either the
// numeric project ID or the "group/project" path. baseURL selects a
// self-hosted instance; empty means gitlab.com.
func NewGitLabProvider(token, projectID, baseURL string) (*GitLabProvider, error) {
	if token == "" {
		return nil, ErrAuthRequired
	}
	if projectID == "" {
		return nil, fmt.Errorf("project ID is required")
	}

	var opts []gitlab.ClientOptionFunc
	if baseURL != "" {
		opts = append(opts, gitlab.WithBaseURL(baseURL))
	}

	client, err := gitlab.NewClient(token, opts...)
	if err != nil {
		return nil, fmt.Errorf("creating gitlab client: %w", err)
	}

	return &GitLabProvider{client: client, projectID: projectID}, nil
}

// CreatePR creates a merge request on GitLab.
func (p *GitLabProvider) CreatePR(ctx context.Context, opts Options) (*PullRequest, error) {
	if opts.Base == "" {
		opts.Base = "main"
	}

	title := opts.Title
	if opts.Draft && !strings.HasPrefix(title, "Draft:") {
		title = "Draft: " + title
	}

	createOpts := &gitlab.CreateMergeRequestOptions{
		Title:        gitlab.Ptr(title),
		Description:  gitlab.Ptr(opts.Body),
		SourceBranch: gitlab.Ptr(opts.Head),
		TargetBranch: gitlab.Ptr(opts.Base),
	}
	if len(opts.Labels) > 0 {
		labels := gitlab.LabelOptions(opts.Labels)
		createOpts.Labels = &labels
	}

	mr, resp, err := p.client.MergeRequests.CreateMergeRequest(p.projectID, createOpts, gitlab.WithContext(ctx))
	if err != nil {
		return nil, p.mapError(resp, err)
	}

	return prFromGitLab(mr), nil
}

// GetPR retrieves a merge request by IID.
func (p *GitLabProvider) GetPR(ctx context.Context, id int) (*PullRequest, error) {
	mr, resp, err := p.client.MergeRequests.GetMergeRequest(p.projectID, id, nil, gitlab.WithContext(ctx))
	if err != nil {
		return nil, p.mapError(resp, err)
	}
	return prFromGitLab(mr), nil
}

// UpdatePR updates an existing merge request.
func (p *GitLabProvider) UpdatePR(ctx context.Context, id int, opts UpdateOptions) (*PullRequest, error) {
	updateOpts := &gitlab.UpdateMergeRequestOptions{}
	if opts.Title != nil {
		updateOpts.Title = opts.Title
	}
	if opts.Body != nil {
		updateOpts.Description = opts.Body
	}
	if opts.Base != nil {
		updateOpts.TargetBranch = opts.Base
	}
	if opts.Labels != nil {
		labels := gitlab.LabelOptions(opts.Labels)
		updateOpts.Labels = &labels
	}

	mr, resp, err := p.client.MergeRequests.UpdateMergeRequest(p.projectID, id, updateOpts, gitlab.WithContext(ctx))
	if err != nil {
		return nil, p.mapError(resp, err)
	}

	return prFromGitLab(mr), nil
}

// ListPRs lists merge requests matching the filter.
func (p *GitLabProvider) ListPRs(ctx context.Context, filter Filter) ([]*PullRequest, error) {
	listOpts := &gitlab.ListProjectMergeRequestsOptions{}

	switch filter.State {
	case StateOpen:
		listOpts.State = gitlab.Ptr("opened")
	case StateClosed:
		listOpts.State = gitlab.Ptr("closed")
	case StateMerged:
		listOpts.State = gitlab.Ptr("merged")
	}
	if filter.Base != "" {
		listOpts.TargetBranch = gitlab.Ptr(filter.Base)
	}
	if filter.Head != "" {
		listOpts.SourceBranch = gitlab.Ptr(filter.Head)
	}
	if filter.Limit > 0 {
		listOpts.PerPage = filter.Limit
	}

	mrs, resp, err := p.client.MergeRequests.ListProjectMergeRequests(p.projectID, listOpts, gitlab.WithContext(ctx))
	if err != nil {
		return nil, p.mapError(resp, err)
	}

	prs := make([]*PullRequest, 0, len(mrs))
	for _, mr := range mrs {
		prs = append(prs, prFromGitLab(mr))
		if filter.Limit > 0 && len(prs) >= filter.Limit {
			break
		}
	}

	return prs, nil
}

func (p *GitLabProvider) mapError(resp *gitlab.Response, err error) error {
	if resp == nil {
		return err
	}
	switch resp.StatusCode {
	case 401, 403:
		return fmt.Errorf("%w: %v", ErrAuthRequired, err)
	case 404:
		return fmt.Errorf("%w: %v", ErrNotFound, err)
	case 409:
		return fmt.Errorf("%w: %v", ErrAlreadyExists, err)
	default:
		if strings.Contains(err.Error(), "already exists") {
			return fmt.Errorf("%w: %v", ErrAlreadyExists, err)
		}
		return err
	}
}

func prFromGitLab(mr *gitlab.MergeRequest) *PullRequest {
	pr := &PullRequest{
		ID:    mr.IID,
		URL:   mr.WebURL,
		Title: mr.Title,
		Body:  mr.Description,
		Draft: mr.Draft,
		Head:  mr.SourceBranch,
		Base:  mr.TargetBranch,
	}

	if mr.CreatedAt != nil {
		pr.CreatedAt = *mr.CreatedAt
	}
	if mr.UpdatedAt != nil {
		pr.UpdatedAt = *mr.UpdatedAt
	}

	switch mr.State {
	case "merged":
		pr.State = StateMerged
		if mr.MergedAt != nil {
			pr.MergedAt = mr.MergedAt
		}
	case "closed":
		pr.State = StateClosed
	default:
		pr.State = StateOpen
	}

	if len(mr.Labels) > 0 {
		pr.Labels = append(pr.Labels, mr.Labels...)
	}

	// GitLab also marks drafts via the title prefix.
	if strings.HasPrefix(mr.Title, "Draft:") || strings.HasPrefix(mr.Title, "WIP:") {
		pr.Draft = true
	}

	return pr
}
