package pr

import (
	"fmt"
	"os"
)

// ProviderFromRemote builds a Provider for the platform hosting the
// given remote URL, reading credentials from the environment:
// GITHUB_TOKEN for GitHub, GITLAB_TOKEN (and optionally GITLAB_URL for
// self-hosted instances) for GitLab.
func ProviderFromRemote(remoteURL string) (Provider, error) {
	platform, err := DetectProvider(remoteURL)
	if err != nil {
		return nil, err
	}

	owner, repo, err := ParseRepoFromURL(remoteURL)
	if err != nil {
		return nil, fmt.Errorf("parsing remote URL: %w", err)
	}

	switch platform {
	case "github":
		return NewGitHubProvider(os.Getenv("GITHUB_TOKEN"), owner, repo)
	case "gitlab":
		return NewGitLabProvider(os.Getenv("GITLAB_TOKEN"), owner+"/"+repo, os.Getenv("GITLAB_URL"))
	default:
		return nil, ErrUnknownProvider
	}
}
