// Package pr talks to pull request platforms (GitHub, GitLab) and
// understands the generated PR body format.
//
// Provider is the platform interface; GitHubProvider and GitLabProvider
// implement it, and ProviderFromRemote picks one from a remote URL plus
// environment credentials. BuildBody and ParseBody convert between the
// structured Metadata (Jira ticket, short description, change-type
// checkboxes) and the markdown body embedded in every generated PR.
package pr
