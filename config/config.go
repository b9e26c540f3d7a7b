package config

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// Settings holds the resolved configuration for the workflow engine.
type Settings struct {
	// JiraURL is the base URL of the Jira instance, used to build and
	// parse ticket links in PR bodies.
	JiraURL string

	// DefaultRemote is the remote used for fetch, push and PR detection.
	DefaultRemote string

	// BaseBranchPriority is the ordered list of branch names tried when
	// detecting the base branch of a feature branch.
	BaseBranchPriority []string

	// PRLabels are applied to every created pull request.
	PRLabels []string

	// DraftPRs creates pull requests as drafts.
	DraftPRs bool

	// ScratchPrefix is the prefix for temporary branches created while
	// porting commits ("pick" gives branches like pick/PROJ-123-ab12cd).
	ScratchPrefix string
}

// Defaults returns the built-in settings.
func Defaults() Settings {
	return Settings{
		DefaultRemote:      "origin",
		BaseBranchPriority: []string{"develop", "dev", "staging", "test", "master", "main"},
		ScratchPrefix:      "pick",
	}
}

// fileSettings mirrors Settings with pointer fields so absent keys can
// be told apart from zero values.
type fileSettings struct {
	JiraURL            *string  `yaml:"jira_url"`
	DefaultRemote      *string  `yaml:"default_remote"`
	BaseBranchPriority []string `yaml:"base_branch_priority"`
	PRLabels           []string `yaml:"pr_labels"`
	DraftPRs           *bool    `yaml:"draft_prs"`
	ScratchPrefix      *string  `yaml:"scratch_prefix"`
}

// Source indicates where a configuration value came from.
type Source string

// Configuration source constants.
const (
	SourceDefault Source = "default"
	SourceGlobal  Source = "global"
	SourceLocal   Source = "local"
	SourceEnv     Source = "env"
)

// Loader resolves settings from layered sources.
// Priority (highest to lowest): env > local > global > defaults.
type Loader struct {
	// GlobalPath is the global config file. Empty means
	// ~/.config/workflow/config.yaml.
	GlobalPath string

	// LocalPath is the per-repository config file. Empty means
	// .workflow.yaml at the git root found from the working directory.
	LocalPath string

	// EnvPrefix is prepended to upper-cased key names for environment
	// lookup. Defaults to "WORKFLOW_".
	EnvPrefix string

	// ErrWriter is where warnings are written. Defaults to os.Stderr.
	ErrWriter io.Writer

	// Warnings collects non-fatal issues during resolution.
	Warnings []string
}

// Load resolves settings with default paths.
func Load() (*Settings, map[string]Source) {
	return (&Loader{}).Load()
}

// Load resolves settings, merging defaults, global and local files and
// environment overrides. Unreadable files are skipped; unparsable files
// produce a warning. The returned map records where each key came from.
func (l *Loader) Load() (*Settings, map[string]Source) {
	if l.EnvPrefix == "" {
		l.EnvPrefix = "WORKFLOW_"
	}
	if l.ErrWriter == nil {
		l.ErrWriter = os.Stderr
	}
	if l.GlobalPath == "" {
		if home, err := os.UserHomeDir(); err == nil {
			l.GlobalPath = filepath.Join(home, ".config", "workflow", "config.yaml")
		}
	}
	if l.LocalPath == "" {
		if root := findGitRoot("."); root != "" {
			l.LocalPath = filepath.Join(root, ".workflow.yaml")
		}
	}

	s := Defaults()
	sources := map[string]Source{
		"jira_url":             SourceDefault,
		"default_remote":       SourceDefault,
		"base_branch_priority": SourceDefault,
		"pr_labels":            SourceDefault,
		"draft_prs":            SourceDefault,
		"scratch_prefix":       SourceDefault,
	}

	l.applyFile(&s, sources, l.GlobalPath, SourceGlobal)
	l.applyFile(&s, sources, l.LocalPath, SourceLocal)
	l.applyEnv(&s, sources)

	return &s, sources
}

func (l *Loader) applyFile(s *Settings, sources map[string]Source, path string, src Source) {
	if path == "" {
		return
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return
	}

	var fs fileSettings
	if err := yaml.Unmarshal(data, &fs); err != nil {
		l.warn(fmt.Sprintf("could not parse %s: %v", path, err))
		return
	}

	if fs.JiraURL != nil {
		s.JiraURL = *fs.JiraURL
		sources["jira_url"] = src
	}
	if fs.DefaultRemote != nil {
		s.DefaultRemote = *fs.DefaultRemote
		sources["default_remote"] = src
	}
	if fs.BaseBranchPriority != nil {
		s.BaseBranchPriority = fs.BaseBranchPriority
		sources["base_branch_priority"] = src
	}
	if fs.PRLabels != nil {
		s.PRLabels = fs.PRLabels
		sources["pr_labels"] = src
	}
	if fs.DraftPRs != nil {
		s.DraftPRs = *fs.DraftPRs
		sources["draft_prs"] = src
	}
	if fs.ScratchPrefix != nil {
		s.ScratchPrefix = *fs.ScratchPrefix
		sources["scratch_prefix"] = src
	}
}

func (l *Loader) applyEnv(s *Settings, sources map[string]Source) {
	if v := os.Getenv(l.EnvPrefix + "JIRA_URL"); v != "" {
		s.JiraURL = v
		sources["jira_url"] = SourceEnv
	}
	if v := os.Getenv(l.EnvPrefix + "DEFAULT_REMOTE"); v != "" {
		s.DefaultRemote = v
		sources["default_remote"] = SourceEnv
	}
	if v := os.Getenv(l.EnvPrefix + "BASE_BRANCH_PRIORITY"); v != "" {
		s.BaseBranchPriority = splitList(v)
		sources["base_branch_priority"] = SourceEnv
	}
	if v := os.Getenv(l.EnvPrefix + "PR_LABELS"); v != "" {
		s.PRLabels = splitList(v)
		sources["pr_labels"] = SourceEnv
	}
	if v := os.Getenv(l.EnvPrefix + "DRAFT_PRS"); v != "" {
		s.DraftPRs = v == "true" || v == "1"
		sources["draft_prs"] = SourceEnv
	}
	if v := os.Getenv(l.EnvPrefix + "SCRATCH_PREFIX"); v != "" {
		s.ScratchPrefix = v
		sources["scratch_prefix"] = SourceEnv
	}
}

func (l *Loader) warn(msg string) {
	l.Warnings = append(l.Warnings, msg)
	if l.ErrWriter != nil {
		fmt.Fprintf(l.ErrWriter, "Warning: %s\n", msg)
	}
}

func splitList(v string) []string {
	parts := strings.Split(v, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

// findGitRoot finds the git root by looking for a .git entry.
func findGitRoot(startDir string) string {
	dir, err := filepath.Abs(startDir)
	if err != nil {
		return ""
	}

	for {
		if _, err := os.Stat(filepath.Join(dir, ".git")); err == nil {
			return dir
		}

		parent := filepath.Dir(dir)
		if parent == dir {
			break
		}
		dir = parent
	}

	return ""
}
