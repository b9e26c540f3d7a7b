package config_test

import (
	"bytes"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"

	"github.com/zevwings/workflow/config"
)

func writeConfig(t *testing.T, path, content string) {
	t.Helper()
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("writing %s: %v", path, err)
	}
}

func TestLoadDefaults(t *testing.T) {
	dir := t.TempDir()
	l := &config.Loader{
		GlobalPath: filepath.Join(dir, "global.yaml"),
		LocalPath:  filepath.Join(dir, "local.yaml"),
		EnvPrefix:  "LOADTEST_DEFAULTS_",
	}

	s, sources := l.Load()

	if s.DefaultRemote != "origin" {
		t.Errorf("DefaultRemote = %q, want origin", s.DefaultRemote)
	}
	if s.ScratchPrefix != "pick" {
		t.Errorf("ScratchPrefix = %q, want pick", s.ScratchPrefix)
	}
	want := []string{"develop", "dev", "staging", "test", "master", "main"}
	if !reflect.DeepEqual(s.BaseBranchPriority, want) {
		t.Errorf("BaseBranchPriority = %v, want %v", s.BaseBranchPriority, want)
	}
	for key, src := range sources {
		if src != config.SourceDefault {
			t.Errorf("source[%s] = %s, want default", key, src)
		}
	}
}

func TestLoadLayering(t *testing.T) {
	dir := t.TempDir()
	globalPath := filepath.Join(dir, "global.yaml")
	localPath := filepath.Join(dir, "local.yaml")

	writeConfig(t, globalPath, "jira_url: https://global.atlassian.net\ndefault_remote: upstream\n")
	writeConfig(t, localPath, "jira_url: https://local.atlassian.net\npr_labels:\n  - backend\n")
	t.Setenv("LOADTEST_LAYER_DEFAULT_REMOTE", "fork")

	l := &config.Loader{
		GlobalPath: globalPath,
		LocalPath:  localPath,
		EnvPrefix:  "LOADTEST_LAYER_",
	}
	s, sources := l.Load()

	if s.JiraURL != "https://local.atlassian.net" {
		t.Errorf("JiraURL = %q, local file should win over global", s.JiraURL)
	}
	if sources["jira_url"] != config.SourceLocal {
		t.Errorf("source[jira_url] = %s, want local", sources["jira_url"])
	}

	if s.DefaultRemote != "fork" {
		t.Errorf("DefaultRemote = %q, env should win over files", s.DefaultRemote)
	}
	if sources["default_remote"] != config.SourceEnv {
		t.Errorf("source[default_remote] = %s, want env", sources["default_remote"])
	}

	if !reflect.DeepEqual(s.PRLabels, []string{"backend"}) {
		t.Errorf("PRLabels = %v", s.PRLabels)
	}
	if sources["scratch_prefix"] != config.SourceDefault {
		t.Errorf("source[scratch_prefix] = %s, want default", sources["scratch_prefix"])
	}
}

func TestLoadEnvLists(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("LOADTEST_LISTS_BASE_BRANCH_PRIORITY", "release, main")
	t.Setenv("LOADTEST_LISTS_DRAFT_PRS", "true")

	l := &config.Loader{
		GlobalPath: filepath.Join(dir, "none.yaml"),
		LocalPath:  filepath.Join(dir, "none2.yaml"),
		EnvPrefix:  "LOADTEST_LISTS_",
	}
	s, _ := l.Load()

	if !reflect.DeepEqual(s.BaseBranchPriority, []string{"release", "main"}) {
		t.Errorf("BaseBranchPriority = %v", s.BaseBranchPriority)
	}
	if !s.DraftPRs {
		t.Error("DraftPRs should be true")
	}
}

func TestLoadBadYAMLWarns(t *testing.T) {
	dir := t.TempDir()
	globalPath := filepath.Join(dir, "global.yaml")
	writeConfig(t, globalPath, "jira_url: [unclosed\n")

	var stderr bytes.Buffer
	l := &config.Loader{
		GlobalPath: globalPath,
		LocalPath:  filepath.Join(dir, "none.yaml"),
		EnvPrefix:  "LOADTEST_BADYAML_",
		ErrWriter:  &stderr,
	}
	s, sources := l.Load()

	if len(l.Warnings) == 0 {
		t.Error("expected a parse warning")
	}
	if !strings.Contains(stderr.String(), "could not parse") {
		t.Errorf("stderr = %q", stderr.String())
	}
	if s.JiraURL != "" || sources["jira_url"] != config.SourceDefault {
		t.Error("bad file should leave defaults untouched")
	}
}

func TestSetPreservesOtherKeys(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "config.yaml")

	if err := config.Set(path, "jira_url", "https://company.atlassian.net"); err != nil {
		t.Fatalf("Set failed: %v", err)
	}
	if err := config.Set(path, "pr_labels", "backend, feature"); err != nil {
		t.Fatalf("Set failed: %v", err)
	}
	if err := config.Set(path, "draft_prs", "true"); err != nil {
		t.Fatalf("Set failed: %v", err)
	}

	l := &config.Loader{GlobalPath: path, LocalPath: filepath.Join(t.TempDir(), "none.yaml"), EnvPrefix: "SETTEST_"}
	s, _ := l.Load()

	if s.JiraURL != "https://company.atlassian.net" {
		t.Errorf("JiraURL = %q", s.JiraURL)
	}
	if !reflect.DeepEqual(s.PRLabels, []string{"backend", "feature"}) {
		t.Errorf("PRLabels = %v", s.PRLabels)
	}
	if !s.DraftPRs {
		t.Error("DraftPRs should be true")
	}
}

func TestSetRejectsUnknownKey(t *testing.T) {
	err := config.Set(filepath.Join(t.TempDir(), "config.yaml"), "no_such_key", "v")
	if err == nil {
		t.Fatal("expected an error")
	}
	if !strings.Contains(err.Error(), "unknown config key") {
		t.Errorf("error = %v", err)
	}
}

func TestUnset(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := config.Set(path, "jira_url", "https://a.example.com"); err != nil {
		t.Fatalf("Set failed: %v", err)
	}
	if err := config.Set(path, "default_remote", "upstream"); err != nil {
		t.Fatalf("Set failed: %v", err)
	}

	if err := config.Unset(path, "jira_url"); err != nil {
		t.Fatalf("Unset failed: %v", err)
	}

	l := &config.Loader{GlobalPath: path, LocalPath: filepath.Join(t.TempDir(), "none.yaml"), EnvPrefix: "UNSETTEST_"}
	s, sources := l.Load()

	if s.JiraURL != "" || sources["jira_url"] != config.SourceDefault {
		t.Error("jira_url should revert to default after Unset")
	}
	if s.DefaultRemote != "upstream" {
		t.Errorf("DefaultRemote = %q, other keys should survive", s.DefaultRemote)
	}

	// Unsetting a missing key or file is not an error.
	if err := config.Unset(path, "pr_labels"); err != nil {
		t.Errorf("Unset of absent key failed: %v", err)
	}
	if err := config.Unset(filepath.Join(t.TempDir(), "absent.yaml"), "jira_url"); err != nil {
		t.Errorf("Unset on absent file failed: %v", err)
	}
}
