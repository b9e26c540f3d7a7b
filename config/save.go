package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// ValidKeys are the configuration keys accepted by Set.
var ValidKeys = []string{
	"jira_url",
	"default_remote",
	"base_branch_priority",
	"pr_labels",
	"draft_prs",
	"scratch_prefix",
}

// Set writes a key-value pair into the config file at path, creating
// the file and its directory when missing. Other keys in the file are
// preserved. List-valued keys take comma-separated values.
func Set(path, key, value string) error {
	if !validKey(key) {
		return fmt.Errorf("unknown config key: %s\n\nValid keys: %s",
			key, strings.Join(ValidKeys, ", "))
	}

	var existing map[string]interface{}
	if data, err := os.ReadFile(path); err == nil {
		if err := yaml.Unmarshal(data, &existing); err != nil {
			return fmt.Errorf("could not parse %s: %w", path, err)
		}
	}
	if existing == nil {
		existing = make(map[string]interface{})
	}

	existing[key] = parseValue(key, value)

	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return err
	}

	data, err := yaml.Marshal(existing)
	if err != nil {
		return err
	}

	return os.WriteFile(path, data, 0o600)
}

// Unset removes a key from the config file at path. Removing a key that
// is not present is not an error.
func Unset(path, key string) error {
	if !validKey(key) {
		return fmt.Errorf("unknown config key: %s", key)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return err
	}

	var existing map[string]interface{}
	if err := yaml.Unmarshal(data, &existing); err != nil {
		return fmt.Errorf("could not parse %s: %w", path, err)
	}
	if _, ok := existing[key]; !ok {
		return nil
	}
	delete(existing, key)

	out, err := yaml.Marshal(existing)
	if err != nil {
		return err
	}

	return os.WriteFile(path, out, 0o600)
}

func validKey(key string) bool {
	for _, k := range ValidKeys {
		if k == key {
			return true
		}
	}
	return false
}

func parseValue(key, value string) interface{} {
	switch key {
	case "base_branch_priority", "pr_labels":
		return splitList(value)
	case "draft_prs":
		return value == "true" || value == "1"
	default:
		return value
	}
}
