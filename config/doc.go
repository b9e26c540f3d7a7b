// Package config loads workflow settings from layered sources.
//
// Settings merge, lowest priority first: built-in defaults, the global
// file (~/.config/workflow/config.yaml), the per-repository file
// (.workflow.yaml at the git root) and WORKFLOW_* environment
// variables. Load reports where each value came from so a CLI can show
// its effective configuration. Set and Unset edit a config file in
// place, preserving unrelated keys.
package config
