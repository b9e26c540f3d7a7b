package pr

import "errors"

var (
	// ErrNotFound indicates the pull request was not found.
	ErrNotFound = errors.New("pull request not found")

	// ErrAlreadyExists indicates a PR already exists for the branch.
	ErrAlreadyExists = errors.New("pull request already exists for this branch")

	// ErrNoChanges indicates there are no changes between head and base.
	ErrNoChanges = errors.New("no changes between branches")

	// ErrAuthRequired indicates authentication is missing or invalid.
	ErrAuthRequired = errors.New("authentication required")

	// ErrUnknownProvider indicates the remote URL does not match a
	// supported platform.
	ErrUnknownProvider = errors.New("unknown PR provider")
)
