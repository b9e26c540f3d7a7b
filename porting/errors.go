package porting

import "errors"

var (
	// ErrNothingToPort indicates no commits were selected or the
	// selection produced no changes on the target.
	ErrNothingToPort = errors.New("nothing to port")

	// ErrTargetNotFound indicates the target branch does not exist.
	ErrTargetNotFound = errors.New("target branch not found")

	// ErrSameBranch indicates source and target are the same branch.
	ErrSameBranch = errors.New("source and target are the same branch")
)
