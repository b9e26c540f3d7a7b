package sync

import "errors"

var (
	// ErrNotFastForwardable indicates the branch has local commits and
	// cannot be fast-forwarded onto the base.
	ErrNotFastForwardable = errors.New("branch cannot be fast-forwarded")

	// ErrUnrelatedHistories indicates branch and base share no common
	// ancestor.
	ErrUnrelatedHistories = errors.New("branches have unrelated histories")

	// ErrUnknownStrategy indicates an unrecognized sync strategy.
	ErrUnknownStrategy = errors.New("unknown sync strategy")

	// ErrBaseNotFound indicates no base branch could be determined.
	ErrBaseNotFound = errors.New("base branch not found")
)
