// Package porting moves work between branches without rewriting either.
//
// Engine.Port cherry-picks a set of commits from a source branch onto a
// fresh scratch branch cut from the target, accumulating them with
// --no-commit and committing once, so the target receives a single
// squashed commit. Dirty working trees are stashed for the duration and
// restored afterwards. Conflicts surface as a Halt that the caller
// resolves and continues, or aborts to roll everything back.
package porting
