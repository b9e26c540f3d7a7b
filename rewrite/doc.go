// Package rewrite rewords, squashes, and drops commits on the current
// branch without opening an editor.
//
// A Plan is the ordered edit list over one contiguous range of history;
// the Sequencer executes it. Message-only rewrites (reword, squash) are
// rebuilt as commit-object chains and cannot conflict; drop plans are
// replayed with cherry-pick and may return a Halt carrying the conflict
// state for the caller to continue or abort.
package rewrite
