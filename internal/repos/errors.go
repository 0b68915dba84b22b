// Package repos holds errors shared by every store implementation.
package repos

import "errors"

var (
	// ErrUnavailable marks a store timeout or connection failure. Callers may retry.
	ErrUnavailable = errors.New("store unavailable")
	// ErrCorrupt marks a stored value that violates the record invariants.
	ErrCorrupt = errors.New("corrupt record")
)
