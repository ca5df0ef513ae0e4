package workflow

import "errors"

var (
	// ErrInvalidTransition is returned when the current lifecycle state has no
	// configuration for the requested trigger.
	ErrInvalidTransition = errors.New("invalid state transition")

	// ErrGuardFailed is returned when a transition exists but its guard
	// rejects the document.
	ErrGuardFailed = errors.New("guard condition failed")
)
