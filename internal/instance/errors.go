package instance

import "errors"

var (
	// ErrNotFound indicates no instance exists for the identifier.
	ErrNotFound = errors.New("instance not found")
	// ErrAlreadyExists indicates the identifier is already taken.
	ErrAlreadyExists = errors.New("instance already exists")
	// ErrDuplicateStep indicates the stage already has a recorded outcome.
	ErrDuplicateStep = errors.New("step already recorded for stage")
	// ErrTerminalState indicates a mutation was attempted on a completed or
	// failed instance.
	ErrTerminalState = errors.New("instance is in a terminal state")
	// ErrInvalidTransition indicates a status write that would move the
	// lifecycle backwards.
	ErrInvalidTransition = errors.New("invalid status transition")
)
