package history

import "errors"

var (
	// ErrRunNotFound is returned when a run ID does not exist.
	ErrRunNotFound = errors.New("run not found")

	// ErrInvalidRun is returned when a run is missing its ID or project path.
	ErrInvalidRun = errors.New("invalid run: id and project path are required")
)
