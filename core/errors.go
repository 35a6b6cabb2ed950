package core

import "errors"

var (
	// ErrMissingDateColumn is returned when no date column is configured.
	ErrMissingDateColumn = errors.New("no date column configured")

	// ErrNoContainer is returned when the timeline container has no usable size.
	ErrNoContainer = errors.New("timeline container is not mounted")

	// ErrUnknownItem is returned for item ids that are not on the board or not visible.
	ErrUnknownItem = errors.New("unknown item")

	// ErrDateWrite wraps failures of the date write-back.
	ErrDateWrite = errors.New("date write-back failed")

	// ErrGestureClosed is returned when ending a gesture that already ended.
	ErrGestureClosed = errors.New("gesture is not active")
)
