package errors

import "errors"

var (
	ErrNotFound = errors.New("booking not found")

	ErrInvalidID = errors.New("invalid booking ID format")

	// ErrSlotTaken is returned by the repository when the natural-key guard
	// rejects a write under the reject conflict policy.
	ErrSlotTaken = errors.New("slot already reserved")
)
