package errors

import "errors"

var (
	ErrNotFound = errors.New("club not found")

	ErrInvalidID = errors.New("invalid club ID format")
)
