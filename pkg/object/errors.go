package object

import "errors"

var (
	// ErrNotFound is returned when an object does not exist in the store.
	ErrNotFound = errors.New("object not found")

	// ErrCorrupt is returned when stored bytes cannot be parsed or do not
	// match their hash.
	ErrCorrupt = errors.New("corrupt object")
)
