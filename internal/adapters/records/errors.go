package records

import "errors"

// Sentinel kinds for record store errors.
var (
	ErrNotFound      = errors.New("record not found")
	ErrInvalidRecord = errors.New("invalid record")
)
