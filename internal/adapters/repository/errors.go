package repository

import "errors"

// Sentinel kinds for shortlist errors.
var (
	ErrNotFound     = errors.New("candidate not on shortlist")
	ErrInvalidLimit = errors.New("invalid shortlist limit")
	ErrInvalidEntry = errors.New("invalid shortlist entry")
)
