package model

import "errors"

// ErrInvalidArgument is returned for out-of-contract inputs or configuration.
var ErrInvalidArgument = errors.New("invalid argument")
