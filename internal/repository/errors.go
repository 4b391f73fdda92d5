package repository

import "errors"

// ErrDuplicate is returned when an insert hits a unique constraint and nothing was written.
var ErrDuplicate = errors.New("duplicate record")
