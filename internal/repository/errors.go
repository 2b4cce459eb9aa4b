package repository

import "errors"

// ErrInUse is returned when a record cannot be removed because other rows reference it.
var ErrInUse = errors.New("record is referenced by other rows")
