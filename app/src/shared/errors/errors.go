package errors

import "errors"

// ErrInvalidRunID is returned when a run identifier is not a canonical UUID.
var ErrInvalidRunID = errors.New("invalid run id")
