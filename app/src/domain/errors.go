package domain

import "errors"

var (
	// ErrNotFound is returned when no stored run satisfies the lookup.
	ErrNotFound = errors.New("run not found")

	// ErrReportNotFound is returned when a per-process report file does not exist.
	ErrReportNotFound = errors.New("report file not found")

	// ErrMalformedValue is returned for a two-token line whose value is not a number.
	ErrMalformedValue = errors.New("malformed measurement value")

	// ErrMissingMeasurement is returned when a measurement required by the ratio was never observed.
	ErrMissingMeasurement = errors.New("measurement missing")

	// ErrZeroBaseline is returned when the CDN measurement is zero.
	ErrZeroBaseline = errors.New("baseline measurement is zero")

	// ErrInvalidTemplate is returned when a filename template does not have exactly one placeholder.
	ErrInvalidTemplate = errors.New("invalid filename template")
)
