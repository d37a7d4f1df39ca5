package weather

import "errors"

// Client input errors.
var (
	ErrMissingParameter = errors.New("missing required parameter")
	ErrInvalidNumber    = errors.New("invalid number")
	ErrInvalidDate      = errors.New("invalid date")
	ErrInvalidRange     = errors.New("start date after end date")
)

// Upstream errors.
var (
	ErrUpstreamUnavailable   = errors.New("upstream unavailable")
	ErrMalformedUpstreamData = errors.New("malformed upstream data")
)

// Storage errors.
var (
	ErrNotFound            = errors.New("object not found")
	ErrStorageUnavailable  = errors.New("storage unavailable")
	ErrMalformedStoredData = errors.New("malformed stored data")
)
