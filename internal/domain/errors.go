package domain

import "errors"

var (
	// ErrInvalidRequest is returned when request parameters fail validation
	// (threshold outside [0,100], non-positive max results, missing name).
	ErrInvalidRequest = errors.New("invalid request parameters")

	// ErrUnknownSupplier is returned by write paths that require an existing
	// supplier. Lookup paths treat unknown suppliers as empty results instead.
	ErrUnknownSupplier = errors.New("unknown supplier")

	// ErrProductNotFound is returned by direct product lookups.
	ErrProductNotFound = errors.New("product not found")

	// ErrCacheMiss is returned when no usable cache entry exists for a query.
	ErrCacheMiss = errors.New("cache miss")
)
