package models

import "errors"

var (
	// ErrUpstreamUnavailable marks a network failure or non-success status
	// from an upstream source.
	ErrUpstreamUnavailable = errors.New("upstream unavailable")

	// ErrMalformedResponse marks an upstream body that fails schema
	// expectations.
	ErrMalformedResponse = errors.New("malformed upstream response")

	// ErrStoreUnavailable marks an unreachable persistence layer. Fatal to
	// the whole ingestion run.
	ErrStoreUnavailable = errors.New("store unavailable")
)
