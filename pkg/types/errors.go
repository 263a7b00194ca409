package types

import "errors"

// Failure classes. Components wrap one of these with context so callers can
// branch on errors.Is without caring which component produced the error.
var (
	// ErrIO is returned when the cache file cannot be read or written.
	ErrIO = errors.New("io failure")

	// ErrParse is returned when serialized data is malformed.
	ErrParse = errors.New("parse failure")

	// ErrUpstream is returned when the remote source is unreachable or
	// answers with an unexpected shape.
	ErrUpstream = errors.New("upstream failure")

	// ErrConfig is returned for invalid configuration, including an
	// unparseable refresh schedule.
	ErrConfig = errors.New("config failure")
)
