package model

import "errors"

// Sentinel errors shared by every pipeline stage. Callers match them with errors.Is.
var (
	// ErrInvalidURL is returned when no classification rule matches the input.
	ErrInvalidURL = errors.New("invalid url")
	// ErrNotFound is returned when the upstream reports the content as missing.
	ErrNotFound = errors.New("not found")
	// ErrUpstream covers non-2xx responses and unparsable upstream payloads.
	ErrUpstream = errors.New("upstream error")
	// ErrManifestParse is returned for malformed HLS manifests.
	ErrManifestParse = errors.New("manifest parse error")
	// ErrIO is returned for local filesystem failures.
	ErrIO = errors.New("io error")
	// ErrNotImplemented is returned for recognized but unhandled sources.
	ErrNotImplemented = errors.New("not implemented")
)
