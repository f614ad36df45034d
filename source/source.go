package source

import (
	"context"
	"errors"
)

// Sentinel errors for source operations. Callers should use errors.Is.
var (
	// ErrUnsupportedSource indicates no registered source can handle a path.
	ErrUnsupportedSource = errors.New("source: no registered source can handle path")
	// ErrFetchFailed wraps network, disk, timeout, and non-success-status failures.
	ErrFetchFailed = errors.New("source: fetch failed")
	// ErrBodyTooLarge is returned when an HTTP response exceeds the configured size limit.
	ErrBodyTooLarge = errors.New("source: response body exceeds size limit")
)

// Source is one strategy for retrieving image bytes.
//
// CanHandle is a pure predicate on the path's shape; it performs no I/O.
// Fetch retrieves the bytes, honoring ctx for timeout and cancellation, and
// returns the origin-declared media type when one is available (HTTP
// Content-Type, S3 ContentType) or "" otherwise. Fetch failures wrap
// ErrFetchFailed. MediaType guesses from the path's extension without I/O and
// returns "" when indeterminable; callers must tolerate an unknown media type.
type Source interface {
	CanHandle(path string) bool
	Fetch(ctx context.Context, path string) (data []byte, mediaType string, err error)
	MediaType(path string) string
}
