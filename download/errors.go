package download

import (
	"fmt"
	"strings"
)

// Failure is one image's fetch failure within a batch.
type Failure struct {
	Path string
	Err  error
}

// BatchError aggregates every per-image failure of one batch. It is returned
// only after every pending image has been attempted; successful records stay
// in the registry. Unwrap exposes each cause so errors.Is and errors.As see
// through to the underlying source errors.
type BatchError struct {
	Failures []Failure
}

// Error enumerates every failed path and its cause, one per line.
func (e *BatchError) Error() string {
	var b strings.Builder
	fmt.Fprintf(&b, "download: %d image(s) failed:", len(e.Failures))
	for _, f := range e.Failures {
		fmt.Fprintf(&b, "\n  %s: %v", f.Path, f.Err)
	}
	return b.String()
}

// Unwrap returns every underlying cause.
func (e *BatchError) Unwrap() []error {
	out := make([]error, 0, len(e.Failures))
	for _, f := range e.Failures {
		out = append(out, f.Err)
	}
	return out
}

// Compile-time check that BatchError implements error.
var _ error = (*BatchError)(nil)
