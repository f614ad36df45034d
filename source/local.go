package source

import (
	"context"
	"fmt"
	"mime"
	"os"
	"path/filepath"
	"strings"
)

// Ensures Local implements Source.
var _ Source = (*Local)(nil)

// Local reads images from the local filesystem. Any path without a remote
// scheme prefix is treated as a local file; an optional file:// prefix is
// stripped before reading.
type Local struct{}

// NewLocal returns a local-file source.
func NewLocal() *Local {
	return &Local{}
}

// CanHandle reports whether path looks like a local file: anything that does
// not carry an http://, https://, or s3:// prefix. Keep this predicate mutually
// exclusive with the remote sources' predicates when adding new schemes.
func (l *Local) CanHandle(path string) bool {
	return !strings.HasPrefix(path, "http://") &&
		!strings.HasPrefix(path, "https://") &&
		!strings.HasPrefix(path, "s3://")
}

// Fetch reads the file from disk. The second return is always "": local files
// carry no origin-declared media type, so callers fall back to MediaType.
func (l *Local) Fetch(ctx context.Context, path string) ([]byte, string, error) {
	if err := ctx.Err(); err != nil {
		return nil, "", fmt.Errorf("%w: %q: %w", ErrFetchFailed, path, err)
	}
	data, err := os.ReadFile(strings.TrimPrefix(path, "file://")) // #nosec G304 -- reading caller-supplied image paths is the point
	if err != nil {
		return nil, "", fmt.Errorf("%w: %q: %w", ErrFetchFailed, path, err)
	}
	return data, "", nil
}

// MediaType guesses the MIME type from the file extension. Returns "" when unknown.
func (l *Local) MediaType(path string) string {
	mt := mime.TypeByExtension(filepath.Ext(path))
	if mt == "" {
		return ""
	}
	// mime may append parameters (e.g. "; charset="); keep the bare type.
	if idx := strings.Index(mt, ";"); idx >= 0 {
		mt = strings.TrimSpace(mt[:idx])
	}
	return mt
}
