package source

import (
	"context"
	"fmt"
	"io"
	"mime"
	"net/http"
	"net/url"
	"path"
	"strings"
	"time"
)

// Ensures HTTP implements Source.
var _ Source = (*HTTP)(nil)

// DefaultMaxBodySize is the default limit for one image download (20 MiB).
const DefaultMaxBodySize = 20 << 20

// defaultUserAgent is the User-Agent header value for image requests.
const defaultUserAgent = "picprompt/1.0"

// HTTP downloads images from http:// and https:// URLs.
type HTTP struct {
	client    *http.Client
	maxBody   int64
	userAgent string
}

// HTTPOption configures an HTTP source.
type HTTPOption func(*HTTP)

// WithHTTPClient sets the HTTP client. Default has a 30s timeout. If c is nil, the default client is left unchanged.
func WithHTTPClient(c *http.Client) HTTPOption {
	return func(h *HTTP) {
		if c != nil {
			h.client = c
		}
	}
}

// WithMaxBodySize sets the response body size limit in bytes. Bodies exceeding it fail with ErrBodyTooLarge.
func WithMaxBodySize(n int64) HTTPOption {
	return func(h *HTTP) {
		if n > 0 {
			h.maxBody = n
		}
	}
}

// WithTimeout sets the per-request timeout on the default client.
// Ignored when a custom client is supplied via WithHTTPClient.
func WithTimeout(d time.Duration) HTTPOption {
	return func(h *HTTP) {
		if d > 0 {
			h.client.Timeout = d
		}
	}
}

// NewHTTP returns an HTTP source with a 30s timeout and the default body limit.
func NewHTTP(opts ...HTTPOption) *HTTP {
	h := &HTTP{
		client:    &http.Client{Timeout: 30 * time.Second},
		maxBody:   DefaultMaxBodySize,
		userAgent: defaultUserAgent,
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// CanHandle reports whether path is an http:// or https:// URL.
func (h *HTTP) CanHandle(path string) bool {
	return strings.HasPrefix(path, "http://") || strings.HasPrefix(path, "https://")
}

// Fetch downloads the URL. Non-2xx statuses and transport errors wrap
// ErrFetchFailed; a body exceeding the size limit wraps ErrBodyTooLarge. The
// returned media type is the server's Content-Type with parameters stripped,
// or "" when the header is absent.
func (h *HTTP) Fetch(ctx context.Context, rawURL string) ([]byte, string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, "", fmt.Errorf("%w: %q: %w", ErrFetchFailed, rawURL, err)
	}
	req.Header.Set("User-Agent", h.userAgent)
	resp, err := h.client.Do(req)
	if err != nil {
		return nil, "", fmt.Errorf("%w: %q: %w", ErrFetchFailed, rawURL, err)
	}
	defer func() { _ = resp.Body.Close() }()
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, "", fmt.Errorf("%w: %q: HTTP %s", ErrFetchFailed, rawURL, resp.Status)
	}
	contentType := resp.Header.Get("Content-Type")
	if idx := strings.Index(contentType, ";"); idx >= 0 {
		contentType = strings.TrimSpace(contentType[:idx])
	}
	data, err := io.ReadAll(io.LimitReader(resp.Body, h.maxBody+1))
	if err != nil {
		return nil, "", fmt.Errorf("%w: %q: read body: %w", ErrFetchFailed, rawURL, err)
	}
	if int64(len(data)) > h.maxBody {
		return nil, "", fmt.Errorf("%w: %q: %w (limit %d bytes)", ErrFetchFailed, rawURL, ErrBodyTooLarge, h.maxBody)
	}
	return data, contentType, nil
}

// MediaType guesses the MIME type from the URL path's extension. Fetch's
// server-declared Content-Type takes precedence when available.
func (h *HTTP) MediaType(rawURL string) string {
	u, err := url.Parse(rawURL)
	if err != nil {
		return ""
	}
	mt := mime.TypeByExtension(path.Ext(u.Path))
	if idx := strings.Index(mt, ";"); idx >= 0 {
		mt = strings.TrimSpace(mt[:idx])
	}
	return mt
}
