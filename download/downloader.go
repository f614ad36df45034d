package download

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/singleflight"

	"github.com/picprompt/picprompt/images"
	"github.com/picprompt/picprompt/source"
)

const defaultConcurrency = 8

// Downloader fetches image bytes into a registry. One Downloader serves one
// build session at a time: concurrent fetches of the same path are collapsed
// into a single underlying request.
type Downloader struct {
	resolver    *source.Resolver
	log         zerolog.Logger
	timeout     time.Duration
	concurrency int
	raise       bool
	sf          singleflight.Group
}

// Option configures a Downloader (functional options pattern).
type Option func(*Downloader)

// WithLogger sets the logger used for non-raising failure reports. Default is a disabled logger.
func WithLogger(log zerolog.Logger) Option {
	return func(d *Downloader) {
		d.log = log
	}
}

// WithTimeout bounds each individual fetch. Exceeding it fails that image with
// the same source.ErrFetchFailed category as any other fetch failure, subject
// to the usual per-batch aggregation. Zero means no per-fetch bound.
func WithTimeout(t time.Duration) Option {
	return func(d *Downloader) {
		d.timeout = t
	}
}

// WithConcurrency bounds the number of in-flight fetches in concurrent batches. Default is 8.
func WithConcurrency(n int) Option {
	return func(d *Downloader) {
		if n > 0 {
			d.concurrency = n
		}
	}
}

// WithLoggedFailures switches batches to the non-raising mode: per-image
// failures are logged and the registry is returned as-is, with the failed
// entries left without bytes.
func WithLoggedFailures() Option {
	return func(d *Downloader) {
		d.raise = false
	}
}

// New returns a Downloader backed by resolver. A nil resolver gets the
// built-in source set (local file and HTTP).
func New(resolver *source.Resolver, opts ...Option) *Downloader {
	if resolver == nil {
		resolver = source.NewResolver()
	}
	d := &Downloader{
		resolver:    resolver,
		log:         zerolog.Nop(),
		concurrency: defaultConcurrency,
		raise:       true,
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// FetchOne fetches a single image into reg and returns its record. Paths whose
// record already has bytes are skipped (cache hit, no source I/O). Decode
// failures surface immediately as images.ErrDecode; they are never deferred to
// a later dimensions read.
func (d *Downloader) FetchOne(ctx context.Context, reg *images.Registry, path string) (*images.Record, error) {
	v, err, _ := d.sf.Do(path, func() (any, error) {
		rec := reg.RegisterPath(path)
		if rec.HasBytes() {
			return rec, nil
		}
		src, err := d.resolver.Resolve(path)
		if err != nil {
			return nil, err
		}
		fctx := ctx
		if d.timeout > 0 {
			var cancel context.CancelFunc
			fctx, cancel = context.WithTimeout(ctx, d.timeout)
			defer cancel()
		}
		data, mediaType, err := src.Fetch(fctx, path)
		if err != nil {
			return nil, err
		}
		if mediaType == "" {
			mediaType = src.MediaType(path)
		}
		if err := rec.SetBytes(data, mediaType); err != nil {
			return nil, err
		}
		return rec, nil
	})
	if err != nil {
		return nil, err
	}
	return v.(*images.Record), nil
}

// FetchMany fetches every path sequentially into a fresh registry. See FetchInto.
func (d *Downloader) FetchMany(ctx context.Context, paths []string) (*images.Registry, error) {
	reg := images.NewRegistry()
	return reg, d.FetchInto(ctx, reg, paths)
}

// FetchInto fetches every path sequentially into reg, one at a time. A single
// image's failure does not abort the batch; after every path has been
// attempted, accumulated failures are returned as one *BatchError (or logged
// in non-raising mode). Context cancellation is batch-fatal and returns
// immediately without aggregation.
func (d *Downloader) FetchInto(ctx context.Context, reg *images.Registry, paths []string) error {
	var failures []Failure
	for _, path := range paths {
		if err := ctx.Err(); err != nil {
			return err
		}
		if _, err := d.FetchOne(ctx, reg, path); err != nil {
			failures = append(failures, Failure{Path: path, Err: err})
		}
	}
	return d.settle(failures)
}

// FetchManyConcurrent fetches every path concurrently into a fresh registry. See FetchIntoConcurrent.
func (d *Downloader) FetchManyConcurrent(ctx context.Context, paths []string) (*images.Registry, error) {
	reg := images.NewRegistry()
	return reg, d.FetchIntoConcurrent(ctx, reg, paths)
}

// FetchIntoConcurrent launches all pending fetches concurrently (bounded by
// WithConcurrency), waits for every one to settle, then aggregates failures
// exactly like the sequential path. Completion order does not matter; the
// registry is keyed by path. An ordinary per-image failure never cancels the
// remaining in-flight fetches — only caller cancellation does.
func (d *Downloader) FetchIntoConcurrent(ctx context.Context, reg *images.Registry, paths []string) error {
	var (
		g        errgroup.Group
		mu       sync.Mutex
		failures []Failure
	)
	g.SetLimit(d.concurrency)
	for _, path := range paths {
		g.Go(func() error {
			if _, err := d.FetchOne(ctx, reg, path); err != nil {
				mu.Lock()
				failures = append(failures, Failure{Path: path, Err: err})
				mu.Unlock()
			}
			return nil
		})
	}
	_ = g.Wait()
	if err := ctx.Err(); err != nil {
		return err
	}
	return d.settle(failures)
}

// settle applies the batch failure policy after every image has been attempted.
func (d *Downloader) settle(failures []Failure) error {
	if len(failures) == 0 {
		return nil
	}
	if !d.raise {
		for _, f := range failures {
			d.log.Warn().Err(f.Err).Str("path", f.Path).Msg("image fetch failed")
		}
		return nil
	}
	return &BatchError{Failures: failures}
}
