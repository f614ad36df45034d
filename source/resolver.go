package source

import "fmt"

// Resolver dispatches a path to the first registered source that can handle
// it. Built-ins are registered in a fixed order — local file, then HTTP(S),
// then S3 when a client is supplied — so ambiguous paths resolve predictably.
// The built-in predicates are mutually exclusive by scheme prefix; preserve
// that property when registering additional sources.
type Resolver struct {
	sources []Source
}

// ResolverOption configures a Resolver.
type ResolverOption func(*resolverConfig)

type resolverConfig struct {
	httpOpts []HTTPOption
	s3Client S3API
	extras   []Source
}

// WithHTTPOptions passes options through to the built-in HTTP source.
func WithHTTPOptions(opts ...HTTPOption) ResolverOption {
	return func(c *resolverConfig) {
		c.httpOpts = append(c.httpOpts, opts...)
	}
}

// WithS3 registers the S3 source after the built-ins, backed by client.
// Without it, s3:// paths fail with ErrUnsupportedSource.
func WithS3(client S3API) ResolverOption {
	return func(c *resolverConfig) {
		c.s3Client = client
	}
}

// WithSource registers an extra source after the built-ins, in call order.
func WithSource(s Source) ResolverOption {
	return func(c *resolverConfig) {
		c.extras = append(c.extras, s)
	}
}

// NewResolver returns a resolver with the built-in sources registered.
func NewResolver(opts ...ResolverOption) *Resolver {
	var cfg resolverConfig
	for _, opt := range opts {
		opt(&cfg)
	}
	r := &Resolver{}
	r.Register(NewLocal())
	r.Register(NewHTTP(cfg.httpOpts...))
	if cfg.s3Client != nil {
		r.Register(NewS3(cfg.s3Client))
	}
	for _, s := range cfg.extras {
		r.Register(s)
	}
	return r
}

// NewEmptyResolver returns a resolver with no sources registered. Useful for
// tests and callers that want full control over dispatch order.
func NewEmptyResolver() *Resolver {
	return &Resolver{}
}

// Register appends a source. Resolution order is registration order.
func (r *Resolver) Register(s Source) {
	r.sources = append(r.sources, s)
}

// Resolve returns the first registered source whose CanHandle matches path,
// or ErrUnsupportedSource when none does.
func (r *Resolver) Resolve(path string) (Source, error) {
	for _, s := range r.sources {
		if s.CanHandle(path) {
			return s, nil
		}
	}
	return nil, fmt.Errorf("%w: %q", ErrUnsupportedSource, path)
}
