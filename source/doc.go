// Package source retrieves raw image bytes from one class of location each:
// local files, HTTP(S) URLs, and S3 objects. A Resolver dispatches a path to
// the first registered source whose CanHandle predicate matches. Caching is
// deliberately absent here; deduplication is the registry's job, one layer up.
package source
