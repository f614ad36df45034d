package images

import (
	"fmt"
	"sort"
	"sync"
)

// Registry is the deduplicating store of records for one prompt build. It
// owns exactly one Record per source path; registering a path that already has
// a fully-fetched record is a no-op, so an image referenced by several
// messages or providers is fetched and decoded once.
//
// Mutating methods take an exclusive lock, so the fetch phase may populate
// the registry from concurrent downloader goroutines. Records themselves are
// single-writer; see Record.
type Registry struct {
	mu      sync.RWMutex
	records map[string]*Record
}

// NewRegistry returns an empty registry for one build session.
func NewRegistry() *Registry {
	return &Registry{records: make(map[string]*Record)}
}

// RegisterPath creates an empty record for path if absent and returns the
// registry's record for it. Registering an existing path returns the existing
// record unchanged.
func (g *Registry) RegisterPath(path string) *Record {
	g.mu.Lock()
	defer g.mu.Unlock()
	if rec, ok := g.records[path]; ok {
		return rec
	}
	rec := NewRecord(path)
	g.records[path] = rec
	return rec
}

// RegisterRecord upserts a record by its source path (last write wins).
func (g *Registry) RegisterRecord(rec *Record) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.records[rec.SourcePath()] = rec
}

// Get returns the record for path, or nil when the path was never registered.
func (g *Registry) Get(path string) *Record {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return g.records[path]
}

// Has reports whether path is registered.
func (g *Registry) Has(path string) bool {
	g.mu.RLock()
	defer g.mu.RUnlock()
	_, ok := g.records[path]
	return ok
}

// Len returns the number of registered records.
func (g *Registry) Len() int {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return len(g.records)
}

// All returns every record sorted by source path.
func (g *Registry) All() []*Record {
	g.mu.RLock()
	defer g.mu.RUnlock()
	out := make([]*Record, 0, len(g.records))
	for _, rec := range g.records {
		out = append(out, rec)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].sourcePath < out[j].sourcePath })
	return out
}

// Paths returns every registered source path, sorted.
func (g *Registry) Paths() []string {
	g.mu.RLock()
	defer g.mu.RUnlock()
	out := make([]string, 0, len(g.records))
	for path := range g.records {
		out = append(out, path)
	}
	sort.Strings(out)
	return out
}

// AddEncoded stores an encoded representation on the record for path.
// Returns ErrUnknownImage when path is not registered; it never creates a record.
func (g *Registry) AddEncoded(path, providerID, encoded, mediaType string) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	rec, ok := g.records[path]
	if !ok {
		return fmt.Errorf("%w: %q", ErrUnknownImage, path)
	}
	rec.AddEncoded(providerID, encoded, mediaType)
	return nil
}

// Clear removes every record. Call between independent builds.
func (g *Registry) Clear() {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.records = make(map[string]*Record)
}
