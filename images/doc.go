// Package images holds the per-image state of one prompt build: the Record
// (raw bytes, decoded dimensions, media type, per-provider encodings) and the
// Registry that deduplicates records by source path.
package images
