// Package download orchestrates image acquisition for one prompt build: it
// resolves each path to a source, fetches the bytes, and populates the
// registry. Batches run sequentially or concurrently; per-image failures never
// abort a batch and are aggregated into one BatchError after every pending
// image has been attempted.
package download
