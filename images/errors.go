package images

import "errors"

// Sentinel errors for record and registry operations. Callers should use errors.Is.
var (
	// ErrDecode indicates raw bytes that are not a decodable image. Raised at the
	// point bytes are assigned to a record, not when dimensions are later read.
	ErrDecode = errors.New("images: raw bytes are not a decodable image")
	// ErrNotEncoded indicates no encoded representation exists for the requested provider.
	ErrNotEncoded = errors.New("images: image not encoded for provider")
	// ErrUnknownImage indicates an operation referenced a path that was never registered.
	ErrUnknownImage = errors.New("images: path not registered")
)
