package images

import (
	"bytes"
	"fmt"
	"image"
	"maps"
	"slices"

	// Decoders for the formats providers accept. Registered for their side effects
	// so DecodeConfig can identify dimensions and format.
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"

	_ "golang.org/x/image/webp"
)

// Record holds one image's state for the duration of a prompt build: the
// source path (unique key), raw bytes, media type, dimensions decoded when the
// bytes are assigned, and previously computed per-provider encodings.
//
// A Record is written by one goroutine at a time (the downloader during the
// fetch phase, the encoder afterwards); concurrent readers are safe only once
// the build phase has completed.
type Record struct {
	sourcePath   string
	raw          []byte
	mediaType    string
	width        int
	height       int
	encoded      map[string]string
	encodedMedia map[string]string
}

// NewRecord returns an empty record for path. Bytes are populated later by the downloader.
func NewRecord(path string) *Record {
	return &Record{
		sourcePath:   path,
		encoded:      make(map[string]string),
		encodedMedia: make(map[string]string),
	}
}

// NewRecordWithData returns a record with bytes already assigned.
// Returns ErrDecode if data is not a decodable image.
func NewRecordWithData(path string, data []byte, mediaType string) (*Record, error) {
	r := NewRecord(path)
	if err := r.SetBytes(data, mediaType); err != nil {
		return nil, err
	}
	return r, nil
}

// SourcePath returns the record's unique key.
func (r *Record) SourcePath() string { return r.sourcePath }

// HasBytes reports whether raw bytes have been fetched.
func (r *Record) HasBytes() bool { return r.raw != nil }

// Bytes returns the raw image bytes, or nil before a successful fetch.
// Callers must not mutate the returned slice.
func (r *Record) Bytes() []byte { return r.raw }

// MediaType returns the image MIME type, or "" when unknown.
func (r *Record) MediaType() string { return r.mediaType }

// Dimensions returns the pixel width and height decoded from the raw bytes.
// ok is false before bytes have been assigned.
func (r *Record) Dimensions() (width, height int, ok bool) {
	if r.raw == nil {
		return 0, 0, false
	}
	return r.width, r.height, true
}

// SetBytes assigns raw image bytes, replacing any previous data wholesale.
// The bytes are validated immediately: ErrDecode is returned for data that no
// registered image decoder recognizes, and the record is left unchanged. When
// mediaType is empty it is inferred from the decoded format.
func (r *Record) SetBytes(data []byte, mediaType string) error {
	cfg, format, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return fmt.Errorf("%w: %q: %w", ErrDecode, r.sourcePath, err)
	}
	if mediaType == "" {
		mediaType = "image/" + format
	}
	r.raw = data
	r.mediaType = mediaType
	r.width = cfg.Width
	r.height = cfg.Height
	return nil
}

// AddEncoded stores the encoded representation for a provider, together with
// the media type of the encoded bytes. Adaptation may transcode (WebP has no
// Go encoder and comes back as JPEG), so the encoded media type can differ
// from the record's own. An empty mediaType falls back to the record's.
// Re-encoding overwrites.
func (r *Record) AddEncoded(providerID, encoded, mediaType string) {
	if mediaType == "" {
		mediaType = r.mediaType
	}
	r.encoded[providerID] = encoded
	r.encodedMedia[providerID] = mediaType
}

// EncodedFor returns the encoded representation previously stored for the
// provider. Returns ErrNotEncoded if the provider has no entry: callers must
// encode before formatting.
func (r *Record) EncodedFor(providerID string) (string, error) {
	enc, ok := r.encoded[providerID]
	if !ok {
		return "", fmt.Errorf("%w: provider %q, image %q", ErrNotEncoded, providerID, r.sourcePath)
	}
	return enc, nil
}

// EncodedMediaType returns the media type of the provider's encoded
// representation, or "" when the provider has no entry.
func (r *Record) EncodedMediaType(providerID string) string {
	return r.encodedMedia[providerID]
}

// HasEncoded reports whether an encoded representation exists for the provider.
func (r *Record) HasEncoded(providerID string) bool {
	_, ok := r.encoded[providerID]
	return ok
}

// Clone returns a deep copy of the record. Callers that hand a record across
// build-session boundaries can snapshot it without sharing buffers.
func (r *Record) Clone() *Record {
	out := &Record{
		sourcePath:   r.sourcePath,
		raw:          slices.Clone(r.raw),
		mediaType:    r.mediaType,
		width:        r.width,
		height:       r.height,
		encoded:      maps.Clone(r.encoded),
		encodedMedia: maps.Clone(r.encodedMedia),
	}
	return out
}
