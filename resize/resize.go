package resize

import (
	"bytes"
	"encoding/base64"
	"errors"
	"fmt"
	"image"
	"image/gif"
	"image/jpeg"
	"image/png"
	"math"

	"golang.org/x/image/draw"

	"github.com/picprompt/picprompt/images"
)

// Sentinel errors for adaptation. Callers should use errors.Is.
var (
	// ErrImageTooLarge indicates that even maximal downscaling cannot satisfy the byte budget.
	ErrImageTooLarge = errors.New("resize: image cannot be adapted to fit the size budget")
	// ErrNoData indicates adaptation was requested on a record without fetched bytes.
	ErrNoData = errors.New("resize: record has no raw bytes")
)

const (
	// resampleQuality is the JPEG quality used by the lossy tiers.
	resampleQuality = 60
	// minDimension is the downscale floor. Shrinking below it would produce a
	// degenerate image, so a result that still exceeds the budget at this floor
	// fails with ErrImageTooLarge instead.
	minDimension = 16
)

// Adapt produces an encoded representation of rec's image no longer than
// maxEncodedSize bytes and caches it on the record under providerID, together
// with the media type of the encoded bytes (a WebP input transcoded by the
// lossy tiers is cached as JPEG).
//
// With requiresBase64 false the raw bytes are passed through verbatim,
// bypassing all tiers (providers that take URLs or raw payloads enforce their
// own limits). Otherwise the escalation is:
//
//  1. base64 of the original bytes;
//  2. re-encode at original dimensions with lossy compression (JPEG quality 60;
//     PNG at best compression);
//  3. downscale by scale = sqrt(maxEncodedSize/(width*height)) with a
//     Catmull-Rom filter, preserving aspect ratio, and re-encode.
//
// The tier-3 scale factor conflates a byte budget with a pixel area; it is a
// known approximation kept for continuity, bounded below by minDimension.
//
// Adapt never mutates the record's bytes or dimensions: tiers 2–3 operate on a
// decoded copy, so adapting for a strict-budget provider cannot shrink the
// image a later provider sees. Returns ErrImageTooLarge when tier 3's output
// still exceeds the budget.
func Adapt(rec *images.Record, providerID string, maxEncodedSize int, requiresBase64 bool) (string, error) {
	if !rec.HasBytes() {
		return "", fmt.Errorf("%w: %q", ErrNoData, rec.SourcePath())
	}
	if !requiresBase64 {
		enc := string(rec.Bytes())
		rec.AddEncoded(providerID, enc, rec.MediaType())
		return enc, nil
	}

	raw := rec.Bytes()
	enc := base64.StdEncoding.EncodeToString(raw)
	if len(enc) <= maxEncodedSize {
		rec.AddEncoded(providerID, enc, rec.MediaType())
		return enc, nil
	}

	img, format, err := image.Decode(bytes.NewReader(raw))
	if err != nil {
		// SetBytes validated these bytes; reaching this means the record was
		// corrupted after assignment.
		return "", fmt.Errorf("%w: %q: %w", images.ErrDecode, rec.SourcePath(), err)
	}

	resampled, err := encodeImage(img, format)
	if err != nil {
		return "", fmt.Errorf("resize: resample %q: %w", rec.SourcePath(), err)
	}
	enc = base64.StdEncoding.EncodeToString(resampled)
	if len(enc) <= maxEncodedSize {
		rec.AddEncoded(providerID, enc, encodedMediaType(format))
		return enc, nil
	}

	resized, err := encodeImage(downscale(img, maxEncodedSize), format)
	if err != nil {
		return "", fmt.Errorf("resize: downscale %q: %w", rec.SourcePath(), err)
	}
	enc = base64.StdEncoding.EncodeToString(resized)
	if len(enc) <= maxEncodedSize {
		rec.AddEncoded(providerID, enc, encodedMediaType(format))
		return enc, nil
	}
	return "", fmt.Errorf("%w: %q: %d > %d bytes after resample and resize",
		ErrImageTooLarge, rec.SourcePath(), len(enc), maxEncodedSize)
}

// downscale returns img scaled by sqrt(maxSize/area), aspect ratio preserved,
// with both dimensions clamped to at least minDimension (and never above the
// original). Uses the Catmull-Rom filter for high-quality downsampling.
func downscale(img image.Image, maxSize int) image.Image {
	bounds := img.Bounds()
	w, h := bounds.Dx(), bounds.Dy()
	scale := math.Sqrt(float64(maxSize) / float64(w*h))
	newW := clampDimension(int(math.Round(float64(w)*scale)), w)
	newH := clampDimension(int(math.Round(float64(h)*scale)), h)
	if newW == w && newH == h {
		return img
	}
	dst := image.NewRGBA(image.Rect(0, 0, newW, newH))
	draw.CatmullRom.Scale(dst, dst.Bounds(), img, bounds, draw.Over, nil)
	return dst
}

// clampDimension keeps a scaled dimension within [minDimension, original],
// degenerating gracefully for images already smaller than the floor.
func clampDimension(scaled, original int) int {
	floor := minDimension
	if original < floor {
		floor = original
	}
	if scaled < floor {
		return floor
	}
	if scaled > original {
		return original
	}
	return scaled
}

// encodedMediaType returns the MIME type of encodeImage's output for a
// decoded format. Formats without a Go encoder (WebP) come back as JPEG, so
// the cached media type must follow the transcode, not the source bytes.
func encodedMediaType(format string) string {
	switch format {
	case "png":
		return "image/png"
	case "gif":
		return "image/gif"
	default:
		return "image/jpeg"
	}
}

// encodeImage re-encodes img in its original format where an encoder exists,
// applying lossy compression. WebP has no stdlib encoder, so webp input is
// re-encoded as JPEG.
func encodeImage(img image.Image, format string) ([]byte, error) {
	var buf bytes.Buffer
	var err error
	switch format {
	case "png":
		enc := png.Encoder{CompressionLevel: png.BestCompression}
		err = enc.Encode(&buf, img)
	case "gif":
		err = gif.Encode(&buf, img, nil)
	default: // jpeg, webp, and anything else with no lossless requirement
		err = jpeg.Encode(&buf, img, &jpeg.Options{Quality: resampleQuality})
	}
	if err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
