package resize

import (
	"bytes"
	"encoding/base64"
	"image"
	"image/color"
	"image/jpeg"
	"image/png"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"github.com/picprompt/picprompt/images"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

// noisyPNG produces an image that compresses poorly, so re-encoding at the
// same dimensions cannot rescue it and tier 3 must actually shrink it.
func noisyPNG(t *testing.T, w, h int) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	seed := uint32(2463534242)
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			seed ^= seed << 13
			seed ^= seed >> 17
			seed ^= seed << 5
			img.Set(x, y, color.RGBA{R: uint8(seed), G: uint8(seed >> 8), B: uint8(seed >> 16), A: 255})
		}
	}
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}

func flatPNG(t *testing.T, w, h int, c color.RGBA) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.Set(x, y, c)
		}
	}
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}

// gradientJPEG produces a photo-like image: too detailed to fit tight byte
// budgets at full dimensions, but compressible enough that a downscaled
// re-encode succeeds.
func gradientJPEG(t *testing.T, w, h, quality int) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.Set(x, y, color.RGBA{R: uint8(x * 2), G: uint8(y * 2), B: uint8(x + y), A: 255})
		}
	}
	var buf bytes.Buffer
	require.NoError(t, jpeg.Encode(&buf, img, &jpeg.Options{Quality: quality}))
	return buf.Bytes()
}

func recordFor(t *testing.T, path string, data []byte) *images.Record {
	t.Helper()
	rec, err := images.NewRecordWithData(path, data, "")
	require.NoError(t, err)
	return rec
}

func TestAdapt_PassthroughWithoutBase64(t *testing.T) {
	t.Parallel()
	data := flatPNG(t, 32, 32, color.RGBA{R: 10, G: 20, B: 30, A: 255})
	rec := recordFor(t, "a.png", data)

	// A budget far below the raw size is irrelevant for passthrough providers.
	enc, err := Adapt(rec, "gemini", 1, false)
	require.NoError(t, err)
	assert.Equal(t, string(data), enc)

	cached, err := rec.EncodedFor("gemini")
	require.NoError(t, err)
	assert.Equal(t, enc, cached)
}

func TestAdapt_Tier1_DirectBase64(t *testing.T) {
	t.Parallel()
	data := flatPNG(t, 16, 16, color.RGBA{R: 200, A: 255})
	rec := recordFor(t, "a.png", data)

	enc, err := Adapt(rec, "anthropic", 5_000_000, true)
	require.NoError(t, err)
	assert.Equal(t, base64.StdEncoding.EncodeToString(data), enc)
	assert.Equal(t, "image/png", rec.EncodedMediaType("anthropic"))

	decoded, err := base64.StdEncoding.DecodeString(enc)
	require.NoError(t, err)
	assert.Equal(t, data, decoded)
}

func TestAdapt_Tier2_ResamplesAtOriginalDimensions(t *testing.T) {
	t.Parallel()
	// Base64 of the quality-100 original misses a budget set just below it,
	// but re-encoding at quality 60 fits without changing dimensions.
	data := gradientJPEG(t, 120, 90, 100)
	rec := recordFor(t, "a.jpg", data)

	budget := base64.StdEncoding.EncodedLen(len(data)) - 1
	enc, err := Adapt(rec, "anthropic", budget, true)
	require.NoError(t, err)
	assert.LessOrEqual(t, len(enc), budget)

	decoded, err := base64.StdEncoding.DecodeString(enc)
	require.NoError(t, err)
	cfg, format, err := image.DecodeConfig(bytes.NewReader(decoded))
	require.NoError(t, err)
	assert.Equal(t, "jpeg", format)
	assert.Equal(t, 120, cfg.Width, "tier 2 keeps the original dimensions")
	assert.Equal(t, 90, cfg.Height)
}

func TestAdapt_BudgetForcesEscalation(t *testing.T) {
	t.Parallel()
	// Flat 500x500 red PNG with a 600-byte budget: base64 of the original
	// comfortably exceeds the budget, so at least one escalation fires. The
	// output must fit the budget, decode, and never grow past the original.
	rec := recordFor(t, "red.png", flatPNG(t, 500, 500, color.RGBA{R: 255, A: 255}))

	const budget = 600
	enc, err := Adapt(rec, "anthropic", budget, true)
	require.NoError(t, err)
	assert.LessOrEqual(t, len(enc), budget)

	decoded, err := base64.StdEncoding.DecodeString(enc)
	require.NoError(t, err)
	cfg, _, err := image.DecodeConfig(bytes.NewReader(decoded))
	require.NoError(t, err)
	assert.LessOrEqual(t, cfg.Width, 500)
	assert.LessOrEqual(t, cfg.Height, 500)
	assert.GreaterOrEqual(t, cfg.Width, 16)
	assert.GreaterOrEqual(t, cfg.Height, 16)
}

func TestAdapt_Tier3_Downscales(t *testing.T) {
	t.Parallel()
	rec := recordFor(t, "big.jpg", gradientJPEG(t, 500, 500, 100))

	// 500x500 photo-like JPEG cannot fit 2000 base64 bytes at full
	// dimensions even at quality 60, so the geometric resize must run.
	const budget = 2000
	enc, err := Adapt(rec, "anthropic", budget, true)
	require.NoError(t, err)
	assert.LessOrEqual(t, len(enc), budget)

	decoded, err := base64.StdEncoding.DecodeString(enc)
	require.NoError(t, err)
	cfg, format, err := image.DecodeConfig(bytes.NewReader(decoded))
	require.NoError(t, err)
	assert.Equal(t, "jpeg", format)
	assert.Equal(t, "image/jpeg", rec.EncodedMediaType("anthropic"))
	assert.Less(t, cfg.Width, 500)
	assert.Less(t, cfg.Height, 500)
	assert.GreaterOrEqual(t, cfg.Width, 16)
	assert.GreaterOrEqual(t, cfg.Height, 16)
}

func TestEncodedMediaType_FollowsTranscode(t *testing.T) {
	t.Parallel()
	assert.Equal(t, "image/png", encodedMediaType("png"))
	assert.Equal(t, "image/gif", encodedMediaType("gif"))
	assert.Equal(t, "image/jpeg", encodedMediaType("jpeg"))
	// No Go WebP encoder: lossy tiers emit JPEG, and the cached media type
	// must say so or downstream payloads declare a mime the bytes are not.
	assert.Equal(t, "image/jpeg", encodedMediaType("webp"))
}

func TestAdapt_NeverMutatesRecord(t *testing.T) {
	t.Parallel()
	data := gradientJPEG(t, 300, 200, 100)
	rec := recordFor(t, "a.jpg", data)

	_, err := Adapt(rec, "tight", 2000, true)
	require.NoError(t, err)

	assert.Equal(t, data, rec.Bytes(), "adaptation must not touch raw bytes")
	w, h, ok := rec.Dimensions()
	require.True(t, ok)
	assert.Equal(t, 300, w)
	assert.Equal(t, 200, h)

	// A later provider with a generous budget still sees the full image.
	enc, err := Adapt(rec, "roomy", 5_000_000, true)
	require.NoError(t, err)
	assert.Equal(t, base64.StdEncoding.EncodeToString(data), enc)
}

func TestAdapt_ImageTooLarge(t *testing.T) {
	t.Parallel()
	rec := recordFor(t, "huge.png", noisyPNG(t, 400, 400))

	_, err := Adapt(rec, "anthropic", 10, true)
	require.ErrorIs(t, err, ErrImageTooLarge)
	assert.Contains(t, err.Error(), "huge.png")
	assert.False(t, rec.HasEncoded("anthropic"), "failed adaptation must not cache")
}

func TestAdapt_NoData(t *testing.T) {
	t.Parallel()
	rec := images.NewRecord("empty.png")
	_, err := Adapt(rec, "anthropic", 5_000_000, true)
	require.ErrorIs(t, err, ErrNoData)
}

func TestClampDimension(t *testing.T) {
	t.Parallel()
	assert.Equal(t, 16, clampDimension(3, 100), "floor applies")
	assert.Equal(t, 50, clampDimension(50, 100), "in range passes through")
	assert.Equal(t, 100, clampDimension(150, 100), "never above the original")
	assert.Equal(t, 10, clampDimension(2, 10), "tiny originals keep their own floor")
}

func TestDownscale_PreservesAspectRatio(t *testing.T) {
	t.Parallel()
	src := image.NewRGBA(image.Rect(0, 0, 400, 200))
	out := downscale(src, 5000) // scale = sqrt(5000/80000) = 0.25
	b := out.Bounds()
	assert.Equal(t, 100, b.Dx())
	assert.Equal(t, 50, b.Dy())
}

func TestDownscale_NoOpWhenBudgetCoversArea(t *testing.T) {
	t.Parallel()
	src := image.NewRGBA(image.Rect(0, 0, 10, 10))
	out := downscale(src, 1_000_000)
	assert.Equal(t, src.Bounds(), out.Bounds())
}
