package picprompt

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

func TestDefaultImageConfigs(t *testing.T) {
	t.Parallel()
	defaults := DefaultImageConfigs()
	require.Len(t, defaults, 3)

	oa := defaults[ProviderOpenAI]
	assert.False(t, oa.RequiresBase64)
	assert.False(t, oa.NeedsDownload)
	assert.Equal(t, 5_000_000, oa.MaxEncodedSize)

	an := defaults[ProviderAnthropic]
	assert.True(t, an.RequiresBase64)
	assert.True(t, an.NeedsDownload)
	assert.Equal(t, 5_000_000, an.MaxEncodedSize)
	assert.Contains(t, an.SupportedMediaTypes, "image/webp")

	ge := defaults[ProviderGemini]
	assert.False(t, ge.RequiresBase64)
	assert.True(t, ge.NeedsDownload)
	assert.Equal(t, 10_000_000, ge.MaxEncodedSize)

	for id, cfg := range defaults {
		assert.NoError(t, cfg.Validate(), "provider %q", id)
	}
}

func TestImageConfig_Validate(t *testing.T) {
	t.Parallel()
	err := ImageConfig{MaxEncodedSize: 0}.Validate()
	require.ErrorIs(t, err, ErrInvalidConfig)

	err = ImageConfig{MaxEncodedSize: -1}.Validate()
	require.ErrorIs(t, err, ErrInvalidConfig)

	assert.NoError(t, ImageConfig{MaxEncodedSize: 1}.Validate())
}

func TestImageConfig_SupportsMediaType(t *testing.T) {
	t.Parallel()
	cfg := ImageConfig{SupportedMediaTypes: []string{"image/png", "image/jpeg"}}
	assert.True(t, cfg.SupportsMediaType("image/png"))
	assert.False(t, cfg.SupportsMediaType("image/webp"))

	open := ImageConfig{}
	assert.True(t, open.SupportsMediaType("image/anything"), "empty list accepts everything")
}

func TestParseImageConfigs(t *testing.T) {
	t.Parallel()
	data := []byte(`
openai:
  requires_base64: false
  max_encoded_size: 5000000
  needs_download: false
  supported_media_types: [image/png, image/jpeg]
myprovider:
  requires_base64: true
  max_encoded_size: 1048576
  needs_download: true
`)
	configs, err := ParseImageConfigs(data)
	require.NoError(t, err)
	require.Len(t, configs, 2)

	mp := configs["myprovider"]
	assert.True(t, mp.RequiresBase64)
	assert.True(t, mp.NeedsDownload)
	assert.Equal(t, 1_048_576, mp.MaxEncodedSize)
	assert.Empty(t, mp.SupportedMediaTypes)
}

func TestParseImageConfigs_Invalid(t *testing.T) {
	t.Parallel()
	_, err := ParseImageConfigs([]byte("not: [valid: yaml"))
	require.ErrorIs(t, err, ErrInvalidConfig)

	_, err = ParseImageConfigs([]byte("bad:\n  max_encoded_size: 0\n"))
	require.ErrorIs(t, err, ErrInvalidConfig)
	assert.Contains(t, err.Error(), `"bad"`)
}

func TestLoadImageConfigs(t *testing.T) {
	t.Parallel()
	dir := t.TempDir()
	path := filepath.Join(dir, "providers.yaml")
	require.NoError(t, os.WriteFile(path, []byte("p1:\n  max_encoded_size: 100\n"), 0o600))

	configs, err := LoadImageConfigs(path)
	require.NoError(t, err)
	assert.Equal(t, 100, configs["p1"].MaxEncodedSize)

	_, err = LoadImageConfigs(filepath.Join(dir, "absent.yaml"))
	require.Error(t, err)
	assert.ErrorIs(t, err, os.ErrNotExist)
}
