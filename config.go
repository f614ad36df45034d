package picprompt

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// ImageConfig describes one provider's image requirements. It drives the
// download and adaptation phases: NeedsDownload=false leaves image paths as
// passthrough references, RequiresBase64 selects base64 output over raw bytes,
// and MaxEncodedSize bounds the encoded representation's length in bytes.
type ImageConfig struct {
	RequiresBase64      bool     `yaml:"requires_base64"`
	MaxEncodedSize      int      `yaml:"max_encoded_size"`
	NeedsDownload       bool     `yaml:"needs_download"`
	SupportedMediaTypes []string `yaml:"supported_media_types"`
}

// Validate reports whether the config is usable.
func (c ImageConfig) Validate() error {
	if c.MaxEncodedSize <= 0 {
		return fmt.Errorf("%w: max_encoded_size must be positive, got %d", ErrInvalidConfig, c.MaxEncodedSize)
	}
	return nil
}

// SupportsMediaType reports whether mediaType is in SupportedMediaTypes.
// An empty SupportedMediaTypes list accepts everything.
func (c ImageConfig) SupportsMediaType(mediaType string) bool {
	if len(c.SupportedMediaTypes) == 0 {
		return true
	}
	for _, mt := range c.SupportedMediaTypes {
		if mt == mediaType {
			return true
		}
	}
	return false
}

// DefaultImageConfigs returns the built-in descriptors for the supported
// providers. OpenAI accepts URLs directly, so images are not downloaded for
// it; Anthropic requires inline base64 blocks; Gemini takes inline raw bytes.
func DefaultImageConfigs() map[string]ImageConfig {
	return map[string]ImageConfig{
		ProviderOpenAI: {
			RequiresBase64:      false,
			MaxEncodedSize:      5_000_000,
			NeedsDownload:       false,
			SupportedMediaTypes: []string{"image/png", "image/jpeg", "image/gif"},
		},
		ProviderAnthropic: {
			RequiresBase64:      true,
			MaxEncodedSize:      5_000_000,
			NeedsDownload:       true,
			SupportedMediaTypes: []string{"image/png", "image/jpeg", "image/gif", "image/webp"},
		},
		ProviderGemini: {
			RequiresBase64:      false,
			MaxEncodedSize:      10_000_000,
			NeedsDownload:       true,
			SupportedMediaTypes: []string{"image/png", "image/jpeg", "image/webp"},
		},
	}
}

// ParseImageConfigs parses a YAML mapping of provider id to ImageConfig.
func ParseImageConfigs(data []byte) (map[string]ImageConfig, error) {
	var out map[string]ImageConfig
	if err := yaml.Unmarshal(data, &out); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidConfig, err)
	}
	for provider, cfg := range out {
		if err := cfg.Validate(); err != nil {
			return nil, fmt.Errorf("provider %q: %w", provider, err)
		}
	}
	return out, nil
}

// LoadImageConfigs reads and parses a provider descriptor file.
func LoadImageConfigs(path string) (map[string]ImageConfig, error) {
	data, err := os.ReadFile(path) // #nosec G304 -- path is supplied by the caller
	if err != nil {
		return nil, fmt.Errorf("picprompt: read config file: %w", err)
	}
	return ParseImageConfigs(data)
}
