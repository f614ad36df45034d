package picprompt

import (
	"context"
	"fmt"
	"slices"

	"github.com/picprompt/picprompt/download"
	"github.com/picprompt/picprompt/images"
	"github.com/picprompt/picprompt/resize"
)

// PromptBuilder accumulates chat messages and provider descriptors, then
// sequences the build: download every referenced image (once, whatever the
// provider count), and encode each image per provider budget. Formatting into
// provider request types is done by the format/ packages against Messages()
// and Registry() after Build.
//
// A PromptBuilder is not safe for concurrent use; build one prompt per builder
// session and Reset between independent builds.
type PromptBuilder struct {
	messages   []PromptMessage
	imagePaths []string
	configs    map[string]ImageConfig
	registry   *images.Registry
	downloader *download.Downloader
	built      bool
}

// BuilderOption configures a PromptBuilder.
type BuilderOption func(*PromptBuilder)

// WithDownloader sets the downloader used by Build. Default uses the built-in
// source set (local file and HTTP) with aggregated batch errors.
func WithDownloader(d *download.Downloader) BuilderOption {
	return func(b *PromptBuilder) {
		if d != nil {
			b.downloader = d
		}
	}
}

// WithImageConfig registers a provider descriptor. Providers without a
// registered descriptor fall back to DefaultImageConfigs.
func WithImageConfig(providerID string, cfg ImageConfig) BuilderOption {
	return func(b *PromptBuilder) {
		b.configs[providerID] = cfg
	}
}

// NewPromptBuilder returns a builder with the built-in provider descriptors.
func NewPromptBuilder(opts ...BuilderOption) *PromptBuilder {
	b := &PromptBuilder{
		configs:    DefaultImageConfigs(),
		registry:   images.NewRegistry(),
		downloader: download.New(nil),
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// AddSystemMessage appends a system message.
func (b *PromptBuilder) AddSystemMessage(text string) {
	b.addText(RoleSystem, text)
}

// AddUserMessage appends a user message.
func (b *PromptBuilder) AddUserMessage(text string) {
	b.addText(RoleUser, text)
}

// AddAssistantMessage appends an assistant message.
func (b *PromptBuilder) AddAssistantMessage(text string) {
	b.addText(RoleAssistant, text)
}

func (b *PromptBuilder) addText(role Role, text string) {
	b.messages = append(b.messages, PromptMessage{
		Role:  role,
		Parts: []ContentPart{TextPart{Text: text}},
	})
	b.built = false
}

// AddImageMessage appends a user message referencing an image by path. The
// raw path is stored now; fetching and encoding happen in Build.
func (b *PromptBuilder) AddImageMessage(path string) {
	b.messages = append(b.messages, PromptMessage{
		Role:  RoleUser,
		Parts: []ContentPart{ImagePart{SourcePath: path}},
	})
	b.imagePaths = append(b.imagePaths, path)
	b.built = false
}

// AddImageMessages appends one user message per path.
func (b *PromptBuilder) AddImageMessages(paths ...string) {
	for _, p := range paths {
		b.AddImageMessage(p)
	}
}

// SetImageConfig registers or replaces a provider descriptor.
func (b *PromptBuilder) SetImageConfig(providerID string, cfg ImageConfig) {
	b.configs[providerID] = cfg
	b.built = false
}

// RemoveImageConfig drops a provider descriptor.
func (b *PromptBuilder) RemoveImageConfig(providerID string) {
	delete(b.configs, providerID)
	b.built = false
}

// ImageConfigFor returns the descriptor registered for providerID.
func (b *PromptBuilder) ImageConfigFor(providerID string) (ImageConfig, error) {
	cfg, ok := b.configs[providerID]
	if !ok {
		return ImageConfig{}, fmt.Errorf("%w: %q", ErrUnknownProvider, providerID)
	}
	return cfg, nil
}

// Messages returns a copy of the accumulated messages.
func (b *PromptBuilder) Messages() []PromptMessage {
	return slices.Clone(b.messages)
}

// Registry returns the build's image registry. Read it only after Build completes.
func (b *PromptBuilder) Registry() *images.Registry {
	return b.registry
}

// Build downloads referenced images sequentially and encodes each one per
// provider budget. Skips the download phase entirely when no configured
// provider needs downloaded bytes. Safe to call repeatedly: already-fetched
// images are cache hits.
func (b *PromptBuilder) Build(ctx context.Context) error {
	return b.build(ctx, b.downloader.FetchInto)
}

// BuildConcurrent is Build with all pending image fetches issued concurrently
// and awaited as a group. The failure-aggregation contract is identical.
func (b *PromptBuilder) BuildConcurrent(ctx context.Context) error {
	return b.build(ctx, b.downloader.FetchIntoConcurrent)
}

func (b *PromptBuilder) build(ctx context.Context, fetch func(context.Context, *images.Registry, []string) error) error {
	if b.needsDownload() && len(b.imagePaths) > 0 {
		if err := fetch(ctx, b.registry, b.imagePaths); err != nil {
			return err
		}
		if err := b.encodeAll(); err != nil {
			return err
		}
	}
	b.built = true
	return nil
}

// Built reports whether a Build has completed since the last mutation.
func (b *PromptBuilder) Built() bool { return b.built }

// Reset clears messages, image references, and the registry for an independent build.
func (b *PromptBuilder) Reset() {
	b.messages = nil
	b.imagePaths = nil
	b.registry.Clear()
	b.built = false
}

// needsDownload reports whether at least one configured provider wants image bytes.
func (b *PromptBuilder) needsDownload() bool {
	for _, cfg := range b.configs {
		if cfg.NeedsDownload {
			return true
		}
	}
	return false
}

// encodeAll produces the per-provider encoded representation of every fetched
// record. Encoding is local CPU work and stays sequential in both build modes.
// Providers whose descriptor rejects the record's media type are skipped;
// their formatters surface the gap if the image is actually used for them.
func (b *PromptBuilder) encodeAll() error {
	for _, rec := range b.registry.All() {
		if !rec.HasBytes() {
			continue // failed fetch in non-raising mode; formatters will surface it
		}
		for providerID, cfg := range b.configs {
			if !cfg.NeedsDownload {
				continue
			}
			if mt := rec.MediaType(); mt != "" && !cfg.SupportsMediaType(mt) {
				continue
			}
			if _, err := resize.Adapt(rec, providerID, cfg.MaxEncodedSize, cfg.RequiresBase64); err != nil {
				return fmt.Errorf("picprompt: encode %q for %q: %w", rec.SourcePath(), providerID, err)
			}
		}
	}
	return nil
}
