// Package anthropic shapes prompt messages into Anthropic Messages API request params.
package anthropic

import (
	"fmt"
	"strings"

	"github.com/anthropics/anthropic-sdk-go"

	"github.com/picprompt/picprompt"
	"github.com/picprompt/picprompt/format"
	"github.com/picprompt/picprompt/images"
)

const defaultMaxTokens int64 = 1024

// Formatter builds *anthropic.MessageNewParams from prompt messages. The
// Messages API takes images only as inline base64 blocks, so every ImagePart
// must have been downloaded and encoded for picprompt.ProviderAnthropic
// during the build; formatting fails otherwise.
type Formatter struct {
	defaultModel anthropic.Model
	maxTokens    int64
}

// Option configures a Formatter (e.g. WithModel).
type Option func(*Formatter)

// WithModel sets the model placed on the request.
func WithModel(m anthropic.Model) Option {
	return func(f *Formatter) { f.defaultModel = m }
}

// WithMaxTokens sets the max_tokens placed on the request. Default is 1024.
func WithMaxTokens(n int64) Option {
	return func(f *Formatter) {
		if n > 0 {
			f.maxTokens = n
		}
	}
}

// New returns a Formatter with a default model. Options can override it.
func New(opts ...Option) *Formatter {
	f := &Formatter{
		defaultModel: anthropic.ModelClaudeSonnet4_5_20250929,
		maxTokens:    defaultMaxTokens,
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// Format implements format.Formatter.
func (f *Formatter) Format(messages []picprompt.PromptMessage, reg *images.Registry) (any, error) {
	return f.FormatTyped(messages, reg)
}

// FormatTyped returns the concrete type so callers avoid type assertion.
func (f *Formatter) FormatTyped(messages []picprompt.PromptMessage, reg *images.Registry) (*anthropic.MessageNewParams, error) {
	params := &anthropic.MessageNewParams{
		MaxTokens: f.maxTokens,
		Model:     f.defaultModel,
	}
	var systemTexts []string
	var out []anthropic.MessageParam
	for _, msg := range messages {
		switch msg.Role {
		case picprompt.RoleSystem:
			systemTexts = append(systemTexts, picprompt.TextFromParts(msg.Parts))
		case picprompt.RoleUser:
			m, err := f.userMessage(msg.Parts, reg)
			if err != nil {
				return nil, err
			}
			out = append(out, m)
		case picprompt.RoleAssistant:
			out = append(out, anthropic.NewAssistantMessage(anthropic.NewTextBlock(picprompt.TextFromParts(msg.Parts))))
		default:
			return nil, format.ErrUnsupportedRole
		}
	}
	if len(systemTexts) > 0 {
		params.System = []anthropic.TextBlockParam{{Text: strings.Join(systemTexts, "\n\n")}}
	}
	params.Messages = out
	return params, nil
}

func (f *Formatter) userMessage(parts []picprompt.ContentPart, reg *images.Registry) (anthropic.MessageParam, error) {
	var blocks []anthropic.ContentBlockParamUnion
	for _, p := range parts {
		switch x := p.(type) {
		case picprompt.TextPart:
			blocks = append(blocks, anthropic.NewTextBlock(x.Text))
		case picprompt.ImagePart:
			block, err := f.imageBlock(x, reg)
			if err != nil {
				return anthropic.MessageParam{}, err
			}
			blocks = append(blocks, block)
		default:
			return anthropic.MessageParam{}, format.ErrUnsupportedContent
		}
	}
	return anthropic.NewUserMessage(blocks...), nil
}

func (f *Formatter) imageBlock(p picprompt.ImagePart, reg *images.Registry) (anthropic.ContentBlockParamUnion, error) {
	if reg == nil {
		return anthropic.ContentBlockParamUnion{}, fmt.Errorf("%w: %q", format.ErrMissingImage, p.SourcePath)
	}
	rec := reg.Get(p.SourcePath)
	if rec == nil || !rec.HasBytes() {
		return anthropic.ContentBlockParamUnion{}, fmt.Errorf("%w: %q", format.ErrMissingImage, p.SourcePath)
	}
	enc, err := rec.EncodedFor(picprompt.ProviderAnthropic)
	if err != nil {
		return anthropic.ContentBlockParamUnion{}, err
	}
	// The adaptation tiers may have transcoded (WebP comes back as JPEG), so
	// the declared media type must describe the encoded bytes, not the source.
	mime := rec.EncodedMediaType(picprompt.ProviderAnthropic)
	if mime == "" {
		mime = rec.MediaType()
	}
	if mime == "" {
		mime = "image/png"
	}
	return anthropic.NewImageBlockBase64(mime, enc), nil
}

// Compile-time check that Formatter implements format.Formatter.
var _ format.Formatter = (*Formatter)(nil)
