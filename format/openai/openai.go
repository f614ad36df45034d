// Package openai shapes prompt messages into OpenAI Chat Completions request params.
package openai

import (
	"github.com/openai/openai-go/v3"
	"github.com/openai/openai-go/v3/shared"

	"github.com/picprompt/picprompt"
	"github.com/picprompt/picprompt/format"
	"github.com/picprompt/picprompt/images"
)

// Formatter builds *openai.ChatCompletionNewParams from prompt messages.
// Images are passed as URLs by default (OpenAI fetches them itself); when the
// build encoded an image for this provider with base64 required, the encoded
// bytes are inlined as a data URI instead.
type Formatter struct {
	defaultModel shared.ChatModel
	cfg          picprompt.ImageConfig
}

// Option configures a Formatter (e.g. WithModel).
type Option func(*Formatter)

// WithModel sets the model placed on the request. Default is gpt-4o.
func WithModel(m shared.ChatModel) Option {
	return func(f *Formatter) { f.defaultModel = m }
}

// WithImageConfig overrides the provider descriptor used to decide between URL
// passthrough and inline data URIs. Default is the built-in OpenAI descriptor.
func WithImageConfig(cfg picprompt.ImageConfig) Option {
	return func(f *Formatter) { f.cfg = cfg }
}

// New returns a Formatter with the default model and the built-in OpenAI descriptor.
func New(opts ...Option) *Formatter {
	f := &Formatter{
		defaultModel: openai.ChatModelGPT4o,
		cfg:          picprompt.DefaultImageConfigs()[picprompt.ProviderOpenAI],
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
func (f *Formatter) FormatTyped(messages []picprompt.PromptMessage, reg *images.Registry) (*openai.ChatCompletionNewParams, error) {
	params := &openai.ChatCompletionNewParams{
		Messages: make([]openai.ChatCompletionMessageParamUnion, 0, len(messages)),
		Model:    f.defaultModel,
	}
	for _, msg := range messages {
		union, err := f.messageToUnion(msg, reg)
		if err != nil {
			return nil, err
		}
		params.Messages = append(params.Messages, union)
	}
	return params, nil
}

func (f *Formatter) messageToUnion(msg picprompt.PromptMessage, reg *images.Registry) (openai.ChatCompletionMessageParamUnion, error) {
	switch msg.Role {
	case picprompt.RoleSystem:
		return openai.SystemMessage(picprompt.TextFromParts(msg.Parts)), nil
	case picprompt.RoleUser:
		return f.userMessage(msg.Parts, reg)
	case picprompt.RoleAssistant:
		return openai.AssistantMessage(picprompt.TextFromParts(msg.Parts)), nil
	default:
		return openai.ChatCompletionMessageParamUnion{}, format.ErrUnsupportedRole
	}
}

func (f *Formatter) userMessage(parts []picprompt.ContentPart, reg *images.Registry) (openai.ChatCompletionMessageParamUnion, error) {
	var contentParts []openai.ChatCompletionContentPartUnionParam
	hasImage := false
	for _, p := range parts {
		switch x := p.(type) {
		case picprompt.TextPart:
			contentParts = append(contentParts, openai.TextContentPart(x.Text))
		case picprompt.ImagePart:
			hasImage = true
			part, err := f.imagePart(x, reg)
			if err != nil {
				return openai.ChatCompletionMessageParamUnion{}, err
			}
			contentParts = append(contentParts, part)
		default:
			return openai.ChatCompletionMessageParamUnion{}, format.ErrUnsupportedContent
		}
	}
	if !hasImage {
		return openai.UserMessage(picprompt.TextFromParts(parts)), nil
	}
	return openai.UserMessage(contentParts), nil
}

// imagePart emits either the raw source path (URL passthrough) or, when the
// build produced a base64 encoding for this provider, an inline data URI.
func (f *Formatter) imagePart(p picprompt.ImagePart, reg *images.Registry) (openai.ChatCompletionContentPartUnionParam, error) {
	url := p.SourcePath
	if f.cfg.RequiresBase64 && reg != nil {
		if rec := reg.Get(p.SourcePath); rec != nil {
			enc, err := rec.EncodedFor(picprompt.ProviderOpenAI)
			if err != nil {
				return openai.ChatCompletionContentPartUnionParam{}, err
			}
			mime := rec.EncodedMediaType(picprompt.ProviderOpenAI)
			if mime == "" {
				mime = rec.MediaType()
			}
			if mime == "" {
				mime = "image/png"
			}
			url = "data:" + mime + ";base64," + enc
		}
	}
	return openai.ImageContentPart(openai.ChatCompletionContentPartImageImageURLParam{
		URL:    url,
		Detail: "auto",
	}), nil
}

// Compile-time check that Formatter implements format.Formatter.
var _ format.Formatter = (*Formatter)(nil)
