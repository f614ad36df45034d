// Package gemini shapes prompt messages into Google Gemini (genai) request contents.
package gemini

import (
	"fmt"
	"strings"

	"google.golang.org/genai"

	"github.com/picprompt/picprompt"
	"github.com/picprompt/picprompt/format"
	"github.com/picprompt/picprompt/images"
)

// Request wraps Contents and Config for the Gemini GenerateContent API.
type Request struct {
	Contents []*genai.Content
	Config   *genai.GenerateContentConfig
}

// Formatter builds a *Request from prompt messages. Downloaded images are
// inlined as raw bytes parts; images without fetched bytes fall back to URI parts.
type Formatter struct{}

// New returns a Formatter.
func New() *Formatter {
	return &Formatter{}
}

// Format implements format.Formatter.
func (f *Formatter) Format(messages []picprompt.PromptMessage, reg *images.Registry) (any, error) {
	return f.FormatTyped(messages, reg)
}

// FormatTyped returns the concrete type so callers avoid type assertion.
func (f *Formatter) FormatTyped(messages []picprompt.PromptMessage, reg *images.Registry) (*Request, error) {
	config := &genai.GenerateContentConfig{}
	var systemParts []string
	var contents []*genai.Content
	for _, msg := range messages {
		switch msg.Role {
		case picprompt.RoleSystem:
			systemParts = append(systemParts, picprompt.TextFromParts(msg.Parts))
		case picprompt.RoleUser:
			c, err := f.userContent(msg.Parts, reg)
			if err != nil {
				return nil, err
			}
			contents = append(contents, c)
		case picprompt.RoleAssistant:
			contents = append(contents, genai.NewContentFromText(picprompt.TextFromParts(msg.Parts), genai.RoleModel))
		default:
			return nil, format.ErrUnsupportedRole
		}
	}
	if len(systemParts) > 0 {
		config.SystemInstruction = genai.NewContentFromText(strings.Join(systemParts, "\n\n"), genai.RoleUser)
	}
	return &Request{Contents: contents, Config: config}, nil
}

func (f *Formatter) userContent(parts []picprompt.ContentPart, reg *images.Registry) (*genai.Content, error) {
	var genParts []*genai.Part
	for _, p := range parts {
		switch x := p.(type) {
		case picprompt.TextPart:
			genParts = append(genParts, genai.NewPartFromText(x.Text))
		case picprompt.ImagePart:
			part, err := f.imagePartToGenai(x, reg)
			if err != nil {
				return nil, err
			}
			genParts = append(genParts, part)
		default:
			return nil, format.ErrUnsupportedContent
		}
	}
	if len(genParts) == 0 {
		return genai.NewContentFromText("", genai.RoleUser), nil
	}
	return genai.NewContentFromParts(genParts, genai.RoleUser), nil
}

func (f *Formatter) imagePartToGenai(p picprompt.ImagePart, reg *images.Registry) (*genai.Part, error) {
	var rec *images.Record
	if reg != nil {
		rec = reg.Get(p.SourcePath)
	}
	if rec != nil && rec.HasBytes() {
		mime := rec.MediaType()
		if mime == "" {
			mime = "image/png"
		}
		return genai.NewPartFromBytes(rec.Bytes(), mime), nil
	}
	if strings.HasPrefix(p.SourcePath, "http://") || strings.HasPrefix(p.SourcePath, "https://") {
		return genai.NewPartFromURI(p.SourcePath, "image/png"), nil
	}
	return nil, fmt.Errorf("%w: %q", format.ErrMissingImage, p.SourcePath)
}

// Compile-time check that Formatter implements format.Formatter.
var _ format.Formatter = (*Formatter)(nil)
