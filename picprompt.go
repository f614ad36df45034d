package picprompt

import "strings"

// Role is the message role in a chat (system, user, assistant).
type Role string

// Chat message roles.
const (
	RoleSystem    Role = "system"
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Provider identifiers for the built-in provider descriptors. Encoded image
// representations are cached on records under these keys.
const (
	ProviderOpenAI    = "openai"
	ProviderAnthropic = "anthropic"
	ProviderGemini    = "gemini"
)

// ContentPart is a sealed interface for message parts. Only package types implement it via isContentPart().
type ContentPart interface {
	isContentPart()
}

// TextPart holds plain text content.
type TextPart struct {
	Text string
}

func (TextPart) isContentPart() {}

// ImagePart references an image by its source path. The path is opaque to the
// prompt model: a local file path, an http(s) URL, or an s3:// URI. Bytes and
// per-provider encodings live in the build's images.Registry, keyed by this path.
type ImagePart struct {
	SourcePath string
}

func (ImagePart) isContentPart() {}

// PromptMessage is a single message with role and content parts (supports multimodal).
type PromptMessage struct {
	Role  Role
	Parts []ContentPart
}

// TextFromParts extracts concatenated text from parts, ignoring non-text parts.
func TextFromParts(parts []ContentPart) string {
	var b strings.Builder
	for _, p := range parts {
		if t, ok := p.(TextPart); ok {
			b.WriteString(t.Text)
		}
	}
	return b.String()
}
