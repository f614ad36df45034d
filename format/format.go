// Package format defines the contract between the image pipeline and the
// per-provider request shaping in its subpackages. Formatters read fetched and
// encoded image state from the build's registry; they never download or encode
// themselves — callers must run the build phase first.
package format

import (
	"errors"

	"github.com/picprompt/picprompt"
	"github.com/picprompt/picprompt/images"
)

// Sentinel errors shared by the provider formatters. Callers should use errors.Is.
var (
	// ErrUnsupportedRole indicates a message role the provider cannot represent.
	ErrUnsupportedRole = errors.New("format: unsupported message role for this provider")
	// ErrUnsupportedContent indicates a ContentPart type the provider cannot represent.
	ErrUnsupportedContent = errors.New("format: unsupported content part for this provider")
	// ErrMissingImage indicates an ImagePart whose path has no registry record
	// with fetched bytes, on a provider that requires inline image data.
	ErrMissingImage = errors.New("format: image not downloaded for provider that requires inline data")
)

// Formatter renders prompt messages plus the build's image registry into a
// provider request payload. Callers must type-assert the result to the
// provider-specific type; every subpackage also exposes a FormatTyped method
// returning the concrete type.
type Formatter interface {
	Format(messages []picprompt.PromptMessage, reg *images.Registry) (any, error)
}
