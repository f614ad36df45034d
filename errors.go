package picprompt

import "errors"

// Sentinel errors for the root package.
// All use prefix "picprompt:" for identification. Callers should use errors.Is.
var (
	// ErrInvalidConfig indicates a provider image descriptor that cannot be used
	// (e.g. non-positive max_encoded_size).
	ErrInvalidConfig = errors.New("picprompt: invalid provider image config")
	// ErrUnknownProvider indicates an operation referencing a provider id with no configured descriptor.
	ErrUnknownProvider = errors.New("picprompt: no image config for provider")
)
