// Package picprompt normalizes chat-style prompts (text + images) into the
// request shapes of several LLM providers. Images referenced by messages are
// fetched from local files, HTTP(S), or S3 (package source), deduplicated in
// a per-build registry (package images), and adapted to each provider's size
// and encoding constraints (package resize). Provider request shaping lives
// under format/.
package picprompt
