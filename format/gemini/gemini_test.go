package gemini

import (
	"bytes"
	"image"
	"image/png"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
	"google.golang.org/genai"

	"github.com/picprompt/picprompt"
	"github.com/picprompt/picprompt/format"
	"github.com/picprompt/picprompt/images"
)

func TestMain(m *testing.M) {
	// go.opencensus.io (pulled in by the genai SDK) starts a worker goroutine
	// in package init that never exits; it is not a leak in this package.
	goleak.VerifyTestMain(m,
		goleak.IgnoreTopFunction("go.opencensus.io/stats/view.(*worker).start"))
}

func testPNG(t *testing.T) []byte {
	t.Helper()
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, image.NewRGBA(image.Rect(0, 0, 4, 4))))
	return buf.Bytes()
}

func textMsg(role picprompt.Role, text string) picprompt.PromptMessage {
	return picprompt.PromptMessage{Role: role, Parts: []picprompt.ContentPart{picprompt.TextPart{Text: text}}}
}

func TestFormat_TextOnly(t *testing.T) {
	t.Parallel()
	f := New()
	req, err := f.FormatTyped([]picprompt.PromptMessage{
		textMsg(picprompt.RoleUser, "Hello"),
		textMsg(picprompt.RoleAssistant, "Hi"),
	}, images.NewRegistry())
	require.NoError(t, err)
	require.Len(t, req.Contents, 2)
	assert.Equal(t, genai.RoleUser, req.Contents[0].Role)
	assert.Equal(t, "Hello", req.Contents[0].Parts[0].Text)
	assert.Equal(t, genai.RoleModel, req.Contents[1].Role)
	assert.Nil(t, req.Config.SystemInstruction)
}

func TestFormat_SystemInstruction(t *testing.T) {
	t.Parallel()
	f := New()
	req, err := f.FormatTyped([]picprompt.PromptMessage{
		textMsg(picprompt.RoleSystem, "You are a helper."),
		textMsg(picprompt.RoleUser, "Hi"),
	}, images.NewRegistry())
	require.NoError(t, err)

	require.NotNil(t, req.Config.SystemInstruction)
	require.Len(t, req.Config.SystemInstruction.Parts, 1)
	assert.Equal(t, "You are a helper.", req.Config.SystemInstruction.Parts[0].Text)
	require.Len(t, req.Contents, 1, "system messages never appear in contents")
}

func TestFormat_InlineImageBytes(t *testing.T) {
	t.Parallel()
	raw := testPNG(t)
	rec, err := images.NewRecordWithData("pic.png", raw, "image/png")
	require.NoError(t, err)
	reg := images.NewRegistry()
	reg.RegisterRecord(rec)

	f := New()
	req, err := f.FormatTyped([]picprompt.PromptMessage{
		{Role: picprompt.RoleUser, Parts: []picprompt.ContentPart{
			picprompt.TextPart{Text: "Describe"},
			picprompt.ImagePart{SourcePath: "pic.png"},
		}},
	}, reg)
	require.NoError(t, err)

	require.Len(t, req.Contents, 1)
	parts := req.Contents[0].Parts
	require.Len(t, parts, 2)
	assert.Equal(t, "Describe", parts[0].Text)
	require.NotNil(t, parts[1].InlineData)
	assert.Equal(t, "image/png", parts[1].InlineData.MIMEType)
	assert.Equal(t, raw, parts[1].InlineData.Data)
}

func TestFormat_URIFallbackForUnfetchedHTTP(t *testing.T) {
	t.Parallel()
	f := New()
	req, err := f.FormatTyped([]picprompt.PromptMessage{
		{Role: picprompt.RoleUser, Parts: []picprompt.ContentPart{
			picprompt.ImagePart{SourcePath: "https://example.com/img.png"},
		}},
	}, images.NewRegistry())
	require.NoError(t, err)

	parts := req.Contents[0].Parts
	require.Len(t, parts, 1)
	require.NotNil(t, parts[0].FileData)
	assert.Equal(t, "https://example.com/img.png", parts[0].FileData.FileURI)
}

func TestFormat_MissingLocalImage(t *testing.T) {
	t.Parallel()
	f := New()
	_, err := f.FormatTyped([]picprompt.PromptMessage{
		{Role: picprompt.RoleUser, Parts: []picprompt.ContentPart{
			picprompt.ImagePart{SourcePath: "/tmp/never-fetched.png"},
		}},
	}, images.NewRegistry())
	require.ErrorIs(t, err, format.ErrMissingImage)
}

func TestFormat_UnsupportedRole(t *testing.T) {
	t.Parallel()
	f := New()
	_, err := f.FormatTyped([]picprompt.PromptMessage{textMsg(picprompt.Role("tool"), "x")}, images.NewRegistry())
	require.ErrorIs(t, err, format.ErrUnsupportedRole)
}
