package transform

import (
	"testing"

	"github.com/spetersoncode/gemkit"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPart(t *testing.T) {
	t.Run("string becomes text", func(t *testing.T) {
		p, err := Part("hi")
		require.NoError(t, err)
		assert.Equal(t, "hi", p.Text)
	})

	t.Run("blob becomes inline data", func(t *testing.T) {
		p, err := Part(&gemkit.Blob{Data: []byte{1}, MIMEType: "audio/pcm"})
		require.NoError(t, err)
		assert.Equal(t, "audio/pcm", p.InlineData.MIMEType)
	})

	t.Run("file requires uri and mime type", func(t *testing.T) {
		p, err := Part(&gemkit.File{URI: "https://x/files/a", MIMEType: "image/png"})
		require.NoError(t, err)
		assert.Equal(t, &gemkit.FileData{FileURI: "https://x/files/a", MIMEType: "image/png"}, p.FileData)

		_, err = Part(&gemkit.File{URI: "https://x/files/a"})
		assert.Error(t, err)
	})

	t.Run("rejects empty and unknown", func(t *testing.T) {
		for _, v := range []any{nil, "", 42} {
			_, err := Part(v)
			var valErr *gemkit.ValueError
			assert.ErrorAs(t, err, &valErr)
		}
	})
}

func TestContents(t *testing.T) {
	t.Run("single string", func(t *testing.T) {
		cs, err := Contents("why is the sky blue?")
		require.NoError(t, err)
		require.Len(t, cs, 1)
		assert.Equal(t, gemkit.RoleUser, cs[0].Role)
		assert.Equal(t, "why is the sky blue?", cs[0].Text())
	})

	t.Run("slice of mixed inputs is one content each", func(t *testing.T) {
		model := &gemkit.Content{Role: gemkit.RoleModel, Parts: []*gemkit.Part{gemkit.NewTextPart("hello")}}
		cs, err := Contents([]any{"hi", model, []any{"a", "b"}})
		require.NoError(t, err)
		require.Len(t, cs, 3)
		assert.Same(t, model, cs[1])
		assert.Len(t, cs[2].Parts, 2)
	})

	t.Run("empty is an error", func(t *testing.T) {
		_, err := Contents([]any{})
		assert.Error(t, err)
		_, err = Contents(nil)
		assert.Error(t, err)
	})
}

func TestContentToWire(t *testing.T) {
	c := &gemkit.Content{
		Role: gemkit.RoleUser,
		Parts: []*gemkit.Part{
			gemkit.NewTextPart("look"),
			gemkit.NewBlobPart([]byte{0xfb, 0xff}, "image/png"),
			{FunctionResponse: &gemkit.FunctionResponse{ID: "call-1", Name: "lookup", Response: map[string]any{"ok": true}}},
		},
	}

	t.Run("gemini keeps ids and url-safe bytes", func(t *testing.T) {
		wire := ContentToWire(geminiAPI, c)
		parts := wire["parts"].([]any)
		assert.Equal(t, "user", wire["role"])
		assert.Equal(t, map[string]any{"text": "look"}, parts[0])
		assert.Equal(t, map[string]any{"inlineData": map[string]any{"data": "-_8=", "mimeType": "image/png"}}, parts[1])
		assert.Equal(t, "call-1", parts[2].(map[string]any)["functionResponse"].(map[string]any)["id"])
	})

	t.Run("vertex drops ids and uses std bytes", func(t *testing.T) {
		wire := ContentToWire(vertexAI, c)
		parts := wire["parts"].([]any)
		assert.Equal(t, "+/8=", parts[1].(map[string]any)["inlineData"].(map[string]any)["data"])
		assert.NotContains(t, parts[2].(map[string]any)["functionResponse"], "id")
	})
}
