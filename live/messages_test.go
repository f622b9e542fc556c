package live

import (
	"encoding/json"
	"testing"

	"github.com/spetersoncode/gemkit"
	"github.com/spetersoncode/gemkit/transform"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseClientMessage(t *testing.T) {
	tests := []struct {
		name      string
		p         transform.Personality
		input     any
		endOfTurn bool
		check     func(t *testing.T, m *ClientMessage)
		wantErr   error
	}{
		{
			name:  "nil is end of turn",
			input: nil,
			check: func(t *testing.T, m *ClientMessage) {
				require.NotNil(t, m.ClientContent)
				assert.Nil(t, m.ClientContent.Turns)
				assert.True(t, m.ClientContent.TurnComplete)
			},
		},
		{
			name:  "empty slice is end of turn",
			input: []any{},
			check: func(t *testing.T, m *ClientMessage) {
				assert.True(t, m.endOfTurnOnly())
			},
		},
		{
			name:      "string becomes one text turn",
			input:     "hi",
			endOfTurn: true,
			check: func(t *testing.T, m *ClientMessage) {
				require.NotNil(t, m.ClientContent)
				require.Len(t, m.ClientContent.Turns, 1)
				assert.Equal(t, gemkit.RoleUser, m.ClientContent.Turns[0].Role)
				assert.Equal(t, "hi", m.ClientContent.Turns[0].Text())
				assert.True(t, m.ClientContent.TurnComplete)
			},
		},
		{
			name:  "strings join into one multi-part turn",
			input: []string{"a", "b"},
			check: func(t *testing.T, m *ClientMessage) {
				require.Len(t, m.ClientContent.Turns, 1)
				assert.Len(t, m.ClientContent.Turns[0].Parts, 2)
				assert.False(t, m.ClientContent.TurnComplete)
			},
		},
		{
			name:  "blob is realtime input",
			input: &gemkit.Blob{Data: []byte{1, 2}, MIMEType: "audio/pcm"},
			check: func(t *testing.T, m *ClientMessage) {
				require.NotNil(t, m.RealtimeInput)
				assert.Equal(t, []byte{1, 2}, m.RealtimeInput.MediaChunks[0].Data)
			},
		},
		{
			name:  "blob mapping is realtime input",
			input: map[string]any{"data": []byte("x"), "mime_type": "image/png"},
			check: func(t *testing.T, m *ClientMessage) {
				require.NotNil(t, m.RealtimeInput)
				assert.Equal(t, "image/png", m.RealtimeInput.MediaChunks[0].MIMEType)
			},
		},
		{
			name:    "tool response mapping without id under Gemini API",
			p:       transform.GeminiAPI(),
			input:   map[string]any{"name": "f", "response": map[string]any{"ok": true}},
			wantErr: gemkit.ErrFunctionResponseRequiresID,
		},
		{
			name:    "tool response mapping without id under Vertex AI",
			p:       transform.VertexAI("p", "l"),
			input:   map[string]any{"name": "f", "response": map[string]any{"ok": true}},
			check: func(t *testing.T, m *ClientMessage) {
				require.NotNil(t, m.ToolResponse)
				assert.Equal(t, "f", m.ToolResponse.FunctionResponses[0].Name)
			},
		},
		{
			name:    "tool response mapping without id under Vertex AI express mode",
			p:       transform.VertexAIExpress(),
			input:   &gemkit.FunctionResponse{Name: "f"},
			check: func(t *testing.T, m *ClientMessage) {
				require.NotNil(t, m.ToolResponse)
				assert.Empty(t, m.ToolResponse.FunctionResponses[0].ID)
			},
		},
		{
			name:    "tool response with id under Gemini API",
			p:       transform.GeminiAPI(),
			input:   &gemkit.FunctionResponse{ID: "1", Name: "f"},
			check: func(t *testing.T, m *ClientMessage) {
				require.NotNil(t, m.ToolResponse)
				assert.Equal(t, "1", m.ToolResponse.FunctionResponses[0].ID)
			},
		},
		{
			name:    "any tool response element makes the batch a tool response",
			p:       transform.VertexAI("p", "l"),
			input:   []any{map[string]any{"name": "f", "response": map[string]any{}}, "text"},
			wantErr: gemkit.ErrAmbiguousInput,
		},
		{
			name:    "strings with a blob are ambiguous",
			input:   []any{"text", &gemkit.Blob{Data: []byte{1}}},
			wantErr: gemkit.ErrAmbiguousInput,
		},
		{
			name:  "strings and parts form client content",
			input: []any{"text", gemkit.NewTextPart("more")},
			check: func(t *testing.T, m *ClientMessage) {
				require.NotNil(t, m.ClientContent)
				assert.Equal(t, "textmore", m.ClientContent.Turns[0].Text())
			},
		},
		{
			name:  "blobs form realtime input",
			input: []any{&gemkit.Blob{Data: []byte{1}}, gemkit.Blob{Data: []byte{2}}},
			check: func(t *testing.T, m *ClientMessage) {
				require.NotNil(t, m.RealtimeInput)
				assert.Len(t, m.RealtimeInput.MediaChunks, 2)
			},
		},
		{
			name:    "blobs with a number are ambiguous",
			input:   []any{&gemkit.Blob{Data: []byte{1}}, 7},
			wantErr: gemkit.ErrAmbiguousInput,
		},
		{
			name:    "numbers are unsupported",
			input:   []any{1, 2},
			wantErr: gemkit.ErrUnsupportedInput,
		},
		{
			name:    "unsupported scalar",
			input:   42,
			wantErr: gemkit.ErrUnsupportedInput,
		},
		{
			name: "turns mapping",
			input: map[string]any{
				"turns":         []any{map[string]any{"role": "user", "parts": []any{map[string]any{"text": "x"}}}},
				"turn_complete": true,
			},
			check: func(t *testing.T, m *ClientMessage) {
				require.NotNil(t, m.ClientContent)
				assert.Equal(t, "x", m.ClientContent.Turns[0].Text())
				assert.True(t, m.ClientContent.TurnComplete)
			},
		},
		{
			name:  "media chunks mapping",
			input: map[string]any{"media_chunks": []any{map[string]any{"data": "AQI=", "mimeType": "audio/pcm"}}},
			check: func(t *testing.T, m *ClientMessage) {
				require.NotNil(t, m.RealtimeInput)
				assert.Equal(t, []byte{1, 2}, m.RealtimeInput.MediaChunks[0].Data)
			},
		},
		{
			name:    "function responses mapping checks ids",
			p:       transform.GeminiAPI(),
			input:   map[string]any{"function_responses": []any{map[string]any{"name": "f", "response": map[string]any{}}}},
			wantErr: gemkit.ErrFunctionResponseRequiresID,
		},
		{
			name:  "typed client content passes through",
			input: &ClientContent{TurnComplete: true},
			check: func(t *testing.T, m *ClientMessage) {
				assert.True(t, m.ClientContent.TurnComplete)
			},
		},
		{
			name:    "typed tool response checks ids",
			p:       transform.GeminiAPI(),
			input:   &ToolResponse{FunctionResponses: []*gemkit.FunctionResponse{{Name: "f"}}},
			wantErr: gemkit.ErrFunctionResponseRequiresID,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := tt.p
			if p == nil {
				p = transform.GeminiAPI()
			}
			m, err := ParseClientMessage(p, tt.input, tt.endOfTurn)
			if tt.wantErr != nil {
				require.Error(t, err)
				assert.ErrorIs(t, err, tt.wantErr)
				var le *gemkit.LiveError
				assert.ErrorAs(t, err, &le)
				return
			}
			require.NoError(t, err)
			tt.check(t, m)
		})
	}
}

func TestClientMessageWire(t *testing.T) {
	m, err := ParseClientMessage(transform.GeminiAPI(), "hi", true)
	require.NoError(t, err)

	data, err := json.Marshal(m.wire(transform.GeminiAPI()))
	require.NoError(t, err)
	assert.JSONEq(t, `{"client_content":{"turns":[{"role":"user","parts":[{"text":"hi"}]}],"turn_complete":true}}`, string(data))

	eot, err := ParseClientMessage(transform.GeminiAPI(), nil, false)
	require.NoError(t, err)
	data, err = json.Marshal(eot.wire(transform.GeminiAPI()))
	require.NoError(t, err)
	assert.JSONEq(t, `{"client_content":{"turn_complete":true}}`, string(data))

	rt := realtime(&gemkit.Blob{Data: []byte{0xfb, 0xff}, MIMEType: "audio/pcm"})
	data, err = json.Marshal(rt.wire(transform.GeminiAPI()))
	require.NoError(t, err)
	assert.JSONEq(t, `{"realtime_input":{"media_chunks":[{"data":"-_8=","mimeType":"audio/pcm"}]}}`, string(data))

	data, err = json.Marshal(rt.wire(transform.VertexAI("p", "l")))
	require.NoError(t, err)
	assert.JSONEq(t, `{"realtime_input":{"media_chunks":[{"data":"+/8=","mimeType":"audio/pcm"}]}}`, string(data))
}

func TestDecodeServerMessage(t *testing.T) {
	t.Run("gemini content", func(t *testing.T) {
		frame := `{"serverContent":{"modelTurn":{"role":"model","parts":[{"text":"hel"},{"text":"lo"}]},"turnComplete":true}}`
		msg, err := decodeServerMessage(geminiFields, []byte(frame))
		require.NoError(t, err)
		assert.True(t, msg.TurnComplete())
		assert.Equal(t, "hello", msg.Text())
	})

	t.Run("gemini drops transcriptions", func(t *testing.T) {
		frame := `{"serverContent":{"inputTranscription":{"text":"hi"}}}`
		msg, err := decodeServerMessage(geminiFields, []byte(frame))
		require.NoError(t, err)
		assert.Nil(t, msg.ServerContent)
	})

	t.Run("vertex keeps transcriptions", func(t *testing.T) {
		frame := `{"serverContent":{"inputTranscription":{"text":"hi"},"outputTranscription":{"text":"yo","finished":true}}}`
		msg, err := decodeServerMessage(vertexFields, []byte(frame))
		require.NoError(t, err)
		require.NotNil(t, msg.ServerContent)
		assert.Equal(t, "hi", msg.ServerContent.InputTranscription.Text)
		assert.True(t, msg.ServerContent.OutputTranscription.Finished)
	})

	t.Run("tool call and cancellation", func(t *testing.T) {
		frame := `{"toolCall":{"functionCalls":[{"id":"c1","name":"f","args":{"x":1}}]},"toolCallCancellation":{"ids":["c0"]}}`
		msg, err := decodeServerMessage(geminiFields, []byte(frame))
		require.NoError(t, err)
		require.NotNil(t, msg.ToolCall)
		assert.Equal(t, "c1", msg.ToolCall.FunctionCalls[0].ID)
		assert.Equal(t, []string{"c0"}, msg.ToolCallCancellation.IDs)
	})

	t.Run("inline data", func(t *testing.T) {
		frame := `{"serverContent":{"modelTurn":{"parts":[{"inlineData":{"data":"AQI=","mimeType":"audio/pcm"}}]}}}`
		msg, err := decodeServerMessage(geminiFields, []byte(frame))
		require.NoError(t, err)
		assert.Equal(t, []byte{1, 2}, msg.Data())
	})

	t.Run("empty frame", func(t *testing.T) {
		msg, err := decodeServerMessage(geminiFields, nil)
		require.NoError(t, err)
		assert.Equal(t, &ServerMessage{}, msg)
	})

	t.Run("invalid json", func(t *testing.T) {
		_, err := decodeServerMessage(geminiFields, []byte("{nope"))
		var le *gemkit.LiveError
		require.ErrorAs(t, err, &le)
		assert.Contains(t, le.Error(), "failed to parse response")
	})
}
