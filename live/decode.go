package live

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/spetersoncode/gemkit"
	"github.com/tidwall/gjson"
	"github.com/tidwall/sjson"
)

// rename moves the value at one frame path to a ServerMessage path.
type rename struct {
	from, to string
}

var geminiFields = []rename{
	{"serverContent.modelTurn", "server_content.model_turn"},
	{"serverContent.turnComplete", "server_content.turn_complete"},
	{"serverContent.interrupted", "server_content.interrupted"},
	{"serverContent.generationComplete", "server_content.generation_complete"},
	{"toolCall.functionCalls", "tool_call.function_calls"},
	{"toolCallCancellation", "tool_call_cancellation"},
}

// Vertex AI also reports audio transcriptions.
var vertexFields = append(append([]rename(nil), geminiFields...),
	rename{"serverContent.inputTranscription", "server_content.input_transcription"},
	rename{"serverContent.outputTranscription", "server_content.output_transcription"},
)

func fieldsFor(backend gemkit.Backend) []rename {
	if backend.IsVertex() {
		return vertexFields
	}
	return geminiFields
}

// decodeServerMessage maps a frame through table. Fields not in the table
// are dropped. Frames already using the snake_case names decode unchanged.
func decodeServerMessage(table []rename, frame []byte) (*ServerMessage, error) {
	if len(bytes.TrimSpace(frame)) == 0 {
		return &ServerMessage{}, nil
	}
	if !gjson.ValidBytes(frame) {
		return nil, &gemkit.LiveError{Msg: fmt.Sprintf("failed to parse response: %q", truncate(frame, 200))}
	}

	out := []byte("{}")
	for _, r := range table {
		v := gjson.GetBytes(frame, r.from)
		if !v.Exists() {
			v = gjson.GetBytes(frame, r.to)
		}
		if !v.Exists() || v.Type == gjson.Null {
			continue
		}
		var err error
		if out, err = sjson.SetRawBytes(out, r.to, []byte(v.Raw)); err != nil {
			return nil, &gemkit.LiveError{Msg: "rename " + r.from, Cause: err}
		}
	}

	msg := &ServerMessage{}
	if err := json.Unmarshal(out, msg); err != nil {
		return nil, &gemkit.LiveError{Msg: "decode server message", Cause: err}
	}
	return msg, nil
}

// isSetupComplete reports whether frame acknowledges the setup message.
func isSetupComplete(frame []byte) bool {
	return gjson.GetBytes(frame, "setupComplete").Exists() ||
		gjson.GetBytes(frame, "setup_complete").Exists()
}

func truncate(b []byte, n int) []byte {
	if len(b) <= n {
		return b
	}
	return b[:n]
}
