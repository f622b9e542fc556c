package live

import (
	"encoding/json"
	"fmt"

	"github.com/spetersoncode/gemkit"
	"github.com/spetersoncode/gemkit/transform"
)

// ClientContent appends turns to the conversation. Turns sent this way are
// kept in the order they were sent.
type ClientContent struct {
	Turns        []*gemkit.Content
	TurnComplete bool
}

// RealtimeInput carries media chunks. Ordering against client content is
// not guaranteed.
type RealtimeInput struct {
	MediaChunks []*gemkit.Blob
}

// ToolResponse answers the function calls of a tool call message.
type ToolResponse struct {
	FunctionResponses []*gemkit.FunctionResponse
}

// ClientMessage is one outbound frame. Exactly one field is set.
type ClientMessage struct {
	ClientContent *ClientContent
	RealtimeInput *RealtimeInput
	ToolResponse  *ToolResponse
}

// wire renders m as the JSON frame body.
func (m *ClientMessage) wire(p transform.Personality) map[string]any {
	switch {
	case m.ClientContent != nil:
		body := map[string]any{"turn_complete": m.ClientContent.TurnComplete}
		if m.ClientContent.Turns != nil {
			body["turns"] = transform.ContentsToWire(p, m.ClientContent.Turns)
		}
		return map[string]any{"client_content": body}
	case m.RealtimeInput != nil:
		chunks := make([]any, 0, len(m.RealtimeInput.MediaChunks))
		for _, b := range m.RealtimeInput.MediaChunks {
			chunks = append(chunks, transform.BlobToWire(p, b))
		}
		return map[string]any{"realtime_input": map[string]any{"media_chunks": chunks}}
	case m.ToolResponse != nil:
		responses := make([]any, 0, len(m.ToolResponse.FunctionResponses))
		for _, fr := range m.ToolResponse.FunctionResponses {
			responses = append(responses, transform.FunctionResponseToWire(fr))
		}
		return map[string]any{"tool_response": map[string]any{"function_responses": responses}}
	}
	return map[string]any{}
}

// endOfTurnOnly reports whether m is the bare end-of-turn marker.
func (m *ClientMessage) endOfTurnOnly() bool {
	return m.ClientContent != nil && m.ClientContent.Turns == nil && m.ClientContent.TurnComplete
}

// ServerMessage is one decoded inbound frame. At most one field is set.
type ServerMessage struct {
	ServerContent        *ServerContent        `json:"server_content,omitempty"`
	ToolCall             *ToolCall             `json:"tool_call,omitempty"`
	ToolCallCancellation *ToolCallCancellation `json:"tool_call_cancellation,omitempty"`
}

// ServerContent is incremental model output.
type ServerContent struct {
	ModelTurn           *gemkit.Content `json:"model_turn,omitempty"`
	TurnComplete        bool            `json:"turn_complete,omitempty"`
	Interrupted         bool            `json:"interrupted,omitempty"`
	GenerationComplete  bool            `json:"generation_complete,omitempty"`
	InputTranscription  *Transcription  `json:"input_transcription,omitempty"`
	OutputTranscription *Transcription  `json:"output_transcription,omitempty"`
}

// Transcription is speech recognized from the input or output audio.
type Transcription struct {
	Text     string `json:"text,omitempty"`
	Finished bool   `json:"finished,omitempty"`
}

// ToolCall asks the client to run functions and reply with a ToolResponse.
type ToolCall struct {
	FunctionCalls []*gemkit.FunctionCall `json:"function_calls,omitempty"`
}

// ToolCallCancellation withdraws previously issued calls.
type ToolCallCancellation struct {
	IDs []string `json:"ids,omitempty"`
}

// TurnComplete reports whether m ends the model's turn.
func (m *ServerMessage) TurnComplete() bool {
	return m != nil && m.ServerContent != nil && m.ServerContent.TurnComplete
}

// Text concatenates the text parts of the model turn.
func (m *ServerMessage) Text() string {
	if m == nil || m.ServerContent == nil {
		return ""
	}
	return m.ServerContent.ModelTurn.Text()
}

// Data concatenates the inline media of the model turn.
func (m *ServerMessage) Data() []byte {
	if m == nil || m.ServerContent == nil || m.ServerContent.ModelTurn == nil {
		return nil
	}
	var out []byte
	for _, p := range m.ServerContent.ModelTurn.Parts {
		if p != nil && p.InlineData != nil {
			out = append(out, p.InlineData.Data...)
		}
	}
	return out
}

// ParseClientMessage turns a caller payload into a frame. Inputs are matched
// in this order:
//
//   - nil, "" or an empty slice: the end-of-turn marker.
//   - string: one user text turn.
//   - Blob or a map with "data": realtime media.
//   - FunctionResponse or a map with "name" and "response": a tool response.
//   - []any: a tool response if any element is one (all must be), else
//     client content if any element is a string (all must be parts), else
//     realtime media (all must be blobs).
//   - []string, []*Blob, []*FunctionResponse.
//   - *ClientContent, *RealtimeInput, *ToolResponse as given.
//   - a map with "turns" or "content", "media_chunks" or "function_responses".
//
// Tool responses without an id are rejected when p requires call ids.
func ParseClientMessage(p transform.Personality, input any, endOfTurn bool) (*ClientMessage, error) {
	if isEmptyInput(input) {
		return &ClientMessage{ClientContent: &ClientContent{TurnComplete: true}}, nil
	}

	switch x := input.(type) {
	case string:
		return textContent([]string{x}, endOfTurn), nil
	case *gemkit.Blob, gemkit.Blob:
		b, ok := blobOf(x)
		if !ok {
			return nil, unsupported(input)
		}
		return realtime(b), nil
	case *gemkit.FunctionResponse, gemkit.FunctionResponse:
		fr, _ := functionResponseOf(x)
		return toolResponse(p, fr)
	case []string:
		return textContent(x, endOfTurn), nil
	case []*gemkit.Blob:
		return realtime(x...), nil
	case []*gemkit.FunctionResponse:
		return toolResponse(p, x...)
	case []gemkit.FunctionResponse:
		frs := make([]*gemkit.FunctionResponse, len(x))
		for i := range x {
			frs[i] = &x[i]
		}
		return toolResponse(p, frs...)
	case []any:
		return parseSlice(p, x, endOfTurn)
	case *ClientContent:
		return &ClientMessage{ClientContent: x}, nil
	case *RealtimeInput:
		return &ClientMessage{RealtimeInput: x}, nil
	case *ToolResponse:
		return toolResponse(p, x.FunctionResponses...)
	case map[string]any:
		return parseMap(p, x)
	}
	return nil, unsupported(input)
}

func isEmptyInput(input any) bool {
	switch x := input.(type) {
	case nil:
		return true
	case string:
		return x == ""
	case []any:
		return len(x) == 0
	case []string:
		return len(x) == 0
	case []*gemkit.Blob:
		return len(x) == 0
	case []*gemkit.FunctionResponse:
		return len(x) == 0
	case []gemkit.FunctionResponse:
		return len(x) == 0
	case map[string]any:
		return len(x) == 0
	}
	return false
}

func parseSlice(p transform.Personality, items []any, endOfTurn bool) (*ClientMessage, error) {
	var hasTool, hasString, hasBlob bool
	for _, item := range items {
		switch {
		case isToolResponseShaped(item):
			hasTool = true
		case isString(item):
			hasString = true
		case isBlobShaped(item):
			hasBlob = true
		}
	}

	switch {
	case hasTool:
		frs := make([]*gemkit.FunctionResponse, 0, len(items))
		for _, item := range items {
			fr, ok := functionResponseOf(item)
			if !ok {
				return nil, ambiguous(item, "tool response")
			}
			frs = append(frs, fr)
		}
		return toolResponse(p, frs...)
	case hasString:
		parts := make([]*gemkit.Part, 0, len(items))
		for _, item := range items {
			if isBlobShaped(item) {
				return nil, ambiguous(item, "client content")
			}
			part, err := transform.Part(item)
			if err != nil {
				return nil, ambiguous(item, "client content")
			}
			parts = append(parts, part)
		}
		return &ClientMessage{ClientContent: &ClientContent{
			Turns:        []*gemkit.Content{gemkit.NewUserContent(parts...)},
			TurnComplete: endOfTurn,
		}}, nil
	case hasBlob:
		blobs := make([]*gemkit.Blob, 0, len(items))
		for _, item := range items {
			b, ok := blobOf(item)
			if !ok {
				return nil, ambiguous(item, "realtime input")
			}
			blobs = append(blobs, b)
		}
		return realtime(blobs...), nil
	}
	return nil, unsupported(items)
}

func parseMap(p transform.Personality, m map[string]any) (*ClientMessage, error) {
	if b, ok := blobOf(m); ok {
		return realtime(b), nil
	}
	if fr, ok := functionResponseOf(m); ok {
		return toolResponse(p, fr)
	}

	turns, hasTurns := m["turns"]
	if !hasTurns {
		turns, hasTurns = m["content"]
	}
	if hasTurns {
		contents, err := contentsStrict(turns)
		if err != nil {
			return nil, err
		}
		complete, _ := m["turn_complete"].(bool)
		return &ClientMessage{ClientContent: &ClientContent{Turns: contents, TurnComplete: complete}}, nil
	}

	if chunks, ok := m["media_chunks"].([]any); ok {
		blobs := make([]*gemkit.Blob, 0, len(chunks))
		for _, c := range chunks {
			b, ok := blobOf(c)
			if !ok {
				return nil, unsupported(m)
			}
			blobs = append(blobs, b)
		}
		return realtime(blobs...), nil
	}

	if responses, ok := m["function_responses"].([]any); ok {
		frs := make([]*gemkit.FunctionResponse, 0, len(responses))
		for _, r := range responses {
			fr, ok := functionResponseOf(r)
			if !ok {
				return nil, unsupported(m)
			}
			frs = append(frs, fr)
		}
		return toolResponse(p, frs...)
	}
	return nil, unsupported(m)
}

func textContent(texts []string, endOfTurn bool) *ClientMessage {
	parts := make([]*gemkit.Part, 0, len(texts))
	for _, t := range texts {
		parts = append(parts, gemkit.NewTextPart(t))
	}
	return &ClientMessage{ClientContent: &ClientContent{
		Turns:        []*gemkit.Content{gemkit.NewUserContent(parts...)},
		TurnComplete: endOfTurn,
	}}
}

func realtime(blobs ...*gemkit.Blob) *ClientMessage {
	return &ClientMessage{RealtimeInput: &RealtimeInput{MediaChunks: blobs}}
}

func toolResponse(p transform.Personality, frs ...*gemkit.FunctionResponse) (*ClientMessage, error) {
	if len(frs) == 0 {
		return nil, &gemkit.LiveError{Msg: "a tool response is required", Cause: gemkit.ErrUnsupportedInput}
	}
	for _, fr := range frs {
		if fr == nil {
			return nil, &gemkit.LiveError{Msg: "nil function response", Cause: gemkit.ErrUnsupportedInput}
		}
		if p.RequiresCallIDs() && fr.ID == "" {
			return nil, &gemkit.LiveError{Msg: fmt.Sprintf("function response %q", fr.Name), Cause: gemkit.ErrFunctionResponseRequiresID}
		}
	}
	return &ClientMessage{ToolResponse: &ToolResponse{FunctionResponses: frs}}, nil
}

func isString(v any) bool {
	_, ok := v.(string)
	return ok
}

func isToolResponseShaped(v any) bool {
	switch x := v.(type) {
	case *gemkit.FunctionResponse, gemkit.FunctionResponse:
		return true
	case map[string]any:
		_, name := x["name"]
		_, resp := x["response"]
		return name && resp
	}
	return false
}

func isBlobShaped(v any) bool {
	switch x := v.(type) {
	case *gemkit.Blob, gemkit.Blob:
		return true
	case map[string]any:
		_, ok := x["data"]
		return ok
	}
	return false
}

func blobOf(v any) (*gemkit.Blob, bool) {
	switch x := v.(type) {
	case *gemkit.Blob:
		return x, x != nil
	case gemkit.Blob:
		return &x, true
	case map[string]any:
		raw, ok := x["data"]
		if !ok {
			return nil, false
		}
		b := &gemkit.Blob{}
		if mt, ok := x["mime_type"].(string); ok {
			b.MIMEType = mt
		} else if mt, ok := x["mimeType"].(string); ok {
			b.MIMEType = mt
		}
		switch d := raw.(type) {
		case []byte:
			b.Data = d
		case string:
			data, err := gemkit.DecodeBase64(d)
			if err != nil {
				return nil, false
			}
			b.Data = data
		default:
			return nil, false
		}
		return b, true
	}
	return nil, false
}

func functionResponseOf(v any) (*gemkit.FunctionResponse, bool) {
	switch x := v.(type) {
	case *gemkit.FunctionResponse:
		return x, x != nil
	case gemkit.FunctionResponse:
		return &x, true
	case map[string]any:
		if !isToolResponseShaped(x) {
			return nil, false
		}
		fr := &gemkit.FunctionResponse{}
		if err := remarshal(x, fr); err != nil {
			return nil, false
		}
		return fr, true
	}
	return nil, false
}

// contentsStrict accepts only contents or content-shaped maps.
func contentsStrict(v any) ([]*gemkit.Content, error) {
	one := func(item any) (*gemkit.Content, error) {
		switch x := item.(type) {
		case *gemkit.Content:
			if x != nil {
				return x, nil
			}
		case gemkit.Content:
			return &x, nil
		case map[string]any:
			c := &gemkit.Content{}
			if err := remarshal(x, c); err == nil {
				return c, nil
			}
		}
		return nil, &gemkit.ValueError{Field: "turns", Value: fmt.Sprintf("%T", item), Msg: "could not convert input to Content"}
	}

	switch x := v.(type) {
	case []*gemkit.Content:
		return x, nil
	case []any:
		out := make([]*gemkit.Content, 0, len(x))
		for _, item := range x {
			c, err := one(item)
			if err != nil {
				return nil, err
			}
			out = append(out, c)
		}
		return out, nil
	}
	c, err := one(v)
	if err != nil {
		return nil, err
	}
	return []*gemkit.Content{c}, nil
}

func remarshal(in, out any) error {
	data, err := json.Marshal(in)
	if err != nil {
		return err
	}
	return json.Unmarshal(data, out)
}

func unsupported(v any) error {
	return &gemkit.LiveError{Msg: fmt.Sprintf("input of type %T", v), Cause: gemkit.ErrUnsupportedInput}
}

func ambiguous(item any, kind string) error {
	return &gemkit.LiveError{Msg: fmt.Sprintf("%T element in %s batch", item, kind), Cause: gemkit.ErrAmbiguousInput}
}
