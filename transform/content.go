package transform

import (
	"github.com/spetersoncode/gemkit"
)

// Part normalizes one part input: a string, a part, a blob, an uploaded
// file, a function call or a function response.
func Part(v any) (*gemkit.Part, error) {
	switch x := v.(type) {
	case nil:
		return nil, &gemkit.ValueError{Field: "content part", Msg: "content part is required."}
	case string:
		if x == "" {
			return nil, &gemkit.ValueError{Field: "content part", Msg: "content part is required."}
		}
		return gemkit.NewTextPart(x), nil
	case *gemkit.Part:
		if x == nil {
			return nil, &gemkit.ValueError{Field: "content part", Msg: "content part is required."}
		}
		return x, nil
	case gemkit.Part:
		return &x, nil
	case *gemkit.Blob:
		return &gemkit.Part{InlineData: x}, nil
	case gemkit.Blob:
		return &gemkit.Part{InlineData: &x}, nil
	case *gemkit.File:
		return filePart(x)
	case gemkit.File:
		return filePart(&x)
	case *gemkit.FunctionCall:
		return &gemkit.Part{FunctionCall: x}, nil
	case *gemkit.FunctionResponse:
		return &gemkit.Part{FunctionResponse: x}, nil
	}
	return nil, &gemkit.ValueError{Field: "content part", Value: describe(v), Msg: "unsupported part type"}
}

func filePart(f *gemkit.File) (*gemkit.Part, error) {
	if f == nil || f.URI == "" || f.MIMEType == "" {
		return nil, &gemkit.ValueError{Field: "file part", Msg: "file uri and mime_type are required."}
	}
	return &gemkit.Part{FileData: &gemkit.FileData{FileURI: f.URI, MIMEType: f.MIMEType}}, nil
}

// Parts normalizes a single part input or a slice of them.
func Parts(v any) ([]*gemkit.Part, error) {
	switch x := v.(type) {
	case nil:
		return nil, &gemkit.ValueError{Field: "content parts", Msg: "content parts are required."}
	case []*gemkit.Part:
		return x, nil
	case []string:
		return mapSlice(x, func(s string) (*gemkit.Part, error) { return Part(s) })
	case []any:
		return mapSlice(x, Part)
	}
	p, err := Part(v)
	if err != nil {
		return nil, err
	}
	return []*gemkit.Part{p}, nil
}

// ContentOf normalizes a content input. Anything that is not already a
// Content becomes a user turn of its parts.
func ContentOf(v any) (*gemkit.Content, error) {
	switch x := v.(type) {
	case nil:
		return nil, &gemkit.ValueError{Field: "content", Msg: "content is required."}
	case *gemkit.Content:
		if x == nil {
			return nil, &gemkit.ValueError{Field: "content", Msg: "content is required."}
		}
		return x, nil
	case gemkit.Content:
		return &x, nil
	}
	parts, err := Parts(v)
	if err != nil {
		return nil, err
	}
	return gemkit.NewUserContent(parts...), nil
}

// Contents normalizes a conversation: a single content input or a slice
// whose elements are each a content input.
func Contents(v any) ([]*gemkit.Content, error) {
	switch x := v.(type) {
	case nil:
		return nil, &gemkit.ValueError{Field: "contents", Msg: "contents are required."}
	case []*gemkit.Content:
		if len(x) == 0 {
			return nil, &gemkit.ValueError{Field: "contents", Msg: "contents are required."}
		}
		return x, nil
	case []any:
		if len(x) == 0 {
			return nil, &gemkit.ValueError{Field: "contents", Msg: "contents are required."}
		}
		return mapSlice(x, ContentOf)
	case []string:
		if len(x) == 0 {
			return nil, &gemkit.ValueError{Field: "contents", Msg: "contents are required."}
		}
		return mapSlice(x, func(s string) (*gemkit.Content, error) { return ContentOf(s) })
	}
	c, err := ContentOf(v)
	if err != nil {
		return nil, err
	}
	return []*gemkit.Content{c}, nil
}

func mapSlice[S, T any](in []S, fn func(S) (T, error)) ([]T, error) {
	out := make([]T, 0, len(in))
	for _, v := range in {
		t, err := fn(v)
		if err != nil {
			return nil, err
		}
		out = append(out, t)
	}
	return out, nil
}

// ContentToWire renders c as the JSON object the backend expects.
func ContentToWire(p Personality, c *gemkit.Content) map[string]any { return p.Content(c) }

// ContentsToWire renders a conversation.
func ContentsToWire(p Personality, cs []*gemkit.Content) []any {
	out := make([]any, 0, len(cs))
	for _, c := range cs {
		if c != nil {
			out = append(out, p.Content(c))
		}
	}
	return out
}

// renderContent backs both personalities' Content. keepIDs controls whether
// function call and response ids are sent inside contents.
func renderContent(p Personality, c *gemkit.Content, keepIDs bool) map[string]any {
	out := map[string]any{}
	if c.Role != "" {
		out["role"] = c.Role
	}
	parts := make([]any, 0, len(c.Parts))
	for _, part := range c.Parts {
		if part != nil {
			parts = append(parts, renderPart(p, part, keepIDs))
		}
	}
	out["parts"] = parts
	return out
}

func renderPart(p Personality, part *gemkit.Part, keepIDs bool) map[string]any {
	out := map[string]any{}
	if part.Text != "" {
		out["text"] = part.Text
	}
	if part.Thought {
		out["thought"] = true
	}
	if part.InlineData != nil {
		out["inlineData"] = BlobToWire(p, part.InlineData)
	}
	if fd := part.FileData; fd != nil {
		out["fileData"] = map[string]any{"fileUri": fd.FileURI, "mimeType": fd.MIMEType}
	}
	if fc := part.FunctionCall; fc != nil {
		call := map[string]any{"name": fc.Name}
		if fc.Args != nil {
			call["args"] = fc.Args
		}
		if fc.ID != "" && keepIDs {
			call["id"] = fc.ID
		}
		out["functionCall"] = call
	}
	if fr := part.FunctionResponse; fr != nil {
		resp := FunctionResponseToWire(fr)
		if !keepIDs {
			delete(resp, "id")
		}
		out["functionResponse"] = resp
	}
	return out
}

// BlobToWire renders inline media.
func BlobToWire(p Personality, b *gemkit.Blob) map[string]any {
	out := map[string]any{"data": p.Bytes(b.Data)}
	if b.MIMEType != "" {
		out["mimeType"] = b.MIMEType
	}
	return out
}

// FunctionResponseToWire renders a tool result, keeping its id when set.
func FunctionResponseToWire(fr *gemkit.FunctionResponse) map[string]any {
	out := map[string]any{"name": fr.Name}
	if fr.ID != "" {
		out["id"] = fr.ID
	}
	resp := fr.Response
	if resp == nil {
		resp = map[string]any{}
	}
	out["response"] = resp
	return out
}
