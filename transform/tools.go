package transform

import (
	"github.com/spetersoncode/gemkit"
)

// FunctionDeclaration describes a function the model may call.
type FunctionDeclaration struct {
	Name        string         `json:"name"`
	Description string         `json:"description,omitempty"`
	Parameters  map[string]any `json:"parameters,omitempty"`
}

// DeclareFunction builds a declaration whose parameters are the reflected
// schema of Args.
func DeclareFunction[Args any](p Personality, name, description string) (*FunctionDeclaration, error) {
	params, err := SchemaFor[Args](p)
	if err != nil {
		return nil, err
	}
	return &FunctionDeclaration{Name: name, Description: description, Parameters: params}, nil
}

// Tools renders a tool list. Function declarations are merged into a single
// tool, placed last; other tools (maps such as {"googleSearch": {}}) pass
// through in order.
func Tools(p Personality, tools ...any) ([]any, error) {
	var (
		out   []any
		decls []any
	)
	for _, t := range tools {
		switch x := t.(type) {
		case nil:
		case *FunctionDeclaration:
			d, err := declarationToWire(p, x)
			if err != nil {
				return nil, err
			}
			decls = append(decls, d)
		case map[string]any:
			out = append(out, x)
		default:
			return nil, &gemkit.ValueError{Field: "tool", Value: describe(t), Msg: "unsupported tool type"}
		}
	}
	if len(decls) > 0 {
		out = append(out, map[string]any{"functionDeclarations": decls})
	}
	return out, nil
}

func declarationToWire(p Personality, d *FunctionDeclaration) (map[string]any, error) {
	out := map[string]any{"name": d.Name}
	if d.Description != "" {
		out["description"] = d.Description
	}
	if d.Parameters != nil {
		params, err := Schema(p, d.Parameters)
		if err != nil {
			return nil, err
		}
		out["parameters"] = params
	}
	return out, nil
}

// SpeechConfig accepts a prebuilt voice name or a speech config map in
// either snake or camel case and returns the wire form.
func SpeechConfig(v any) (map[string]any, error) {
	switch x := v.(type) {
	case nil:
		return nil, nil
	case string:
		if x == "" {
			return nil, nil
		}
		return voice(x), nil
	case map[string]any:
		vc := firstMap(x, "voice_config", "voiceConfig")
		pvc := firstMap(vc, "prebuilt_voice_config", "prebuiltVoiceConfig")
		if pvc != nil {
			name, _ := pvc["voice_name"].(string)
			if name == "" {
				name, _ = pvc["voiceName"].(string)
			}
			return voice(name), nil
		}
	}
	return nil, &gemkit.ValueError{Field: "speech config", Value: describe(v), Msg: "Unsupported speechConfig type"}
}

func voice(name string) map[string]any {
	return map[string]any{"voiceConfig": map[string]any{"prebuiltVoiceConfig": map[string]any{"voiceName": name}}}
}

func firstMap(m map[string]any, keys ...string) map[string]any {
	for _, k := range keys {
		if v, ok := m[k].(map[string]any); ok {
			return v
		}
	}
	return nil
}
