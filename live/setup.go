package live

import (
	"fmt"
	"maps"
	"net/url"
	"strings"

	"github.com/spetersoncode/gemkit"
	"github.com/spetersoncode/gemkit/transform"
)

// ConnectConfig configures a session. Unset fields are left to the backend.
type ConnectConfig struct {
	// GenerationConfig is passed through; the typed fields below override it.
	GenerationConfig   map[string]any
	ResponseModalities []string
	Temperature        *float64
	TopP               *float64
	TopK               *float64
	MaxOutputTokens    *int
	Seed               *int

	// SystemInstruction is any content input: a string, parts or a Content.
	SystemInstruction any
	// SpeechConfig is a prebuilt voice name or a speech config map.
	SpeechConfig any
	// Tools are *transform.FunctionDeclaration values or raw tool maps.
	Tools      []any
	ToolConfig map[string]any

	// Vertex AI with project credentials only; ignored otherwise.
	InputAudioTranscription  map[string]any
	OutputAudioTranscription map[string]any
}

// setupMessage builds the {"setup": {...}} handshake frame.
func setupMessage(p transform.Personality, model string, cfg *ConnectConfig) (map[string]any, error) {
	name, err := p.Model(model)
	if err != nil {
		return nil, err
	}
	if strings.HasPrefix(name, "publishers/") {
		name = p.Qualify(name)
	}
	setup := map[string]any{"model": name}
	if cfg == nil {
		return map[string]any{"setup": setup}, nil
	}

	gen := maps.Clone(cfg.GenerationConfig)
	if gen == nil {
		gen = map[string]any{}
	}
	if cfg.ResponseModalities != nil {
		gen["responseModalities"] = cfg.ResponseModalities
	}
	if cfg.Temperature != nil {
		gen["temperature"] = *cfg.Temperature
	}
	if cfg.TopP != nil {
		gen["topP"] = *cfg.TopP
	}
	if cfg.TopK != nil {
		gen["topK"] = *cfg.TopK
	}
	if cfg.MaxOutputTokens != nil {
		gen["maxOutputTokens"] = *cfg.MaxOutputTokens
	}
	if cfg.Seed != nil {
		gen["seed"] = *cfg.Seed
	}
	if len(gen) > 0 {
		setup["generation_config"] = gen
	}

	if cfg.SystemInstruction != nil {
		c, err := transform.ContentOf(cfg.SystemInstruction)
		if err != nil {
			return nil, err
		}
		setup["system_instruction"] = transform.ContentToWire(p, c)
	}
	if cfg.SpeechConfig != nil {
		sc, err := transform.SpeechConfig(cfg.SpeechConfig)
		if err != nil {
			return nil, err
		}
		if sc != nil {
			setup["speech_config"] = sc
		}
	}
	if len(cfg.Tools) > 0 {
		tools, err := transform.Tools(p, cfg.Tools...)
		if err != nil {
			return nil, err
		}
		setup["tools"] = tools
	}
	if len(cfg.ToolConfig) > 0 {
		setup["tool_config"] = cfg.ToolConfig
	}
	if p.SendsTranscription() {
		if cfg.InputAudioTranscription != nil {
			setup["input_audio_transcription"] = cfg.InputAudioTranscription
		}
		if cfg.OutputAudioTranscription != nil {
			setup["output_audio_transcription"] = cfg.OutputAudioTranscription
		}
	}
	return map[string]any{"setup": setup}, nil
}

// endpoint returns the WebSocket URI. Key-authenticated sessions use the
// generative service with the key in the query, whichever backend they
// target; token-authenticated sessions use the cloud bidi service.
func endpoint(opts gemkit.HTTPOptions, apiKey string) (string, error) {
	if opts.BaseURL == "" {
		return "", &gemkit.ConfigError{Field: "base_url", Msg: "Base URL must be set."}
	}
	u, err := url.Parse(strings.TrimSuffix(opts.BaseURL, "/"))
	if err != nil {
		return "", &gemkit.ConfigError{Field: "base_url", Msg: fmt.Sprintf("invalid base URL %q: %v", opts.BaseURL, err)}
	}
	switch u.Scheme {
	case "http", "ws":
		u.Scheme = "ws"
	case "https", "wss":
		u.Scheme = "wss"
	default:
		return "", &gemkit.ConfigError{Field: "base_url", Msg: fmt.Sprintf("unsupported scheme %q", u.Scheme)}
	}

	if apiKey == "" {
		u.Path += fmt.Sprintf("/ws/google.cloud.aiplatform.%s.LlmBidiService/BidiGenerateContent", opts.APIVersion)
		return u.String(), nil
	}
	u.Path += fmt.Sprintf("/ws/google.ai.generativelanguage.%s.GenerativeService.BidiGenerateContent", opts.APIVersion)
	u.RawQuery = url.Values{"key": {apiKey}}.Encode()
	return u.String(), nil
}
