package client

import (
	"strings"

	"github.com/spetersoncode/gemkit"
)

// GenerateContentConfig holds the optional parameters of a generation call.
// Nil pointers and empty values are omitted from the request.
type GenerateContentConfig struct {
	// SystemInstruction accepts anything transform.ContentOf does: a
	// string, parts or a *gemkit.Content.
	SystemInstruction any

	Temperature      *float64
	TopP             *float64
	TopK             *float64
	MaxOutputTokens  *int
	CandidateCount   *int
	Seed             *int
	StopSequences    []string
	ResponseMIMEType string

	// ResponseSchema is a JSON schema; it is normalized for the backend.
	ResponseSchema map[string]any

	// ResponseModalities such as "TEXT" or "AUDIO".
	ResponseModalities []string

	// SpeechConfig is a voice name or a speech config map.
	SpeechConfig any

	SafetySettings []map[string]any

	// Tools accepts *transform.FunctionDeclaration values and raw tool maps.
	Tools      []any
	ToolConfig map[string]any

	// CachedContent names a cached content resource.
	CachedContent string

	// Labels are attached to the request on Vertex AI only.
	Labels map[string]string
}

// Candidate is one generated response.
type Candidate struct {
	Content       *gemkit.Content  `json:"content,omitempty"`
	FinishReason  string           `json:"finishReason,omitempty"`
	FinishMessage string           `json:"finishMessage,omitempty"`
	Index         int              `json:"index,omitempty"`
	SafetyRatings []map[string]any `json:"safetyRatings,omitempty"`
}

// UsageMetadata reports token counts.
type UsageMetadata struct {
	PromptTokenCount        int `json:"promptTokenCount,omitempty"`
	CandidatesTokenCount    int `json:"candidatesTokenCount,omitempty"`
	CachedContentTokenCount int `json:"cachedContentTokenCount,omitempty"`
	ThoughtsTokenCount      int `json:"thoughtsTokenCount,omitempty"`
	TotalTokenCount         int `json:"totalTokenCount,omitempty"`
}

// HTTPResponse carries response headers when the body is empty.
type HTTPResponse struct {
	Headers map[string]string `json:"headers,omitempty"`
}

// GenerateContentResponse is the result of a generation call, or one chunk
// of a streamed call.
type GenerateContentResponse struct {
	Candidates     []*Candidate   `json:"candidates,omitempty"`
	PromptFeedback map[string]any `json:"promptFeedback,omitempty"`
	UsageMetadata  *UsageMetadata `json:"usageMetadata,omitempty"`
	ModelVersion   string         `json:"modelVersion,omitempty"`
	ResponseID     string         `json:"responseId,omitempty"`
	HTTPResponse   *HTTPResponse  `json:"sdkHttpResponse,omitempty"`
}

// Text concatenates the text parts of the first candidate.
func (r *GenerateContentResponse) Text() string {
	if r == nil || len(r.Candidates) == 0 || r.Candidates[0] == nil {
		return ""
	}
	return r.Candidates[0].Content.Text()
}

// FunctionCalls returns the function calls of the first candidate.
func (r *GenerateContentResponse) FunctionCalls() []*gemkit.FunctionCall {
	if r == nil || len(r.Candidates) == 0 || r.Candidates[0] == nil || r.Candidates[0].Content == nil {
		return nil
	}
	var calls []*gemkit.FunctionCall
	for _, p := range r.Candidates[0].Content.Parts {
		if p != nil && p.FunctionCall != nil {
			calls = append(calls, p.FunctionCall)
		}
	}
	return calls
}

// Model describes a base or tuned model.
type Model struct {
	Name                       string   `json:"name,omitempty"`
	DisplayName                string   `json:"displayName,omitempty"`
	Description                string   `json:"description,omitempty"`
	Version                    string   `json:"version,omitempty"`
	InputTokenLimit            int      `json:"inputTokenLimit,omitempty"`
	OutputTokenLimit           int      `json:"outputTokenLimit,omitempty"`
	SupportedGenerationMethods []string `json:"supportedGenerationMethods,omitempty"`
}

// SupportsGeneration reports whether m lists generateContent among its
// methods. Models that list nothing are assumed to support it.
func (m *Model) SupportsGeneration() bool {
	if len(m.SupportedGenerationMethods) == 0 {
		return true
	}
	for _, method := range m.SupportedGenerationMethods {
		if strings.EqualFold(method, "generateContent") {
			return true
		}
	}
	return false
}

// ListModelsConfig controls a model listing.
type ListModelsConfig struct {
	PageSize  int
	PageToken string
	// Tuned lists the caller's tuned models instead of base models.
	Tuned bool
}

// ListModelsResponse is one page of models.
type ListModelsResponse struct {
	Models        []*Model
	NextPageToken string
}
