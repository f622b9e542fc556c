package client

import (
	"context"
	"encoding/json"
	"fmt"
	"iter"
	"net/http"
	"net/url"
	"strconv"

	"github.com/spetersoncode/gemkit"
	"github.com/spetersoncode/gemkit/transform"
)

// Models generates content and lists models.
type Models struct {
	c *Client
}

// GenerateContent generates a response for contents, which may be a string,
// parts, a *gemkit.Content or a slice of contents.
func (m *Models) GenerateContent(ctx context.Context, model string, contents any, cfg *GenerateContentConfig, opts ...gemkit.Option) (*GenerateContentResponse, error) {
	done := m.c.track(OpGenerateContent, model)
	resp, err := m.generateContent(ctx, model, contents, cfg, opts)
	if err != nil {
		done(err, nil)
		return nil, err
	}
	done(nil, resp.UsageMetadata)
	return resp, nil
}

func (m *Models) generateContent(ctx context.Context, model string, contents any, cfg *GenerateContentConfig, opts []gemkit.Option) (*GenerateContentResponse, error) {
	path, body, err := m.generateRequest(model, contents, cfg)
	if err != nil {
		return nil, err
	}
	raw, err := m.c.transport.Request(ctx, http.MethodPost, path+":generateContent", body, callOptions(opts))
	if err != nil {
		return nil, err
	}
	resp := &GenerateContentResponse{}
	if err := json.Unmarshal(raw, resp); err != nil {
		return nil, fmt.Errorf("decode generate content response: %w", err)
	}
	return resp, nil
}

// GenerateContentStream generates a response as a stream of chunks. The
// stream ends after the first error.
//
//	for chunk, err := range c.Models.GenerateContentStream(ctx, model, "Hi", nil) {
//	    if err != nil {
//	        return err
//	    }
//	    fmt.Print(chunk.Text())
//	}
func (m *Models) GenerateContentStream(ctx context.Context, model string, contents any, cfg *GenerateContentConfig, opts ...gemkit.Option) iter.Seq2[*GenerateContentResponse, error] {
	return func(yield func(*GenerateContentResponse, error) bool) {
		done := m.c.track(OpGenerateContentStream, model)
		fail := func(err error) {
			done(err, nil)
			yield(nil, err)
		}

		path, body, err := m.generateRequest(model, contents, cfg)
		if err != nil {
			fail(err)
			return
		}
		segments, err := m.c.transport.RequestStream(ctx, http.MethodPost, path+":streamGenerateContent?alt=sse", body, callOptions(opts))
		if err != nil {
			fail(err)
			return
		}
		defer segments.Close()

		var usage *UsageMetadata
		for segments.Next() {
			chunk := &GenerateContentResponse{}
			if err := json.Unmarshal(segments.Segment(), chunk); err != nil {
				fail(fmt.Errorf("decode stream chunk: %w", err))
				return
			}
			if chunk.UsageMetadata != nil {
				usage = chunk.UsageMetadata
			}
			if !yield(chunk, nil) {
				done(nil, usage)
				return
			}
		}
		if err := segments.Err(); err != nil {
			fail(err)
			return
		}
		done(nil, usage)
	}
}

// generateRequest returns the model path and the request body.
func (m *Models) generateRequest(model string, contents any, cfg *GenerateContentConfig) (string, map[string]any, error) {
	p := m.c.personality
	path, err := transform.Model(p, model)
	if err != nil {
		return "", nil, err
	}
	cs, err := transform.Contents(contents)
	if err != nil {
		return "", nil, err
	}
	body := map[string]any{"contents": transform.ContentsToWire(p, cs)}
	if cfg == nil {
		return path, body, nil
	}

	gen := map[string]any{}
	setIf(gen, "temperature", cfg.Temperature)
	setIf(gen, "topP", cfg.TopP)
	setIf(gen, "topK", cfg.TopK)
	setIf(gen, "maxOutputTokens", cfg.MaxOutputTokens)
	setIf(gen, "candidateCount", cfg.CandidateCount)
	setIf(gen, "seed", cfg.Seed)
	if len(cfg.StopSequences) > 0 {
		gen["stopSequences"] = cfg.StopSequences
	}
	if cfg.ResponseMIMEType != "" {
		gen["responseMimeType"] = cfg.ResponseMIMEType
	}
	if cfg.ResponseSchema != nil {
		schema, err := transform.Schema(p, cfg.ResponseSchema)
		if err != nil {
			return "", nil, err
		}
		gen["responseSchema"] = schema
	}
	if len(cfg.ResponseModalities) > 0 {
		gen["responseModalities"] = cfg.ResponseModalities
	}
	if cfg.SpeechConfig != nil {
		speech, err := transform.SpeechConfig(cfg.SpeechConfig)
		if err != nil {
			return "", nil, err
		}
		gen["speechConfig"] = speech
	}
	if len(gen) > 0 {
		body["generationConfig"] = gen
	}

	if cfg.SystemInstruction != nil {
		si, err := transform.ContentOf(cfg.SystemInstruction)
		if err != nil {
			return "", nil, err
		}
		body["systemInstruction"] = transform.ContentToWire(p, si)
	}
	if len(cfg.SafetySettings) > 0 {
		body["safetySettings"] = cfg.SafetySettings
	}
	if len(cfg.Tools) > 0 {
		tools, err := transform.Tools(p, cfg.Tools...)
		if err != nil {
			return "", nil, err
		}
		body["tools"] = tools
	}
	if cfg.ToolConfig != nil {
		body["toolConfig"] = cfg.ToolConfig
	}
	if cfg.CachedContent != "" {
		body["cachedContent"] = transform.CachedContentName(p, cfg.CachedContent)
	}
	if len(cfg.Labels) > 0 && p.SendsLabels() {
		body["labels"] = cfg.Labels
	}
	return path, body, nil
}

func setIf[T any](m map[string]any, key string, v *T) {
	if v != nil {
		m[key] = *v
	}
}

// List returns one page of models. Base models are listed unless
// cfg.Tuned is set.
func (m *Models) List(ctx context.Context, cfg *ListModelsConfig, opts ...gemkit.Option) (*ListModelsResponse, error) {
	if cfg == nil {
		cfg = &ListModelsConfig{}
	}
	done := m.c.track(OpListModels, "")

	path := transform.ModelsURL(m.c.personality, !cfg.Tuned)
	query := url.Values{}
	if cfg.PageSize > 0 {
		query.Set("pageSize", strconv.Itoa(cfg.PageSize))
	}
	if cfg.PageToken != "" {
		query.Set("pageToken", cfg.PageToken)
	}
	if len(query) > 0 {
		path += "?" + query.Encode()
	}

	raw, err := m.c.transport.Request(ctx, http.MethodGet, path, nil, callOptions(opts))
	if err != nil {
		done(err, nil)
		return nil, err
	}
	items, err := transform.ExtractModels(raw)
	if err != nil {
		done(err, nil)
		return nil, err
	}
	out := &ListModelsResponse{}
	for _, item := range items {
		model := &Model{}
		if err := json.Unmarshal(item, model); err != nil {
			err = fmt.Errorf("decode model: %w", err)
			done(err, nil)
			return nil, err
		}
		out.Models = append(out.Models, model)
	}
	var page struct {
		NextPageToken string `json:"nextPageToken"`
	}
	_ = json.Unmarshal(raw, &page)
	out.NextPageToken = page.NextPageToken
	done(nil, nil)
	return out, nil
}

// All iterates over every model, following page tokens.
func (m *Models) All(ctx context.Context, cfg *ListModelsConfig, opts ...gemkit.Option) iter.Seq2[*Model, error] {
	return func(yield func(*Model, error) bool) {
		page := ListModelsConfig{}
		if cfg != nil {
			page = *cfg
		}
		for {
			resp, err := m.List(ctx, &page, opts...)
			if err != nil {
				yield(nil, err)
				return
			}
			for _, model := range resp.Models {
				if !yield(model, nil) {
					return
				}
			}
			if resp.NextPageToken == "" {
				return
			}
			page.PageToken = resp.NextPageToken
		}
	}
}

// Get fetches a model by name.
func (m *Models) Get(ctx context.Context, model string, opts ...gemkit.Option) (*Model, error) {
	done := m.c.track(OpGetModel, model)
	path, err := transform.Model(m.c.personality, model)
	if err != nil {
		done(err, nil)
		return nil, err
	}
	raw, err := m.c.transport.Request(ctx, http.MethodGet, path, nil, callOptions(opts))
	if err != nil {
		done(err, nil)
		return nil, err
	}
	out := &Model{}
	if err := json.Unmarshal(raw, out); err != nil {
		err = fmt.Errorf("decode model: %w", err)
		done(err, nil)
		return nil, err
	}
	done(nil, nil)
	return out, nil
}
