// Package transport turns resource paths and payloads into HTTP exchanges
// with the backend: URL composition, authentication, buffered and streamed
// responses, resumable uploads and downloads. It never retries.
package transport

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/spetersoncode/gemkit"
	"github.com/spetersoncode/gemkit/creds"
)

// Doer executes HTTP requests. *http.Client satisfies it, and so does the
// record/replay recorder.
type Doer interface {
	Do(*http.Request) (*http.Response, error)
}

// Config holds what a Client needs to address and authenticate requests.
type Config struct {
	Backend  gemkit.Backend
	Project  string
	Location string
	// Credentials is required.
	Credentials *creds.Manager
	// HTTPOptions are the client-level options, already patched with defaults.
	HTTPOptions gemkit.HTTPOptions
	// HTTPClient defaults to http.DefaultClient.
	HTTPClient Doer
	Logger     logrus.FieldLogger
}

// Client sends requests to one backend.
type Client struct {
	backend  gemkit.Backend
	project  string
	location string
	creds    *creds.Manager
	opts     gemkit.HTTPOptions
	http     Doer
	log      logrus.FieldLogger
}

// New creates a Client.
func New(cfg Config) *Client {
	doer := cfg.HTTPClient
	if doer == nil {
		doer = http.DefaultClient
	}
	log := cfg.Logger
	if log == nil {
		log = logrus.StandardLogger()
	}
	return &Client{
		backend:  cfg.Backend,
		project:  cfg.Project,
		location: cfg.Location,
		creds:    cfg.Credentials,
		opts:     cfg.HTTPOptions,
		http:     doer,
		log:      log.WithField("backend", cfg.Backend.String()),
	}
}

// Backend returns the personality this client talks to.
func (c *Client) Backend() gemkit.Backend { return c.backend }

// Project returns the configured cloud project ("" for the Gemini API).
func (c *Client) Project() string { return c.project }

// Location returns the configured cloud location.
func (c *Client) Location() string { return c.location }

// Credentials returns the client's credential manager.
func (c *Client) Credentials() *creds.Manager { return c.creds }

// HTTPOptions returns a copy of the client-level options.
func (c *Client) HTTPOptions() gemkit.HTTPOptions { return c.opts.Clone() }

func (c *Client) hasAPIKey() bool {
	return c.creds != nil && c.creds.Kind() == creds.KindAPIKey && c.creds.APIKey() != ""
}

// Request is a fully resolved request envelope, built fresh for every call.
type Request struct {
	Method  string
	URL     string
	Header  http.Header
	Body    any
	Timeout time.Duration
}

// BuildRequest resolves path against the client options patched with
// override. Cloud paths are qualified with the project and location unless
// they already are, target the public base-model listing, or the client
// authenticates with an API key. Top-level body keys beginning with "_" are
// request-routing metadata and are dropped.
func (c *Client) BuildRequest(method, path string, body any, override gemkit.HTTPOptions) (*Request, error) {
	opts := gemkit.Patch(c.opts, override)

	if needsProjectPrefix(c.backend, c.hasAPIKey(), method, path) {
		path = fmt.Sprintf("projects/%s/locations/%s/%s", c.project, c.location, path)
	}
	if opts.BaseURL == "" {
		return nil, &gemkit.ConfigError{Field: "base_url", Msg: "Base URL must be set."}
	}
	if opts.Headers == nil {
		return nil, &gemkit.ConfigError{Field: "headers", Msg: "Request headers must be set."}
	}
	u, err := JoinURL(opts.BaseURL, opts.APIVersion, path)
	if err != nil {
		return nil, err
	}

	if m, ok := body.(map[string]any); ok {
		body = stripPrivateKeys(m)
	}
	return &Request{
		Method:  strings.ToUpper(method),
		URL:     u,
		Header:  opts.Headers,
		Body:    body,
		Timeout: opts.Timeout,
	}, nil
}

func stripPrivateKeys(m map[string]any) map[string]any {
	out := make(map[string]any, len(m))
	for k, v := range m {
		if !strings.HasPrefix(k, "_") {
			out[k] = v
		}
	}
	return out
}

// Send executes req. Non-2xx responses are returned as *gemkit.APIError with
// the body already consumed. The caller must consume or Close the response.
func (c *Client) Send(ctx context.Context, req *Request) (*Response, error) {
	cancel := context.CancelFunc(func() {})
	if req.Timeout > 0 {
		ctx, cancel = context.WithTimeout(ctx, req.Timeout)
	}

	body, err := encodeBody(req.Body)
	if err != nil {
		cancel()
		return nil, err
	}
	httpReq, err := http.NewRequestWithContext(ctx, req.Method, req.URL, body)
	if err != nil {
		cancel()
		return nil, err
	}
	httpReq.Header = req.Header.Clone()
	if httpReq.Header == nil {
		httpReq.Header = http.Header{}
	}
	if err := c.authorize(ctx, httpReq.Header); err != nil {
		cancel()
		return nil, err
	}

	start := time.Now()
	resp, err := c.http.Do(httpReq)
	if err != nil {
		cancel()
		return nil, err
	}
	c.log.WithFields(logrus.Fields{
		"method":   req.Method,
		"status":   resp.StatusCode,
		"duration": time.Since(start),
	}).Debug("request sent")

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		defer cancel()
		defer resp.Body.Close()
		raw, _ := io.ReadAll(resp.Body)
		return nil, newAPIError(resp, raw)
	}
	return newResponse(resp, cancel), nil
}

// authorize adds bearer and quota headers under the cloud personality when
// no API key is in use.
func (c *Client) authorize(ctx context.Context, h http.Header) error {
	if !c.backend.IsVertex() || c.hasAPIKey() || c.creds == nil {
		return nil
	}
	tok, err := c.creds.Token(ctx)
	if err != nil {
		return err
	}
	h.Set("Authorization", "Bearer "+tok)
	if h.Get("X-Goog-User-Project") == "" {
		if qp := c.creds.QuotaProject(ctx); qp != "" {
			h.Set("X-Goog-User-Project", qp)
		}
	}
	return nil
}

func encodeBody(body any) (io.Reader, error) {
	switch b := body.(type) {
	case nil:
		return nil, nil
	case []byte:
		return bytes.NewReader(b), nil
	case io.Reader:
		return b, nil
	case json.RawMessage:
		return bytes.NewReader(b), nil
	default:
		data, err := json.Marshal(b)
		if err != nil {
			return nil, fmt.Errorf("encode request body: %w", err)
		}
		return bytes.NewReader(data), nil
	}
}

// Request sends a buffered request and returns the decoded JSON body.
func (c *Client) Request(ctx context.Context, method, path string, body any, override gemkit.HTTPOptions) (json.RawMessage, error) {
	req, err := c.BuildRequest(method, path, body, override)
	if err != nil {
		return nil, err
	}
	resp, err := c.Send(ctx, req)
	if err != nil {
		return nil, err
	}
	return resp.JSON()
}

// RequestStream sends a request whose response is a stream of JSON segments.
func (c *Client) RequestStream(ctx context.Context, method, path string, body any, override gemkit.HTTPOptions) (*SegmentReader, error) {
	req, err := c.BuildRequest(method, path, body, override)
	if err != nil {
		return nil, err
	}
	resp, err := c.Send(ctx, req)
	if err != nil {
		return nil, err
	}
	return resp.Segments(), nil
}

// Download fetches the raw bytes at path.
func (c *Client) Download(ctx context.Context, path string, override gemkit.HTTPOptions) ([]byte, error) {
	req, err := c.BuildRequest(http.MethodGet, path, nil, override)
	if err != nil {
		return nil, err
	}
	resp, err := c.Send(ctx, req)
	if err != nil {
		return nil, err
	}
	return resp.Bytes()
}
