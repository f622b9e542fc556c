package gemkit

import (
	"net/http"
	"strings"
	"time"
)

// HTTPOptions configures how requests reach the backend. A zero field means
// "not set" and inherits from whatever the options are patched onto.
type HTTPOptions struct {
	// BaseURL is the scheme and host (optionally a path prefix) of the service.
	BaseURL string `json:"baseUrl,omitempty"`
	// APIVersion is inserted between the base URL and the resource path.
	APIVersion string `json:"apiVersion,omitempty"`
	// Headers are sent with every request.
	Headers http.Header `json:"headers,omitempty"`
	// Timeout bounds a single request. Zero uses the transport default.
	Timeout time.Duration `json:"-"`
}

// TimeoutMillis converts a millisecond timeout, as expressed in JSON and
// environment configuration, into a Timeout value.
func TimeoutMillis(ms int) time.Duration {
	return time.Duration(ms) * time.Millisecond
}

// Clone returns a deep copy of o.
func (o HTTPOptions) Clone() HTTPOptions {
	o.Headers = o.Headers.Clone()
	return o
}

// Patch returns base with every set field of override applied. Headers merge
// key-wise with override winning. When the result has headers, the identity
// token is appended to its User-Agent and X-Goog-Api-Client values. Neither
// argument is modified.
func Patch(base, override HTTPOptions) HTTPOptions {
	out := base.Clone()
	if out.Headers == nil && override.Headers != nil {
		out.Headers = http.Header{}
	}
	if override.BaseURL != "" {
		out.BaseURL = override.BaseURL
	}
	if override.APIVersion != "" {
		out.APIVersion = override.APIVersion
	}
	if override.Timeout != 0 {
		out.Timeout = override.Timeout
	}
	for k, v := range override.Headers {
		out.Headers[http.CanonicalHeaderKey(k)] = append([]string(nil), v...)
	}
	if out.Headers != nil {
		AppendIdentityHeaders(out.Headers)
	}
	return out
}

// AppendIdentityHeaders adds the library identity token to h. The token is
// added once: a header already containing it is left alone.
func AppendIdentityHeaders(h http.Header) {
	token := IdentityToken()
	for _, key := range []string{"User-Agent", "X-Goog-Api-Client"} {
		cur := h.Get(key)
		switch {
		case cur == "":
			h.Set(key, token)
		case !strings.Contains(cur, token):
			h.Set(key, cur+" "+token)
		}
	}
}
