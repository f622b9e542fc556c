package gemkit

import (
	"net/http"
	"time"
)

// Options contains per-call configuration.
type Options struct {
	HTTPOptions HTTPOptions
}

// Option is a functional option for configuring a single call.
type Option func(*Options)

// WithHTTPOptions overrides the client's HTTP options for one call. Unset
// fields of opts keep the client's values.
func WithHTTPOptions(opts HTTPOptions) Option {
	return func(o *Options) {
		o.HTTPOptions = Patch(o.HTTPOptions, opts)
	}
}

// WithBaseURL overrides the base URL for one call.
func WithBaseURL(url string) Option {
	return func(o *Options) {
		o.HTTPOptions.BaseURL = url
	}
}

// WithAPIVersion overrides the API version for one call.
func WithAPIVersion(version string) Option {
	return func(o *Options) {
		o.HTTPOptions.APIVersion = version
	}
}

// WithHeader sets a header for one call, replacing any client-level value.
func WithHeader(key, value string) Option {
	return func(o *Options) {
		if o.HTTPOptions.Headers == nil {
			o.HTTPOptions.Headers = http.Header{}
		}
		o.HTTPOptions.Headers.Set(key, value)
	}
}

// WithTimeout bounds one call.
func WithTimeout(d time.Duration) Option {
	return func(o *Options) {
		o.HTTPOptions.Timeout = d
	}
}

// ApplyOptions applies functional options to an Options struct.
func ApplyOptions(opts ...Option) *Options {
	o := &Options{}
	for _, opt := range opts {
		opt(o)
	}
	return o
}
