// Package creds owns the credential material a client authenticates with:
// either a static API key or an OAuth2 source whose access token is cached
// and refreshed on demand.
package creds

import (
	"context"
	"sync"
	"time"

	"cloud.google.com/go/auth"
	"cloud.google.com/go/auth/credentials"
	"github.com/sirupsen/logrus"
	"github.com/spetersoncode/gemkit"
)

// CloudPlatformScope is requested when application default credentials are loaded.
const CloudPlatformScope = "https://www.googleapis.com/auth/cloud-platform"

// expiryDelta refreshes tokens slightly before they expire so a request in
// flight does not carry a token that lapses mid-call.
const expiryDelta = 10 * time.Second

// Kind discriminates the credential variants.
type Kind int

const (
	// KindAPIKey authenticates with a static key header.
	KindAPIKey Kind = iota
	// KindOAuth2 authenticates with a bearer access token.
	KindOAuth2
)

// Loader resolves an OAuth2 credential source, typically application
// default credentials.
type Loader func(ctx context.Context) (*auth.Credentials, error)

// Manager holds one credential variant. For OAuth2 it owns the cached token
// and refreshes it at most once for any number of concurrent callers.
type Manager struct {
	kind   Kind
	apiKey string
	load   Loader
	now    func() time.Time
	log    logrus.FieldLogger

	mu      sync.RWMutex
	source  *auth.Credentials
	token   *auth.Token
	project string
}

// NewAPIKey returns a manager for a static API key.
func NewAPIKey(key string) *Manager {
	return &Manager{kind: KindAPIKey, apiKey: key, now: time.Now, log: logrus.StandardLogger()}
}

// NewOAuth2 returns a manager for an OAuth2 source. A nil source is loaded
// lazily through load on first use; load defaults to [DetectDefault].
func NewOAuth2(source *auth.Credentials, load Loader) *Manager {
	if load == nil {
		load = DetectDefault
	}
	return &Manager{kind: KindOAuth2, source: source, load: load, now: time.Now, log: logrus.StandardLogger()}
}

// WithLogger sets the logger used for refresh diagnostics and returns m.
func (m *Manager) WithLogger(l logrus.FieldLogger) *Manager {
	if l != nil {
		m.log = l
	}
	return m
}

// Kind reports which variant m holds.
func (m *Manager) Kind() Kind { return m.kind }

// APIKey returns the static key, or "" for OAuth2 managers.
func (m *Manager) APIKey() string { return m.apiKey }

// Project returns the project id discovered while loading the source, if any.
func (m *Manager) Project() string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.project
}

// Load resolves the OAuth2 source if it has not been resolved yet and
// returns the project id attached to it ("" if none).
func (m *Manager) Load(ctx context.Context) (string, error) {
	if m.kind != KindOAuth2 {
		return "", nil
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.loadLocked(ctx); err != nil {
		return "", err
	}
	return m.project, nil
}

// Token returns a valid access token, loading the source and refreshing the
// token when needed. Concurrent callers share a single refresh.
func (m *Manager) Token(ctx context.Context) (string, error) {
	if m.kind != KindOAuth2 {
		return "", &gemkit.AuthError{Msg: "access tokens require OAuth2 credentials"}
	}

	m.mu.RLock()
	if m.source != nil && m.valid(m.token) {
		defer m.mu.RUnlock()
		return m.token.Value, nil
	}
	m.mu.RUnlock()

	m.mu.Lock()
	defer m.mu.Unlock()

	// Another caller may have refreshed while we waited for the write lock.
	if m.source != nil && m.valid(m.token) {
		return m.token.Value, nil
	}
	if err := m.loadLocked(ctx); err != nil {
		return "", err
	}
	tok, err := m.source.Token(ctx)
	if err != nil {
		return "", &gemkit.AuthError{Msg: "refresh access token", Cause: err}
	}
	if tok == nil || tok.Value == "" {
		return "", &gemkit.AuthError{Msg: "credentials produced an empty access token"}
	}
	m.token = tok
	m.log.WithField("expiry", tok.Expiry).Debug("access token refreshed")
	return tok.Value, nil
}

// QuotaProject returns the quota project attached to the OAuth2 source, or
// "" when there is none.
func (m *Manager) QuotaProject(ctx context.Context) string {
	if m.kind != KindOAuth2 {
		return ""
	}
	m.mu.RLock()
	src := m.source
	m.mu.RUnlock()
	if src == nil {
		return ""
	}
	qp, err := src.QuotaProjectID(ctx)
	if err != nil {
		return ""
	}
	return qp
}

func (m *Manager) valid(tok *auth.Token) bool {
	if tok == nil || tok.Value == "" {
		return false
	}
	if tok.Expiry.IsZero() {
		return true
	}
	return m.now().Before(tok.Expiry.Add(-expiryDelta))
}

// loadLocked must be called with the write lock held.
func (m *Manager) loadLocked(ctx context.Context) error {
	if m.source != nil {
		if m.project == "" {
			m.project = projectOf(ctx, m.source)
		}
		return nil
	}
	src, err := m.load(ctx)
	if err != nil {
		return &gemkit.AuthError{Msg: "load default credentials", Cause: err}
	}
	if src == nil {
		return &gemkit.AuthError{Msg: "no credentials found"}
	}
	m.source = src
	m.project = projectOf(ctx, src)
	return nil
}

func projectOf(ctx context.Context, c *auth.Credentials) string {
	p, err := c.ProjectID(ctx)
	if err != nil {
		return ""
	}
	return p
}

// DetectDefault loads application default credentials with the
// cloud-platform scope. Detection does not take a context, so it runs on a
// goroutine and is abandoned if ctx ends first.
func DetectDefault(ctx context.Context) (*auth.Credentials, error) {
	type result struct {
		creds *auth.Credentials
		err   error
	}
	ch := make(chan result, 1)
	go func() {
		c, err := credentials.DetectDefault(&credentials.DetectOptions{
			Scopes: []string{CloudPlatformScope},
		})
		ch <- result{c, err}
	}()
	select {
	case r := <-ch:
		return r.creds, r.err
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}
