package creds

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"cloud.google.com/go/auth"
	"github.com/spetersoncode/gemkit"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/oauth2"
)

// countingProvider hands out numbered tokens valid for ttl.
type countingProvider struct {
	calls atomic.Int32
	ttl   time.Duration
	value string
	delay time.Duration
}

func (p *countingProvider) Token(context.Context) (*auth.Token, error) {
	n := p.calls.Add(1)
	if p.delay > 0 {
		time.Sleep(p.delay)
	}
	v := p.value
	if v == "" {
		v = "token-" + string(rune('0'+n))
	}
	if p.value == "-" {
		v = ""
	}
	tok := &auth.Token{Value: v}
	if p.ttl != 0 {
		tok.Expiry = time.Now().Add(p.ttl)
	}
	return tok, nil
}

func TestAPIKeyManager(t *testing.T) {
	m := NewAPIKey("k-123")

	assert.Equal(t, KindAPIKey, m.Kind())
	assert.Equal(t, "k-123", m.APIKey())
	assert.Equal(t, "", m.QuotaProject(context.Background()))

	_, err := m.Token(context.Background())
	var authErr *gemkit.AuthError
	assert.ErrorAs(t, err, &authErr)
}

func TestTokenCachedUntilExpiry(t *testing.T) {
	p := &countingProvider{ttl: time.Hour}
	m := NewOAuth2(FromTokenProvider(p, "", ""), nil)

	first, err := m.Token(context.Background())
	require.NoError(t, err)
	second, err := m.Token(context.Background())
	require.NoError(t, err)

	assert.Equal(t, first, second)
	assert.Equal(t, int32(1), p.calls.Load())
}

func TestExpiredTokenIsRefreshed(t *testing.T) {
	p := &countingProvider{ttl: time.Hour}
	m := NewOAuth2(FromTokenProvider(p, "", ""), nil)
	now := time.Now()
	m.now = func() time.Time { return now }

	_, err := m.Token(context.Background())
	require.NoError(t, err)

	now = now.Add(2 * time.Hour)
	tok, err := m.Token(context.Background())
	require.NoError(t, err)

	assert.Equal(t, "token-2", tok)
	assert.Equal(t, int32(2), p.calls.Load())
}

func TestConcurrentCallersShareOneRefresh(t *testing.T) {
	p := &countingProvider{ttl: time.Hour, delay: 20 * time.Millisecond}
	m := NewOAuth2(FromTokenProvider(p, "", ""), nil)

	var wg sync.WaitGroup
	tokens := make([]string, 16)
	for i := range tokens {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			tok, err := m.Token(context.Background())
			assert.NoError(t, err)
			tokens[i] = tok
		}(i)
	}
	wg.Wait()

	assert.Equal(t, int32(1), p.calls.Load())
	for _, tok := range tokens {
		assert.Equal(t, "token-1", tok)
	}
}

func TestEmptyTokenIsAuthError(t *testing.T) {
	m := NewOAuth2(FromTokenProvider(&countingProvider{value: "-"}, "", ""), nil)

	_, err := m.Token(context.Background())

	var authErr *gemkit.AuthError
	require.ErrorAs(t, err, &authErr)
	assert.Contains(t, authErr.Error(), "empty access token")
}

func TestLazyLoadResolvesProject(t *testing.T) {
	loads := 0
	m := NewOAuth2(nil, func(context.Context) (*auth.Credentials, error) {
		loads++
		return FromTokenProvider(&countingProvider{ttl: time.Hour}, "ambient-project", "billing-project"), nil
	})

	project, err := m.Load(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "ambient-project", project)

	_, err = m.Token(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 1, loads)
	assert.Equal(t, "ambient-project", m.Project())
	assert.Equal(t, "billing-project", m.QuotaProject(context.Background()))
}

func TestLoaderFailureIsAuthError(t *testing.T) {
	cause := errors.New("could not find default credentials")
	m := NewOAuth2(nil, func(context.Context) (*auth.Credentials, error) {
		return nil, cause
	})

	_, err := m.Token(context.Background())

	var authErr *gemkit.AuthError
	require.ErrorAs(t, err, &authErr)
	assert.ErrorIs(t, err, cause)
}

func TestFromTokenSource(t *testing.T) {
	ts := oauth2.StaticTokenSource(&oauth2.Token{AccessToken: "static", Expiry: time.Now().Add(time.Hour)})
	m := NewOAuth2(FromTokenSource(ts, "p1"), nil)

	tok, err := m.Token(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "static", tok)

	project, err := m.Load(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "p1", project)
}
