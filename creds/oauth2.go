package creds

import (
	"context"

	"cloud.google.com/go/auth"
	"cloud.google.com/go/auth/oauth2adapt"
	"golang.org/x/oauth2"
)

// FromTokenSource adapts an oauth2.TokenSource into credentials the manager
// can refresh. project may be empty.
func FromTokenSource(ts oauth2.TokenSource, project string) *auth.Credentials {
	opts := &auth.CredentialsOptions{
		TokenProvider: oauth2adapt.TokenProviderFromTokenSource(ts),
	}
	if project != "" {
		opts.ProjectIDProvider = auth.CredentialsPropertyFunc(func(context.Context) (string, error) {
			return project, nil
		})
	}
	return auth.NewCredentials(opts)
}

// FromTokenProvider wraps a bare token provider, with optional project and
// quota project ids.
func FromTokenProvider(tp auth.TokenProvider, project, quotaProject string) *auth.Credentials {
	opts := &auth.CredentialsOptions{TokenProvider: tp}
	if project != "" {
		opts.ProjectIDProvider = auth.CredentialsPropertyFunc(func(context.Context) (string, error) {
			return project, nil
		})
	}
	if quotaProject != "" {
		opts.QuotaProjectIDProvider = auth.CredentialsPropertyFunc(func(context.Context) (string, error) {
			return quotaProject, nil
		})
	}
	return auth.NewCredentials(opts)
}
