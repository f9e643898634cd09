package google

import (
	"context"

	"cloud.google.com/go/auth"
	"golang.org/x/oauth2"
)

type credentialsProvider func() (*auth.Credentials, error)

// WithTokenSource authenticates Vertex requests with the given OAuth2 token
// source instead of application default credentials.
func WithTokenSource(ts oauth2.TokenSource) Option {
	return func(o *options) {
		o.creds = func() (*auth.Credentials, error) {
			return auth.NewCredentials(&auth.CredentialsOptions{
				TokenProvider: tokenSourceProvider{ts: ts},
			}), nil
		}
	}
}

// tokenSourceProvider bridges an oauth2.TokenSource to the auth package's
// TokenProvider.
type tokenSourceProvider struct {
	ts oauth2.TokenSource
}

func (p tokenSourceProvider) Token(context.Context) (*auth.Token, error) {
	tok, err := p.ts.Token()
	if err != nil {
		return nil, err
	}
	return &auth.Token{
		Value:  tok.AccessToken,
		Expiry: tok.Expiry,
	}, nil
}
