// Package cred supplies credentials for outbound collaborator requests.
// The pipeline treats credentials as opaque: a Supplier is asked to sign
// each request just before it is sent.
package cred

import (
	"context"
	"errors"
	"net/http"
)

var ErrNoCredential = errors.New("cred: no credential available")

// Supplier attaches a credential to an outbound request. Implementations
// must be safe for concurrent use.
type Supplier interface {
	Apply(ctx context.Context, req *http.Request) error
}

// HeaderKey is a static API key sent in a named header, e.g. the search
// service's "api-key".
type HeaderKey struct {
	Header string
	Key    string
}

// NewHeaderKey creates a HeaderKey supplier.
func NewHeaderKey(header, key string) HeaderKey {
	return HeaderKey{Header: header, Key: key}
}

func (h HeaderKey) Apply(_ context.Context, req *http.Request) error {
	if h.Key == "" {
		return ErrNoCredential
	}
	req.Header.Set(h.Header, h.Key)
	return nil
}

// TokenFunc fetches a bearer token on demand, managed-identity style.
type TokenFunc func(ctx context.Context) (string, error)

// Bearer applies tokens from a TokenFunc as an Authorization header. The
// token is fetched per request; caching is the provider's concern.
type Bearer struct {
	Fetch TokenFunc
}

func (b Bearer) Apply(ctx context.Context, req *http.Request) error {
	if b.Fetch == nil {
		return ErrNoCredential
	}
	tok, err := b.Fetch(ctx)
	if err != nil {
		return err
	}
	if tok == "" {
		return ErrNoCredential
	}
	req.Header.Set("Authorization", "Bearer "+tok)
	return nil
}

// StaticToken wraps a fixed token in a Bearer supplier.
func StaticToken(token string) Bearer {
	return Bearer{Fetch: func(context.Context) (string, error) { return token, nil }}
}
