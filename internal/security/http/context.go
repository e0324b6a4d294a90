// Package http provides HTTP handlers and middleware for the security facade.
package http

import (
	"context"
)

// tokenKey is a context key type for storing bearer tokens.
type tokenKey struct{}

// WithToken stores the raw bearer token in the context.
// This is typically called by the bearer token middleware.
func WithToken(ctx context.Context, token string) context.Context {
	return context.WithValue(ctx, tokenKey{}, token)
}

// GetToken retrieves the raw bearer token from the context.
// Returns (token, true) if a token is present, or ("", false) if not set.
func GetToken(ctx context.Context) (string, bool) {
	token, ok := ctx.Value(tokenKey{}).(string)
	return token, ok
}
