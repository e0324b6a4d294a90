// Package service provides identity resolution services.
package service

import (
	"context"

	identityDomain "github.com/kbalijepalli/dreas/internal/identity/domain"
)

// TokenService defines the interface for token generation and hashing.
type TokenService interface {
	// GenerateToken creates a new cryptographically secure random token.
	// Returns the plain token and its SHA-256 hash.
	GenerateToken() (plainToken string, tokenHash string, err error)

	// HashToken hashes a plain text token using SHA-256.
	HashToken(plainToken string) string
}

// Resolver defines the interface for resolving bearer tokens to identities.
type Resolver interface {
	// Resolve maps a bearer token to the identity it authenticates.
	// Returns ErrUnknownPrincipal when the token matches no principal.
	Resolve(ctx context.Context, token string) (*identityDomain.Identity, error)
}
