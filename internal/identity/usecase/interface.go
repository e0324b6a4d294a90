// Package usecase implements business logic orchestration for identity operations.
package usecase

import (
	"context"

	identityDomain "github.com/kbalijepalli/dreas/internal/identity/domain"
)

// GuardUseCase defines the identity guard operations.
//
// The guard authenticates bearer tokens and enforces capability and policy
// grants. Resolver failures surface as ErrIdentityUnavailable so callers fail
// closed rather than proceeding with an unverified principal.
type GuardUseCase interface {
	// Authenticate resolves a bearer token to an identity.
	Authenticate(ctx context.Context, token string) (*identityDomain.Identity, error)

	// CheckCapability verifies the identity holds the capability.
	// Returns ErrAccessDenied otherwise.
	CheckCapability(identity *identityDomain.Identity, capability identityDomain.Capability) error

	// CheckPolicy verifies the identity's policy patterns allow the tag.
	// Returns ErrAccessDenied otherwise.
	CheckPolicy(identity *identityDomain.Identity, policyTag string) error
}
