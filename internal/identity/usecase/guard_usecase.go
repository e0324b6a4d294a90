package usecase

import (
	"context"
	"fmt"

	apperrors "github.com/kbalijepalli/dreas/internal/errors"
	identityDomain "github.com/kbalijepalli/dreas/internal/identity/domain"
	identityService "github.com/kbalijepalli/dreas/internal/identity/service"
)

// guardUseCase implements GuardUseCase.
type guardUseCase struct {
	resolver identityService.Resolver
}

// NewGuardUseCase creates a new GuardUseCase with the provided resolver.
func NewGuardUseCase(resolver identityService.Resolver) GuardUseCase {
	return &guardUseCase{resolver: resolver}
}

// Authenticate resolves a bearer token to an identity.
//
// An unknown token returns ErrUnknownPrincipal. Any other resolver failure is
// reported as ErrIdentityUnavailable: when the resolver cannot be consulted,
// no operation proceeds.
func (g *guardUseCase) Authenticate(
	ctx context.Context,
	token string,
) (*identityDomain.Identity, error) {
	if token == "" {
		return nil, identityDomain.ErrUnknownPrincipal
	}

	identity, err := g.resolver.Resolve(ctx, token)
	if err != nil {
		if apperrors.Is(err, apperrors.ErrUnauthorized) {
			return nil, err
		}
		return nil, fmt.Errorf("%w: %v", identityDomain.ErrIdentityUnavailable, err)
	}

	return identity, nil
}

// CheckCapability verifies the identity holds the capability.
func (g *guardUseCase) CheckCapability(
	identity *identityDomain.Identity,
	capability identityDomain.Capability,
) error {
	if !identity.HasCapability(capability) {
		return fmt.Errorf(
			"%w: principal %s lacks capability %s",
			identityDomain.ErrAccessDenied,
			identity.Principal,
			capability,
		)
	}
	return nil
}

// CheckPolicy verifies the identity's policy patterns allow the tag.
func (g *guardUseCase) CheckPolicy(
	identity *identityDomain.Identity,
	policyTag string,
) error {
	if !identity.AllowsPolicy(policyTag) {
		return fmt.Errorf(
			"%w: principal %s not permitted for policy tag %q",
			identityDomain.ErrAccessDenied,
			identity.Principal,
			policyTag,
		)
	}
	return nil
}
