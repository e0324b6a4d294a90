package app

import (
	"fmt"

	identityService "github.com/kbalijepalli/dreas/internal/identity/service"
	identityUseCase "github.com/kbalijepalli/dreas/internal/identity/usecase"
)

// TokenService returns the token generation and hashing service.
func (c *Container) TokenService() identityService.TokenService {
	c.tokenServiceInit.Do(func() {
		c.tokenService = identityService.NewTokenService()
	})
	return c.tokenService
}

// IdentityResolver returns the resolver that maps bearer tokens to
// identities. The static resolver is wrapped with a cache when a cache TTL is
// configured.
func (c *Container) IdentityResolver() (identityService.Resolver, error) {
	var err error
	c.identityResolverInit.Do(func() {
		c.identityResolver, err = c.initIdentityResolver()
		if err != nil {
			c.initErrors["identityResolver"] = err
		}
	})
	if err != nil {
		return nil, err
	}
	if storedErr, exists := c.initErrors["identityResolver"]; exists {
		return nil, storedErr
	}
	return c.identityResolver, nil
}

// GuardUseCase returns the identity guard.
func (c *Container) GuardUseCase() (identityUseCase.GuardUseCase, error) {
	var err error
	c.guardUseCaseInit.Do(func() {
		c.guardUseCase, err = c.initGuardUseCase()
		if err != nil {
			c.initErrors["guardUseCase"] = err
		}
	})
	if err != nil {
		return nil, err
	}
	if storedErr, exists := c.initErrors["guardUseCase"]; exists {
		return nil, storedErr
	}
	return c.guardUseCase, nil
}

// initIdentityResolver builds the static resolver from configured bindings.
func (c *Container) initIdentityResolver() (identityService.Resolver, error) {
	tokens := c.TokenService()

	resolver, err := identityService.NewStaticResolver(tokens, c.config.IdentityBindings)
	if err != nil {
		return nil, fmt.Errorf("failed to parse identity bindings: %w", err)
	}

	if c.config.IdentityCacheTTL > 0 {
		resolver = identityService.NewCachedResolver(resolver, tokens, c.config.IdentityCacheTTL)
	}

	return resolver, nil
}

// initGuardUseCase creates the guard with the identity resolver.
func (c *Container) initGuardUseCase() (identityUseCase.GuardUseCase, error) {
	resolver, err := c.IdentityResolver()
	if err != nil {
		return nil, fmt.Errorf("failed to get identity resolver: %w", err)
	}

	return identityUseCase.NewGuardUseCase(resolver), nil
}
