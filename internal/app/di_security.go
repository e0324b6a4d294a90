package app

import (
	"fmt"

	securityHTTP "github.com/kbalijepalli/dreas/internal/security/http"
	securityUseCase "github.com/kbalijepalli/dreas/internal/security/usecase"
)

// SecurityUseCase returns the guarded security facade.
func (c *Container) SecurityUseCase() (securityUseCase.SecurityUseCase, error) {
	var err error
	c.securityUseCaseInit.Do(func() {
		c.securityUseCase, err = c.initSecurityUseCase()
		if err != nil {
			c.initErrors["securityUseCase"] = err
		}
	})
	if err != nil {
		return nil, err
	}
	if storedErr, exists := c.initErrors["securityUseCase"]; exists {
		return nil, storedErr
	}
	return c.securityUseCase, nil
}

// SecurityHandler returns the HTTP handler for protect and reveal operations.
func (c *Container) SecurityHandler() (*securityHTTP.SecurityHandler, error) {
	var err error
	c.securityHandlerInit.Do(func() {
		c.securityHandler, err = c.initSecurityHandler()
		if err != nil {
			c.initErrors["securityHandler"] = err
		}
	})
	if err != nil {
		return nil, err
	}
	if storedErr, exists := c.initErrors["securityHandler"]; exists {
		return nil, storedErr
	}
	return c.securityHandler, nil
}

// EscrowHandler returns the HTTP handler for the break-glass workflow.
func (c *Container) EscrowHandler() (*securityHTTP.EscrowHandler, error) {
	var err error
	c.escrowHandlerInit.Do(func() {
		c.escrowHandler, err = c.initEscrowHandler()
		if err != nil {
			c.initErrors["escrowHandler"] = err
		}
	})
	if err != nil {
		return nil, err
	}
	if storedErr, exists := c.initErrors["escrowHandler"]; exists {
		return nil, storedErr
	}
	return c.escrowHandler, nil
}

// AuditHandler returns the HTTP handler for reading the audit ledger.
func (c *Container) AuditHandler() (*securityHTTP.AuditHandler, error) {
	var err error
	c.auditHandlerInit.Do(func() {
		c.auditHandler, err = c.initAuditHandler()
		if err != nil {
			c.initErrors["auditHandler"] = err
		}
	})
	if err != nil {
		return nil, err
	}
	if storedErr, exists := c.initErrors["auditHandler"]; exists {
		return nil, storedErr
	}
	return c.auditHandler, nil
}

// initSecurityUseCase creates the facade with all its dependencies.
func (c *Container) initSecurityUseCase() (securityUseCase.SecurityUseCase, error) {
	guard, err := c.GuardUseCase()
	if err != nil {
		return nil, fmt.Errorf("failed to get guard use case: %w", err)
	}

	keyProvider, err := c.KeyProvider()
	if err != nil {
		return nil, fmt.Errorf("failed to get key provider for security use case: %w", err)
	}

	codec, err := c.EnvelopeCodec()
	if err != nil {
		return nil, fmt.Errorf("failed to get envelope codec for security use case: %w", err)
	}

	escrow, err := c.EscrowUseCase()
	if err != nil {
		return nil, fmt.Errorf("failed to get escrow use case: %w", err)
	}

	ledger, err := c.LedgerUseCase()
	if err != nil {
		return nil, fmt.Errorf("failed to get ledger use case: %w", err)
	}

	useCase := securityUseCase.NewSecurityUseCase(guard, keyProvider, codec, escrow, ledger)

	businessMetrics, err := c.BusinessMetrics()
	if err != nil {
		return nil, fmt.Errorf("failed to get business metrics: %w", err)
	}
	if businessMetrics != nil {
		useCase = securityUseCase.NewSecurityUseCaseWithMetrics(useCase, businessMetrics)
	}

	return useCase, nil
}

// initSecurityHandler creates the protect/reveal handler.
func (c *Container) initSecurityHandler() (*securityHTTP.SecurityHandler, error) {
	useCase, err := c.SecurityUseCase()
	if err != nil {
		return nil, fmt.Errorf("failed to get security use case: %w", err)
	}

	return securityHTTP.NewSecurityHandler(useCase, c.Logger()), nil
}

// initEscrowHandler creates the break-glass handler.
func (c *Container) initEscrowHandler() (*securityHTTP.EscrowHandler, error) {
	useCase, err := c.SecurityUseCase()
	if err != nil {
		return nil, fmt.Errorf("failed to get security use case: %w", err)
	}

	return securityHTTP.NewEscrowHandler(useCase, c.Logger()), nil
}

// initAuditHandler creates the audit ledger handler.
func (c *Container) initAuditHandler() (*securityHTTP.AuditHandler, error) {
	useCase, err := c.SecurityUseCase()
	if err != nil {
		return nil, fmt.Errorf("failed to get security use case: %w", err)
	}

	return securityHTTP.NewAuditHandler(useCase, c.Logger()), nil
}
