package app

import (
	"fmt"

	escrowRepository "github.com/kbalijepalli/dreas/internal/escrow/repository"
	escrowUseCase "github.com/kbalijepalli/dreas/internal/escrow/usecase"
)

// EscrowRepository returns the escrow request store for the configured
// backend.
func (c *Container) EscrowRepository() (escrowUseCase.EscrowRepository, error) {
	var err error
	c.escrowRepoInit.Do(func() {
		c.escrowRepository, err = c.initEscrowRepository()
		if err != nil {
			c.initErrors["escrowRepository"] = err
		}
	})
	if err != nil {
		return nil, err
	}
	if storedErr, exists := c.initErrors["escrowRepository"]; exists {
		return nil, storedErr
	}
	return c.escrowRepository, nil
}

// EscrowUseCase returns the break-glass escrow use case.
func (c *Container) EscrowUseCase() (escrowUseCase.EscrowUseCase, error) {
	var err error
	c.escrowUseCaseInit.Do(func() {
		c.escrowUseCase, err = c.initEscrowUseCase()
		if err != nil {
			c.initErrors["escrowUseCase"] = err
		}
	})
	if err != nil {
		return nil, err
	}
	if storedErr, exists := c.initErrors["escrowUseCase"]; exists {
		return nil, storedErr
	}
	return c.escrowUseCase, nil
}

// initEscrowRepository creates the escrow store for the configured backend.
func (c *Container) initEscrowRepository() (escrowUseCase.EscrowRepository, error) {
	if c.config.StoreBackend == "memory" {
		return escrowRepository.NewMemoryEscrowRepository(), nil
	}

	db, err := c.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get database for escrow repository: %w", err)
	}

	switch c.config.DBDriver {
	case "postgres":
		return escrowRepository.NewPostgreSQLEscrowRepository(db), nil
	case "mysql":
		return escrowRepository.NewMySQLEscrowRepository(db), nil
	default:
		return nil, fmt.Errorf("unsupported database driver: %s", c.config.DBDriver)
	}
}

// initEscrowUseCase creates the escrow use case with its dependencies.
func (c *Container) initEscrowUseCase() (escrowUseCase.EscrowUseCase, error) {
	repository, err := c.EscrowRepository()
	if err != nil {
		return nil, fmt.Errorf("failed to get escrow repository: %w", err)
	}

	keyProvider, err := c.KeyProvider()
	if err != nil {
		return nil, fmt.Errorf("failed to get key provider for escrow use case: %w", err)
	}

	codec, err := c.EnvelopeCodec()
	if err != nil {
		return nil, fmt.Errorf("failed to get envelope codec for escrow use case: %w", err)
	}

	useCase := escrowUseCase.NewEscrowUseCase(
		repository,
		keyProvider,
		codec,
		c.config.EscrowApprovalThreshold,
		c.config.EscrowRequestTTL,
	)

	businessMetrics, err := c.BusinessMetrics()
	if err != nil {
		return nil, fmt.Errorf("failed to get business metrics: %w", err)
	}
	if businessMetrics != nil {
		useCase = escrowUseCase.NewEscrowUseCaseWithMetrics(useCase, businessMetrics)
	}

	return useCase, nil
}
