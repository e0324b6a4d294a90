package app

import (
	"fmt"

	auditRepository "github.com/kbalijepalli/dreas/internal/audit/repository"
	auditUseCase "github.com/kbalijepalli/dreas/internal/audit/usecase"
)

// LedgerRepository returns the audit ledger store for the configured backend.
func (c *Container) LedgerRepository() (auditUseCase.LedgerStore, error) {
	var err error
	c.ledgerRepoInit.Do(func() {
		c.ledgerRepository, err = c.initLedgerRepository()
		if err != nil {
			c.initErrors["ledgerRepository"] = err
		}
	})
	if err != nil {
		return nil, err
	}
	if storedErr, exists := c.initErrors["ledgerRepository"]; exists {
		return nil, storedErr
	}
	return c.ledgerRepository, nil
}

// LedgerUseCase returns the audit ledger use case.
func (c *Container) LedgerUseCase() (auditUseCase.LedgerUseCase, error) {
	var err error
	c.ledgerUseCaseInit.Do(func() {
		c.ledgerUseCase, err = c.initLedgerUseCase()
		if err != nil {
			c.initErrors["ledgerUseCase"] = err
		}
	})
	if err != nil {
		return nil, err
	}
	if storedErr, exists := c.initErrors["ledgerUseCase"]; exists {
		return nil, storedErr
	}
	return c.ledgerUseCase, nil
}

// initLedgerRepository creates the ledger store for the configured backend.
func (c *Container) initLedgerRepository() (auditUseCase.LedgerStore, error) {
	if c.config.StoreBackend == "memory" {
		return auditRepository.NewMemoryLedgerRepository(), nil
	}

	db, err := c.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get database for ledger repository: %w", err)
	}

	switch c.config.DBDriver {
	case "postgres":
		return auditRepository.NewPostgreSQLLedgerRepository(db), nil
	case "mysql":
		return auditRepository.NewMySQLLedgerRepository(db), nil
	default:
		return nil, fmt.Errorf("unsupported database driver: %s", c.config.DBDriver)
	}
}

// initLedgerUseCase creates the ledger use case with its dependencies.
func (c *Container) initLedgerUseCase() (auditUseCase.LedgerUseCase, error) {
	store, err := c.LedgerRepository()
	if err != nil {
		return nil, fmt.Errorf("failed to get ledger repository: %w", err)
	}

	txManager, err := c.TxManager()
	if err != nil {
		return nil, fmt.Errorf("failed to get tx manager for ledger use case: %w", err)
	}

	useCase := auditUseCase.NewLedgerUseCase(store, txManager)

	businessMetrics, err := c.BusinessMetrics()
	if err != nil {
		return nil, fmt.Errorf("failed to get business metrics: %w", err)
	}
	if businessMetrics != nil {
		useCase = auditUseCase.NewLedgerUseCaseWithMetrics(useCase, businessMetrics)
	}

	return useCase, nil
}
