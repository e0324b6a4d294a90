package commands

import (
	"context"
	"fmt"
	"io"
	"log/slog"

	escrowUseCase "github.com/kbalijepalli/dreas/internal/escrow/usecase"
)

// RunSweepEscrow transitions escrow requests past their TTL to expired.
// Intended to run periodically (e.g. from cron); redemption also expires
// requests lazily, so the sweep only keeps listings and stats current.
func RunSweepEscrow(
	ctx context.Context,
	escrow escrowUseCase.EscrowUseCase,
	logger *slog.Logger,
	writer io.Writer,
) error {
	logger.Info("sweeping expired escrow requests")

	expired, err := escrow.SweepExpired(ctx)
	if err != nil {
		return fmt.Errorf("failed to sweep escrow requests: %w", err)
	}

	_, _ = fmt.Fprintf(writer, "Expired %d escrow request(s)\n", expired)

	logger.Info("escrow sweep completed", slog.Int("expired", expired))
	return nil
}
