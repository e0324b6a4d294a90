// Package main provides the entry point for the application with CLI commands.
package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/urfave/cli/v3"

	"github.com/kbalijepalli/dreas/cmd/app/commands"
	"github.com/kbalijepalli/dreas/internal/app"
	"github.com/kbalijepalli/dreas/internal/config"
)

const version = "1.0.0"

func main() {
	cmd := &cli.Command{
		Name:    "dreas",
		Usage:   "Envelope encryption service with break-glass escrow and a tamper-evident audit ledger",
		Version: version,
		Commands: []*cli.Command{
			{
				Name:  "server",
				Usage: "Start the HTTP server",
				Action: func(ctx context.Context, cmd *cli.Command) error {
					return commands.RunServer(ctx, version)
				},
			},
			{
				Name:  "migrate",
				Usage: "Run database migrations",
				Action: func(ctx context.Context, cmd *cli.Command) error {
					return commands.RunMigrations()
				},
			},
			{
				Name:  "verify-audit-chain",
				Usage: "Verify audit ledger integrity over a sequence range",
				Flags: []cli.Flag{
					&cli.UintFlag{
						Name:  "from",
						Value: 1,
						Usage: "First sequence number to verify",
					},
					&cli.UintFlag{
						Name:  "to",
						Value: 0,
						Usage: "Last sequence number to verify (0 = through the head)",
					},
					&cli.StringFlag{
						Name:    "format",
						Aliases: []string{"f"},
						Value:   "text",
						Usage:   "Output format (text or json)",
					},
				},
				Action: func(ctx context.Context, cmd *cli.Command) error {
					return withContainer(func(container *app.Container, logger *slog.Logger) error {
						ledger, err := container.LedgerUseCase()
						if err != nil {
							return fmt.Errorf("failed to initialize ledger: %w", err)
						}
						return commands.RunVerifyAuditChain(
							ctx,
							ledger,
							logger,
							os.Stdout,
							uint64(cmd.Uint("from")),
							uint64(cmd.Uint("to")),
							cmd.String("format"),
						)
					})
				},
			},
			{
				Name:  "audit-report",
				Usage: "Summarize audit ledger activity over a time window",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:  "start-date",
						Usage: "Start of the window (YYYY-MM-DD or YYYY-MM-DD HH:MM:SS)",
					},
					&cli.StringFlag{
						Name:  "end-date",
						Usage: "End of the window (YYYY-MM-DD or YYYY-MM-DD HH:MM:SS)",
					},
					&cli.StringFlag{
						Name:    "format",
						Aliases: []string{"f"},
						Value:   "text",
						Usage:   "Output format (text or json)",
					},
				},
				Action: func(ctx context.Context, cmd *cli.Command) error {
					return withContainer(func(container *app.Container, logger *slog.Logger) error {
						ledger, err := container.LedgerUseCase()
						if err != nil {
							return fmt.Errorf("failed to initialize ledger: %w", err)
						}
						return commands.RunAuditReport(
							ctx,
							ledger,
							logger,
							os.Stdout,
							cmd.String("start-date"),
							cmd.String("end-date"),
							cmd.String("format"),
						)
					})
				},
			},
			{
				Name:  "sweep-escrow",
				Usage: "Expire escrow requests past their TTL",
				Action: func(ctx context.Context, cmd *cli.Command) error {
					return withContainer(func(container *app.Container, logger *slog.Logger) error {
						escrow, err := container.EscrowUseCase()
						if err != nil {
							return fmt.Errorf("failed to initialize escrow: %w", err)
						}
						return commands.RunSweepEscrow(ctx, escrow, logger, os.Stdout)
					})
				},
			},
			{
				Name:  "generate-token",
				Usage: "Generate a bearer token and its hash for an identity binding",
				Action: func(ctx context.Context, cmd *cli.Command) error {
					return withContainer(func(container *app.Container, logger *slog.Logger) error {
						return commands.RunGenerateToken(container.TokenService(), os.Stdout)
					})
				},
			},
		},
	}

	if err := cmd.Run(context.Background(), os.Args); err != nil {
		slog.Error("command failed", slog.Any("error", err))
		os.Exit(1)
	}
}

// withContainer builds a container from the environment, runs fn, and shuts
// the container down afterwards.
func withContainer(fn func(container *app.Container, logger *slog.Logger) error) error {
	cfg := config.Load()
	container := app.NewContainer(cfg)
	logger := container.Logger()

	defer func() {
		if err := container.Shutdown(context.Background()); err != nil {
			logger.Error("failed to shutdown container", slog.Any("error", err))
		}
	}()

	return fn(container, logger)
}
