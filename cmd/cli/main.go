package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	postgresRepo "github.com/printdesk/treasury/internal/adapter/repository/postgres"
	"github.com/printdesk/treasury/internal/infrastructure/config"
	"github.com/printdesk/treasury/internal/infrastructure/logger"
	"github.com/printdesk/treasury/internal/infrastructure/postgres"
	"github.com/printdesk/treasury/internal/usecase"
)

var migrationsPath string

func main() {
	rootCmd := &cobra.Command{
		Use:   "treasury-cli",
		Short: "Treasury operations tool",
		Long:  `A command line interface for treasury maintenance tasks: migrations, interest accrual sweeps and outbox cleanup.`,
	}

	migrateCmd := &cobra.Command{
		Use:   "migrate",
		Short: "Database migrations",
	}
	migrateCmd.PersistentFlags().StringVar(&migrationsPath, "path", "migrations", "Path to migration files")

	migrateCmd.AddCommand(&cobra.Command{
		Use:   "up",
		Short: "Apply all pending migrations",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			return postgres.RunMigrations(cfg.DatabaseURL, migrationsPath)
		},
	})

	migrateCmd.AddCommand(&cobra.Command{
		Use:   "down",
		Short: "Roll back the last migration",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			return postgres.RunMigrationsDown(cfg.DatabaseURL, migrationsPath)
		},
	})

	sweepCmd := &cobra.Command{
		Use:   "sweep",
		Short: "Run one interest accrual sweep across all tenants",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSweep(cmd.Context())
		},
	}

	var pruneBefore time.Duration
	pruneCmd := &cobra.Command{
		Use:   "outbox-prune",
		Short: "Delete outbox events published longer ago than the retention window",
		RunE: func(cmd *cobra.Command, args []string) error {
			return pruneOutbox(cmd.Context(), pruneBefore)
		},
	}
	pruneCmd.Flags().DurationVar(&pruneBefore, "retention", 7*24*time.Hour, "Retention window for published events")

	rootCmd.AddCommand(migrateCmd, sweepCmd, pruneCmd)

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func runSweep(ctx context.Context) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	log := logger.New(logger.Config{Level: cfg.LogLevel, Format: cfg.LogFormat})

	pool, err := postgres.NewPoolWithConfig(ctx, postgres.PoolConfig{
		DatabaseURL:    cfg.DatabaseURL,
		MaxConns:       cfg.DatabaseMaxConns,
		MinConns:       cfg.DatabaseMinConns,
		ConnectTimeout: cfg.DatabaseTimeout,
	})
	if err != nil {
		return err
	}
	defer pool.Close()

	txManager := postgresRepo.NewTxManager(pool)
	receivableRepo := postgresRepo.NewReceivableRepository(pool)
	outboxRepo := postgresRepo.NewOutboxRepository(pool)
	auditRepo := postgresRepo.NewAuditRepository(pool)
	idGen := postgresRepo.NewULIDGenerator()

	receivableUC := usecase.NewReceivableUseCase(txManager, receivableRepo, outboxRepo, auditRepo, idGen, nil, log)

	result, err := receivableUC.RunAccrualSweep(ctx, time.Now().UTC())
	if err != nil {
		return err
	}

	fmt.Printf("sweep finished: scanned=%d accrued=%d skipped=%d failed=%d\n",
		result.Scanned, result.Accrued, result.Skipped, result.Failed)

	return nil
}

func pruneOutbox(ctx context.Context, retention time.Duration) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	pool, err := postgres.NewPoolWithConfig(ctx, postgres.PoolConfig{
		DatabaseURL:    cfg.DatabaseURL,
		MaxConns:       cfg.DatabaseMaxConns,
		MinConns:       cfg.DatabaseMinConns,
		ConnectTimeout: cfg.DatabaseTimeout,
	})
	if err != nil {
		return err
	}
	defer pool.Close()

	outboxRepo := postgresRepo.NewOutboxRepository(pool)

	cutoff := time.Now().UTC().Add(-retention)
	if err := outboxRepo.DeletePublished(ctx, cutoff); err != nil {
		return err
	}

	fmt.Printf("pruned outbox events published before %s\n", cutoff.Format(time.RFC3339))

	return nil
}
