package main

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/spf13/cobra"

	"github.com/jhoicas/pos-api/internal/infrastructure/postgres"
	"github.com/jhoicas/pos-api/pkg/config"
	"github.com/jhoicas/pos-api/pkg/logger"
)

var rootCmd = &cobra.Command{
	Use:           "posctl",
	Short:         "Herramientas de operación del POS",
	SilenceUsage:  true,
	SilenceErrors: false,
}

func init() {
	rootCmd.AddCommand(migrateCmd, ledgerCmd, tokenCmd)
}

// env configuración y logger compartidos por los subcomandos.
type env struct {
	cfg *config.Config
	log *logger.Logger
}

func loadEnv() (*env, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}
	return &env{cfg: cfg, log: logger.New(logger.Config{Env: cfg.App.Env, Level: cfg.App.LogLevel})}, nil
}

func (e *env) pool(ctx context.Context) (*pgxpool.Pool, error) {
	if e.cfg.App.Store != config.StorePostgres {
		return nil, fmt.Errorf("STORE_DRIVER=%s: este comando requiere postgres", e.cfg.App.Store)
	}
	return postgres.NewPool(ctx, e.cfg.DB, e.log.Component("postgres"))
}
