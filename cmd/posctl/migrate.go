package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/jhoicas/pos-api/internal/infrastructure/postgres"
)

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Aplica o revierte las migraciones embebidas",
}

var migrateUpCmd = &cobra.Command{
	Use:   "up",
	Short: "Aplica las migraciones pendientes",
	RunE: func(cmd *cobra.Command, _ []string) error {
		return withMigrator(func(mg *postgres.Migrator) error { return mg.Up() })
	},
}

var migrateDownCmd = &cobra.Command{
	Use:   "down",
	Short: "Revierte todas las migraciones",
	RunE: func(cmd *cobra.Command, _ []string) error {
		return withMigrator(func(mg *postgres.Migrator) error { return mg.Down() })
	},
}

var migrateVersionCmd = &cobra.Command{
	Use:   "version",
	Short: "Muestra la versión aplicada",
	RunE: func(cmd *cobra.Command, _ []string) error {
		return withMigrator(func(mg *postgres.Migrator) error {
			v, dirty, err := mg.Version()
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "version=%d dirty=%t\n", v, dirty)
			return nil
		})
	},
}

func init() {
	migrateCmd.AddCommand(migrateUpCmd, migrateDownCmd, migrateVersionCmd)
}

func withMigrator(fn func(mg *postgres.Migrator) error) (err error) {
	e, err := loadEnv()
	if err != nil {
		return err
	}
	mg, err := postgres.NewMigrator(e.cfg.DB, e.log.Component("migrate"))
	if err != nil {
		return err
	}
	defer func() { err = errors.Join(err, mg.Close()) }()
	return fn(mg)
}
