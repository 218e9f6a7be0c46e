package main

import (
	"fmt"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/jose-valero/pairup-bot/internal/infra/config"
)

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Aplica las migraciones pendientes y sale",
	RunE: func(cmd *cobra.Command, _ []string) error {
		cfg := config.MustLoad()
		db, err := openStore(cmd.Context(), cfg)
		if err != nil {
			return err
		}
		defer db.Close()
		fmt.Fprintln(cmd.OutOrStdout(), color.GreenString("✅ migraciones aplicadas en %s", cfg.DatabasePath))
		return nil
	},
}
