package main

import (
	"context"
	"database/sql"
	"io"
	"os"
	"time"

	"github.com/fatih/color"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/jose-valero/pairup-bot/internal/infra/config"
	"github.com/jose-valero/pairup-bot/internal/infra/storage"
)

const logo = `
  ___       _
 | _ \__ _ (_)_ _ _  _ _ __
 |  _/ _' || | '_| || | '_ \
 |_| \__,_||_|_|  \_,_| .__/
                      |_|
`

var rootCmd = &cobra.Command{
	Use:           "pairup",
	Short:         "pairup: matchmaking 1 a 1 para Discord",
	Long:          color.CyanString(logo) + "\nEmpareja usuarios de a dos y les abre una sala privada.",
	SilenceUsage:  true,
	// sin subcomando arranca el bot
	RunE: runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd, migrateCmd, statsCmd)
}

func newLogger(cfg config.Config) zerolog.Logger {
	lvl, err := zerolog.ParseLevel(cfg.LogLevel)
	if err != nil || lvl == zerolog.NoLevel {
		lvl = zerolog.InfoLevel
	}
	var w io.Writer = os.Stderr
	if cfg.LogPretty {
		w = zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.DateTime}
	}
	return zerolog.New(w).Level(lvl).With().Timestamp().Logger()
}

// openStore abre y migra. Lo comparten serve, migrate y stats.
func openStore(ctx context.Context, cfg config.Config) (*sql.DB, error) {
	db, err := storage.Open(ctx, cfg.DatabasePath)
	if err != nil {
		return nil, err
	}
	if err := storage.Migrate(db); err != nil {
		_ = db.Close()
		return nil, err
	}
	return db, nil
}
