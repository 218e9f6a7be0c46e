package main

import (
	"context"
	"os"
	"time"

	"github.com/aws/aws-lambda-go/lambda"
	"github.com/rs/zerolog"

	"github.com/jose-valero/pairup-bot/internal/app/service"
	"github.com/jose-valero/pairup-bot/internal/infra/config"
	"github.com/jose-valero/pairup-bot/internal/infra/storage"
)

const runTimeout = 2 * time.Minute

func handler(ctx context.Context) (service.RetentionReport, error) {
	cfg, err := config.Load()
	if err != nil {
		return service.RetentionReport{}, err
	}
	log := zerolog.New(os.Stderr).With().Timestamp().Str("app", "janitor").Logger()

	ctx, cancel := context.WithTimeout(ctx, runTimeout)
	defer cancel()

	db, err := storage.Open(ctx, cfg.DatabasePath)
	if err != nil {
		return service.RetentionReport{}, err
	}
	defer db.Close()
	if err := storage.Migrate(db); err != nil {
		return service.RetentionReport{}, err
	}

	rep, err := service.NewRetentionService(
		storage.NewMatchRepo(db),
		storage.NewBlockRepo(db),
		storage.NewPendingRepo(db),
		service.WithLogger(log),
	).Run(ctx)
	if err != nil {
		log.Error().Err(err).Msg("[janitor] retention")
		return rep, err
	}
	if err := storage.Checkpoint(ctx, db); err != nil {
		log.Warn().Err(err).Msg("[janitor] checkpoint")
	}
	return rep, nil
}

// Desde un shell (o cron) en el host del bot corre una vez. Bajo Lambda corre por evento,
// y DATABASE_PATH tiene que apuntar a un montaje compartido (EFS) con el del bot.
func main() {
	if os.Getenv("AWS_LAMBDA_RUNTIME_API") != "" {
		lambda.Start(handler)
		return
	}
	if _, err := handler(context.Background()); err != nil {
		os.Exit(1)
	}
}
