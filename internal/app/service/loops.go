package service

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"
)

// Loop es una tarea periódica supervisada.
type Loop struct {
	Name  string
	Every time.Duration
	Run   func(ctx context.Context) error
}

// RunLoops corre cada loop en su goroutine hasta que ctx se cancela.
// Los errores de cada tick se loguean; el loop sigue.
func RunLoops(ctx context.Context, log zerolog.Logger, loops ...Loop) error {
	log = log.With().Str("component", "loops").Logger()
	for _, l := range loops {
		if l.Every <= 0 {
			return fmt.Errorf("loop %q: invalid interval %s", l.Name, l.Every)
		}
	}
	g, ctx := errgroup.WithContext(ctx)
	for _, l := range loops {
		g.Go(func() error {
			runLoop(ctx, log, l)
			return nil
		})
	}
	return g.Wait()
}

func runLoop(ctx context.Context, log zerolog.Logger, l Loop) {
	t := time.NewTicker(l.Every)
	defer t.Stop()
	log.Debug().Str("loop", l.Name).Dur("every", l.Every).Msg("[loops] start")
	for {
		select {
		case <-ctx.Done():
			log.Debug().Str("loop", l.Name).Msg("[loops] stop")
			return
		case <-t.C:
			tick(ctx, log, l)
		}
	}
}

func tick(ctx context.Context, log zerolog.Logger, l Loop) {
	defer func() {
		if r := recover(); r != nil {
			log.Error().Str("loop", l.Name).Interface("panic", r).Msg("[loops] panic")
		}
	}()
	if err := l.Run(ctx); err != nil && ctx.Err() == nil {
		log.Warn().Err(err).Str("loop", l.Name).Msg("[loops] tick")
	}
}
