package service

import (
	"time"

	"github.com/rs/zerolog"

	"github.com/jose-valero/pairup-bot/internal/domain"
)

type options struct {
	now      func() time.Time
	log      zerolog.Logger
	interval time.Duration
}

type Option func(*options)

// WithClock inyecta el reloj (tests).
func WithClock(now func() time.Time) Option {
	return func(o *options) { o.now = now }
}

func WithLogger(l zerolog.Logger) Option {
	return func(o *options) { o.log = l }
}

// WithPairingInterval: cada cuánto corre el sweep (afecta al ETA).
func WithPairingInterval(d time.Duration) Option {
	return func(o *options) {
		if d > 0 {
			o.interval = d
		}
	}
}

func buildOptions(component string, opts []Option) options {
	o := options{now: time.Now, log: zerolog.Nop(), interval: domain.PairingInterval}
	for _, fn := range opts {
		fn(&o)
	}
	o.log = o.log.With().Str("component", component).Logger()
	return o
}
