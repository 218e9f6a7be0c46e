package service

import (
	"context"
	"time"

	"github.com/rs/zerolog"
)

// SkipRetention: los votos de skip solo alimentan el boost (5 min) y el filtro de recientes (24h).
const SkipRetention = 7 * 24 * time.Hour

// queue_history es append-only: la retención nunca la toca.
type RetentionMatchStore interface {
	PruneSkips(ctx context.Context, before int64) (int64, error)
}

type RetentionBlockStore interface {
	PurgeAllExpired(ctx context.Context, now int64) (int64, error)
}

type RetentionPendingStore interface {
	PruneClosed(ctx context.Context) (int64, error)
}

type RetentionReport struct {
	Skips   int64 `json:"skips"`
	Blocks  int64 `json:"blocks"`
	Pending int64 `json:"pending"`
}

// RetentionService es lo que corre el janitor: borra lo que ya no sirve para decidir nada.
type RetentionService struct {
	matches RetentionMatchStore
	blocks  RetentionBlockStore
	pending RetentionPendingStore
	now     func() time.Time
	log     zerolog.Logger
}

func NewRetentionService(matches RetentionMatchStore, blocks RetentionBlockStore, pending RetentionPendingStore, opts ...Option) *RetentionService {
	o := buildOptions("retention", opts)
	return &RetentionService{
		matches: matches,
		blocks:  blocks,
		pending: pending,
		now:     o.now,
		log:     o.log,
	}
}

func (s *RetentionService) Run(ctx context.Context) (RetentionReport, error) {
	now := s.now()
	var (
		rep RetentionReport
		err error
	)
	if rep.Skips, err = s.matches.PruneSkips(ctx, now.Add(-SkipRetention).Unix()); err != nil {
		return rep, err
	}
	if rep.Blocks, err = s.blocks.PurgeAllExpired(ctx, now.Unix()); err != nil {
		return rep, err
	}
	if rep.Pending, err = s.pending.PruneClosed(ctx); err != nil {
		return rep, err
	}
	s.log.Info().
		Int64("skips", rep.Skips).
		Int64("blocks", rep.Blocks).
		Int64("pending", rep.Pending).
		Msg("[retention] done")
	return rep, nil
}
