package service

import (
	"context"
	"errors"
	"time"

	"github.com/rotisserie/eris"
	"github.com/rs/zerolog"

	"github.com/jose-valero/pairup-bot/internal/domain"
	"github.com/jose-valero/pairup-bot/internal/infra/storage"
)

type QueueService struct {
	queue    QueueStore
	matches  MatchStore
	guilds   GuildStore
	interval time.Duration
	now      func() time.Time
	log      zerolog.Logger
}

func NewQueueService(queue QueueStore, matches MatchStore, guilds GuildStore, opts ...Option) *QueueService {
	o := buildOptions("queue", opts)
	return &QueueService{
		queue:    queue,
		matches:  matches,
		guilds:   guilds,
		interval: o.interval,
		now:      o.now,
		log:      o.log,
	}
}

// Enqueue mete al usuario en la cola del guild y devuelve su posición.
func (s *QueueService) Enqueue(ctx context.Context, guildID, userID int64) (domain.Position, error) {
	if !domain.ValidID(guildID, userID) {
		return domain.Position{}, domain.ErrInvalidID
	}

	cfg, err := s.guilds.Get(ctx, guildID)
	if err != nil {
		return domain.Position{}, err
	}
	if cfg.Paused {
		return domain.Position{}, domain.ErrPaused
	}

	busy, err := s.matches.HasActiveMatch(ctx, guildID, userID)
	if err != nil {
		return domain.Position{}, err
	}
	if busy {
		return domain.Position{}, domain.ErrAlreadyMatched
	}

	now := s.now()
	staleBefore := now.Add(-domain.StaleQueueEntry).Unix()
	if err := s.queue.Enqueue(ctx, guildID, userID, now.Unix(), staleBefore); err != nil {
		return domain.Position{}, err
	}
	s.log.Debug().Int64("guild", guildID).Int64("user", userID).Msg("[queue] enqueue")

	return s.PositionAndETA(ctx, guildID, userID)
}

func (s *QueueService) Leave(ctx context.Context, guildID, userID int64) (bool, error) {
	if !domain.ValidID(guildID, userID) {
		return false, domain.ErrInvalidID
	}
	return s.queue.Leave(ctx, guildID, userID)
}

func (s *QueueService) PositionAndETA(ctx context.Context, guildID, userID int64) (domain.Position, error) {
	rank, total, err := s.queue.Position(ctx, guildID, userID)
	if errors.Is(err, domain.ErrNotFound) {
		return domain.Position{}, domain.ErrNotQueued
	}
	if err != nil {
		return domain.Position{}, err
	}
	return domain.Position{
		Rank:  rank,
		Total: total,
		ETA:   domain.ETA(rank-1, s.interval),
	}, nil
}

// Recompute persiste priority_score y boost_until de toda la cola del guild.
func (s *QueueService) Recompute(ctx context.Context, guildID int64) error {
	now := s.now()
	entries, err := s.queue.Candidates(ctx, guildID, CandidateCap)
	if err != nil {
		return err
	}
	if len(entries) == 0 {
		return nil
	}

	skippers, err := s.matches.RecentSkippers(ctx, guildID, now.Add(-domain.SkipBoostWindow).Unix())
	if err != nil {
		// sin boosts esta vuelta; el siguiente recompute lo corrige
		s.log.Warn().Err(err).Int64("guild", guildID).Msg("[queue] recent skippers")
		skippers = nil
	}

	updates := make([]storage.ScoreUpdate, 0, len(entries))
	for _, e := range entries {
		score, boostUntil := scoreEntry(e, now, skippers)
		updates = append(updates, storage.ScoreUpdate{UserID: e.UserID, Score: score, BoostUntil: boostUntil})
	}
	return eris.Wrapf(s.queue.UpdateScores(ctx, guildID, updates), "recompute guild=%d", guildID)
}

func (s *QueueService) RecomputeAll(ctx context.Context) error {
	guilds, err := s.queue.GuildsWithQueue(ctx, 1)
	if err != nil {
		return err
	}
	for _, g := range guilds {
		if err := s.Recompute(ctx, g); err != nil {
			s.log.Warn().Err(err).Int64("guild", g).Msg("[queue] recompute")
		}
	}
	return nil
}

func (s *QueueService) Count(ctx context.Context, guildID int64) (int, error) {
	return s.queue.Count(ctx, guildID)
}

func (s *QueueService) Clear(ctx context.Context, guildID int64) (int64, error) {
	return s.queue.Clear(ctx, guildID)
}

// scoreEntry devuelve el score efectivo y, si aplica, hasta cuándo dura el boost.
func scoreEntry(e domain.QueueEntry, now time.Time, skippers map[int64]int64) (int64, *int64) {
	var lastSkip *time.Time
	var boostUntil *int64
	if at, ok := skippers[e.UserID]; ok {
		t := time.Unix(at, 0)
		lastSkip = &t
		until := t.Add(domain.SkipBoostWindow).Unix()
		if until > now.Unix() {
			boostUntil = &until
		}
	}
	return domain.PriorityScore(time.Unix(e.EnqueuedAt, 0), now, lastSkip), boostUntil
}
