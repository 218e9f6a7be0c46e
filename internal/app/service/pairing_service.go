package service

import (
	"cmp"
	"context"
	"errors"
	"slices"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/jose-valero/pairup-bot/internal/domain"
	"github.com/jose-valero/pairup-bot/internal/infra/storage"
)

const (
	CandidateCap = 2000
	ScanWindow   = 200
)

// RoleSource lo implementa RoleCache.
type RoleSource interface {
	Roles(ctx context.Context, guildID, userID int64) ([]int64, bool)
}

// MatchOpener lo implementa MatchRoomsService.
type MatchOpener interface {
	OpenMatch(ctx context.Context, pair domain.Pair) (domain.Match, error)
}

type PairingService struct {
	queue   QueueStore
	matches MatchStore
	blocks  BlockStore
	guilds  GuildStore
	roles   RoleSource
	opener  MatchOpener

	locks    *keyedLocks
	inflight sync.WaitGroup
	now      func() time.Time
	log      zerolog.Logger
}

func NewPairingService(queue QueueStore, matches MatchStore, blocks BlockStore, guilds GuildStore, roles RoleSource, opener MatchOpener, opts ...Option) *PairingService {
	o := buildOptions("pairing", opts)
	return &PairingService{
		queue:   queue,
		matches: matches,
		blocks:  blocks,
		guilds:  guilds,
		roles:   roles,
		opener:  opener,
		locks:   newKeyedLocks(),
		now:     o.now,
		log:     o.log,
	}
}

// FindPair busca el primer par elegible dentro de la ventana de escaneo. No escribe nada salvo la purga de bloqueos vencidos.
func (p *PairingService) FindPair(ctx context.Context, guildID int64) (domain.Pair, bool, error) {
	now := p.now()
	log := p.log.With().Int64("guild", guildID).Logger()

	cands, err := p.queue.Candidates(ctx, guildID, CandidateCap)
	if err != nil {
		return domain.Pair{}, false, err
	}
	if len(cands) < 2 {
		return domain.Pair{}, false, nil
	}

	skippers, err := p.matches.RecentSkippers(ctx, guildID, now.Add(-domain.SkipBoostWindow).Unix())
	if err != nil {
		log.Warn().Err(err).Msg("[pairing] recent skippers")
		skippers = nil
	}
	for i := range cands {
		cands[i].PriorityScore, _ = scoreEntry(cands[i], now, skippers)
	}
	slices.SortStableFunc(cands, func(a, b domain.QueueEntry) int {
		if c := cmp.Compare(b.PriorityScore, a.PriorityScore); c != 0 {
			return c
		}
		if c := cmp.Compare(a.EnqueuedAt, b.EnqueuedAt); c != 0 {
			return c
		}
		return cmp.Compare(a.UserID, b.UserID)
	})

	if _, err := p.blocks.PurgeExpired(ctx, guildID, now.Unix()); err != nil {
		// Active ya filtra por blocked_until, la purga es solo limpieza
		log.Warn().Err(err).Msg("[pairing] purge blocks")
	}
	blocked, err := p.blocks.Active(ctx, guildID, now.Unix())
	if err != nil {
		return domain.Pair{}, false, err
	}

	recent, err := p.matches.RecentlyMatchedUsers(ctx, guildID, now.Add(-domain.RecentMatchWindow).Unix())
	if err != nil {
		log.Warn().Err(err).Msg("[pairing] recently matched")
		recent = nil
	}

	// resultado de roles por sweep, para no consultar dos veces al mismo usuario
	eligible := map[int64]bool{}
	ok := func(userID int64) bool {
		if _, busy := recent[userID]; busy {
			return false
		}
		if v, seen := eligible[userID]; seen {
			return v
		}
		_, v := p.roles.Roles(ctx, guildID, userID)
		eligible[userID] = v
		return v
	}

	n := len(cands)
	for i := 0; i < min(n, ScanWindow); i++ {
		a := cands[i]
		if !ok(a.UserID) {
			continue
		}
		for j := i + 1; j < min(n, i+1+ScanWindow); j++ {
			b := cands[j]
			if _, isBlocked := blocked[storage.NewPairKey(a.UserID, b.UserID)]; isBlocked {
				continue
			}
			if !ok(b.UserID) {
				continue
			}
			return domain.Pair{GuildID: guildID, First: a, Second: b}, true, nil
		}
	}
	return domain.Pair{}, false, nil
}

// SweepGuild: un sweep por guild a la vez. Si el lock está tomado se descarta este tick.
func (p *PairingService) SweepGuild(ctx context.Context, guildID int64) (bool, error) {
	unlock, ok := p.locks.TryLock(guildID)
	if !ok {
		return false, nil
	}
	defer unlock()

	cfg, err := p.guilds.Get(ctx, guildID)
	if err != nil {
		return false, err
	}
	if cfg.Paused {
		return false, nil
	}

	pair, found, err := p.FindPair(ctx, guildID)
	if err != nil || !found {
		return false, err
	}

	m, err := p.opener.OpenMatch(ctx, pair)
	if err != nil {
		return false, err
	}
	p.log.Info().
		Int64("guild", guildID).
		Int64("thread", m.ThreadID).
		Int64("room", m.RoomNumber).
		Int64("u1", m.User1ID).
		Int64("u2", m.User2ID).
		Msg("[pairing] match")
	return true, nil
}

// SweepAll lanza un sweep por guild sin esperarlo: una sala lenta en un guild no frena a los demás.
func (p *PairingService) SweepAll(ctx context.Context) error {
	guilds, err := p.queue.GuildsWithQueue(ctx, 2)
	if err != nil {
		return err
	}
	for _, g := range guilds {
		p.inflight.Add(1)
		go func(guildID int64) {
			defer p.inflight.Done()
			if _, err := p.SweepGuild(ctx, guildID); err != nil {
				p.logSweepError(guildID, err)
			}
		}(g)
	}
	return nil
}

// Wait espera los sweeps en vuelo (shutdown).
func (p *PairingService) Wait() { p.inflight.Wait() }

func (p *PairingService) logSweepError(guildID int64, err error) {
	ev := p.log.Warn()
	switch {
	case errors.Is(err, context.Canceled):
		return
	case errors.Is(err, domain.ErrNotConfigured):
		ev = p.log.Debug()
	case errors.Is(err, domain.ErrPairStale):
		ev = p.log.Info()
	}
	ev.Err(err).Int64("guild", guildID).Msg("[pairing] sweep")
}
