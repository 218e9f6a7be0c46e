package service

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"github.com/jose-valero/pairup-bot/internal/domain"
)

const MaxStatsDays = 365

// AdminService agrupa la configuración por guild y las acciones de moderación de la cola.
type AdminService struct {
	guilds  GuildStore
	queue   QueueStore
	blocks  BlockStore
	matches MatchStore
	prefs   PrefsStore
	now     func() time.Time
	log     zerolog.Logger
}

func NewAdminService(guilds GuildStore, queue QueueStore, blocks BlockStore, matches MatchStore, prefs PrefsStore, opts ...Option) *AdminService {
	o := buildOptions("admin", opts)
	return &AdminService{guilds: guilds, queue: queue, blocks: blocks, matches: matches, prefs: prefs, now: o.now, log: o.log}
}

func (s *AdminService) Config(ctx context.Context, guildID int64) (domain.GuildConfig, error) {
	if !domain.ValidID(guildID) {
		return domain.GuildConfig{}, domain.ErrInvalidID
	}
	return s.guilds.Get(ctx, guildID)
}

func (s *AdminService) SetParentChannel(ctx context.Context, guildID, channelID int64) error {
	if !domain.ValidID(guildID, channelID) {
		return domain.ErrInvalidID
	}
	s.log.Info().Int64("guild", guildID).Int64("channel", channelID).Msg("[admin] parent channel")
	return s.guilds.SetParentChannel(ctx, guildID, channelID, s.now().Unix())
}

func (s *AdminService) SetReportChannel(ctx context.Context, guildID, channelID int64) error {
	if !domain.ValidID(guildID, channelID) {
		return domain.ErrInvalidID
	}
	s.log.Info().Int64("guild", guildID).Int64("channel", channelID).Msg("[admin] report channel")
	return s.guilds.SetReportChannel(ctx, guildID, channelID, s.now().Unix())
}

func (s *AdminService) ClearQueue(ctx context.Context, guildID int64) (int64, error) {
	if !domain.ValidID(guildID) {
		return 0, domain.ErrInvalidID
	}
	return s.queue.Clear(ctx, guildID)
}

func (s *AdminService) ClearBlocks(ctx context.Context, guildID int64) (int64, error) {
	if !domain.ValidID(guildID) {
		return 0, domain.ErrInvalidID
	}
	return s.blocks.Clear(ctx, guildID)
}

func (s *AdminService) Pause(ctx context.Context, guildID int64) error {
	if !domain.ValidID(guildID) {
		return domain.ErrInvalidID
	}
	return s.guilds.SetPaused(ctx, guildID, true, s.now().Unix())
}

func (s *AdminService) Resume(ctx context.Context, guildID int64) error {
	if !domain.ValidID(guildID) {
		return domain.ErrInvalidID
	}
	return s.guilds.SetPaused(ctx, guildID, false, s.now().Unix())
}

// Reset borra la config del guild (canales, contador de salas, pausa).
func (s *AdminService) Reset(ctx context.Context, guildID int64) error {
	if !domain.ValidID(guildID) {
		return domain.ErrInvalidID
	}
	s.log.Warn().Int64("guild", guildID).Msg("[admin] reset")
	return s.guilds.Reset(ctx, guildID)
}

// Stats: matches creados y espera media en [from, to), más la foto actual de cola y salas.
func (s *AdminService) Stats(ctx context.Context, guildID int64, from, to time.Time) (domain.Stats, error) {
	if !domain.ValidID(guildID) {
		return domain.Stats{}, domain.ErrInvalidID
	}
	if !to.After(from) {
		return domain.Stats{}, domain.ErrInvalidDuration
	}
	created, avgWait, err := s.matches.HistoryStats(ctx, guildID, from.Unix(), to.Unix())
	if err != nil {
		return domain.Stats{}, err
	}
	queued, err := s.queue.Count(ctx, guildID)
	if err != nil {
		return domain.Stats{}, err
	}
	open, err := s.matches.CountOpen(ctx, guildID)
	if err != nil {
		return domain.Stats{}, err
	}
	return domain.Stats{
		GuildID:        guildID,
		From:           from.Unix(),
		To:             to.Unix(),
		MatchesCreated: created,
		Queued:         queued,
		OpenRooms:      open,
		AvgWait:        time.Duration(avgWait * float64(time.Second)),
	}, nil
}

// StatsForDays: últimos N días hasta ahora.
func (s *AdminService) StatsForDays(ctx context.Context, guildID int64, days int) (domain.Stats, error) {
	if days <= 0 || days > MaxStatsDays {
		return domain.Stats{}, domain.ErrInvalidDuration
	}
	to := s.now()
	return s.Stats(ctx, guildID, to.AddDate(0, 0, -days), to)
}

func (s *AdminService) SetDMEnabled(ctx context.Context, userID int64, enabled bool) error {
	if !domain.ValidID(userID) {
		return domain.ErrInvalidID
	}
	return s.prefs.SetDMEnabled(ctx, userID, enabled)
}

func (s *AdminService) DMEnabled(ctx context.Context, userID int64) (bool, error) {
	if !domain.ValidID(userID) {
		return false, domain.ErrInvalidID
	}
	return s.prefs.DMEnabled(ctx, userID)
}
