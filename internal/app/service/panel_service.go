package service

import (
	"context"
	"errors"
	"time"

	"github.com/rs/zerolog"

	"github.com/jose-valero/pairup-bot/internal/domain"
)

// PanelService mantiene el contador de cola publicado en cada guild.
type PanelService struct {
	panels  PanelStore
	ui      PanelGateway
	queue   QueueStore
	matches MatchStore
	guilds  GuildStore
	now     func() time.Time
	log     zerolog.Logger
}

func NewPanelService(panels PanelStore, ui PanelGateway, queue QueueStore, matches MatchStore, guilds GuildStore, opts ...Option) *PanelService {
	o := buildOptions("panel", opts)
	return &PanelService{panels: panels, ui: ui, queue: queue, matches: matches, guilds: guilds, now: o.now, log: o.log}
}

func (s *PanelService) view(ctx context.Context, guildID int64) (PanelView, error) {
	queued, err := s.queue.Count(ctx, guildID)
	if err != nil {
		return PanelView{}, err
	}
	open, err := s.matches.CountOpen(ctx, guildID)
	if err != nil {
		return PanelView{}, err
	}
	cfg, err := s.guilds.Get(ctx, guildID)
	if err != nil {
		return PanelView{}, err
	}
	return PanelView{GuildID: guildID, Queued: queued, OpenRooms: open, Paused: cfg.Paused}, nil
}

// Publish postea un panel nuevo en channelID y lo deja como el panel del guild.
func (s *PanelService) Publish(ctx context.Context, guildID, channelID int64) error {
	if !domain.ValidID(guildID, channelID) {
		return domain.ErrInvalidID
	}
	v, err := s.view(ctx, guildID)
	if err != nil {
		return err
	}
	msgID, err := s.ui.PostPanel(ctx, channelID, v)
	if err != nil {
		return err
	}
	return s.panels.Upsert(ctx, guildID, channelID, msgID, s.now().Unix())
}

// Refresh edita el panel del guild; si el mensaje ya no existe se olvida la fila.
func (s *PanelService) Refresh(ctx context.Context, guildID int64) error {
	p, err := s.panels.Get(ctx, guildID)
	if errors.Is(err, domain.ErrNotFound) {
		return nil
	}
	if err != nil {
		return err
	}
	v, err := s.view(ctx, guildID)
	if err != nil {
		return err
	}
	if err := s.ui.EditPanel(ctx, p, v); err != nil {
		if errors.Is(err, domain.ErrGone) {
			s.log.Info().Int64("guild", guildID).Msg("[panel] message gone, dropping")
			return s.panels.Delete(ctx, guildID)
		}
		return err
	}
	return s.panels.Touch(ctx, guildID, s.now().Unix())
}

func (s *PanelService) RefreshAll(ctx context.Context) error {
	list, err := s.panels.List(ctx)
	if err != nil {
		return err
	}
	for _, p := range list {
		if err := s.Refresh(ctx, p.GuildID); err != nil {
			s.log.Warn().Err(err).Int64("guild", p.GuildID).Msg("[panel] refresh")
		}
	}
	return nil
}
