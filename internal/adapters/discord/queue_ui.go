package discord

import (
	"context"
	"fmt"
	"time"

	"github.com/bwmarrin/discordgo"

	"github.com/jose-valero/pairup-bot/internal/app/service"
	"github.com/jose-valero/pairup-bot/internal/domain"
)

const (
	uiDebounce   = 500 * time.Millisecond
	ctxRenderMax = 5 * time.Second
)

// Panels implementa service.PanelGateway: el contador de cola con botones.
type Panels struct {
	s *discordgo.Session
}

var _ service.PanelGateway = (*Panels)(nil)

func NewPanels(s *discordgo.Session) *Panels { return &Panels{s: s} }

func (p *Panels) PostPanel(ctx context.Context, channelID int64, v service.PanelView) (int64, error) {
	msg, err := p.s.ChannelMessageSendComplex(str(channelID), &discordgo.MessageSend{
		Embeds:     []*discordgo.MessageEmbed{renderPanel(v, time.Now())},
		Components: panelControls(),
	}, discordgo.WithContext(ctx))
	if err != nil {
		return 0, gone(err, "post panel")
	}
	return sf(msg.ID), nil
}

func (p *Panels) EditPanel(ctx context.Context, panel domain.QueuePanel, v service.PanelView) error {
	em := []*discordgo.MessageEmbed{renderPanel(v, time.Now())}
	cc := panelControls()
	_, err := p.s.ChannelMessageEditComplex(&discordgo.MessageEdit{
		Channel:    str(panel.ChannelID),
		ID:         str(panel.MessageID),
		Embeds:     &em,
		Components: &cc,
	}, discordgo.WithContext(ctx))
	return gone(err, "edit panel")
}

func renderPanel(v service.PanelView, now time.Time) *discordgo.MessageEmbed {
	status := "🟢 Emparejando"
	if v.Paused {
		status = "⏸️ En pausa"
	}
	people := "Nadie en cola."
	switch {
	case v.Queued == 1:
		people = "**1** persona esperando."
	case v.Queued > 1:
		people = fmt.Sprintf("**%d** personas esperando.", v.Queued)
	}
	return &discordgo.MessageEmbed{
		Title:       "Matchmaking · Cola",
		Description: people,
		Color:       0x57F287,
		Fields: []*discordgo.MessageEmbedField{
			{Name: "Salas abiertas", Value: fmt.Sprint(v.OpenRooms), Inline: true},
			{Name: "Estado", Value: status, Inline: true},
		},
		Timestamp: now.UTC().Format(time.RFC3339),
	}
}

func panelControls() []discordgo.MessageComponent {
	return []discordgo.MessageComponent{
		discordgo.ActionsRow{Components: []discordgo.MessageComponent{
			discordgo.Button{Style: discordgo.PrimaryButton, Label: "Buscar pareja", CustomID: idJoin, Emoji: &discordgo.ComponentEmoji{Name: "🤝"}},
			discordgo.Button{Style: discordgo.SecondaryButton, Label: "Salir de la cola", CustomID: idLeave, Emoji: &discordgo.ComponentEmoji{Name: "👋"}},
		}},
	}
}

// refreshPanel: debounce por guild, varios clicks seguidos = un solo edit.
func (r *Router) refreshPanel(guildID int64) {
	r.refreshMu.Lock()
	defer r.refreshMu.Unlock()
	if t, ok := r.refreshTimers[guildID]; ok {
		t.Stop()
	}
	var t *time.Timer
	t = time.AfterFunc(uiDebounce, func() {
		defer step(r.log, "panel.refresh")()
		ctx, cancel := context.WithTimeout(context.Background(), ctxRenderMax)
		defer cancel()
		if err := r.panels.Refresh(ctx, guildID); err != nil {
			r.log.Warn().Err(err).Int64("guild", guildID).Msg("[ui.refresh]")
		}
		r.refreshMu.Lock()
		if r.refreshTimers[guildID] == t {
			delete(r.refreshTimers, guildID)
		}
		r.refreshMu.Unlock()
	})
	r.refreshTimers[guildID] = t
}
