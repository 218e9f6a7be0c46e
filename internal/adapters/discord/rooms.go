package discord

import (
	"bytes"
	"context"
	"fmt"
	"slices"
	"time"

	"github.com/bwmarrin/discordgo"
	"github.com/rs/zerolog"

	"github.com/jose-valero/pairup-bot/internal/app/service"
	"github.com/jose-valero/pairup-bot/internal/domain"
)

const (
	roomArchiveMinutes = 60
	historyPage        = 100
)

// Rooms implementa service.RoomGateway con threads privados.
type Rooms struct {
	s   *discordgo.Session
	log zerolog.Logger
}

var _ service.RoomGateway = (*Rooms)(nil)

func NewRooms(s *discordgo.Session, log zerolog.Logger) *Rooms {
	return &Rooms{s: s, log: log.With().Str("component", "discord.rooms").Logger()}
}

func (r *Rooms) CreateRoom(ctx context.Context, spec service.RoomSpec) (int64, error) {
	ch, err := r.s.ThreadStartComplex(str(spec.ParentChannelID), &discordgo.ThreadStart{
		Name:                fmt.Sprintf("sala-%d", spec.RoomNumber),
		AutoArchiveDuration: roomArchiveMinutes,
		Type:                discordgo.ChannelTypeGuildPrivateThread,
		Invitable:           false,
	}, discordgo.WithContext(ctx))
	if err != nil {
		return 0, gone(err, "start thread")
	}
	for _, u := range spec.Users {
		if err := r.s.ThreadMemberAdd(ch.ID, str(u), discordgo.WithContext(ctx)); err != nil {
			if _, derr := r.s.ChannelDelete(ch.ID); derr != nil {
				r.log.Warn().Err(derr).Str("thread", ch.ID).Msg("[rooms] rollback thread")
			}
			return 0, gone(err, "add thread member")
		}
	}
	return sf(ch.ID), nil
}

func (r *Rooms) SendControls(ctx context.Context, m domain.Match) error {
	_, err := r.s.ChannelMessageSendComplex(str(m.ThreadID), &discordgo.MessageSend{
		Content:    fmt.Sprintf("👋 <@%d> <@%d> ¡están emparejados! Esta es la **sala #%d**.", m.User1ID, m.User2ID, m.RoomNumber),
		Embeds:     []*discordgo.MessageEmbed{roomEmbed(m)},
		Components: roomControls(m.ThreadID),
	}, discordgo.WithContext(ctx))
	return gone(err, "send controls")
}

func roomEmbed(m domain.Match) *discordgo.MessageEmbed {
	return &discordgo.MessageEmbed{
		Title: fmt.Sprintf("Sala #%d", m.RoomNumber),
		Description: "• **Skip**: buscas otra pareja (vuelves a la cola con prioridad).\n" +
			"• **Salir**: dejas la sala; se borra en 2 minutos.\n" +
			"• **Reportar**: avisa a moderación con el historial de la sala.\n\n" +
			"La sala se cierra sola tras 30 minutos sin mensajes.",
		Color:     0x5865F2,
		Timestamp: time.Unix(m.CreatedAt, 0).UTC().Format(time.RFC3339),
	}
}

func roomControls(threadID int64) []discordgo.MessageComponent {
	return []discordgo.MessageComponent{
		discordgo.ActionsRow{Components: []discordgo.MessageComponent{
			discordgo.Button{Style: discordgo.PrimaryButton, Label: "Skip", CustomID: roomCustomID(idSkip, threadID), Emoji: &discordgo.ComponentEmoji{Name: "⏭️"}},
			discordgo.Button{Style: discordgo.SecondaryButton, Label: "Salir", CustomID: roomCustomID(idExit, threadID), Emoji: &discordgo.ComponentEmoji{Name: "🚪"}},
			discordgo.Button{Style: discordgo.DangerButton, Label: "Reportar", CustomID: roomCustomID(idReport, threadID), Emoji: &discordgo.ComponentEmoji{Name: "🚩"}},
		}},
	}
}

func (r *Rooms) Announce(ctx context.Context, threadID int64, text string) error {
	_, err := r.s.ChannelMessageSend(str(threadID), text, discordgo.WithContext(ctx))
	return gone(err, "announce")
}

func (r *Rooms) RemoveMember(ctx context.Context, threadID, userID int64) error {
	return gone(r.s.ThreadMemberRemove(str(threadID), str(userID), discordgo.WithContext(ctx)), "remove thread member")
}

func (r *Rooms) DeleteRoom(ctx context.Context, threadID int64) error {
	_, err := r.s.ChannelDelete(str(threadID), discordgo.WithContext(ctx))
	return gone(err, "delete thread")
}

// History pagina hacia atrás hasta limit mensajes y los devuelve en orden cronológico.
func (r *Rooms) History(ctx context.Context, threadID int64, limit int) ([]service.RoomMessage, error) {
	var (
		out    []service.RoomMessage
		before string
	)
	for len(out) < limit {
		page, err := r.s.ChannelMessages(str(threadID), min(historyPage, limit-len(out)), before, "", "", discordgo.WithContext(ctx))
		if err != nil {
			return nil, gone(err, "channel messages")
		}
		for _, m := range page {
			out = append(out, toRoomMessage(m))
		}
		if len(page) < historyPage {
			break
		}
		before = page[len(page)-1].ID
	}
	slices.Reverse(out)
	return out, nil
}

func toRoomMessage(m *discordgo.Message) service.RoomMessage {
	rm := service.RoomMessage{Content: m.Content, At: m.Timestamp}
	if m.Author != nil {
		rm.AuthorID = sf(m.Author.ID)
		rm.AuthorName = m.Author.DisplayName()
	}
	for _, a := range m.Attachments {
		rm.Attachments = append(rm.Attachments, a.URL)
	}
	return rm
}

func (r *Rooms) SendReport(ctx context.Context, channelID int64, rep service.Report) error {
	msg := &discordgo.MessageSend{
		Embeds:          []*discordgo.MessageEmbed{reportEmbed(rep)},
		AllowedMentions: &discordgo.MessageAllowedMentions{},
	}
	if rep.Transcript != nil {
		msg.Files = []*discordgo.File{{
			Name:        fmt.Sprintf("sala-%d-%s.txt", rep.Match.RoomNumber, shortID(rep.ID)),
			ContentType: "text/plain; charset=utf-8",
			Reader:      bytes.NewReader(rep.Transcript),
		}}
	}
	_, err := r.s.ChannelMessageSendComplex(str(channelID), msg, discordgo.WithContext(ctx))
	return gone(err, "send report")
}

func reportEmbed(rep service.Report) *discordgo.MessageEmbed {
	details := rep.Details
	if details == "" {
		details = "sin detalles"
	}
	transcript := "adjunta"
	if rep.Transcript == nil {
		transcript = "no disponible"
	}
	return &discordgo.MessageEmbed{
		Title: "🚩 Reporte de sala",
		Color: 0xED4245,
		Fields: []*discordgo.MessageEmbedField{
			{Name: "Sala", Value: fmt.Sprintf("#%d (<#%d>)", rep.Match.RoomNumber, rep.Match.ThreadID), Inline: true},
			{Name: "Reporta", Value: fmt.Sprintf("<@%d>", rep.ReporterID), Inline: true},
			{Name: "Reportado", Value: fmt.Sprintf("<@%d>", rep.ReportedID), Inline: true},
			{Name: "Motivo", Value: rep.Reason},
			{Name: "Detalles", Value: details},
			{Name: "Transcripción", Value: transcript, Inline: true},
		},
		Footer: &discordgo.MessageEmbedFooter{Text: "ID " + rep.ID},
	}
}

func (r *Rooms) NotifyMatch(ctx context.Context, userID int64, m domain.Match) (service.DMRef, error) {
	ch, err := r.s.UserChannelCreate(str(userID), discordgo.WithContext(ctx))
	if err != nil {
		return service.DMRef{}, gone(err, "open dm")
	}
	msg, err := r.s.ChannelMessageSend(ch.ID, fmt.Sprintf("🎉 ¡Encontramos pareja! Tu sala es <#%d> (sala #%d).", m.ThreadID, m.RoomNumber), discordgo.WithContext(ctx))
	if err != nil {
		return service.DMRef{}, gone(err, "send dm")
	}
	return service.DMRef{ChannelID: sf(ch.ID), MessageID: sf(msg.ID)}, nil
}

func (r *Rooms) DeleteDM(ctx context.Context, ref service.DMRef) error {
	return gone(r.s.ChannelMessageDelete(str(ref.ChannelID), str(ref.MessageID), discordgo.WithContext(ctx)), "delete dm")
}
