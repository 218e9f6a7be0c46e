package discord

import (
	"fmt"

	"github.com/bwmarrin/discordgo"

	"github.com/jose-valero/pairup-bot/internal/app/service"
)

func (r *Router) handleComponent(ic *discordgo.InteractionCreate) {
	user := interactionUser(ic)
	if user == nil {
		return
	}
	prefix, thread := parseCustomID(ic.MessageComponentData().CustomID)
	defer step(r.log, "component."+prefix)()

	// el modal tiene que ser la primera respuesta: nada de defer antes
	if prefix == idReport {
		r.openReportModal(ic, thread)
		return
	}

	_ = r.deferEphemeral(ic)
	ctx, cancel := actionCtx()
	defer cancel()

	guildID, userID := sf(ic.GuildID), sf(user.ID)

	switch prefix {
	case idJoin:
		if !r.clickLimiter.Allow(userID) {
			r.reply(ic, "⏳ Espera un segundo…")
			return
		}
		pos, err := r.queue.Enqueue(ctx, guildID, userID)
		if err != nil {
			r.replyErr(ic, "button.join", err)
			return
		}
		r.reply(ic, "✅ Estás en la cola.\n"+fmtPosition(pos))
		r.refreshPanel(guildID)

	case idLeave:
		if !r.clickLimiter.Allow(userID) {
			r.reply(ic, "⏳ Espera un segundo…")
			return
		}
		removed, err := r.queue.Leave(ctx, guildID, userID)
		if err != nil {
			r.replyErr(ic, "button.leave", err)
			return
		}
		if !removed {
			r.reply(ic, "ℹ️ No estabas en la cola.")
			return
		}
		r.reply(ic, "👋 Saliste de la cola.")
		r.refreshPanel(guildID)

	case idSkip:
		res, err := r.rooms.Skip(ctx, thread, userID)
		if err != nil {
			r.replyErr(ic, "room.skip", err)
			return
		}
		if res.Mutual {
			r.reply(ic, "⏭️ Los dos pidieron skip. La sala se cierra.")
		} else {
			r.reply(ic, "⏭️ Volviste a la cola con prioridad. No te volveremos a emparejar con esta persona en 24h.")
		}
		r.refreshPanel(guildID)

	case idExit:
		res, err := r.rooms.Leave(ctx, thread, userID)
		if err != nil {
			r.replyErr(ic, "room.leave", err)
			return
		}
		r.reply(ic, fmt.Sprintf("🚪 Saliste de la sala. Se borrará <t:%d:R>.", res.DeleteAt.Unix()))

	default:
		r.log.Warn().Str("custom_id", ic.MessageComponentData().CustomID).Msg("[discord] unknown component")
		r.reply(ic, msgUnexpected)
	}
}

func (r *Router) openReportModal(ic *discordgo.InteractionCreate, thread int64) {
	_ = r.respondModal(ic, &discordgo.InteractionResponseData{
		CustomID: roomCustomID(idReportModal, thread),
		Title:    "Reportar a tu pareja",
		Components: []discordgo.MessageComponent{
			discordgo.ActionsRow{Components: []discordgo.MessageComponent{
				discordgo.TextInput{
					CustomID:    fieldReason,
					Label:       "Motivo",
					Style:       discordgo.TextInputShort,
					Placeholder: "Acoso, spam, contenido inapropiado…",
					Required:    true,
					MaxLength:   100,
				},
			}},
			discordgo.ActionsRow{Components: []discordgo.MessageComponent{
				discordgo.TextInput{
					CustomID:  fieldDetails,
					Label:     "Detalles",
					Style:     discordgo.TextInputParagraph,
					Required:  false,
					MaxLength: 1000,
				},
			}},
		},
	})
}

func (r *Router) handleModal(ic *discordgo.InteractionCreate) {
	user := interactionUser(ic)
	if user == nil {
		return
	}
	data := ic.ModalSubmitData()
	prefix, thread := parseCustomID(data.CustomID)
	if prefix != idReportModal {
		return
	}
	defer step(r.log, "modal.report")()

	_ = r.deferEphemeral(ic)
	ctx, cancel := actionCtx()
	defer cancel()

	fields := modalValues(data.Components)
	res, err := r.rooms.Report(ctx, service.ReportRequest{
		ThreadID:   thread,
		ReporterID: sf(user.ID),
		Reason:     fields[fieldReason],
		Details:    fields[fieldDetails],
	})
	if err != nil {
		r.replyErr(ic, "room.report", err)
		return
	}
	msg := fmt.Sprintf("🛡️ Reporte enviado a moderación (ID `%s`).", shortID(res.ID))
	if !res.TranscriptIncluded {
		msg += "\nNo pude adjuntar el historial de la sala."
	}
	r.reply(ic, msg)
}

// modalValues aplana filas -> {custom_id: valor}.
func modalValues(rows []discordgo.MessageComponent) map[string]string {
	out := map[string]string{}
	for _, c := range rows {
		row, ok := c.(*discordgo.ActionsRow)
		if !ok {
			continue
		}
		for _, in := range row.Components {
			if ti, ok := in.(*discordgo.TextInput); ok {
				out[ti.CustomID] = ti.Value
			}
		}
	}
	return out
}
