// despacho de slash commands: validar lo mínimo, llamar al servicio y responder
package discord

import (
	"fmt"

	"github.com/bwmarrin/discordgo"
)

const defaultStatsDays = 7

func (r *Router) handleSlashCommand(ic *discordgo.InteractionCreate) {
	cmd := ic.ApplicationCommandData()
	user := interactionUser(ic)
	if user == nil {
		return
	}
	sub, ok := subcmd(ic)
	if !ok {
		return
	}
	r.log.Debug().Str("cmd", cmd.Name).Str("sub", sub.Name).Str("by", user.ID).Str("guild", ic.GuildID).Msg("[discord] slash")
	defer step(r.log, "slash."+cmd.Name+"."+sub.Name)()

	_ = r.deferEphemeral(ic)

	switch cmd.Name {
	case "match":
		r.handleMatch(ic, sub, sf(user.ID))
	case "matchadmin":
		if !r.requireAdminOrRoles(ic) {
			return
		}
		r.handleMatchAdmin(ic, sub)
	}
}

func (r *Router) handleMatch(ic *discordgo.InteractionCreate, sub *discordgo.ApplicationCommandInteractionDataOption, userID int64) {
	ctx, cancel := actionCtx()
	defer cancel()
	guildID := sf(ic.GuildID)

	switch sub.Name {
	case "join":
		pos, err := r.queue.Enqueue(ctx, guildID, userID)
		if err != nil {
			r.replyErr(ic, "match.join", err)
			return
		}
		r.reply(ic, "✅ Estás en la cola.\n"+fmtPosition(pos))
		r.refreshPanel(guildID)

	case "leave":
		removed, err := r.queue.Leave(ctx, guildID, userID)
		if err != nil {
			r.replyErr(ic, "match.leave", err)
			return
		}
		if !removed {
			r.reply(ic, "ℹ️ No estabas en la cola.")
			return
		}
		r.reply(ic, "👋 Saliste de la cola.")
		r.refreshPanel(guildID)

	case "status":
		pos, err := r.queue.PositionAndETA(ctx, guildID, userID)
		if err != nil {
			r.replyErr(ic, "match.status", err)
			return
		}
		r.reply(ic, fmtPosition(pos))

	case "dms":
		enabled, _ := optBool(sub, "enabled")
		if err := r.admin.SetDMEnabled(ctx, userID, enabled); err != nil {
			r.replyErr(ic, "match.dms", err)
			return
		}
		if enabled {
			r.reply(ic, "🔔 Te avisaré por DM cuando encuentre pareja.")
			return
		}
		r.reply(ic, "🔕 No te enviaré más DMs de emparejamiento.")
	}
}

func (r *Router) handleMatchAdmin(ic *discordgo.InteractionCreate, sub *discordgo.ApplicationCommandInteractionDataOption) {
	ctx, cancel := actionCtx()
	defer cancel()
	guildID := sf(ic.GuildID)

	switch sub.Name {
	case "parent":
		ch, _ := optChannel(sub, "channel")
		if err := r.admin.SetParentChannel(ctx, guildID, ch); err != nil {
			r.replyErr(ic, "admin.parent", err)
			return
		}
		r.reply(ic, fmt.Sprintf("✅ Las salas se crearán en <#%d>.", ch))

	case "reports":
		ch, _ := optChannel(sub, "channel")
		if err := r.admin.SetReportChannel(ctx, guildID, ch); err != nil {
			r.replyErr(ic, "admin.reports", err)
			return
		}
		r.reply(ic, fmt.Sprintf("✅ Los reportes llegarán a <#%d>.", ch))

	case "clear":
		what, _ := optStr(sub, "what")
		var (
			n   int64
			err error
		)
		switch what {
		case "queue":
			n, err = r.admin.ClearQueue(ctx, guildID)
		case "blocks":
			n, err = r.admin.ClearBlocks(ctx, guildID)
		default:
			r.reply(ic, "⚠️ Opción desconocida.")
			return
		}
		if err != nil {
			r.replyErr(ic, "admin.clear", err)
			return
		}
		r.reply(ic, fmt.Sprintf("🧹 Eliminadas **%d** filas (%s).", n, what))
		if what == "queue" {
			r.refreshPanel(guildID)
		}

	case "pause":
		if err := r.admin.Pause(ctx, guildID); err != nil {
			r.replyErr(ic, "admin.pause", err)
			return
		}
		r.reply(ic, "⏸️ Emparejamiento en pausa. La cola se mantiene.")
		r.refreshPanel(guildID)

	case "resume":
		if err := r.admin.Resume(ctx, guildID); err != nil {
			r.replyErr(ic, "admin.resume", err)
			return
		}
		r.reply(ic, "▶️ Emparejamiento reanudado.")
		r.refreshPanel(guildID)

	case "stats":
		days, ok := optInt(sub, "days")
		if !ok {
			days = defaultStatsDays
		}
		st, err := r.admin.StatsForDays(ctx, guildID, days)
		if err != nil {
			r.replyErr(ic, "admin.stats", err)
			return
		}
		r.reply(ic, fmtStats(st))

	case "panel":
		if err := r.panels.Publish(ctx, guildID, sf(ic.ChannelID)); err != nil {
			r.replyErr(ic, "admin.panel", err)
			return
		}
		r.reply(ic, "✅ Panel publicado aquí. Los botones sirven para entrar y salir de la cola.")

	case "close":
		if err := r.rooms.ForceClose(ctx, sf(ic.ChannelID)); err != nil {
			r.replyErr(ic, "admin.close", err)
			return
		}
		r.reply(ic, "🔒 Sala cerrada.")
		r.refreshPanel(guildID)

	case "reset":
		if err := r.admin.Reset(ctx, guildID); err != nil {
			r.replyErr(ic, "admin.reset", err)
			return
		}
		r.reply(ic, "♻️ Configuración borrada. Vuelve a usar `/matchadmin parent` y `/matchadmin reports`.")
	}
}
