package discord

import (
	"fmt"
	"time"

	"github.com/bwmarrin/discordgo"

	"github.com/jose-valero/pairup-bot/internal/domain"
)

func subcmd(ic *discordgo.InteractionCreate) (*discordgo.ApplicationCommandInteractionDataOption, bool) {
	for _, o := range ic.ApplicationCommandData().Options {
		if o.Type == discordgo.ApplicationCommandOptionSubCommand {
			return o, true
		}
	}
	return nil, false
}

func optBool(sub *discordgo.ApplicationCommandInteractionDataOption, name string) (bool, bool) {
	if o := sub.GetOption(name); o != nil && o.Type == discordgo.ApplicationCommandOptionBoolean {
		return o.BoolValue(), true
	}
	return false, false
}

func optInt(sub *discordgo.ApplicationCommandInteractionDataOption, name string) (int, bool) {
	if o := sub.GetOption(name); o != nil && o.Type == discordgo.ApplicationCommandOptionInteger {
		return int(o.IntValue()), true
	}
	return 0, false
}

func optStr(sub *discordgo.ApplicationCommandInteractionDataOption, name string) (string, bool) {
	if o := sub.GetOption(name); o != nil && o.Type == discordgo.ApplicationCommandOptionString {
		return o.StringValue(), true
	}
	return "", false
}

// optChannel devuelve el ID sin pedir el canal a la API.
func optChannel(sub *discordgo.ApplicationCommandInteractionDataOption, name string) (int64, bool) {
	if o := sub.GetOption(name); o != nil && o.Type == discordgo.ApplicationCommandOptionChannel {
		return sf(o.ChannelValue(nil).ID), true
	}
	return 0, false
}

// interactionUser: en guild viene en Member, en DM en User.
func interactionUser(ic *discordgo.InteractionCreate) *discordgo.User {
	if ic.Member != nil && ic.Member.User != nil {
		return ic.Member.User
	}
	return ic.User
}

func fmtETA(d time.Duration) string {
	if d <= 0 {
		return "en el próximo emparejamiento"
	}
	if d < time.Minute {
		return fmt.Sprintf("~%ds", int(d.Seconds()))
	}
	s := int(d.Seconds())
	return fmt.Sprintf("~%dm %02ds", s/60, s%60)
}

func fmtPosition(p domain.Position) string {
	return fmt.Sprintf("📋 Posición **%d** de **%d** · espera estimada %s.", p.Rank, p.Total, fmtETA(p.ETA))
}

func fmtStats(st domain.Stats) string {
	avg := "n/d"
	if st.AvgWait > 0 {
		avg = st.AvgWait.Round(time.Second).String()
	}
	return fmt.Sprintf("📊 **Estadísticas** (<t:%d:d> → <t:%d:d>)\n"+
		"• Matches creados: **%d**\n"+
		"• En cola ahora: **%d**\n"+
		"• Salas abiertas: **%d**\n"+
		"• Espera media: **%s**",
		st.From, st.To, st.MatchesCreated, st.Queued, st.OpenRooms, avg)
}

func shortID(s string) string {
	if len(s) <= 6 {
		return s
	}
	return s[len(s)-6:]
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-1]) + "…"
}
