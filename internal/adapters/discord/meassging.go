package discord

import (
	"errors"

	"github.com/bwmarrin/discordgo"
)

// deferEphemeral: ack inmediato (Discord da 3s), la respuesta real va por followup.
func (r *Router) deferEphemeral(ic *discordgo.InteractionCreate) error {
	err := r.s.InteractionRespond(ic.Interaction, &discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseDeferredChannelMessageWithSource,
		Data: &discordgo.InteractionResponseData{
			Flags: discordgo.MessageFlagsEphemeral,
		},
	})
	if err != nil {
		r.log.Warn().Err(err).Msg("[discord] defer")
	}
	return err
}

func (r *Router) reply(ic *discordgo.InteractionCreate, content string, embeds ...*discordgo.MessageEmbed) {
	_, err := r.s.FollowupMessageCreate(ic.Interaction, true, &discordgo.WebhookParams{
		Content:         content,
		Embeds:          embeds,
		Flags:           discordgo.MessageFlagsEphemeral,
		AllowedMentions: &discordgo.MessageAllowedMentions{},
	})
	if err == nil {
		return
	}
	// sin defer previo el webhook no existe todavía: respondemos directo
	var re *discordgo.RESTError
	if errors.As(err, &re) && re.Message != nil && re.Message.Code == discordgo.ErrCodeUnknownWebhook {
		_ = r.s.InteractionRespond(ic.Interaction, &discordgo.InteractionResponse{
			Type: discordgo.InteractionResponseChannelMessageWithSource,
			Data: &discordgo.InteractionResponseData{
				Content: content,
				Flags:   discordgo.MessageFlagsEphemeral,
				Embeds:  embeds,
			},
		})
		return
	}
	r.log.Warn().Err(err).Msg("[discord] reply")
}

// replyErr: mensaje específico para errores conocidos, genérico para el resto (que se loguea).
func (r *Router) replyErr(ic *discordgo.InteractionCreate, action string, err error) {
	msg := userMessage(err)
	if msg == msgUnexpected {
		r.log.Error().Err(err).Str("action", action).Str("guild", ic.GuildID).Msg("[discord] action failed")
	}
	r.reply(ic, msg)
}

func (r *Router) respondModal(ic *discordgo.InteractionCreate, data *discordgo.InteractionResponseData) error {
	err := r.s.InteractionRespond(ic.Interaction, &discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseModal,
		Data: data,
	})
	if err != nil {
		r.log.Warn().Err(err).Msg("[discord] modal")
	}
	return err
}
