package discord

import "github.com/bwmarrin/discordgo"

var (
	adminPerm int64 = discordgo.PermissionManageGuild
	inDMs           = false
)

var Commands = []*discordgo.ApplicationCommand{
	{
		Name:         "match",
		Description:  "Matchmaking 1 a 1",
		DMPermission: &inDMs,
		Options: []*discordgo.ApplicationCommandOption{
			{Type: discordgo.ApplicationCommandOptionSubCommand, Name: "join", Description: "Entrar a la cola"},
			{Type: discordgo.ApplicationCommandOptionSubCommand, Name: "leave", Description: "Salir de la cola"},
			{Type: discordgo.ApplicationCommandOptionSubCommand, Name: "status", Description: "Ver tu posición y la espera estimada"},
			{
				Type:        discordgo.ApplicationCommandOptionSubCommand,
				Name:        "dms",
				Description: "Avisos por DM cuando encuentres pareja",
				Options: []*discordgo.ApplicationCommandOption{{
					Type:        discordgo.ApplicationCommandOptionBoolean,
					Name:        "enabled",
					Description: "Recibir el aviso por DM",
					Required:    true,
				}},
			},
		},
	},
	{
		Name:                     "matchadmin",
		Description:              "Configuración del matchmaking (admins)",
		DefaultMemberPermissions: &adminPerm,
		DMPermission:             &inDMs,
		Options: []*discordgo.ApplicationCommandOption{
			{
				Type:        discordgo.ApplicationCommandOptionSubCommand,
				Name:        "parent",
				Description: "Canal donde se crean las salas",
				Options: []*discordgo.ApplicationCommandOption{{
					Type:         discordgo.ApplicationCommandOptionChannel,
					Name:         "channel",
					Description:  "Canal de texto",
					Required:     true,
					ChannelTypes: []discordgo.ChannelType{discordgo.ChannelTypeGuildText},
				}},
			},
			{
				Type:        discordgo.ApplicationCommandOptionSubCommand,
				Name:        "reports",
				Description: "Canal donde llegan los reportes",
				Options: []*discordgo.ApplicationCommandOption{{
					Type:         discordgo.ApplicationCommandOptionChannel,
					Name:         "channel",
					Description:  "Canal de moderación",
					Required:     true,
					ChannelTypes: []discordgo.ChannelType{discordgo.ChannelTypeGuildText},
				}},
			},
			{
				Type:        discordgo.ApplicationCommandOptionSubCommand,
				Name:        "clear",
				Description: "Vaciar la cola o los bloqueos",
				Options: []*discordgo.ApplicationCommandOption{{
					Type:        discordgo.ApplicationCommandOptionString,
					Name:        "what",
					Description: "Qué vaciar",
					Required:    true,
					Choices: []*discordgo.ApplicationCommandOptionChoice{
						{Name: "cola", Value: "queue"},
						{Name: "bloqueos", Value: "blocks"},
					},
				}},
			},
			{Type: discordgo.ApplicationCommandOptionSubCommand, Name: "pause", Description: "Pausar el emparejamiento"},
			{Type: discordgo.ApplicationCommandOptionSubCommand, Name: "resume", Description: "Reanudar el emparejamiento"},
			{
				Type:        discordgo.ApplicationCommandOptionSubCommand,
				Name:        "stats",
				Description: "Estadísticas del servidor",
				Options: []*discordgo.ApplicationCommandOption{{
					Type:        discordgo.ApplicationCommandOptionInteger,
					Name:        "days",
					Description: "Últimos N días (por defecto 7)",
				}},
			},
			{Type: discordgo.ApplicationCommandOptionSubCommand, Name: "panel", Description: "Publicar el panel de la cola en este canal"},
			{Type: discordgo.ApplicationCommandOptionSubCommand, Name: "close", Description: "Cerrar la sala actual"},
			{Type: discordgo.ApplicationCommandOptionSubCommand, Name: "reset", Description: "Borrar la configuración del servidor"},
		},
	},
}
