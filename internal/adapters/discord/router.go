package discord

import (
	"context"
	"sync"
	"time"

	"github.com/bwmarrin/discordgo"
	"github.com/rotisserie/eris"
	"github.com/rs/zerolog"

	"github.com/jose-valero/pairup-bot/internal/app/service"
)

const (
	clickWindow = 2 * time.Second
	ctxAction   = 12 * time.Second
)

type Router struct {
	s            *discordgo.Session
	guildID      string
	adminRoleIDs []string

	queue  *service.QueueService
	rooms  *service.MatchRoomsService
	admin  *service.AdminService
	panels *service.PanelService
	roles  *service.RoleCache

	clickLimiter *userLimiter

	refreshMu     sync.Mutex
	refreshTimers map[int64]*time.Timer

	log zerolog.Logger
}

// Services agrupa lo que el router despacha.
type Services struct {
	Queue  *service.QueueService
	Rooms  *service.MatchRoomsService
	Admin  *service.AdminService
	Panels *service.PanelService
	Roles  *service.RoleCache
}

// NewRouter: guildID vacío registra los comandos globalmente.
func NewRouter(s *discordgo.Session, guildID string, adminRoleIDs []string, svc Services, log zerolog.Logger) *Router {
	return &Router{
		s:             s,
		guildID:       guildID,
		adminRoleIDs:  adminRoleIDs,
		queue:         svc.Queue,
		rooms:         svc.Rooms,
		admin:         svc.Admin,
		panels:        svc.Panels,
		roles:         svc.Roles,
		clickLimiter:  newUserLimiter(clickWindow),
		refreshTimers: map[int64]*time.Timer{},
		log:           log.With().Str("component", "discord").Logger(),
	}
}

// Register sobrescribe los comandos de la app de una vez (sin duplicados entre reinicios).
func (r *Router) Register() error {
	if r.s.State == nil || r.s.State.User == nil {
		return eris.New("register commands: session not ready")
	}
	appID := r.s.State.User.ID
	if _, err := r.s.ApplicationCommandBulkOverwrite(appID, r.guildID, Commands); err != nil {
		return eris.Wrap(err, "register commands")
	}
	r.log.Info().Int("commands", len(Commands)).Str("guild", r.guildID).Msg("[discord] commands registered")
	return nil
}

func (r *Router) Handlers() {
	r.s.AddHandler(r.onInteraction)
	r.s.AddHandler(r.onMessage)
	r.s.AddHandler(func(_ *discordgo.Session, m *discordgo.GuildMemberUpdate) {
		if m.Member != nil && m.Member.User != nil {
			r.roles.Invalidate(sf(m.GuildID), sf(m.Member.User.ID))
		}
	})
	r.s.AddHandler(func(_ *discordgo.Session, m *discordgo.GuildMemberRemove) {
		if m.Member != nil && m.Member.User != nil {
			r.roles.Invalidate(sf(m.GuildID), sf(m.Member.User.ID))
		}
	})
}

func (r *Router) onInteraction(_ *discordgo.Session, ic *discordgo.InteractionCreate) {
	defer func() {
		if rec := recover(); rec != nil {
			r.log.Error().Interface("panic", rec).Str("guild", ic.GuildID).Msg("[discord] panic in interaction")
			r.reply(ic, msgUnexpected)
		}
	}()

	switch ic.Type {
	case discordgo.InteractionApplicationCommand:
		r.handleSlashCommand(ic)
	case discordgo.InteractionMessageComponent:
		r.handleComponent(ic)
	case discordgo.InteractionModalSubmit:
		r.handleModal(ic)
	}
}

// onMessage: cualquier mensaje humano en una sala cuenta como actividad.
func (r *Router) onMessage(_ *discordgo.Session, m *discordgo.MessageCreate) {
	if m.Author == nil || m.Author.Bot || m.GuildID == "" {
		return
	}
	thread := sf(m.ChannelID)
	if !r.rooms.IsRoom(thread) {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), ctxRenderMax)
	defer cancel()
	if err := r.rooms.Touch(ctx, thread); err != nil {
		r.log.Warn().Err(err).Int64("thread", thread).Msg("[discord] touch room")
	}
}

func actionCtx() (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.Background(), ctxAction)
}
