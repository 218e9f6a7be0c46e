package main

import (
	"context"
	"os/signal"
	"syscall"

	"github.com/bwmarrin/discordgo"
	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/jose-valero/pairup-bot/internal/adapters/discord"
	"github.com/jose-valero/pairup-bot/internal/adapters/httpstats"
	"github.com/jose-valero/pairup-bot/internal/app/service"
	"github.com/jose-valero/pairup-bot/internal/domain"
	"github.com/jose-valero/pairup-bot/internal/infra/config"
	"github.com/jose-valero/pairup-bot/internal/infra/storage"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Conecta a Discord y corre el matchmaking",
	RunE:  runServe,
}

func runServe(cmd *cobra.Command, _ []string) error {
	cfg := config.MustLoad()
	if err := cfg.RequireToken(); err != nil {
		return err
	}
	log := newLogger(cfg)

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// DB
	db, err := openStore(ctx, cfg)
	if err != nil {
		return err
	}
	defer db.Close()
	log.Info().Str("path", cfg.DatabasePath).Msg("✅ DB lista y migrada")

	// Repos
	queueRepo := storage.NewQueueRepo(db)
	matchRepo := storage.NewMatchRepo(db)
	blockRepo := storage.NewBlockRepo(db)
	guildRepo := storage.NewGuildRepo(db)
	pendingRepo := storage.NewPendingRepo(db)
	panelRepo := storage.NewPanelRepo(db)
	prefsRepo := storage.NewPrefsRepo(db)

	// Discord session (antes de los services que la usan vía gateways)
	s, err := discordgo.New(cfg.DiscordToken)
	if err != nil {
		return eris.Wrap(err, "discord session")
	}
	s.Identify.Intents = discordgo.IntentsGuilds |
		discordgo.IntentsGuildMessages |
		discordgo.IntentsGuildMembers |
		discordgo.IntentsMessageContent

	// Services
	opts := []service.Option{service.WithLogger(log), service.WithPairingInterval(cfg.PairingInterval)}
	roles := service.NewRoleCache(discord.NewMembers(s), service.RoleCacheSize, service.RoleCacheTTL, opts...)
	queueSvc := service.NewQueueService(queueRepo, matchRepo, guildRepo, opts...)
	roomsSvc := service.NewMatchRoomsService(discord.NewRooms(s, log), guildRepo, queueRepo, matchRepo, blockRepo, pendingRepo, prefsRepo, service.NewMetaStore(), opts...)
	pairingSvc := service.NewPairingService(queueRepo, matchRepo, blockRepo, guildRepo, roles, roomsSvc, opts...)
	adminSvc := service.NewAdminService(guildRepo, queueRepo, blockRepo, matchRepo, prefsRepo, opts...)
	panelSvc := service.NewPanelService(panelRepo, discord.NewPanels(s), queueRepo, matchRepo, guildRepo, opts...)

	// Router: handlers antes de abrir para no perder eventos
	r := discord.NewRouter(s, cfg.DiscordGuild, cfg.AdminRoleIDs, discord.Services{
		Queue:  queueSvc,
		Rooms:  roomsSvc,
		Admin:  adminSvc,
		Panels: panelSvc,
		Roles:  roles,
	}, log)
	r.Handlers()

	if err := s.Open(); err != nil {
		return eris.Wrap(err, "discord open")
	}
	defer s.Close()
	log.Info().Str("user", s.State.User.Username).Str("id", s.State.User.ID).Msg("✅ Conectado")

	if err := r.Register(); err != nil {
		return err
	}
	if err := roomsSvc.Restore(ctx); err != nil {
		log.Error().Err(err).Msg("[boot] restore rooms")
	}

	web := httpstats.New(cfg.HTTPSecret, adminSvc, log)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error { return web.Start(gctx, cfg.HTTPAddr) })
	g.Go(func() error {
		return service.RunLoops(gctx, log,
			service.Loop{Name: "pairing", Every: cfg.PairingInterval, Run: pairingSvc.SweepAll},
			service.Loop{Name: "priority", Every: cfg.PriorityInterval, Run: queueSvc.RecomputeAll},
			service.Loop{Name: "inactivity", Every: domain.InactivityCheckInterval, Run: discardCount(roomsSvc.CleanupInactive)},
			service.Loop{Name: "pending", Every: domain.PendingCheckInterval, Run: discardCount(roomsSvc.CleanupPending)},
			service.Loop{Name: "dms", Every: domain.PendingCheckInterval, Run: discardCount(roomsSvc.CleanupDMs)},
			service.Loop{Name: "panels", Every: cfg.PanelInterval, Run: panelSvc.RefreshAll},
		)
	})

	err = g.Wait()
	log.Info().Msg("🛑 apagando")
	pairingSvc.Wait()
	roomsSvc.Stop()
	return err
}

func discardCount(fn func(context.Context) (int, error)) func(context.Context) error {
	return func(ctx context.Context) error {
		_, err := fn(ctx)
		return err
	}
}
