package main

import (
	"fmt"
	"io"
	"time"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/jose-valero/pairup-bot/internal/app/service"
	"github.com/jose-valero/pairup-bot/internal/domain"
	"github.com/jose-valero/pairup-bot/internal/infra/config"
	"github.com/jose-valero/pairup-bot/internal/infra/storage"
)

var (
	statsGuild int64
	statsDays  int
)

var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Estadísticas de un guild leídas directo de la base",
	RunE: func(cmd *cobra.Command, _ []string) error {
		cfg := config.MustLoad()
		db, err := openStore(cmd.Context(), cfg)
		if err != nil {
			return err
		}
		defer db.Close()

		admin := service.NewAdminService(
			storage.NewGuildRepo(db),
			storage.NewQueueRepo(db),
			storage.NewBlockRepo(db),
			storage.NewMatchRepo(db),
			storage.NewPrefsRepo(db),
		)
		st, err := admin.StatsForDays(cmd.Context(), statsGuild, statsDays)
		if err != nil {
			return err
		}
		printStats(cmd.OutOrStdout(), st)
		return nil
	},
}

func init() {
	statsCmd.Flags().Int64Var(&statsGuild, "guild", 0, "ID del guild")
	statsCmd.Flags().IntVar(&statsDays, "days", 7, "ventana en días (1-365)")
	_ = statsCmd.MarkFlagRequired("guild")
}

func printStats(w io.Writer, st domain.Stats) {
	label := color.New(color.FgHiBlack).SprintFunc()
	value := color.New(color.FgCyan, color.Bold).SprintFunc()

	fmt.Fprintln(w, color.CyanString("guild %d", st.GuildID))
	fmt.Fprintf(w, "%s %s → %s\n", label("ventana"),
		time.Unix(st.From, 0).UTC().Format(time.DateOnly),
		time.Unix(st.To, 0).UTC().Format(time.DateOnly))
	fmt.Fprintf(w, "%s %s\n", label("matches"), value(st.MatchesCreated))
	fmt.Fprintf(w, "%s %s\n", label("en cola"), value(st.Queued))
	fmt.Fprintf(w, "%s %s\n", label("salas  "), value(st.OpenRooms))
	avg := color.YellowString("sin datos")
	if st.AvgWait > 0 {
		avg = value(st.AvgWait.Round(time.Second))
	}
	fmt.Fprintf(w, "%s %s\n", label("espera "), avg)
}
