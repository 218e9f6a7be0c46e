package httpstats

import (
	"context"
	"crypto/subtle"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/rs/zerolog"

	"github.com/jose-valero/pairup-bot/internal/domain"
)

const (
	SecretHeader = "X-Pairup-Secret"
	defaultDays  = 7
)

type StatsSource interface {
	StatsForDays(ctx context.Context, guildID int64, days int) (domain.Stats, error)
}

type Server struct {
	secret string
	stats  StatsSource
	mux    *http.ServeMux
	log    zerolog.Logger
}

// New: secret vacío deja /guilds abierto (solo para redes internas).
func New(secret string, stats StatsSource, log zerolog.Logger) *Server {
	s := &Server{
		secret: secret,
		stats:  stats,
		mux:    http.NewServeMux(),
		log:    log.With().Str("component", "httpstats").Logger(),
	}
	s.routes()
	return s
}

func (s *Server) routes() {
	s.mux.HandleFunc("GET /healthz", s.handleHealth)
	s.mux.HandleFunc("GET /guilds/{id}/stats", s.handleStats)
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) { s.mux.ServeHTTP(w, r) }

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

type statsResponse struct {
	GuildID        string  `json:"guild_id"`
	From           int64   `json:"from"`
	To             int64   `json:"to"`
	MatchesCreated int     `json:"matches_created"`
	Queued         int     `json:"queued"`
	OpenRooms      int     `json:"open_rooms"`
	AvgWaitSeconds float64 `json:"avg_wait_seconds"`
}

func (s *Server) handleStats(w http.ResponseWriter, r *http.Request) {
	if s.secret != "" && subtle.ConstantTimeCompare([]byte(r.Header.Get(SecretHeader)), []byte(s.secret)) != 1 {
		writeError(w, http.StatusForbidden, "forbidden")
		return
	}
	guildID, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil || guildID <= 0 {
		writeError(w, http.StatusBadRequest, "invalid guild id")
		return
	}
	days := defaultDays
	if raw := r.URL.Query().Get("days"); raw != "" {
		if days, err = strconv.Atoi(raw); err != nil {
			writeError(w, http.StatusBadRequest, "invalid days")
			return
		}
	}

	st, err := s.stats.StatsForDays(r.Context(), guildID, days)
	switch {
	case errors.Is(err, domain.ErrInvalidDuration), errors.Is(err, domain.ErrInvalidID):
		writeError(w, http.StatusBadRequest, err.Error())
		return
	case err != nil:
		s.log.Error().Err(err).Int64("guild", guildID).Msg("[http] stats")
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}

	// snowflakes como string: JSON en JS pierde precisión con int64
	writeJSON(w, http.StatusOK, statsResponse{
		GuildID:        strconv.FormatInt(st.GuildID, 10),
		From:           st.From,
		To:             st.To,
		MatchesCreated: st.MatchesCreated,
		Queued:         st.Queued,
		OpenRooms:      st.OpenRooms,
		AvgWaitSeconds: st.AvgWait.Seconds(),
	})
}

// Start escucha hasta que ctx se cancela; luego apaga con 5s de gracia.
func (s *Server) Start(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s,
		ReadHeaderTimeout: 5 * time.Second,
	}
	errc := make(chan error, 1)
	go func() {
		s.log.Info().Str("addr", addr).Msg("🌐 HTTP listening")
		errc <- srv.ListenAndServe()
	}()

	select {
	case err := <-errc:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
