package service

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rotisserie/eris"
	"github.com/rs/zerolog"

	"github.com/jose-valero/pairup-bot/internal/domain"
)

const (
	// los DMs de "match encontrado" se borran pasado este tiempo
	MatchDMTTL = 10 * time.Minute

	transcriptLimit = 500
	dmCleanupBatch  = 100
	timerTimeout    = 30 * time.Second
)

// scheduleFunc arma un timer y devuelve su cancelación. En producción es time.AfterFunc.
type scheduleFunc func(d time.Duration, fn func()) (cancel func())

func afterFunc(d time.Duration, fn func()) func() {
	t := time.AfterFunc(d, fn)
	return func() { t.Stop() }
}

type SkipResult struct {
	Mutual   bool // los dos votaron skip: sala cerrada, nadie vuelve a la cola
	Requeued bool
}

type LeaveResult struct {
	DeleteAt time.Time
}

type ReportRequest struct {
	ThreadID   int64
	ReporterID int64
	Reason     string
	Details    string
}

type ReportResult struct {
	ID                 string
	TranscriptIncluded bool
}

// MatchRoomsService maneja el ciclo de vida de cada sala: open -> closed.
type MatchRoomsService struct {
	rooms   RoomGateway
	guilds  GuildStore
	queue   QueueStore
	matches MatchStore
	blocks  BlockStore
	pending PendingStore
	prefs   PrefsStore
	meta    *MetaStore

	// votos de skip serializados por hilo
	skipLocks *keyedLocks

	schedule scheduleFunc
	timersMu sync.Mutex
	timers   map[int64]func()

	now func() time.Time
	log zerolog.Logger
}

func NewMatchRoomsService(
	rooms RoomGateway,
	guilds GuildStore,
	queue QueueStore,
	matches MatchStore,
	blocks BlockStore,
	pending PendingStore,
	prefs PrefsStore,
	meta *MetaStore,
	opts ...Option,
) *MatchRoomsService {
	o := buildOptions("rooms", opts)
	return &MatchRoomsService{
		rooms:     rooms,
		guilds:    guilds,
		queue:     queue,
		matches:   matches,
		blocks:    blocks,
		pending:   pending,
		prefs:     prefs,
		meta:      meta,
		skipLocks: newKeyedLocks(),
		schedule:  afterFunc,
		timers:    map[int64]func(){},
		now:       o.now,
		log:       o.log,
	}
}


// OpenMatch crea la sala y, en una sola tx, el match + salida de la cola + historial.
func (s *MatchRoomsService) OpenMatch(ctx context.Context, pair domain.Pair) (domain.Match, error) {
	cfg, err := s.guilds.Get(ctx, pair.GuildID)
	if err != nil {
		return domain.Match{}, err
	}
	if cfg.ParentChannelID == 0 {
		return domain.Match{}, domain.ErrNotConfigured
	}

	room, err := s.guilds.NextRoomNumber(ctx, pair.GuildID)
	if err != nil {
		return domain.Match{}, err
	}

	u1, u2 := pair.First.UserID, pair.Second.UserID
	threadID, err := s.rooms.CreateRoom(ctx, RoomSpec{
		GuildID:         pair.GuildID,
		ParentChannelID: cfg.ParentChannelID,
		RoomNumber:      room,
		Users:           [2]int64{u1, u2},
	})
	if err != nil {
		return domain.Match{}, eris.Wrapf(err, "create room guild=%d", pair.GuildID)
	}

	now := s.now().Unix()
	m := domain.Match{
		ThreadID:     threadID,
		GuildID:      pair.GuildID,
		User1ID:      u1,
		User2ID:      u2,
		RoomNumber:   room,
		CreatedAt:    now,
		LastActivity: now,
		Status:       domain.MatchOpen,
	}
	if err := s.matches.CreateFromPair(ctx, m, pair.First, pair.Second); err != nil {
		// la sala ya existe en Discord pero el par no se confirmó
		if derr := s.rooms.DeleteRoom(context.WithoutCancel(ctx), threadID); derr != nil && !errors.Is(derr, domain.ErrGone) {
			s.log.Warn().Err(derr).Int64("thread", threadID).Msg("[rooms] delete orphan room")
		}
		return domain.Match{}, err
	}
	s.meta.Put(m)

	if err := s.rooms.SendControls(ctx, m); err != nil {
		s.log.Warn().Err(err).Int64("thread", threadID).Msg("[rooms] send controls")
	}
	s.notifyMatched(ctx, m)
	return m, nil
}

func (s *MatchRoomsService) notifyMatched(ctx context.Context, m domain.Match) {
	for _, u := range []int64{m.User1ID, m.User2ID} {
		enabled, err := s.prefs.DMEnabled(ctx, u)
		if err != nil {
			s.log.Warn().Err(err).Int64("user", u).Msg("[rooms] dm prefs")
			enabled = true
		}
		if !enabled {
			continue
		}
		ref, err := s.rooms.NotifyMatch(ctx, u, m)
		if err != nil {
			// DMs cerrados, etc.
			s.log.Debug().Err(err).Int64("user", u).Msg("[rooms] notify")
			continue
		}
		if err := s.pending.ScheduleDM(ctx, ref.ChannelID, ref.MessageID, s.now().Add(MatchDMTTL).Unix()); err != nil {
			s.log.Warn().Err(err).Int64("user", u).Msg("[rooms] schedule dm delete")
		}
	}
}

// loadOpen revalida contra el store: la meta en memoria puede estar vieja.
func (s *MatchRoomsService) loadOpen(ctx context.Context, threadID, actor int64) (domain.Match, error) {
	if !domain.ValidID(threadID, actor) {
		return domain.Match{}, domain.ErrInvalidID
	}
	m, err := s.matches.Get(ctx, threadID)
	if err != nil {
		return domain.Match{}, err
	}
	if !m.Has(actor) {
		return domain.Match{}, domain.ErrNotParticipant
	}
	if m.Status != domain.MatchOpen {
		return domain.Match{}, domain.ErrMatchClosed
	}
	return m, nil
}

// Skip: bloquea el par, registra el voto, saca al actor y lo re-encola.
// Si el otro ya había votado, la sala se cierra y nadie se re-encola.
// Leer votos, registrar el propio y decidir ocurre bajo el lock del hilo.
func (s *MatchRoomsService) Skip(ctx context.Context, threadID, actor int64) (SkipResult, error) {
	if !domain.ValidID(threadID, actor) {
		return SkipResult{}, domain.ErrInvalidID
	}
	unlock := s.skipLocks.Lock(threadID)
	defer unlock()

	m, err := s.loadOpen(ctx, threadID, actor)
	if err != nil {
		return SkipResult{}, err
	}
	voters, err := s.matches.SkipVoters(ctx, threadID)
	if err != nil {
		return SkipResult{}, err
	}
	if slices.Contains(voters, actor) {
		return SkipResult{}, domain.ErrNotParticipant
	}

	now := s.now()
	other := m.Other(actor)
	if err := s.blocks.Block(ctx, m.GuildID, actor, other, now.Add(domain.BlockDuration).Unix()); err != nil {
		return SkipResult{}, err
	}
	if err := s.matches.RecordSkip(ctx, m.GuildID, threadID, actor, now.Unix()); err != nil {
		return SkipResult{}, err
	}
	s.meta.AddVote(threadID, actor)

	if slices.Contains(voters, other) {
		if err := s.finish(ctx, threadID, domain.ReasonBothSkipped); err != nil {
			return SkipResult{}, err
		}
		s.log.Info().Int64("thread", threadID).Msg("[rooms] both skipped")
		return SkipResult{Mutual: true}, nil
	}

	if err := s.rooms.RemoveMember(ctx, threadID, actor); err != nil && !errors.Is(err, domain.ErrGone) {
		s.log.Warn().Err(err).Int64("thread", threadID).Int64("user", actor).Msg("[rooms] remove member")
	}
	if err := s.queue.Requeue(ctx, m.GuildID, actor, now.Unix()); err != nil {
		return SkipResult{}, err
	}
	s.announce(ctx, threadID, fmt.Sprintf("⏭️ <@%d> hizo skip. Si tú también quieres otra pareja, pulsa **Skip**.", actor))
	return SkipResult{Requeued: true}, nil
}

// Leave: saca al actor, bloquea el par y agenda el borrado de la sala.
func (s *MatchRoomsService) Leave(ctx context.Context, threadID, actor int64) (LeaveResult, error) {
	m, err := s.loadOpen(ctx, threadID, actor)
	if err != nil {
		return LeaveResult{}, err
	}

	now := s.now()
	if err := s.blocks.Block(ctx, m.GuildID, actor, m.Other(actor), now.Add(domain.BlockDuration).Unix()); err != nil {
		return LeaveResult{}, err
	}
	deleteAt := now.Add(domain.LeaveDeleteDelay)
	if err := s.pending.Schedule(ctx, threadID, m.GuildID, deleteAt.Unix()); err != nil {
		return LeaveResult{}, err
	}
	// Schedule se queda con el menor delete_after si ya había uno
	if p, err := s.pending.Get(ctx, threadID); err == nil {
		deleteAt = time.Unix(p.DeleteAfter, 0)
	}

	if err := s.rooms.RemoveMember(ctx, threadID, actor); err != nil && !errors.Is(err, domain.ErrGone) {
		s.log.Warn().Err(err).Int64("thread", threadID).Int64("user", actor).Msg("[rooms] remove member")
	}
	s.announce(ctx, threadID, fmt.Sprintf("👋 <@%d> salió de la sala. Se borrará <t:%d:R>.", actor, deleteAt.Unix()))
	s.arm(threadID, deleteAt.Sub(now))
	return LeaveResult{DeleteAt: deleteAt}, nil
}

// Report no cambia el estado del match. La transcripción es best effort.
func (s *MatchRoomsService) Report(ctx context.Context, req ReportRequest) (ReportResult, error) {
	if !domain.ValidID(req.ThreadID, req.ReporterID) {
		return ReportResult{}, domain.ErrInvalidID
	}
	m, err := s.matches.Get(ctx, req.ThreadID)
	if err != nil {
		return ReportResult{}, err
	}
	if !m.Has(req.ReporterID) {
		return ReportResult{}, domain.ErrNotParticipant
	}
	cfg, err := s.guilds.Get(ctx, m.GuildID)
	if err != nil {
		return ReportResult{}, err
	}
	if cfg.ReportChannelID == 0 {
		return ReportResult{}, domain.ErrNotConfigured
	}

	r := Report{
		ID:         uuid.NewString(),
		Match:      m,
		ReporterID: req.ReporterID,
		ReportedID: m.Other(req.ReporterID),
		Reason:     req.Reason,
		Details:    req.Details,
	}
	if msgs, err := s.rooms.History(ctx, req.ThreadID, transcriptLimit); err != nil {
		s.log.Warn().Err(err).Int64("thread", req.ThreadID).Msg("[rooms] transcript")
	} else {
		r.Transcript = BuildTranscript(m, msgs)
	}

	if err := s.rooms.SendReport(ctx, cfg.ReportChannelID, r); err != nil {
		return ReportResult{}, fmt.Errorf("%w: %v", domain.ErrReportDelivery, err)
	}
	s.log.Info().Str("report", r.ID).Int64("thread", req.ThreadID).Int64("reporter", req.ReporterID).Msg("[rooms] report")
	return ReportResult{ID: r.ID, TranscriptIncluded: r.Transcript != nil}, nil
}

// Touch actualiza last_activity solo para salas que conocemos.
func (s *MatchRoomsService) Touch(ctx context.Context, threadID int64) error {
	if !s.meta.Has(threadID) {
		return nil
	}
	return s.matches.Touch(ctx, threadID, s.now().Unix())
}

// IsRoom: ¿el canal es una sala abierta?
func (s *MatchRoomsService) IsRoom(threadID int64) bool { return s.meta.Has(threadID) }

// ForceClose: cierre manual desde admin.
func (s *MatchRoomsService) ForceClose(ctx context.Context, threadID int64) error {
	m, err := s.matches.Get(ctx, threadID)
	if err != nil {
		return err
	}
	if m.Status != domain.MatchOpen {
		return domain.ErrMatchClosed
	}
	return s.finish(ctx, threadID, domain.ReasonAdmin)
}

// ExecutePendingDeletion es idempotente: sin fila pendiente o sin vencer no hace nada.
func (s *MatchRoomsService) ExecutePendingDeletion(ctx context.Context, threadID int64) error {
	p, err := s.pending.Get(ctx, threadID)
	if errors.Is(err, domain.ErrNotFound) {
		return nil
	}
	if err != nil {
		return err
	}
	if s.now().Unix() < p.DeleteAfter {
		return nil
	}
	return s.finish(ctx, threadID, domain.ReasonUserLeft)
}

// CleanupInactive cierra las salas abiertas sin actividad en InactivityTimeout.
func (s *MatchRoomsService) CleanupInactive(ctx context.Context) (int, error) {
	cutoff := s.now().Add(-domain.InactivityTimeout).Unix()
	stale, err := s.matches.StaleOpen(ctx, cutoff)
	if err != nil {
		return 0, err
	}
	closed := 0
	for _, m := range stale {
		s.announce(ctx, m.ThreadID, fmt.Sprintf("⏰ <@%d> <@%d> la sala se cierra por inactividad.", m.User1ID, m.User2ID))
		if err := s.finish(ctx, m.ThreadID, domain.ReasonInactivity); err != nil {
			s.log.Warn().Err(err).Int64("thread", m.ThreadID).Msg("[rooms] inactivity close")
			continue
		}
		closed++
	}
	if closed > 0 {
		s.log.Info().Int("closed", closed).Msg("[rooms] inactivity cleanup")
	}
	return closed, nil
}

// CleanupPending ejecuta los borrados vencidos que ningún timer alcanzó a ejecutar.
func (s *MatchRoomsService) CleanupPending(ctx context.Context) (int, error) {
	due, err := s.pending.Due(ctx, s.now().Unix())
	if err != nil {
		return 0, err
	}
	done := 0
	for _, p := range due {
		if err := s.ExecutePendingDeletion(ctx, p.ThreadID); err != nil {
			s.log.Warn().Err(err).Int64("thread", p.ThreadID).Msg("[rooms] pending deletion")
			continue
		}
		done++
	}
	return done, nil
}

// CleanupDMs borra los avisos de match vencidos. La fila se quita aunque Discord falle.
func (s *MatchRoomsService) CleanupDMs(ctx context.Context) (int, error) {
	due, err := s.pending.DueDMs(ctx, s.now().Unix(), dmCleanupBatch)
	if err != nil {
		return 0, err
	}
	for _, d := range due {
		if err := s.rooms.DeleteDM(ctx, DMRef{ChannelID: d.ChannelID, MessageID: d.MessageID}); err != nil && !errors.Is(err, domain.ErrGone) {
			s.log.Warn().Err(err).Int64("channel", d.ChannelID).Msg("[rooms] delete dm")
		}
		if err := s.pending.RemoveDM(ctx, d.ChannelID, d.MessageID); err != nil {
			return 0, err
		}
	}
	return len(due), nil
}

// Restore reconstruye la meta y re-arma los timers de borrado al arrancar.
func (s *MatchRoomsService) Restore(ctx context.Context) error {
	open, err := s.matches.ListOpen(ctx)
	if err != nil {
		return err
	}
	for _, m := range open {
		voters, err := s.matches.SkipVoters(ctx, m.ThreadID)
		if err != nil {
			s.log.Warn().Err(err).Int64("thread", m.ThreadID).Msg("[rooms] restore votes")
		}
		s.meta.Put(m, voters...)
	}

	pend, err := s.pending.List(ctx)
	if err != nil {
		return err
	}
	now := s.now()
	for _, p := range pend {
		s.arm(p.ThreadID, max(time.Unix(p.DeleteAfter, 0).Sub(now), 0))
	}
	s.log.Info().Int("open", len(open)).Int("pending", len(pend)).Msg("[rooms] restored")
	return nil
}

// Stop cancela los timers en memoria (las filas siguen en el store).
func (s *MatchRoomsService) Stop() {
	s.timersMu.Lock()
	defer s.timersMu.Unlock()
	for id, cancel := range s.timers {
		cancel()
		delete(s.timers, id)
	}
}

// ---------- internos ----------

// finish borra la sala (best effort) y cierra la contabilidad en el store.
func (s *MatchRoomsService) finish(ctx context.Context, threadID int64, reason string) error {
	if err := s.rooms.DeleteRoom(ctx, threadID); err != nil && !errors.Is(err, domain.ErrGone) {
		s.log.Warn().Err(err).Int64("thread", threadID).Msg("[rooms] delete room")
	}
	if _, err := s.matches.Close(ctx, threadID, reason, s.now().Unix()); err != nil {
		return err
	}
	if err := s.pending.Remove(ctx, threadID); err != nil {
		return err
	}
	s.meta.Delete(threadID)
	s.disarm(threadID)
	return nil
}

func (s *MatchRoomsService) announce(ctx context.Context, threadID int64, text string) {
	if err := s.rooms.Announce(ctx, threadID, text); err != nil && !errors.Is(err, domain.ErrGone) {
		s.log.Debug().Err(err).Int64("thread", threadID).Msg("[rooms] announce")
	}
}

func (s *MatchRoomsService) arm(threadID int64, d time.Duration) {
	s.timersMu.Lock()
	defer s.timersMu.Unlock()
	if cancel, ok := s.timers[threadID]; ok {
		cancel()
	}
	s.timers[threadID] = s.schedule(d, func() {
		ctx, cancel := context.WithTimeout(context.Background(), timerTimeout)
		defer cancel()
		if err := s.ExecutePendingDeletion(ctx, threadID); err != nil {
			s.log.Warn().Err(err).Int64("thread", threadID).Msg("[rooms] timer deletion")
		}
	})
}

func (s *MatchRoomsService) disarm(threadID int64) {
	s.timersMu.Lock()
	defer s.timersMu.Unlock()
	if cancel, ok := s.timers[threadID]; ok {
		cancel()
		delete(s.timers, threadID)
	}
}
