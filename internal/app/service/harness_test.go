package service

import (
	"context"
	"database/sql"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/jose-valero/pairup-bot/internal/domain"
	"github.com/jose-valero/pairup-bot/internal/infra/storage"
)

const (
	testGuild   = int64(100)
	parentChan  = int64(500)
	reportChan  = int64(600)
	firstThread = int64(9000)
)

var t0 = time.Unix(1_700_000_000, 0)

type fakeClock struct {
	mu sync.Mutex
	t  time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.t
}

func (c *fakeClock) Set(t time.Time) {
	c.mu.Lock()
	c.t = t
	c.mu.Unlock()
}

func (c *fakeClock) Advance(d time.Duration) { c.Set(c.Now().Add(d)) }

type fakeRooms struct {
	mu         sync.Mutex
	next       int64
	created    []RoomSpec
	deleted    []int64
	removed    [][2]int64
	announced  []string
	controls   []int64
	reports    []Report
	notified   []int64
	dmsDeleted []DMRef
	history    []RoomMessage

	onCreate   func()
	createErr  error
	deleteErr  error
	historyErr error
	reportErr  error
}

func (f *fakeRooms) CreateRoom(_ context.Context, spec RoomSpec) (int64, error) {
	if f.onCreate != nil {
		f.onCreate()
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.createErr != nil {
		return 0, f.createErr
	}
	f.created = append(f.created, spec)
	f.next++
	return firstThread + f.next, nil
}

func (f *fakeRooms) SendControls(_ context.Context, m domain.Match) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.controls = append(f.controls, m.ThreadID)
	return nil
}

func (f *fakeRooms) Announce(_ context.Context, _ int64, text string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.announced = append(f.announced, text)
	return nil
}

func (f *fakeRooms) RemoveMember(_ context.Context, threadID, userID int64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.removed = append(f.removed, [2]int64{threadID, userID})
	return nil
}

func (f *fakeRooms) DeleteRoom(_ context.Context, threadID int64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.deleted = append(f.deleted, threadID)
	return f.deleteErr
}

func (f *fakeRooms) History(context.Context, int64, int) ([]RoomMessage, error) {
	return f.history, f.historyErr
}

func (f *fakeRooms) SendReport(_ context.Context, _ int64, r Report) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.reportErr != nil {
		return f.reportErr
	}
	f.reports = append(f.reports, r)
	return nil
}

func (f *fakeRooms) NotifyMatch(_ context.Context, userID int64, _ domain.Match) (DMRef, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.notified = append(f.notified, userID)
	return DMRef{ChannelID: 7000 + userID, MessageID: 8000 + userID}, nil
}

func (f *fakeRooms) DeleteDM(_ context.Context, ref DMRef) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.dmsDeleted = append(f.dmsDeleted, ref)
	return nil
}

// fakeMembers: usuarios ausentes del mapa no están en el guild.
type fakeMembers struct {
	mu    sync.Mutex
	roles map[int64][]int64
	calls int
}

func (f *fakeMembers) MemberRoles(_ context.Context, _, userID int64) ([]int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	r, ok := f.roles[userID]
	if !ok {
		return nil, domain.ErrGone
	}
	return r, nil
}

func (f *fakeMembers) add(ids ...int64) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, id := range ids {
		f.roles[id] = []int64{1}
	}
}

type scheduled struct {
	d         time.Duration
	fn        func()
	cancelled bool
}

type fakeScheduler struct {
	mu   sync.Mutex
	jobs []*scheduled
}

func (s *fakeScheduler) schedule(d time.Duration, fn func()) func() {
	s.mu.Lock()
	defer s.mu.Unlock()
	j := &scheduled{d: d, fn: fn}
	s.jobs = append(s.jobs, j)
	return func() {
		s.mu.Lock()
		j.cancelled = true
		s.mu.Unlock()
	}
}

func (s *fakeScheduler) last() *scheduled {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.jobs) == 0 {
		return nil
	}
	return s.jobs[len(s.jobs)-1]
}

type env struct {
	t       *testing.T
	ctx     context.Context
	db      *sql.DB
	clock   *fakeClock
	rooms   *fakeRooms
	members *fakeMembers
	sched   *fakeScheduler

	queueRepo   *storage.QueueRepo
	matchRepo   *storage.MatchRepo
	blockRepo   *storage.BlockRepo
	guildRepo   *storage.GuildRepo
	pendingRepo *storage.PendingRepo
	panelRepo   *storage.PanelRepo
	prefsRepo   *storage.PrefsRepo

	roles   *RoleCache
	queue   *QueueService
	pairing *PairingService
	matches *MatchRoomsService
	admin   *AdminService
}

func newEnv(t *testing.T) *env {
	t.Helper()
	ctx := context.Background()
	db, err := storage.Open(ctx, filepath.Join(t.TempDir(), "pairup.db"))
	require.NoError(t, err)
	require.NoError(t, storage.Migrate(db))
	t.Cleanup(func() { _ = db.Close() })

	e := &env{
		t:           t,
		ctx:         ctx,
		db:          db,
		clock:       &fakeClock{t: t0},
		members:     &fakeMembers{roles: map[int64][]int64{}},
		queueRepo:   storage.NewQueueRepo(db),
		matchRepo:   storage.NewMatchRepo(db),
		blockRepo:   storage.NewBlockRepo(db),
		guildRepo:   storage.NewGuildRepo(db),
		pendingRepo: storage.NewPendingRepo(db),
		panelRepo:   storage.NewPanelRepo(db),
		prefsRepo:   storage.NewPrefsRepo(db),
	}
	e.wire()
	require.NoError(t, e.guildRepo.SetParentChannel(ctx, testGuild, parentChan, t0.Unix()))
	require.NoError(t, e.guildRepo.SetReportChannel(ctx, testGuild, reportChan, t0.Unix()))
	return e
}

// wire arma los servicios sobre la misma base; llamarlo otra vez simula un reinicio del proceso.
func (e *env) wire() {
	clk := WithClock(e.clock.Now)
	e.rooms = &fakeRooms{}
	e.sched = &fakeScheduler{}
	e.roles = NewRoleCache(e.members, RoleCacheSize, RoleCacheTTL)
	e.queue = NewQueueService(e.queueRepo, e.matchRepo, e.guildRepo, clk)
	e.matches = NewMatchRoomsService(e.rooms, e.guildRepo, e.queueRepo, e.matchRepo, e.blockRepo, e.pendingRepo, e.prefsRepo, NewMetaStore(), clk)
	e.matches.schedule = e.sched.schedule
	e.pairing = NewPairingService(e.queueRepo, e.matchRepo, e.blockRepo, e.guildRepo, e.roles, e.matches, clk)
	e.admin = NewAdminService(e.guildRepo, e.queueRepo, e.blockRepo, e.matchRepo, e.prefsRepo, clk)
}

func (e *env) enqueue(users ...int64) {
	e.t.Helper()
	for _, u := range users {
		e.members.add(u)
		_, err := e.queue.Enqueue(e.ctx, testGuild, u)
		require.NoError(e.t, err)
		e.clock.Advance(time.Second)
	}
}

// matchOf empareja a dos usuarios y devuelve el match abierto.
func (e *env) matchOf(a, b int64) domain.Match {
	e.t.Helper()
	e.enqueue(a, b)
	ok, err := e.pairing.SweepGuild(e.ctx, testGuild)
	require.NoError(e.t, err)
	require.True(e.t, ok)
	open, err := e.matchRepo.ListOpen(e.ctx)
	require.NoError(e.t, err)
	require.NotEmpty(e.t, open)
	return open[len(open)-1]
}

func (e *env) queued() []int64 {
	e.t.Helper()
	entries, err := e.queueRepo.Candidates(e.ctx, testGuild, CandidateCap)
	require.NoError(e.t, err)
	out := make([]int64, 0, len(entries))
	for _, q := range entries {
		out = append(out, q.UserID)
	}
	return out
}
