package service

import (
	"context"
	"time"

	"github.com/jose-valero/pairup-bot/internal/domain"
	"github.com/jose-valero/pairup-bot/internal/infra/storage"
)

// Lo implementa internal/infra/storage.QueueRepo
type QueueStore interface {
	Enqueue(ctx context.Context, guildID, userID, now, staleBefore int64) error
	Requeue(ctx context.Context, guildID, userID, now int64) error
	Leave(ctx context.Context, guildID, userID int64) (bool, error)
	Clear(ctx context.Context, guildID int64) (int64, error)
	Candidates(ctx context.Context, guildID int64, limit int) ([]domain.QueueEntry, error)
	Count(ctx context.Context, guildID int64) (int, error)
	Position(ctx context.Context, guildID, userID int64) (rank, total int, err error)
	UpdateScores(ctx context.Context, guildID int64, updates []storage.ScoreUpdate) error
	GuildsWithQueue(ctx context.Context, min int) ([]int64, error)
}

// Lo implementa internal/infra/storage.MatchRepo
type MatchStore interface {
	CreateFromPair(ctx context.Context, m domain.Match, first, second domain.QueueEntry) error
	Get(ctx context.Context, threadID int64) (domain.Match, error)
	ListOpen(ctx context.Context) ([]domain.Match, error)
	StaleOpen(ctx context.Context, cutoff int64) ([]domain.Match, error)
	Touch(ctx context.Context, threadID, now int64) error
	Close(ctx context.Context, threadID int64, reason string, now int64) (bool, error)
	HasActiveMatch(ctx context.Context, guildID, userID int64) (bool, error)
	RecentlyMatchedUsers(ctx context.Context, guildID, since int64) (map[int64]struct{}, error)
	RecordSkip(ctx context.Context, guildID, threadID, userID, now int64) error
	SkipVoters(ctx context.Context, threadID int64) ([]int64, error)
	RecentSkippers(ctx context.Context, guildID, since int64) (map[int64]int64, error)
	HistoryStats(ctx context.Context, guildID, from, to int64) (int, float64, error)
	CountOpen(ctx context.Context, guildID int64) (int, error)
}

// Lo implementa internal/infra/storage.BlockRepo
type BlockStore interface {
	Block(ctx context.Context, guildID, a, b, until int64) error
	PurgeExpired(ctx context.Context, guildID, now int64) (int64, error)
	Active(ctx context.Context, guildID, now int64) (map[storage.PairKey]struct{}, error)
	Clear(ctx context.Context, guildID int64) (int64, error)
}

// Lo implementa internal/infra/storage.GuildRepo
type GuildStore interface {
	Get(ctx context.Context, guildID int64) (domain.GuildConfig, error)
	SetParentChannel(ctx context.Context, guildID, channelID, now int64) error
	SetReportChannel(ctx context.Context, guildID, channelID, now int64) error
	SetPaused(ctx context.Context, guildID int64, paused bool, now int64) error
	NextRoomNumber(ctx context.Context, guildID int64) (int64, error)
	Reset(ctx context.Context, guildID int64) error
}

// Lo implementa internal/infra/storage.PendingRepo
type PendingStore interface {
	Schedule(ctx context.Context, threadID, guildID, deleteAfter int64) error
	List(ctx context.Context) ([]domain.PendingDeletion, error)
	Due(ctx context.Context, now int64) ([]domain.PendingDeletion, error)
	Get(ctx context.Context, threadID int64) (domain.PendingDeletion, error)
	Remove(ctx context.Context, threadID int64) error
	ScheduleDM(ctx context.Context, channelID, messageID, deleteAfter int64) error
	DueDMs(ctx context.Context, now int64, limit int) ([]domain.PendingDM, error)
	RemoveDM(ctx context.Context, channelID, messageID int64) error
}

// Lo implementa internal/infra/storage.PanelRepo
type PanelStore interface {
	Get(ctx context.Context, guildID int64) (domain.QueuePanel, error)
	List(ctx context.Context) ([]domain.QueuePanel, error)
	Upsert(ctx context.Context, guildID, channelID, messageID, now int64) error
	Touch(ctx context.Context, guildID, now int64) error
	Delete(ctx context.Context, guildID int64) error
}

// Lo implementa internal/infra/storage.PrefsRepo
type PrefsStore interface {
	DMEnabled(ctx context.Context, userID int64) (bool, error)
	SetDMEnabled(ctx context.Context, userID int64, enabled bool) error
}

// ---- colaboradores externos (Discord) ----

type RoomSpec struct {
	GuildID         int64
	ParentChannelID int64
	RoomNumber      int64
	Users           [2]int64
}

type RoomMessage struct {
	AuthorID    int64
	AuthorName  string
	Content     string
	At          time.Time
	Attachments []string
}

type Report struct {
	ID         string
	Match      domain.Match
	ReporterID int64
	ReportedID int64
	Reason     string
	Details    string
	Transcript []byte // nil si no se pudo generar
}

// DMRef apunta a un DM enviado (para borrarlo luego).
type DMRef struct {
	ChannelID int64
	MessageID int64
}

// Lo implementa internal/adapters/discord.Rooms. Los errores "ya no existe" vienen como domain.ErrGone.
type RoomGateway interface {
	CreateRoom(ctx context.Context, spec RoomSpec) (threadID int64, err error)
	SendControls(ctx context.Context, m domain.Match) error
	Announce(ctx context.Context, threadID int64, text string) error
	RemoveMember(ctx context.Context, threadID, userID int64) error
	DeleteRoom(ctx context.Context, threadID int64) error
	History(ctx context.Context, threadID int64, limit int) ([]RoomMessage, error)
	SendReport(ctx context.Context, channelID int64, r Report) error
	NotifyMatch(ctx context.Context, userID int64, m domain.Match) (DMRef, error)
	DeleteDM(ctx context.Context, ref DMRef) error
}

// Lo implementa internal/adapters/discord.Members. Miembro inexistente -> domain.ErrGone.
type MemberDirectory interface {
	MemberRoles(ctx context.Context, guildID, userID int64) ([]int64, error)
}

type PanelView struct {
	GuildID   int64
	Queued    int
	OpenRooms int
	Paused    bool
}

// Lo implementa internal/adapters/discord.Panels
type PanelGateway interface {
	PostPanel(ctx context.Context, channelID int64, v PanelView) (messageID int64, err error)
	EditPanel(ctx context.Context, p domain.QueuePanel, v PanelView) error
}
