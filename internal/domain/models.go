package domain

import "time"

const (
	MatchOpen   = "open"
	MatchClosed = "closed"
)

// Motivos de cierre que quedan en matches.close_reason
const (
	ReasonInactivity  = "inactivity"
	ReasonBothSkipped = "both skipped"
	ReasonUserLeft    = "user left"
	ReasonAdmin       = "admin"
)

type GuildConfig struct {
	GuildID         int64
	ParentChannelID int64
	ReportChannelID int64
	NextRoomNumber  int64
	Paused          bool
	UpdatedAt       int64
}

type QueueEntry struct {
	GuildID       int64
	UserID        int64
	EnqueuedAt    int64
	PriorityScore int64
	BoostUntil    *int64
}

type Match struct {
	ThreadID     int64
	GuildID      int64
	User1ID      int64
	User2ID      int64
	RoomNumber   int64
	CreatedAt    int64
	LastActivity int64
	ClosedAt     *int64
	Status       string
	CloseReason  *string
}

func (m Match) Has(userID int64) bool { return m.User1ID == userID || m.User2ID == userID }

// Other devuelve al otro participante (0 si userID no está en el match).
func (m Match) Other(userID int64) int64 {
	switch userID {
	case m.User1ID:
		return m.User2ID
	case m.User2ID:
		return m.User1ID
	}
	return 0
}

type QueuePanel struct {
	GuildID   int64
	ChannelID int64
	MessageID int64
	UpdatedAt int64
}

type PendingDeletion struct {
	ThreadID    int64
	GuildID     int64
	DeleteAfter int64
}

type PendingDM struct {
	ChannelID   int64
	MessageID   int64
	DeleteAfter int64
}

// Pair es lo que emite un sweep: dos entradas de cola compatibles.
type Pair struct {
	GuildID int64
	First   QueueEntry
	Second  QueueEntry
}

// Position es la respuesta de "estás en la cola".
type Position struct {
	Rank  int
	Total int
	ETA   time.Duration
}

type Stats struct {
	GuildID        int64
	From, To       int64
	MatchesCreated int
	Queued         int
	OpenRooms      int
	AvgWait        time.Duration
}

// Canonical ordena un par de usuarios (menor primero) para blocks.
func Canonical(a, b int64) (int64, int64) {
	if a < b {
		return a, b
	}
	return b, a
}
