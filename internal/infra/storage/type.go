package storage

import (
	"database/sql"

	"github.com/jose-valero/pairup-bot/internal/domain"
)

// rowScanner cubre *sql.Row y *sql.Rows.
type rowScanner interface {
	Scan(dest ...any) error
}

const queueCols = `guild_id, user_id, enqueued_at, priority_score, boost_until`

func scanQueueEntry(r rowScanner) (domain.QueueEntry, error) {
	var (
		e     domain.QueueEntry
		boost sql.NullInt64
	)
	if err := r.Scan(&e.GuildID, &e.UserID, &e.EnqueuedAt, &e.PriorityScore, &boost); err != nil {
		return e, err
	}
	if boost.Valid {
		v := boost.Int64
		e.BoostUntil = &v
	}
	return e, nil
}

const matchCols = `thread_id, guild_id, user1_id, user2_id, room_number, created_at, last_activity, closed_at, status, close_reason`

func scanMatch(r rowScanner) (domain.Match, error) {
	var (
		m      domain.Match
		closed sql.NullInt64
		reason sql.NullString
	)
	err := r.Scan(&m.ThreadID, &m.GuildID, &m.User1ID, &m.User2ID, &m.RoomNumber,
		&m.CreatedAt, &m.LastActivity, &closed, &m.Status, &reason)
	if err != nil {
		return m, err
	}
	if closed.Valid {
		v := closed.Int64
		m.ClosedAt = &v
	}
	if reason.Valid {
		v := reason.String
		m.CloseReason = &v
	}
	return m, nil
}

func collectMatches(rows *sql.Rows) ([]domain.Match, error) {
	defer rows.Close()
	var out []domain.Match
	for rows.Next() {
		m, err := scanMatch(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, m)
	}
	return out, rows.Err()
}

func collectIDs(rows *sql.Rows) ([]int64, error) {
	defer rows.Close()
	var out []int64
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		out = append(out, id)
	}
	return out, rows.Err()
}
