package storage

import (
	"context"
	"database/sql"
	"errors"

	"github.com/rotisserie/eris"

	"github.com/jose-valero/pairup-bot/internal/domain"
)

// MatchRepo cubre matches, match_skips y queue_history (se escriben juntos al emparejar).
type MatchRepo struct{ db *sql.DB }

func NewMatchRepo(db *sql.DB) *MatchRepo { return &MatchRepo{db: db} }

// CreateFromPair: en UNA transacción inserta el match, saca a ambos de la cola y
// registra las dos filas de historial. Si alguno ya no estaba en cola -> ErrPairStale.
func (r *MatchRepo) CreateFromPair(ctx context.Context, m domain.Match, first, second domain.QueueEntry) error {
	return WithTx(ctx, r.db, func(tx *sql.Tx) error {
		_, err := tx.ExecContext(ctx, `
INSERT INTO matches (thread_id, guild_id, user1_id, user2_id, room_number, created_at, last_activity, status)
VALUES (?, ?, ?, ?, ?, ?, ?, 'open')
`, m.ThreadID, m.GuildID, m.User1ID, m.User2ID, m.RoomNumber, m.CreatedAt, m.CreatedAt)
		if err != nil {
			return eris.Wrap(err, "insert match")
		}

		for _, e := range []domain.QueueEntry{first, second} {
			res, err := tx.ExecContext(ctx, `DELETE FROM queue WHERE guild_id = ? AND user_id = ?`, m.GuildID, e.UserID)
			if err != nil {
				return eris.Wrap(err, "dequeue paired user")
			}
			if n, _ := res.RowsAffected(); n != 1 {
				return domain.ErrPairStale
			}
			if _, err := tx.ExecContext(ctx, `
INSERT INTO queue_history (guild_id, user_id, enqueued_at, matched_at)
VALUES (?, ?, ?, ?)
`, m.GuildID, e.UserID, e.EnqueuedAt, m.CreatedAt); err != nil {
				return eris.Wrap(err, "insert queue history")
			}
		}
		return nil
	})
}

func (r *MatchRepo) Get(ctx context.Context, threadID int64) (domain.Match, error) {
	m, err := scanMatch(r.db.QueryRowContext(ctx, `SELECT `+matchCols+` FROM matches WHERE thread_id = ?`, threadID))
	if errors.Is(err, sql.ErrNoRows) {
		return m, domain.ErrNotFound
	}
	return m, eris.Wrap(err, "get match")
}

func (r *MatchRepo) ListOpen(ctx context.Context) ([]domain.Match, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT `+matchCols+` FROM matches WHERE status = 'open' ORDER BY created_at`)
	if err != nil {
		return nil, eris.Wrap(err, "list open matches")
	}
	return collectMatches(rows)
}

// StaleOpen: matches abiertos sin actividad desde antes de cutoff.
func (r *MatchRepo) StaleOpen(ctx context.Context, cutoff int64) ([]domain.Match, error) {
	rows, err := r.db.QueryContext(ctx, `
SELECT `+matchCols+`
  FROM matches
 WHERE status = 'open' AND last_activity < ?
 ORDER BY last_activity
`, cutoff)
	if err != nil {
		return nil, eris.Wrap(err, "list stale matches")
	}
	return collectMatches(rows)
}

func (r *MatchRepo) Touch(ctx context.Context, threadID, now int64) error {
	_, err := r.db.ExecContext(ctx, `
UPDATE matches SET last_activity = ? WHERE thread_id = ? AND status = 'open'
`, now, threadID)
	return eris.Wrap(err, "touch match")
}

// Close es idempotente: devuelve false si ya estaba cerrado (o no existe).
func (r *MatchRepo) Close(ctx context.Context, threadID int64, reason string, now int64) (bool, error) {
	res, err := r.db.ExecContext(ctx, `
UPDATE matches
   SET status = 'closed', closed_at = ?, close_reason = ?
 WHERE thread_id = ? AND status = 'open'
`, now, reason, threadID)
	if err != nil {
		return false, eris.Wrap(err, "close match")
	}
	n, _ := res.RowsAffected()
	return n > 0, nil
}

// HasActiveMatch: match abierto donde el usuario no hizo skip ni está pendiente de borrado.
func (r *MatchRepo) HasActiveMatch(ctx context.Context, guildID, userID int64) (bool, error) {
	var n int
	err := r.db.QueryRowContext(ctx, `
SELECT COUNT(*)
  FROM matches m
 WHERE m.guild_id = ? AND m.status = 'open'
   AND (m.user1_id = ? OR m.user2_id = ?)
   AND NOT EXISTS (SELECT 1 FROM match_skips s WHERE s.thread_id = m.thread_id AND s.user_id = ?)
   AND NOT EXISTS (SELECT 1 FROM pending_deletions p WHERE p.thread_id = m.thread_id)
`, guildID, userID, userID, userID).Scan(&n)
	if err != nil {
		return false, eris.Wrap(err, "active match lookup")
	}
	return n > 0, nil
}

// RecentlyMatchedUsers: usuarios en matches abiertos creados desde since,
// salvo los de threads con un skip registrado en esa ventana.
func (r *MatchRepo) RecentlyMatchedUsers(ctx context.Context, guildID, since int64) (map[int64]struct{}, error) {
	rows, err := r.db.QueryContext(ctx, `
SELECT m.user1_id, m.user2_id
  FROM matches m
 WHERE m.guild_id = ? AND m.status = 'open' AND m.created_at >= ?
   AND NOT EXISTS (
     SELECT 1 FROM match_skips s WHERE s.thread_id = m.thread_id AND s.skipped_at >= ?
   )
`, guildID, since, since)
	if err != nil {
		return nil, eris.Wrap(err, "recently matched")
	}
	defer rows.Close()

	out := map[int64]struct{}{}
	for rows.Next() {
		var u1, u2 int64
		if err := rows.Scan(&u1, &u2); err != nil {
			return nil, eris.Wrap(err, "scan recently matched")
		}
		out[u1] = struct{}{}
		out[u2] = struct{}{}
	}
	return out, rows.Err()
}

// RecordSkip: un voto por (guild, thread, user); repetir no cambia nada.
func (r *MatchRepo) RecordSkip(ctx context.Context, guildID, threadID, userID, now int64) error {
	_, err := r.db.ExecContext(ctx, `
INSERT INTO match_skips (guild_id, thread_id, user_id, skipped_at)
VALUES (?, ?, ?, ?)
ON CONFLICT (guild_id, thread_id, user_id) DO NOTHING
`, guildID, threadID, userID, now)
	return eris.Wrap(err, "record skip")
}

func (r *MatchRepo) SkipVoters(ctx context.Context, threadID int64) ([]int64, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT user_id FROM match_skips WHERE thread_id = ? ORDER BY skipped_at`, threadID)
	if err != nil {
		return nil, eris.Wrap(err, "skip voters")
	}
	return collectIDs(rows)
}

// RecentSkippers: último skip de cada usuario del guild desde since.
func (r *MatchRepo) RecentSkippers(ctx context.Context, guildID, since int64) (map[int64]int64, error) {
	rows, err := r.db.QueryContext(ctx, `
SELECT user_id, MAX(skipped_at)
  FROM match_skips
 WHERE guild_id = ? AND skipped_at >= ?
 GROUP BY user_id
`, guildID, since)
	if err != nil {
		return nil, eris.Wrap(err, "recent skippers")
	}
	defer rows.Close()

	out := map[int64]int64{}
	for rows.Next() {
		var uid, at int64
		if err := rows.Scan(&uid, &at); err != nil {
			return nil, eris.Wrap(err, "scan skipper")
		}
		out[uid] = at
	}
	return out, rows.Err()
}

// HistoryStats: matches creados y espera promedio (segundos) en [from, to).
func (r *MatchRepo) HistoryStats(ctx context.Context, guildID, from, to int64) (created int, avgWait float64, err error) {
	err = r.db.QueryRowContext(ctx, `
SELECT COUNT(*) FROM matches WHERE guild_id = ? AND created_at >= ? AND created_at < ?
`, guildID, from, to).Scan(&created)
	if err != nil {
		return 0, 0, eris.Wrap(err, "count matches")
	}
	var avg sql.NullFloat64
	err = r.db.QueryRowContext(ctx, `
SELECT AVG(matched_at - enqueued_at) FROM queue_history WHERE guild_id = ? AND matched_at >= ? AND matched_at < ?
`, guildID, from, to).Scan(&avg)
	if err != nil {
		return 0, 0, eris.Wrap(err, "avg wait")
	}
	return created, avg.Float64, nil
}

func (r *MatchRepo) CountOpen(ctx context.Context, guildID int64) (int, error) {
	var n int
	err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM matches WHERE guild_id = ? AND status = 'open'`, guildID).Scan(&n)
	return n, eris.Wrap(err, "count open matches")
}

func (r *MatchRepo) HistoryCount(ctx context.Context, guildID int64) (int, error) {
	var n int
	err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM queue_history WHERE guild_id = ?`, guildID).Scan(&n)
	return n, eris.Wrap(err, "count history")
}

// --- retención (janitor) ---

func (r *MatchRepo) PruneSkips(ctx context.Context, before int64) (int64, error) {
	res, err := r.db.ExecContext(ctx, `DELETE FROM match_skips WHERE skipped_at < ?`, before)
	if err != nil {
		return 0, eris.Wrap(err, "prune skips")
	}
	n, _ := res.RowsAffected()
	return n, nil
}
