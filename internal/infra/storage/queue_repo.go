package storage

import (
	"context"
	"database/sql"
	"errors"

	"github.com/rotisserie/eris"

	"github.com/jose-valero/pairup-bot/internal/domain"
)

type QueueRepo struct{ db *sql.DB }

func NewQueueRepo(db *sql.DB) *QueueRepo { return &QueueRepo{db: db} }

// Enqueue: upsert atómico. Si ya hay una fila viva (enqueued_at >= staleBefore) no toca nada
// y devuelve ErrAlreadyQueued; si la fila es vieja la resetea (score 0, sin boost).
func (r *QueueRepo) Enqueue(ctx context.Context, guildID, userID, now, staleBefore int64) error {
	return retryWrite(ctx, func(ctx context.Context) error {
		res, err := r.db.ExecContext(ctx, `
INSERT INTO queue (guild_id, user_id, enqueued_at, priority_score, boost_until)
VALUES (?, ?, ?, 0, NULL)
ON CONFLICT (guild_id, user_id) DO UPDATE SET
  enqueued_at    = excluded.enqueued_at,
  priority_score = 0,
  boost_until    = NULL
WHERE queue.enqueued_at < ?
`, guildID, userID, now, staleBefore)
		if err != nil {
			return eris.Wrap(err, "enqueue")
		}
		if n, _ := res.RowsAffected(); n == 0 {
			return domain.ErrAlreadyQueued
		}
		return nil
	})
}

// Requeue: vuelve a poner al usuario en la cola "desde ahora" aunque ya tuviera fila (skip).
func (r *QueueRepo) Requeue(ctx context.Context, guildID, userID, now int64) error {
	return retryWrite(ctx, func(ctx context.Context) error {
		_, err := r.db.ExecContext(ctx, `
INSERT INTO queue (guild_id, user_id, enqueued_at, priority_score, boost_until)
VALUES (?, ?, ?, 0, NULL)
ON CONFLICT (guild_id, user_id) DO UPDATE SET
  enqueued_at    = excluded.enqueued_at,
  priority_score = 0,
  boost_until    = NULL
`, guildID, userID, now)
		return eris.Wrap(err, "requeue")
	})
}

func (r *QueueRepo) Leave(ctx context.Context, guildID, userID int64) (bool, error) {
	res, err := r.db.ExecContext(ctx, `
DELETE FROM queue
 WHERE guild_id = ? AND user_id = ?
`, guildID, userID)
	if err != nil {
		return false, eris.Wrap(err, "leave queue")
	}
	n, _ := res.RowsAffected()
	return n > 0, nil
}

func (r *QueueRepo) Clear(ctx context.Context, guildID int64) (int64, error) {
	res, err := r.db.ExecContext(ctx, `DELETE FROM queue WHERE guild_id = ?`, guildID)
	if err != nil {
		return 0, eris.Wrap(err, "clear queue")
	}
	n, _ := res.RowsAffected()
	return n, nil
}

func (r *QueueRepo) Get(ctx context.Context, guildID, userID int64) (domain.QueueEntry, error) {
	e, err := scanQueueEntry(r.db.QueryRowContext(ctx, `
SELECT `+queueCols+`
  FROM queue
 WHERE guild_id = ? AND user_id = ?
`, guildID, userID))
	if errors.Is(err, sql.ErrNoRows) {
		return e, domain.ErrNotFound
	}
	return e, eris.Wrap(err, "get queue entry")
}

// Candidates: los más antiguos primero, acotado para no cargar colas enormes.
func (r *QueueRepo) Candidates(ctx context.Context, guildID int64, limit int) ([]domain.QueueEntry, error) {
	rows, err := r.db.QueryContext(ctx, `
SELECT `+queueCols+`
  FROM queue
 WHERE guild_id = ?
 ORDER BY enqueued_at ASC, user_id ASC
 LIMIT ?
`, guildID, limit)
	if err != nil {
		return nil, eris.Wrap(err, "list candidates")
	}
	defer rows.Close()

	var out []domain.QueueEntry
	for rows.Next() {
		e, err := scanQueueEntry(rows)
		if err != nil {
			return nil, eris.Wrap(err, "scan candidate")
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

func (r *QueueRepo) Count(ctx context.Context, guildID int64) (int, error) {
	var n int
	err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM queue WHERE guild_id = ?`, guildID).Scan(&n)
	return n, eris.Wrap(err, "count queue")
}

// Position: rank 1-based por (-priority_score, enqueued_at), más el total.
func (r *QueueRepo) Position(ctx context.Context, guildID, userID int64) (rank, total int, err error) {
	err = r.db.QueryRowContext(ctx, `
SELECT
  (SELECT COUNT(*) FROM queue o
    WHERE o.guild_id = q.guild_id
      AND (o.priority_score > q.priority_score
        OR (o.priority_score = q.priority_score AND o.enqueued_at < q.enqueued_at)
        OR (o.priority_score = q.priority_score AND o.enqueued_at = q.enqueued_at AND o.user_id < q.user_id))
  ) + 1,
  (SELECT COUNT(*) FROM queue t WHERE t.guild_id = q.guild_id)
  FROM queue q
 WHERE q.guild_id = ? AND q.user_id = ?
`, guildID, userID).Scan(&rank, &total)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, 0, domain.ErrNotFound
	}
	if err != nil {
		return 0, 0, eris.Wrap(err, "queue position")
	}
	return rank, total, nil
}

// ScoreUpdate es el resultado del recompute periódico de prioridad.
type ScoreUpdate struct {
	UserID     int64
	Score      int64
	BoostUntil *int64
}

func (r *QueueRepo) UpdateScores(ctx context.Context, guildID int64, updates []ScoreUpdate) error {
	if len(updates) == 0 {
		return nil
	}
	return WithTx(ctx, r.db, func(tx *sql.Tx) error {
		stmt, err := tx.PrepareContext(ctx, `
UPDATE queue
   SET priority_score = ?, boost_until = ?
 WHERE guild_id = ? AND user_id = ?
`)
		if err != nil {
			return eris.Wrap(err, "prepare score update")
		}
		defer stmt.Close()
		for _, u := range updates {
			if _, err := stmt.ExecContext(ctx, u.Score, u.BoostUntil, guildID, u.UserID); err != nil {
				return eris.Wrapf(err, "update score user=%d", u.UserID)
			}
		}
		return nil
	})
}

// GuildsWithQueue: guilds con al menos min usuarios esperando.
func (r *QueueRepo) GuildsWithQueue(ctx context.Context, min int) ([]int64, error) {
	rows, err := r.db.QueryContext(ctx, `
SELECT guild_id
  FROM queue
 GROUP BY guild_id
HAVING COUNT(*) >= ?
`, min)
	if err != nil {
		return nil, eris.Wrap(err, "guilds with queue")
	}
	return collectIDs(rows)
}
