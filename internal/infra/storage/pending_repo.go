package storage

import (
	"context"
	"database/sql"

	"github.com/rotisserie/eris"

	"github.com/jose-valero/pairup-bot/internal/domain"
)

// PendingRepo: borrados programados (rooms tras un leave y DMs de aviso).
// Viven en la base para sobrevivir a un reinicio.
type PendingRepo struct{ db *sql.DB }

func NewPendingRepo(db *sql.DB) *PendingRepo { return &PendingRepo{db: db} }

func (r *PendingRepo) Schedule(ctx context.Context, threadID, guildID, deleteAfter int64) error {
	_, err := r.db.ExecContext(ctx, `
INSERT INTO pending_deletions (thread_id, guild_id, delete_after)
VALUES (?, ?, ?)
ON CONFLICT (thread_id) DO UPDATE SET delete_after = MIN(pending_deletions.delete_after, excluded.delete_after)
`, threadID, guildID, deleteAfter)
	return eris.Wrap(err, "schedule deletion")
}

func (r *PendingRepo) List(ctx context.Context) ([]domain.PendingDeletion, error) {
	return r.query(ctx, `SELECT thread_id, guild_id, delete_after FROM pending_deletions ORDER BY delete_after`)
}

func (r *PendingRepo) Due(ctx context.Context, now int64) ([]domain.PendingDeletion, error) {
	return r.query(ctx, `SELECT thread_id, guild_id, delete_after FROM pending_deletions WHERE delete_after <= ? ORDER BY delete_after`, now)
}

func (r *PendingRepo) query(ctx context.Context, q string, args ...any) ([]domain.PendingDeletion, error) {
	rows, err := r.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, eris.Wrap(err, "list pending deletions")
	}
	defer rows.Close()
	var out []domain.PendingDeletion
	for rows.Next() {
		var p domain.PendingDeletion
		if err := rows.Scan(&p.ThreadID, &p.GuildID, &p.DeleteAfter); err != nil {
			return nil, eris.Wrap(err, "scan pending deletion")
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

func (r *PendingRepo) Get(ctx context.Context, threadID int64) (domain.PendingDeletion, error) {
	var p domain.PendingDeletion
	err := r.db.QueryRowContext(ctx, `
SELECT thread_id, guild_id, delete_after FROM pending_deletions WHERE thread_id = ?
`, threadID).Scan(&p.ThreadID, &p.GuildID, &p.DeleteAfter)
	if err == sql.ErrNoRows {
		return p, domain.ErrNotFound
	}
	return p, eris.Wrap(err, "get pending deletion")
}

func (r *PendingRepo) Remove(ctx context.Context, threadID int64) error {
	_, err := r.db.ExecContext(ctx, `DELETE FROM pending_deletions WHERE thread_id = ?`, threadID)
	return eris.Wrap(err, "remove pending deletion")
}

// --- DMs de aviso ---

func (r *PendingRepo) ScheduleDM(ctx context.Context, channelID, messageID, deleteAfter int64) error {
	_, err := r.db.ExecContext(ctx, `
INSERT INTO pending_dm_deletes (channel_id, message_id, delete_after)
VALUES (?, ?, ?)
ON CONFLICT (channel_id, message_id) DO NOTHING
`, channelID, messageID, deleteAfter)
	return eris.Wrap(err, "schedule dm delete")
}

func (r *PendingRepo) DueDMs(ctx context.Context, now int64, limit int) ([]domain.PendingDM, error) {
	rows, err := r.db.QueryContext(ctx, `
SELECT channel_id, message_id, delete_after
  FROM pending_dm_deletes
 WHERE delete_after <= ?
 ORDER BY delete_after
 LIMIT ?
`, now, limit)
	if err != nil {
		return nil, eris.Wrap(err, "due dms")
	}
	defer rows.Close()
	var out []domain.PendingDM
	for rows.Next() {
		var d domain.PendingDM
		if err := rows.Scan(&d.ChannelID, &d.MessageID, &d.DeleteAfter); err != nil {
			return nil, eris.Wrap(err, "scan dm")
		}
		out = append(out, d)
	}
	return out, rows.Err()
}

func (r *PendingRepo) RemoveDM(ctx context.Context, channelID, messageID int64) error {
	_, err := r.db.ExecContext(ctx, `DELETE FROM pending_dm_deletes WHERE channel_id = ? AND message_id = ?`, channelID, messageID)
	return eris.Wrap(err, "remove dm")
}

// PruneClosed borra borrados programados cuyo match ya quedó cerrado por otra vía.
func (r *PendingRepo) PruneClosed(ctx context.Context) (int64, error) {
	res, err := r.db.ExecContext(ctx, `
DELETE FROM pending_deletions
 WHERE thread_id IN (SELECT thread_id FROM matches WHERE closed_at IS NOT NULL)
`)
	if err != nil {
		return 0, eris.Wrap(err, "prune closed pending")
	}
	n, _ := res.RowsAffected()
	return n, nil
}
