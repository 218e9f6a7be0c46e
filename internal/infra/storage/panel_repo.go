package storage

import (
	"context"
	"database/sql"
	"errors"

	"github.com/rotisserie/eris"

	"github.com/jose-valero/pairup-bot/internal/domain"
)

// PanelRepo: el mensaje "contador de cola" publicado por guild.
type PanelRepo struct{ db *sql.DB }

func NewPanelRepo(db *sql.DB) *PanelRepo { return &PanelRepo{db: db} }

func (r *PanelRepo) Get(ctx context.Context, guildID int64) (domain.QueuePanel, error) {
	var p domain.QueuePanel
	err := r.db.QueryRowContext(ctx, `
SELECT guild_id, channel_id, message_id, updated_at
  FROM queue_panels
 WHERE guild_id = ?
`, guildID).Scan(&p.GuildID, &p.ChannelID, &p.MessageID, &p.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return p, domain.ErrNotFound
	}
	return p, eris.Wrap(err, "get panel")
}

func (r *PanelRepo) List(ctx context.Context) ([]domain.QueuePanel, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT guild_id, channel_id, message_id, updated_at FROM queue_panels`)
	if err != nil {
		return nil, eris.Wrap(err, "list panels")
	}
	defer rows.Close()
	var out []domain.QueuePanel
	for rows.Next() {
		var p domain.QueuePanel
		if err := rows.Scan(&p.GuildID, &p.ChannelID, &p.MessageID, &p.UpdatedAt); err != nil {
			return nil, eris.Wrap(err, "scan panel")
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

func (r *PanelRepo) Upsert(ctx context.Context, guildID, channelID, messageID, now int64) error {
	_, err := r.db.ExecContext(ctx, `
INSERT INTO queue_panels (guild_id, channel_id, message_id, updated_at)
VALUES (?, ?, ?, ?)
ON CONFLICT (guild_id) DO UPDATE SET
  channel_id = excluded.channel_id,
  message_id = excluded.message_id,
  updated_at = excluded.updated_at
`, guildID, channelID, messageID, now)
	return eris.Wrap(err, "upsert panel")
}

func (r *PanelRepo) Touch(ctx context.Context, guildID, now int64) error {
	_, err := r.db.ExecContext(ctx, `UPDATE queue_panels SET updated_at = ? WHERE guild_id = ?`, now, guildID)
	return eris.Wrap(err, "touch panel")
}

func (r *PanelRepo) Delete(ctx context.Context, guildID int64) error {
	_, err := r.db.ExecContext(ctx, `DELETE FROM queue_panels WHERE guild_id = ?`, guildID)
	return eris.Wrap(err, "delete panel")
}
