package storage

import (
	"context"
	"database/sql"
	"errors"

	"github.com/rotisserie/eris"

	"github.com/jose-valero/pairup-bot/internal/domain"
)

// GuildRepo: configuración por guild (guild_config). Se crea perezosamente.
type GuildRepo struct{ db *sql.DB }

func NewGuildRepo(db *sql.DB) *GuildRepo { return &GuildRepo{db: db} }

func (r *GuildRepo) Get(ctx context.Context, guildID int64) (domain.GuildConfig, error) {
	var (
		c      domain.GuildConfig
		paused int
	)
	err := r.db.QueryRowContext(ctx, `
SELECT guild_id, parent_channel_id, report_channel_id, next_room_number, paused, updated_at
  FROM guild_config
 WHERE guild_id = ?
`, guildID).Scan(&c.GuildID, &c.ParentChannelID, &c.ReportChannelID, &c.NextRoomNumber, &paused, &c.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		// crea default
		if _, err := r.db.ExecContext(ctx, `
INSERT INTO guild_config (guild_id) VALUES (?) ON CONFLICT (guild_id) DO NOTHING
`, guildID); err != nil {
			return domain.GuildConfig{}, eris.Wrap(err, "create guild config")
		}
		return r.Get(ctx, guildID)
	}
	if err != nil {
		return domain.GuildConfig{}, eris.Wrap(err, "get guild config")
	}
	c.Paused = paused != 0
	return c, nil
}

func (r *GuildRepo) SetParentChannel(ctx context.Context, guildID, channelID, now int64) error {
	_, err := r.db.ExecContext(ctx, `
INSERT INTO guild_config (guild_id, parent_channel_id, updated_at) VALUES (?, ?, ?)
ON CONFLICT (guild_id) DO UPDATE SET
  parent_channel_id = excluded.parent_channel_id,
  updated_at        = excluded.updated_at
`, guildID, channelID, now)
	return eris.Wrap(err, "set parent channel")
}

func (r *GuildRepo) SetReportChannel(ctx context.Context, guildID, channelID, now int64) error {
	_, err := r.db.ExecContext(ctx, `
INSERT INTO guild_config (guild_id, report_channel_id, updated_at) VALUES (?, ?, ?)
ON CONFLICT (guild_id) DO UPDATE SET
  report_channel_id = excluded.report_channel_id,
  updated_at        = excluded.updated_at
`, guildID, channelID, now)
	return eris.Wrap(err, "set report channel")
}

func (r *GuildRepo) SetPaused(ctx context.Context, guildID int64, paused bool, now int64) error {
	p := 0
	if paused {
		p = 1
	}
	_, err := r.db.ExecContext(ctx, `
INSERT INTO guild_config (guild_id, paused, updated_at) VALUES (?, ?, ?)
ON CONFLICT (guild_id) DO UPDATE SET
  paused     = excluded.paused,
  updated_at = excluded.updated_at
`, guildID, p, now)
	return eris.Wrap(err, "set paused")
}

// NextRoomNumber reserva el siguiente número de sala (contador monótono).
func (r *GuildRepo) NextRoomNumber(ctx context.Context, guildID int64) (int64, error) {
	var next int64
	err := r.db.QueryRowContext(ctx, `
INSERT INTO guild_config (guild_id, next_room_number) VALUES (?, 2)
ON CONFLICT (guild_id) DO UPDATE SET next_room_number = guild_config.next_room_number + 1
RETURNING next_room_number
`, guildID).Scan(&next)
	if err != nil {
		return 0, eris.Wrap(err, "next room number")
	}
	return next - 1, nil
}

// Reset borra la config del guild (reset explícito de admin).
func (r *GuildRepo) Reset(ctx context.Context, guildID int64) error {
	_, err := r.db.ExecContext(ctx, `DELETE FROM guild_config WHERE guild_id = ?`, guildID)
	return eris.Wrap(err, "reset guild")
}
