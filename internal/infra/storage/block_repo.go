package storage

import (
	"context"
	"database/sql"

	"github.com/rotisserie/eris"

	"github.com/jose-valero/pairup-bot/internal/domain"
)

type BlockRepo struct{ db *sql.DB }

func NewBlockRepo(db *sql.DB) *BlockRepo { return &BlockRepo{db: db} }

// PairKey es el par canónico (menor, mayor).
type PairKey struct{ A, B int64 }

func NewPairKey(a, b int64) PairKey {
	a, b = domain.Canonical(a, b)
	return PairKey{A: a, B: b}
}

// Block guarda (o extiende) el bloqueo entre a y b; (a,b) y (b,a) caen en la misma fila.
func (r *BlockRepo) Block(ctx context.Context, guildID, a, b, until int64) error {
	if a == b {
		return domain.ErrInvalidID
	}
	u1, u2 := domain.Canonical(a, b)
	return retryWrite(ctx, func(ctx context.Context) error {
		_, err := r.db.ExecContext(ctx, `
INSERT INTO recent_blocks (guild_id, user1_id, user2_id, blocked_until)
VALUES (?, ?, ?, ?)
ON CONFLICT (guild_id, user1_id, user2_id) DO UPDATE SET
  blocked_until = MAX(recent_blocks.blocked_until, excluded.blocked_until)
`, guildID, u1, u2, until)
		return eris.Wrap(err, "block pair")
	})
}

func (r *BlockRepo) PurgeExpired(ctx context.Context, guildID, now int64) (int64, error) {
	res, err := r.db.ExecContext(ctx, `DELETE FROM recent_blocks WHERE guild_id = ? AND blocked_until <= ?`, guildID, now)
	if err != nil {
		return 0, eris.Wrap(err, "purge blocks")
	}
	n, _ := res.RowsAffected()
	return n, nil
}

// PurgeAllExpired lo usa el janitor (todos los guilds).
func (r *BlockRepo) PurgeAllExpired(ctx context.Context, now int64) (int64, error) {
	res, err := r.db.ExecContext(ctx, `DELETE FROM recent_blocks WHERE blocked_until <= ?`, now)
	if err != nil {
		return 0, eris.Wrap(err, "purge all blocks")
	}
	n, _ := res.RowsAffected()
	return n, nil
}

func (r *BlockRepo) Active(ctx context.Context, guildID, now int64) (map[PairKey]struct{}, error) {
	rows, err := r.db.QueryContext(ctx, `
SELECT user1_id, user2_id
  FROM recent_blocks
 WHERE guild_id = ? AND blocked_until > ?
`, guildID, now)
	if err != nil {
		return nil, eris.Wrap(err, "active blocks")
	}
	defer rows.Close()

	out := map[PairKey]struct{}{}
	for rows.Next() {
		var k PairKey
		if err := rows.Scan(&k.A, &k.B); err != nil {
			return nil, eris.Wrap(err, "scan block")
		}
		out[k] = struct{}{}
	}
	return out, rows.Err()
}

// BlockedUntil devuelve 0 si el par no tiene fila.
func (r *BlockRepo) BlockedUntil(ctx context.Context, guildID, a, b int64) (int64, error) {
	u1, u2 := domain.Canonical(a, b)
	var until int64
	err := r.db.QueryRowContext(ctx, `
SELECT blocked_until FROM recent_blocks WHERE guild_id = ? AND user1_id = ? AND user2_id = ?
`, guildID, u1, u2).Scan(&until)
	if err == sql.ErrNoRows {
		return 0, nil
	}
	return until, eris.Wrap(err, "blocked until")
}

func (r *BlockRepo) Clear(ctx context.Context, guildID int64) (int64, error) {
	res, err := r.db.ExecContext(ctx, `DELETE FROM recent_blocks WHERE guild_id = ?`, guildID)
	if err != nil {
		return 0, eris.Wrap(err, "clear blocks")
	}
	n, _ := res.RowsAffected()
	return n, nil
}
