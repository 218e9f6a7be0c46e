package storage

import (
	"context"
	"database/sql"
	"errors"

	"github.com/rotisserie/eris"
)

// PrefsRepo: preferencias por usuario (por ahora sólo el opt-out de DMs).
type PrefsRepo struct{ db *sql.DB }

func NewPrefsRepo(db *sql.DB) *PrefsRepo { return &PrefsRepo{db: db} }

// DMEnabled: sin fila = habilitado.
func (r *PrefsRepo) DMEnabled(ctx context.Context, userID int64) (bool, error) {
	var v int
	err := r.db.QueryRowContext(ctx, `SELECT dm_enabled FROM user_prefs WHERE user_id = ?`, userID).Scan(&v)
	if errors.Is(err, sql.ErrNoRows) {
		return true, nil
	}
	if err != nil {
		return true, eris.Wrap(err, "dm pref")
	}
	return v != 0, nil
}

func (r *PrefsRepo) SetDMEnabled(ctx context.Context, userID int64, enabled bool) error {
	v := 0
	if enabled {
		v = 1
	}
	_, err := r.db.ExecContext(ctx, `
INSERT INTO user_prefs (user_id, dm_enabled) VALUES (?, ?)
ON CONFLICT (user_id) DO UPDATE SET dm_enabled = excluded.dm_enabled
`, userID, v)
	return eris.Wrap(err, "set dm pref")
}
