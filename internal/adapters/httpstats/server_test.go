package httpstats

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jose-valero/pairup-bot/internal/domain"
)

type fakeStats struct {
	gotGuild int64
	gotDays  int
	err      error
}

func (f *fakeStats) StatsForDays(_ context.Context, guildID int64, days int) (domain.Stats, error) {
	f.gotGuild, f.gotDays = guildID, days
	if f.err != nil {
		return domain.Stats{}, f.err
	}
	return domain.Stats{GuildID: guildID, From: 10, To: 20, MatchesCreated: 3, Queued: 4, OpenRooms: 1, AvgWait: 1500 * time.Millisecond}, nil
}

func do(t *testing.T, s *Server, path, secret string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, path, nil)
	if secret != "" {
		req.Header.Set(SecretHeader, secret)
	}
	rec := httptest.NewRecorder()
	s.ServeHTTP(rec, req)
	return rec
}

func TestHealthz(t *testing.T) {
	s := New("s3cret", &fakeStats{}, zerolog.Nop())
	rec := do(t, s, "/healthz", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"ok"}`, rec.Body.String())
}

func TestStats_RequiresSecret(t *testing.T) {
	s := New("s3cret", &fakeStats{}, zerolog.Nop())
	assert.Equal(t, http.StatusForbidden, do(t, s, "/guilds/1/stats", "").Code)
	assert.Equal(t, http.StatusForbidden, do(t, s, "/guilds/1/stats", "nope").Code)
}

func TestStats_OK(t *testing.T) {
	src := &fakeStats{}
	s := New("s3cret", src, zerolog.Nop())

	rec := do(t, s, "/guilds/123456789012345678/stats?days=30", "s3cret")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, int64(123456789012345678), src.gotGuild)
	assert.Equal(t, 30, src.gotDays)

	var body statsResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "123456789012345678", body.GuildID)
	assert.Equal(t, 3, body.MatchesCreated)
	assert.InDelta(t, 1.5, body.AvgWaitSeconds, 0.001)
}

func TestStats_DefaultsAndValidation(t *testing.T) {
	src := &fakeStats{}
	s := New("", src, zerolog.Nop())

	require.Equal(t, http.StatusOK, do(t, s, "/guilds/5/stats", "").Code)
	assert.Equal(t, defaultDays, src.gotDays)

	assert.Equal(t, http.StatusBadRequest, do(t, s, "/guilds/abc/stats", "").Code)
	assert.Equal(t, http.StatusBadRequest, do(t, s, "/guilds/5/stats?days=x", "").Code)

	src.err = domain.ErrInvalidDuration
	assert.Equal(t, http.StatusBadRequest, do(t, s, "/guilds/5/stats?days=9999", "").Code)

	src.err = errors.New("db down")
	assert.Equal(t, http.StatusInternalServerError, do(t, s, "/guilds/5/stats", "").Code)
}

func TestStats_WrongMethod(t *testing.T) {
	s := New("", &fakeStats{}, zerolog.Nop())
	req := httptest.NewRequest(http.MethodPost, "/guilds/5/stats", nil)
	rec := httptest.NewRecorder()
	s.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
}
