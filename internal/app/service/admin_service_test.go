package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jose-valero/pairup-bot/internal/domain"
)

func TestAdmin_Stats(t *testing.T) {
	e := newEnv(t)
	e.matchOf(1, 2) // 1 entra en t0, 2 en t0+1s, match en t0+2s
	e.enqueue(3)
	e.clock.Advance(time.Minute)

	st, err := e.admin.StatsForDays(e.ctx, testGuild, 1)
	require.NoError(t, err)
	assert.Equal(t, 1, st.MatchesCreated)
	assert.Equal(t, 1, st.Queued)
	assert.Equal(t, 1, st.OpenRooms)
	assert.Equal(t, 1500*time.Millisecond, st.AvgWait)

	_, err = e.admin.StatsForDays(e.ctx, testGuild, 0)
	require.ErrorIs(t, err, domain.ErrInvalidDuration)
	_, err = e.admin.Stats(e.ctx, testGuild, t0, t0)
	require.ErrorIs(t, err, domain.ErrInvalidDuration)
}

func TestAdmin_ClearAndConfig(t *testing.T) {
	e := newEnv(t)
	e.enqueue(1, 2, 3)
	require.NoError(t, e.blockRepo.Block(e.ctx, testGuild, 1, 2, t0.Add(time.Hour).Unix()))

	n, err := e.admin.ClearQueue(e.ctx, testGuild)
	require.NoError(t, err)
	assert.Equal(t, int64(3), n)
	n, err = e.admin.ClearBlocks(e.ctx, testGuild)
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)

	require.ErrorIs(t, e.admin.SetParentChannel(e.ctx, testGuild, 0), domain.ErrInvalidID)
	require.NoError(t, e.admin.SetParentChannel(e.ctx, testGuild, 501))
	cfg, err := e.admin.Config(e.ctx, testGuild)
	require.NoError(t, err)
	assert.Equal(t, int64(501), cfg.ParentChannelID)
	assert.Equal(t, int64(reportChan), cfg.ReportChannelID)
}

func TestAdmin_RejectsInvalidGuild(t *testing.T) {
	e := newEnv(t)
	e.enqueue(1, 2)
	require.NoError(t, e.admin.Pause(e.ctx, testGuild))

	for _, g := range []int64{0, -1} {
		_, err := e.admin.ClearQueue(e.ctx, g)
		assert.ErrorIs(t, err, domain.ErrInvalidID)
		_, err = e.admin.ClearBlocks(e.ctx, g)
		assert.ErrorIs(t, err, domain.ErrInvalidID)
		assert.ErrorIs(t, e.admin.Pause(e.ctx, g), domain.ErrInvalidID)
		assert.ErrorIs(t, e.admin.Resume(e.ctx, g), domain.ErrInvalidID)
		assert.ErrorIs(t, e.admin.Reset(e.ctx, g), domain.ErrInvalidID)
		_, err = e.admin.DMEnabled(e.ctx, g)
		assert.ErrorIs(t, err, domain.ErrInvalidID)
	}

	// el guild real no se tocó
	assert.Len(t, e.queued(), 2)
	cfg, err := e.admin.Config(e.ctx, testGuild)
	require.NoError(t, err)
	assert.True(t, cfg.Paused)
	assert.Equal(t, parentChan, cfg.ParentChannelID)
}

type fakePanels struct {
	posted  []PanelView
	edited  []PanelView
	editErr error
}

func (f *fakePanels) PostPanel(_ context.Context, _ int64, v PanelView) (int64, error) {
	f.posted = append(f.posted, v)
	return 4242, nil
}

func (f *fakePanels) EditPanel(_ context.Context, _ domain.QueuePanel, v PanelView) error {
	if f.editErr != nil {
		return f.editErr
	}
	f.edited = append(f.edited, v)
	return nil
}

func TestPanel_PublishRefreshAndDropWhenGone(t *testing.T) {
	e := newEnv(t)
	ui := &fakePanels{}
	svc := NewPanelService(e.panelRepo, ui, e.queueRepo, e.matchRepo, e.guildRepo, WithClock(e.clock.Now))

	e.enqueue(1)
	require.NoError(t, svc.Publish(e.ctx, testGuild, 700))
	p, err := e.panelRepo.Get(e.ctx, testGuild)
	require.NoError(t, err)
	assert.Equal(t, int64(700), p.ChannelID)
	assert.Equal(t, int64(4242), p.MessageID)
	assert.Equal(t, []PanelView{{GuildID: testGuild, Queued: 1}}, ui.posted)

	e.enqueue(2, 3)
	require.NoError(t, svc.RefreshAll(e.ctx))
	require.Len(t, ui.edited, 1)
	assert.Equal(t, 3, ui.edited[0].Queued)

	ui.editErr = domain.ErrGone
	require.NoError(t, svc.RefreshAll(e.ctx))
	_, err = e.panelRepo.Get(e.ctx, testGuild)
	require.ErrorIs(t, err, domain.ErrNotFound)

	// sin panel no hay nada que refrescar
	require.NoError(t, svc.Refresh(e.ctx, testGuild))
}
