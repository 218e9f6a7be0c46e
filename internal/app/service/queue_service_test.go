package service

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jose-valero/pairup-bot/internal/domain"
)

func TestQueueService_EnqueueReturnsPosition(t *testing.T) {
	e := newEnv(t)
	e.enqueue(1)
	e.members.add(2)

	pos, err := e.queue.Enqueue(e.ctx, testGuild, 2)
	require.NoError(t, err)
	assert.Equal(t, domain.Position{Rank: 2, Total: 2, ETA: 5 * time.Second}, pos)

	_, err = e.queue.Enqueue(e.ctx, testGuild, 1)
	require.ErrorIs(t, err, domain.ErrAlreadyQueued)
	assert.Equal(t, []int64{1, 2}, e.queued())
}

func TestQueueService_EnqueueValidation(t *testing.T) {
	e := newEnv(t)

	_, err := e.queue.Enqueue(e.ctx, testGuild, 0)
	require.ErrorIs(t, err, domain.ErrInvalidID)
	_, err = e.queue.Enqueue(e.ctx, -5, 1)
	require.ErrorIs(t, err, domain.ErrInvalidID)

	require.NoError(t, e.admin.Pause(e.ctx, testGuild))
	_, err = e.queue.Enqueue(e.ctx, testGuild, 1)
	require.ErrorIs(t, err, domain.ErrPaused)
	assert.Empty(t, e.queued())
}

func TestQueueService_RejectsUserInActiveMatch(t *testing.T) {
	e := newEnv(t)
	e.matchOf(1, 2)

	_, err := e.queue.Enqueue(e.ctx, testGuild, 1)
	require.ErrorIs(t, err, domain.ErrAlreadyMatched)
	_, err = e.queue.Enqueue(e.ctx, testGuild, 2)
	require.ErrorIs(t, err, domain.ErrAlreadyMatched)
}

func TestQueueService_PositionNotQueued(t *testing.T) {
	e := newEnv(t)
	_, err := e.queue.PositionAndETA(e.ctx, testGuild, 42)
	require.ErrorIs(t, err, domain.ErrNotQueued)
}

func TestQueueService_ETAMonotonicAsUsersAheadLeave(t *testing.T) {
	e := newEnv(t)
	e.enqueue(1, 2, 3, 4, 5)

	prev, err := e.queue.PositionAndETA(e.ctx, testGuild, 5)
	require.NoError(t, err)
	assert.Equal(t, 5, prev.Rank)
	assert.Equal(t, 10*time.Second, prev.ETA)

	for _, u := range []int64{1, 2, 3, 4} {
		left, err := e.queue.Leave(e.ctx, testGuild, u)
		require.NoError(t, err)
		require.True(t, left)

		pos, err := e.queue.PositionAndETA(e.ctx, testGuild, 5)
		require.NoError(t, err)
		assert.Less(t, pos.Rank, prev.Rank)
		assert.LessOrEqual(t, pos.ETA, prev.ETA)
		prev = pos
	}
	assert.Equal(t, domain.Position{Rank: 1, Total: 1}, prev)
}

func TestQueueService_RecomputeSkipBoostWindow(t *testing.T) {
	e := newEnv(t)
	m := e.matchOf(1, 2)

	skippedAt := e.clock.Now()
	_, err := e.matches.Skip(e.ctx, m.ThreadID, 1)
	require.NoError(t, err)

	e.clock.Set(skippedAt.Add(60 * time.Second))
	require.NoError(t, e.queue.RecomputeAll(e.ctx))
	q, err := e.queueRepo.Get(e.ctx, testGuild, 1)
	require.NoError(t, err)
	assert.Equal(t, int64(1+domain.SkipBoost), q.PriorityScore)
	require.NotNil(t, q.BoostUntil)
	assert.Equal(t, skippedAt.Add(domain.SkipBoostWindow).Unix(), *q.BoostUntil)

	e.clock.Set(skippedAt.Add(310 * time.Second))
	require.NoError(t, e.queue.Recompute(e.ctx, testGuild))
	q, err = e.queueRepo.Get(e.ctx, testGuild, 1)
	require.NoError(t, err)
	assert.Equal(t, int64(5), q.PriorityScore)
	assert.Nil(t, q.BoostUntil)
}

func TestQueueService_BoostedUserJumpsAhead(t *testing.T) {
	e := newEnv(t)
	m := e.matchOf(1, 2)

	now := e.clock.Now()
	require.NoError(t, e.queueRepo.Enqueue(e.ctx, testGuild, 10, now.Add(-10*time.Minute).Unix(), now.Add(-domain.StaleQueueEntry).Unix()))

	_, err := e.matches.Skip(e.ctx, m.ThreadID, 1)
	require.NoError(t, err)
	e.clock.Advance(time.Minute)
	require.NoError(t, e.queue.Recompute(e.ctx, testGuild))

	pos, err := e.queue.PositionAndETA(e.ctx, testGuild, 1)
	require.NoError(t, err)
	assert.Equal(t, 1, pos.Rank, "skip boost outranks plain waiting")

	pos, err = e.queue.PositionAndETA(e.ctx, testGuild, 10)
	require.NoError(t, err)
	assert.Equal(t, domain.Position{Rank: 2, Total: 2, ETA: 5 * time.Second}, pos)
}

func TestQueueService_ETAFollowsConfiguredInterval(t *testing.T) {
	e := newEnv(t)
	e.queue = NewQueueService(e.queueRepo, e.matchRepo, e.guildRepo, WithClock(e.clock.Now), WithPairingInterval(2*time.Second))
	e.enqueue(1, 2, 3)

	pos, err := e.queue.PositionAndETA(e.ctx, testGuild, 3)
	require.NoError(t, err)
	assert.Equal(t, 3, pos.Rank)
	assert.Equal(t, 2*time.Second, pos.ETA)
}
