package service

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRunLoops_KeepsTickingThroughErrorsAndPanics(t *testing.T) {
	var ok, failing, panicking atomic.Int32
	ctx, cancel := context.WithTimeout(context.Background(), 150*time.Millisecond)
	defer cancel()

	err := RunLoops(ctx, zerolog.Nop(),
		Loop{Name: "ok", Every: 5 * time.Millisecond, Run: func(context.Context) error {
			ok.Add(1)
			return nil
		}},
		Loop{Name: "failing", Every: 5 * time.Millisecond, Run: func(context.Context) error {
			failing.Add(1)
			return errors.New("boom")
		}},
		Loop{Name: "panicking", Every: 5 * time.Millisecond, Run: func(context.Context) error {
			panicking.Add(1)
			panic("boom")
		}},
	)
	require.NoError(t, err)
	assert.Greater(t, ok.Load(), int32(1))
	assert.Greater(t, failing.Load(), int32(1))
	assert.Greater(t, panicking.Load(), int32(1))
}

func TestRunLoops_RejectsInvalidInterval(t *testing.T) {
	err := RunLoops(context.Background(), zerolog.Nop(), Loop{Name: "bad"})
	require.Error(t, err)
}
