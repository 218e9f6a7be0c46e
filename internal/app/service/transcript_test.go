package service

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/jose-valero/pairup-bot/internal/domain"
)

func TestBuildTranscript(t *testing.T) {
	m := domain.Match{ThreadID: 9, GuildID: testGuild, User1ID: 1, User2ID: 2, RoomNumber: 3}
	assert.Nil(t, BuildTranscript(m, nil))

	out := string(BuildTranscript(m, []RoomMessage{
		{AuthorID: 2, Content: "segundo", At: t0.Add(time.Minute), Attachments: []string{"https://cdn/x.png"}},
		{AuthorID: 1, AuthorName: "ana", Content: " primero ", At: t0},
	}))
	assert.True(t, strings.HasPrefix(out, "Sala #3 (thread 9)"))
	first := strings.Index(out, "ana (1): primero")
	second := strings.Index(out, "2 (2): segundo")
	assert.Positive(t, first)
	assert.Greater(t, second, first)
	assert.Contains(t, out, "https://cdn/x.png")
}
