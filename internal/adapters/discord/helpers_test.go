package discord

import (
	"errors"
	"net/http"
	"testing"
	"time"

	"github.com/bwmarrin/discordgo"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jose-valero/pairup-bot/internal/app/service"
	"github.com/jose-valero/pairup-bot/internal/domain"
)

func restErr(status, code int) *discordgo.RESTError {
	return &discordgo.RESTError{
		Response: &http.Response{Status: http.StatusText(status), StatusCode: status},
		Message:  &discordgo.APIErrorMessage{Code: code, Message: "x"},
	}
}

func TestGone(t *testing.T) {
	assert.NoError(t, gone(nil, "noop"))

	err := gone(restErr(http.StatusBadRequest, discordgo.ErrCodeUnknownChannel), "delete")
	assert.ErrorIs(t, err, domain.ErrGone)

	err = gone(restErr(http.StatusNotFound, 0), "delete")
	assert.ErrorIs(t, err, domain.ErrGone)

	err = gone(restErr(http.StatusForbidden, discordgo.ErrCodeMissingPermissions), "delete")
	require.Error(t, err)
	assert.NotErrorIs(t, err, domain.ErrGone)

	err = gone(errors.New("boom"), "delete")
	assert.NotErrorIs(t, err, domain.ErrGone)
	assert.Contains(t, err.Error(), "delete")
}

func TestUserMessage(t *testing.T) {
	assert.Equal(t, "ℹ️ Ya estás en la cola.", userMessage(domain.ErrAlreadyQueued))
	assert.Contains(t, userMessage(errors.Join(domain.ErrReportDelivery, errors.New("503"))), "moderación")
	assert.Equal(t, msgUnexpected, userMessage(errors.New("db locked")))
}

func TestParseCustomID(t *testing.T) {
	p, id := parseCustomID(roomCustomID(idSkip, 123456789012345678))
	assert.Equal(t, idSkip, p)
	assert.Equal(t, int64(123456789012345678), id)

	p, id = parseCustomID(idJoin)
	assert.Equal(t, idJoin, p)
	assert.Zero(t, id)

	p, id = parseCustomID("mm_exit:abc")
	assert.Equal(t, idExit, p)
	assert.Zero(t, id)
}

func TestSnowflakes(t *testing.T) {
	assert.Equal(t, int64(42), sf("42"))
	assert.Zero(t, sf(""))
	assert.Equal(t, "42", str(42))
	assert.Equal(t, []int64{1, 3}, sfs([]string{"1", "nope", "3"}))
}

func TestUserLimiter(t *testing.T) {
	now := time.Unix(1_700_000_000, 0)
	l := newUserLimiter(2 * time.Second)
	l.now = func() time.Time { return now }

	assert.True(t, l.Allow(1))
	assert.False(t, l.Allow(1))
	assert.True(t, l.Allow(2), "otro usuario no comparte ventana")

	now = now.Add(2 * time.Second)
	assert.True(t, l.Allow(1))
}

func TestFmtETA(t *testing.T) {
	assert.Equal(t, "en el próximo emparejamiento", fmtETA(0))
	assert.Equal(t, "~45s", fmtETA(45*time.Second))
	assert.Equal(t, "~2m 05s", fmtETA(125*time.Second))
}

func TestRenderPanel(t *testing.T) {
	now := time.Unix(1_700_000_000, 0)

	em := renderPanel(service.PanelView{GuildID: 1, Queued: 3, OpenRooms: 2}, now)
	assert.Contains(t, em.Description, "**3** personas")
	require.Len(t, em.Fields, 2)
	assert.Equal(t, "2", em.Fields[0].Value)
	assert.Contains(t, em.Fields[1].Value, "Emparejando")

	em = renderPanel(service.PanelView{GuildID: 1, Paused: true}, now)
	assert.Equal(t, "Nadie en cola.", em.Description)
	assert.Contains(t, em.Fields[1].Value, "pausa")
}

func TestModalValues(t *testing.T) {
	rows := []discordgo.MessageComponent{
		&discordgo.ActionsRow{Components: []discordgo.MessageComponent{
			&discordgo.TextInput{CustomID: fieldReason, Value: "spam"},
		}},
		&discordgo.ActionsRow{Components: []discordgo.MessageComponent{
			&discordgo.TextInput{CustomID: fieldDetails, Value: "links raros"},
		}},
	}
	v := modalValues(rows)
	assert.Equal(t, "spam", v[fieldReason])
	assert.Equal(t, "links raros", v[fieldDetails])
}

func TestTruncateAndShortID(t *testing.T) {
	assert.Equal(t, "hola", truncate("hola", 10))
	assert.Equal(t, "ab…", truncate("abcdef", 3))
	assert.Equal(t, "abcdef", shortID("0123abcdef"))
}
