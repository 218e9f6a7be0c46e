package service

import (
	"bytes"
	"fmt"
	"slices"
	"strings"

	"github.com/jose-valero/pairup-bot/internal/domain"
)

// BuildTranscript arma el texto plano adjunto a un reporte. Devuelve nil si la sala no tiene mensajes.
func BuildTranscript(m domain.Match, msgs []RoomMessage) []byte {
	if len(msgs) == 0 {
		return nil
	}
	msgs = slices.Clone(msgs)
	slices.SortStableFunc(msgs, func(a, b RoomMessage) int { return a.At.Compare(b.At) })

	var b bytes.Buffer
	fmt.Fprintf(&b, "Sala #%d (thread %d) guild %d\n", m.RoomNumber, m.ThreadID, m.GuildID)
	fmt.Fprintf(&b, "Participantes: %d, %d\n\n", m.User1ID, m.User2ID)
	for _, msg := range msgs {
		name := msg.AuthorName
		if name == "" {
			name = fmt.Sprint(msg.AuthorID)
		}
		fmt.Fprintf(&b, "[%s] %s (%d): %s\n", msg.At.UTC().Format("2006-01-02 15:04:05"), name, msg.AuthorID, strings.TrimSpace(msg.Content))
		for _, a := range msg.Attachments {
			fmt.Fprintf(&b, "    📎 %s\n", a)
		}
	}
	return b.Bytes()
}
