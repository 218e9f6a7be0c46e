package discord

import (
	"errors"
	"net/http"

	"github.com/bwmarrin/discordgo"
	"github.com/rotisserie/eris"

	"github.com/jose-valero/pairup-bot/internal/domain"
)

// gone traduce "ya no existe" de Discord a domain.ErrGone. El resto se envuelve con contexto.
func gone(err error, msg string) error {
	if err == nil {
		return nil
	}
	var re *discordgo.RESTError
	if errors.As(err, &re) {
		if re.Message != nil {
			switch re.Message.Code {
			case discordgo.ErrCodeUnknownChannel,
				discordgo.ErrCodeUnknownMessage,
				discordgo.ErrCodeUnknownMember,
				discordgo.ErrCodeUnknownUser:
				return errors.Join(domain.ErrGone, err)
			}
		}
		if re.Response != nil && re.Response.StatusCode == http.StatusNotFound {
			return errors.Join(domain.ErrGone, err)
		}
	}
	return eris.Wrap(err, msg)
}

const msgUnexpected = "⚠️ Ocurrió un error inesperado."

// userMessage: mensaje corto para el usuario según el tipo de error.
func userMessage(err error) string {
	switch {
	case errors.Is(err, domain.ErrAlreadyQueued):
		return "ℹ️ Ya estás en la cola."
	case errors.Is(err, domain.ErrAlreadyMatched):
		return "ℹ️ Ya tienes una sala abierta. Usa **Skip** o **Salir** allí primero."
	case errors.Is(err, domain.ErrNotQueued):
		return "ℹ️ No estás en la cola."
	case errors.Is(err, domain.ErrNotParticipant):
		return "🚫 Esta sala no es tuya."
	case errors.Is(err, domain.ErrMatchClosed):
		return "ℹ️ Esta sala ya está cerrada."
	case errors.Is(err, domain.ErrPaused):
		return "⏸️ El emparejamiento está en pausa."
	case errors.Is(err, domain.ErrNotConfigured):
		return "⚙️ Falta configurar el bot en este servidor. Un admin debe usar `/matchadmin parent` y `/matchadmin reports`."
	case errors.Is(err, domain.ErrInvalidID), errors.Is(err, domain.ErrInvalidDuration):
		return "⚠️ Datos inválidos."
	case errors.Is(err, domain.ErrReportDelivery):
		return "⚠️ No pude entregar el reporte a moderación. Inténtalo de nuevo en un rato."
	case errors.Is(err, domain.ErrNotFound):
		return "ℹ️ No encontré esa sala."
	default:
		return msgUnexpected
	}
}
