package domain

import "errors"

var (
	ErrInvalidID       = errors.New("invalid guild or user id")
	ErrInvalidDuration = errors.New("invalid duration")

	ErrAlreadyQueued  = errors.New("already in queue")
	ErrAlreadyMatched = errors.New("already in an active match")
	ErrNotQueued      = errors.New("not in queue")
	ErrNotParticipant = errors.New("not a participant of this match")
	ErrMatchClosed    = errors.New("match already closed")
	ErrPaused         = errors.New("matchmaking paused for this guild")
	ErrNotConfigured  = errors.New("guild not configured")

	ErrNotFound = errors.New("not found")
	// ErrGone: el recurso externo (room, mensaje, miembro) ya no existe.
	ErrGone = errors.New("external resource gone")
	// ErrPairStale: alguno de los dos ya no estaba en la cola al confirmar el par.
	ErrPairStale      = errors.New("pair no longer queued")
	ErrReportDelivery = errors.New("report delivery failed")
)

// IsConflict separa los "no se puede" de los fallos de infraestructura.
func IsConflict(err error) bool {
	for _, target := range []error{
		ErrInvalidID, ErrInvalidDuration, ErrAlreadyQueued, ErrAlreadyMatched, ErrNotQueued,
		ErrNotParticipant, ErrMatchClosed, ErrPaused, ErrNotConfigured,
	} {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}
