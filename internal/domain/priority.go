package domain

import "time"

const (
	PairingInterval = 5 * time.Second

	SkipBoost       = 120
	SkipBoostWindow = 5 * time.Minute

	RecentMatchWindow = 24 * time.Hour
	BlockDuration     = 24 * time.Hour
	LeaveDeleteDelay  = 2 * time.Minute
	InactivityTimeout = 30 * time.Minute

	InactivityCheckInterval = time.Minute
	PendingCheckInterval    = 60 * time.Second

	// una fila de cola más vieja que esto se considera abandonada y se resetea al re-entrar
	StaleQueueEntry = 6 * time.Hour
)

// PriorityScore: un punto por minuto esperado, +SkipBoost si hubo skip dentro de la ventana.
func PriorityScore(enqueuedAt, now time.Time, lastSkip *time.Time) int64 {
	waited := now.Sub(enqueuedAt)
	if waited < 0 {
		waited = 0
	}
	score := int64(waited / time.Minute)
	if lastSkip != nil && now.Sub(*lastSkip) < SkipBoostWindow && !lastSkip.After(now) {
		score += SkipBoost
	}
	return score
}

// ETA deliberadamente simple: de a dos por sweep.
func ETA(usersAhead int, interval time.Duration) time.Duration {
	if usersAhead <= 0 {
		return 0
	}
	return time.Duration((usersAhead+1)/2) * interval
}

// ValidID: los snowflakes de Discord son enteros positivos.
func ValidID(ids ...int64) bool {
	for _, id := range ids {
		if id <= 0 {
			return false
		}
	}
	return true
}
