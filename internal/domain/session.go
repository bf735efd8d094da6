package domain

import "time"

// SessionHistoryEntry registra una interaccion de un usuario con un companion. Solo se agregan filas.
type SessionHistoryEntry struct {
	ID          string    `json:"id"`
	CompanionID string    `json:"companion_id"`
	UserID      string    `json:"user_id,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
}
