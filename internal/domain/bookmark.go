package domain

import "time"

type Bookmark struct {
	CompanionID string    `json:"companion_id"`
	UserID      string    `json:"user_id"`
	CreatedAt   time.Time `json:"created_at"`
}
