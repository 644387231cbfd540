package models

import "time"

type Player struct {
	ID          int       `json:"id"`
	DiscordID   int64     `json:"discord_id"`
	Username    string    `json:"username"`
	DisplayName *string   `json:"display_name,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
}
