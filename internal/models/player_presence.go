package models

import (
	"time"

	"gorm.io/gorm"
)

// PlayerPresence tracks one player's membership on one server. There is at
// most one row per (server, player name) pair; the online flag flips as the
// player joins and leaves.
type PlayerPresence struct {
	gorm.Model

	ServerID   uint   `gorm:"not null;uniqueIndex:idx_presence_server_player"`
	PlayerName string `gorm:"size:16;not null;uniqueIndex:idx_presence_server_player"`

	// UUID is the identity token reported by the last probe that saw the
	// player. Empty when the probe source does not expose identities.
	UUID string `gorm:"size:36"`

	Online     bool      `gorm:"default:false;index"`
	LastSeenAt time.Time `gorm:"not null"`
}

// TableName overrides the table name
func (PlayerPresence) TableName() string {
	return "player_presences"
}
