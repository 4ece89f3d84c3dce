package models

import (
	"time"

	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// EventType enumerates the discrete state transitions the engine records
type EventType string

const (
	EventServerOnline   EventType = "server_online"
	EventServerOffline  EventType = "server_offline"
	EventVersionChanged EventType = "version_changed"
	EventNewPlayerPeak  EventType = "new_player_peak"
	EventPlayerJoined   EventType = "player_joined"
	EventPlayerLeft     EventType = "player_left"
	EventServerPaused   EventType = "server_paused"
	EventServerResumed  EventType = "server_resumed"
)

// Event is an immutable append-only record of a state transition
type Event struct {
	gorm.Model

	ServerID  uint      `gorm:"not null;index:idx_event_server_time"`
	Timestamp time.Time `gorm:"not null;index:idx_event_server_time"`

	Type   EventType      `gorm:"size:32;not null;index"`
	Detail string         `gorm:"size:512"`
	Data   datatypes.JSON `gorm:"type:jsonb"`
}

// TableName overrides the table name
func (Event) TableName() string {
	return "events"
}
