package models

import (
	"time"

	"gorm.io/gorm"
)

// ServerStatus represents the last known reachability of a monitored server
type ServerStatus string

const (
	StatusPending ServerStatus = "pending"
	StatusOnline  ServerStatus = "online"
	StatusOffline ServerStatus = "offline"
)

// Classification represents the authentication-mode verdict for a server.
// Original and Pirated are terminal: once assigned they must never change.
type Classification string

const (
	ClassIndeterminate Classification = "indeterminate"
	ClassHiddenList    Classification = "hidden_list"
	ClassOriginal      Classification = "original"
	ClassPirated       Classification = "pirated"
	ClassCheckError    Classification = "check_error"
)

// Terminal reports whether the classification is final and must not be
// re-evaluated on later poll cycles. HiddenList is deliberately non-terminal
// so a server that later exposes its player sample can still be resolved.
func (c Classification) Terminal() bool {
	return c == ClassOriginal || c == ClassPirated
}

// Server represents a monitored game server, identified by its address.
type Server struct {
	gorm.Model

	Address    string `gorm:"uniqueIndex;size:255;not null"`
	Name       string `gorm:"size:512"`
	CustomName string `gorm:"size:255"`

	Status  ServerStatus `gorm:"size:16;default:pending"`
	Version string       `gorm:"size:128"`

	PlayersOnline int
	PlayersMax    int
	LatencyMs     float64

	// Location is a display label only; resolving it is up to the caller.
	Location string `gorm:"size:128"`

	Classification Classification `gorm:"size:32;default:indeterminate"`

	// Paused servers are skipped by the poll cycle until re-verification
	// succeeds or the flag is cleared manually.
	Paused bool `gorm:"default:false;index"`

	LastCheckedAt *time.Time

	// Console session configuration. LogDir enables live log tailing
	// (<LogDir>/logs/latest.log); RCONPort+RCONPassword enable remote
	// command execution.
	LogDir       string `gorm:"size:512"`
	RCONPort     int
	RCONPassword string `gorm:"size:256"`

	// Relations
	Samples   []StatusSample   `gorm:"foreignKey:ServerID;constraint:OnDelete:CASCADE"`
	Presences []PlayerPresence `gorm:"foreignKey:ServerID;constraint:OnDelete:CASCADE"`
	Events    []Event          `gorm:"foreignKey:ServerID;constraint:OnDelete:CASCADE"`
}

// DisplayName prefers the operator-assigned name over the probed one
func (s *Server) DisplayName() string {
	if s.CustomName != "" {
		return s.CustomName
	}
	if s.Name != "" {
		return s.Name
	}
	return s.Address
}

// TableName overrides the table name
func (Server) TableName() string {
	return "servers"
}
