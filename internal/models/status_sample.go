package models

import (
	"time"

	"gorm.io/gorm"
)

// StatusSample is one point of the per-server time series. Samples are
// append-only: one row per successful probe, never mutated.
type StatusSample struct {
	gorm.Model

	ServerID  uint      `gorm:"not null;index:idx_sample_server_time"`
	Timestamp time.Time `gorm:"not null;index:idx_sample_server_time"`

	PlayersOnline int
	LatencyMs     float64
}

// TableName overrides the table name
func (StatusSample) TableName() string {
	return "status_samples"
}
