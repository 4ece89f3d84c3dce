package repository

import (
	"time"

	"gorm.io/gorm"

	"github.com/blockspy/blockspy/internal/models"
)

type ServerRepository struct {
	db *gorm.DB
}

func NewServerRepository(db *gorm.DB) *ServerRepository {
	return &ServerRepository{db: db}
}

func (r *ServerRepository) Create(server *models.Server) error {
	return r.db.Create(server).Error
}

func (r *ServerRepository) FindByAddress(address string) (*models.Server, error) {
	var server models.Server
	err := r.db.Where("address = ?", address).First(&server).Error
	if err != nil {
		return nil, err
	}
	return &server, nil
}

func (r *ServerRepository) FindAll() ([]models.Server, error) {
	var servers []models.Server
	err := r.db.Order("players_online DESC").Find(&servers).Error
	return servers, err
}

// ActiveServers returns all servers eligible for polling
func (r *ServerRepository) ActiveServers() ([]models.Server, error) {
	var servers []models.Server
	err := r.db.Where("paused = ?", false).Find(&servers).Error
	return servers, err
}

// PausedServers returns the servers waiting for re-verification
func (r *ServerRepository) PausedServers() ([]models.Server, error) {
	var servers []models.Server
	err := r.db.Where("paused = ?", true).Find(&servers).Error
	return servers, err
}

// UpdateFields applies a partial update to a server row
func (r *ServerRepository) UpdateFields(id uint, fields map[string]interface{}) error {
	return r.db.Model(&models.Server{}).Where("id = ?", id).Updates(fields).Error
}

func (r *ServerRepository) Delete(address string) (bool, error) {
	// Hard delete; samples, presences and events cascade
	result := r.db.Unscoped().Where("address = ?", address).Delete(&models.Server{})
	return result.RowsAffected > 0, result.Error
}

// TogglePause flips the paused flag and returns the new value
func (r *ServerRepository) TogglePause(address string) (bool, error) {
	server, err := r.FindByAddress(address)
	if err != nil {
		return false, err
	}
	paused := !server.Paused
	err = r.db.Model(server).Update("paused", paused).Error
	return paused, err
}

// pollOwnedFields are the columns the poll cycle is allowed to write. The
// scheduler works from a snapshot taken at cycle start, so operator-owned
// columns (custom name, location, console config, paused) must never be
// written back here or a concurrent edit would be silently reverted.
func pollOwnedFields(server *models.Server) map[string]interface{} {
	return map[string]interface{}{
		"status":          server.Status,
		"name":            server.Name,
		"version":         server.Version,
		"players_online":  server.PlayersOnline,
		"players_max":     server.PlayersMax,
		"latency_ms":      server.LatencyMs,
		"classification":  server.Classification,
		"last_checked_at": server.LastCheckedAt,
	}
}

// CommitPoll persists the outcome of one server's poll cycle as a single
// transaction: the poll-owned server columns, the new status sample (nil on
// probe failure) and the detected events. Partial application is never
// visible.
func (r *ServerRepository) CommitPoll(server *models.Server, sample *models.StatusSample, events []models.Event) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		err := tx.Model(&models.Server{}).
			Where("id = ?", server.ID).
			Updates(pollOwnedFields(server)).Error
		if err != nil {
			return err
		}
		if sample != nil {
			if err := tx.Create(sample).Error; err != nil {
				return err
			}
		}
		if len(events) > 0 {
			if err := tx.Create(&events).Error; err != nil {
				return err
			}
		}
		return nil
	})
}

// SetPaused updates the paused flag and records the accompanying event in
// one transaction
func (r *ServerRepository) SetPaused(serverID uint, paused bool, event *models.Event) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		err := tx.Model(&models.Server{}).Where("id = ?", serverID).Update("paused", paused).Error
		if err != nil {
			return err
		}
		if event != nil {
			if err := tx.Create(event).Error; err != nil {
				return err
			}
		}
		return nil
	})
}

// TouchLastChecked stamps a server without altering its monitoring state
func (r *ServerRepository) TouchLastChecked(serverID uint, at time.Time) error {
	return r.db.Model(&models.Server{}).Where("id = ?", serverID).Update("last_checked_at", at).Error
}
