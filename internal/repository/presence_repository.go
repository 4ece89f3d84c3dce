package repository

import (
	"fmt"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/blockspy/blockspy/internal/models"
	"github.com/blockspy/blockspy/internal/probe"
)

type PresenceRepository struct {
	db *gorm.DB
}

func NewPresenceRepository(db *gorm.DB) *PresenceRepository {
	return &PresenceRepository{db: db}
}

// OnlinePlayerNames returns the names currently marked online for a server
func (r *PresenceRepository) OnlinePlayerNames(serverID uint) ([]string, error) {
	var names []string
	err := r.db.Model(&models.PlayerPresence{}).
		Where("server_id = ? AND online = ?", serverID, true).
		Pluck("player_name", &names).Error
	return names, err
}

// ApplyPresenceDelta persists one reconciliation pass as a single
// transaction: departures are flipped offline, arrivals are upserted online,
// and one event is recorded per change. On any failure the whole delta rolls
// back, leaving the prior state intact.
func (r *PresenceRepository) ApplyPresenceDelta(serverID uint, joined []probe.PlayerSample, left []string, now time.Time) error {
	if len(joined) == 0 && len(left) == 0 {
		return nil
	}

	return r.db.Transaction(func(tx *gorm.DB) error {
		if len(left) > 0 {
			err := tx.Model(&models.PlayerPresence{}).
				Where("server_id = ? AND player_name IN ?", serverID, left).
				Updates(map[string]interface{}{"online": false, "last_seen_at": now}).Error
			if err != nil {
				return err
			}
			for _, name := range left {
				event := models.Event{
					ServerID:  serverID,
					Timestamp: now,
					Type:      models.EventPlayerLeft,
					Detail:    fmt.Sprintf("Player '%s' left.", name),
				}
				if err := tx.Create(&event).Error; err != nil {
					return err
				}
			}
		}

		for _, player := range joined {
			presence := models.PlayerPresence{
				ServerID:   serverID,
				PlayerName: player.Name,
				UUID:       player.UUID,
				Online:     true,
				LastSeenAt: now,
			}
			err := tx.Clauses(clause.OnConflict{
				Columns:   []clause.Column{{Name: "server_id"}, {Name: "player_name"}},
				DoUpdates: clause.Assignments(map[string]interface{}{
					"online":       true,
					"last_seen_at": now,
					"uuid":         player.UUID,
				}),
			}).Create(&presence).Error
			if err != nil {
				return err
			}

			event := models.Event{
				ServerID:  serverID,
				Timestamp: now,
				Type:      models.EventPlayerJoined,
				Detail:    fmt.Sprintf("Player '%s' joined.", player.Name),
			}
			if err := tx.Create(&event).Error; err != nil {
				return err
			}
		}

		return nil
	})
}

// OnlinePlayers returns the presences currently online, sorted by name
func (r *PresenceRepository) OnlinePlayers(serverID uint) ([]models.PlayerPresence, error) {
	var players []models.PlayerPresence
	err := r.db.Where("server_id = ? AND online = ?", serverID, true).
		Order("player_name ASC").
		Find(&players).Error
	return players, err
}

// RecentlyOffline returns the most recently seen offline players
func (r *PresenceRepository) RecentlyOffline(serverID uint, limit int) ([]models.PlayerPresence, error) {
	var players []models.PlayerPresence
	err := r.db.Where("server_id = ? AND online = ?", serverID, false).
		Order("last_seen_at DESC").
		Limit(limit).
		Find(&players).Error
	return players, err
}
