package repository

import (
	"gorm.io/gorm"

	"github.com/blockspy/blockspy/internal/models"
)

type EventRepository struct {
	db *gorm.DB
}

func NewEventRepository(db *gorm.DB) *EventRepository {
	return &EventRepository{db: db}
}

// Recent returns the newest events for a server
func (r *EventRepository) Recent(serverID uint, limit int) ([]models.Event, error) {
	var events []models.Event
	err := r.db.Where("server_id = ?", serverID).
		Order("timestamp DESC").
		Limit(limit).
		Find(&events).Error
	return events, err
}
