package repository

import (
	"time"

	"gorm.io/gorm"

	"github.com/blockspy/blockspy/internal/models"
)

type StatusRepository struct {
	db *gorm.DB
}

func NewStatusRepository(db *gorm.DB) *StatusRepository {
	return &StatusRepository{db: db}
}

// PeakSince returns the maximum recorded player count for a server since the
// given time. Zero when no samples exist in the window.
func (r *StatusRepository) PeakSince(serverID uint, since time.Time) (int, error) {
	var peak int
	err := r.db.Model(&models.StatusSample{}).
		Where("server_id = ? AND timestamp >= ?", serverID, since).
		Select("COALESCE(MAX(players_online), 0)").
		Scan(&peak).Error
	return peak, err
}

// WindowAggregate summarizes a server's sample window
type WindowAggregate struct {
	SampleCount    int64
	PeakPlayers    int
	AveragePlayers float64
}

// Aggregate computes count, peak and average player count over a window
func (r *StatusRepository) Aggregate(serverID uint, since time.Time) (WindowAggregate, error) {
	var agg WindowAggregate
	err := r.db.Model(&models.StatusSample{}).
		Where("server_id = ? AND timestamp >= ?", serverID, since).
		Select("COUNT(*) AS sample_count, COALESCE(MAX(players_online), 0) AS peak_players, COALESCE(AVG(players_online), 0) AS average_players").
		Scan(&agg).Error
	return agg, err
}

// History returns a server's samples since the given time, oldest first
func (r *StatusRepository) History(serverID uint, since time.Time) ([]models.StatusSample, error) {
	var samples []models.StatusSample
	err := r.db.Where("server_id = ? AND timestamp >= ?", serverID, since).
		Order("timestamp ASC").
		Find(&samples).Error
	return samples, err
}

// HeatmapCell is the average player count for one weekday/hour bucket
type HeatmapCell struct {
	DayOfWeek  int     `json:"day_of_week"`
	HourOfDay  int     `json:"hour_of_day"`
	AvgPlayers float64 `json:"avg_players"`
}

// ActivityHeatmap groups samples by day-of-week and hour-of-day
func (r *StatusRepository) ActivityHeatmap(serverID uint, since time.Time) ([]HeatmapCell, error) {
	var cells []HeatmapCell
	err := r.db.Raw(`
		SELECT
			EXTRACT(DOW FROM timestamp)::int AS day_of_week,
			EXTRACT(HOUR FROM timestamp)::int AS hour_of_day,
			AVG(players_online) AS avg_players
		FROM status_samples
		WHERE server_id = ? AND timestamp >= ?
		GROUP BY 1, 2`, serverID, since).
		Scan(&cells).Error
	return cells, err
}

// CalendarDay is the average player count for one calendar day
type CalendarDay struct {
	Timestamp int64 `json:"timestamp"` // unix timestamp of the day
	Value     int   `json:"value"`
}

// CalendarHeatmap groups samples by calendar day
func (r *StatusRepository) CalendarHeatmap(serverID uint, since time.Time) ([]CalendarDay, error) {
	var days []CalendarDay
	err := r.db.Raw(`
		SELECT
			EXTRACT(EPOCH FROM date_trunc('day', timestamp))::bigint AS timestamp,
			AVG(players_online)::int AS value
		FROM status_samples
		WHERE server_id = ? AND timestamp >= ?
		GROUP BY 1
		ORDER BY 1`, serverID, since).
		Scan(&days).Error
	return days, err
}
