package service

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"gorm.io/gorm"

	"github.com/blockspy/blockspy/internal/console"
	"github.com/blockspy/blockspy/internal/minecraft"
	"github.com/blockspy/blockspy/internal/models"
	"github.com/blockspy/blockspy/internal/probe"
	"github.com/blockspy/blockspy/internal/repository"
	"github.com/blockspy/blockspy/pkg/config"
	"github.com/blockspy/blockspy/pkg/logger"
)

var (
	ErrInvalidAddress       = errors.New("invalid server address")
	ErrServerExists         = errors.New("server is already monitored")
	ErrServerNotFound       = errors.New("server not found")
	ErrConsoleNotConfigured = errors.New("console is not configured for this server")
)

// MonitorService is the application facade over the monitoring domain: it
// manages the server inventory, answers read queries and brokers console
// access. The PollScheduler owns the write path for poll outcomes.
type MonitorService struct {
	servers   *repository.ServerRepository
	statuses  *repository.StatusRepository
	presences *repository.PresenceRepository
	events    *repository.EventRepository
	cfg       *config.Config
}

func NewMonitorService(
	servers *repository.ServerRepository,
	statuses *repository.StatusRepository,
	presences *repository.PresenceRepository,
	events *repository.EventRepository,
	cfg *config.Config,
) *MonitorService {
	return &MonitorService{
		servers:   servers,
		statuses:  statuses,
		presences: presences,
		events:    events,
		cfg:       cfg,
	}
}

// AddServer registers a new address for monitoring. The first poll cycle
// after registration fills in status and version.
func (s *MonitorService) AddServer(address, customName, location string) (*models.Server, error) {
	address = strings.TrimSpace(strings.ToLower(address))
	if !minecraft.IsValidAddress(address) {
		return nil, ErrInvalidAddress
	}

	if _, err := s.servers.FindByAddress(address); err == nil {
		return nil, ErrServerExists
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	server := &models.Server{
		Address:        address,
		CustomName:     strings.TrimSpace(customName),
		Location:       strings.TrimSpace(location),
		Status:         models.StatusPending,
		Classification: models.ClassIndeterminate,
	}
	if err := s.servers.Create(server); err != nil {
		return nil, err
	}

	logger.Info("Server registered for monitoring", map[string]interface{}{
		"address": address,
	})
	return server, nil
}

// ServerUpdate carries a partial edit of a server's operator-managed fields.
// Nil pointers mean "leave unchanged".
type ServerUpdate struct {
	CustomName   *string
	Location     *string
	LogDir       *string
	RCONPort     *int
	RCONPassword *string
}

// UpdateServerDetails applies an operator edit to a monitored server
func (s *MonitorService) UpdateServerDetails(address string, update ServerUpdate) (*models.Server, error) {
	server, err := s.getServer(address)
	if err != nil {
		return nil, err
	}

	fields := map[string]interface{}{}
	if update.CustomName != nil {
		fields["custom_name"] = strings.TrimSpace(*update.CustomName)
	}
	if update.Location != nil {
		fields["location"] = strings.TrimSpace(*update.Location)
	}
	if update.LogDir != nil {
		fields["log_dir"] = strings.TrimSpace(*update.LogDir)
	}
	if update.RCONPort != nil {
		if *update.RCONPort < 0 || *update.RCONPort > 65535 {
			return nil, fmt.Errorf("invalid console port %d", *update.RCONPort)
		}
		fields["rcon_port"] = *update.RCONPort
	}
	if update.RCONPassword != nil {
		fields["rcon_password"] = *update.RCONPassword
	}
	if len(fields) == 0 {
		return server, nil
	}

	if err := s.servers.UpdateFields(server.ID, fields); err != nil {
		return nil, err
	}
	return s.getServer(address)
}

// DeleteServer removes a server and all of its history
func (s *MonitorService) DeleteServer(address string) error {
	deleted, err := s.servers.Delete(address)
	if err != nil {
		return err
	}
	if !deleted {
		return ErrServerNotFound
	}
	logger.Info("Server removed from monitoring", map[string]interface{}{
		"address": address,
	})
	return nil
}

// TogglePause flips manual pause for a server and returns the new flag
func (s *MonitorService) TogglePause(address string) (bool, error) {
	paused, err := s.servers.TogglePause(address)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return false, ErrServerNotFound
		}
		return false, err
	}
	return paused, nil
}

// ListServers returns all monitored servers, busiest first
func (s *MonitorService) ListServers() ([]models.Server, error) {
	return s.servers.FindAll()
}

// GetServer returns one monitored server by address
func (s *MonitorService) GetServer(address string) (*models.Server, error) {
	return s.getServer(address)
}

func (s *MonitorService) getServer(address string) (*models.Server, error) {
	server, err := s.servers.FindByAddress(address)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrServerNotFound
		}
		return nil, err
	}
	return server, nil
}

// HistoryPoint is one status sample enriched for charting
type HistoryPoint struct {
	Timestamp     time.Time `json:"timestamp"`
	PlayersOnline int       `json:"players_online"`
	LatencyMs     float64   `json:"latency_ms"`
	Occupancy     float64   `json:"occupancy_percent"`
	Delta         int       `json:"delta"`
}

// History returns the sample series of the trailing window, oldest first,
// with per-sample occupancy and player-count delta
func (s *MonitorService) History(address string, hours int) ([]HistoryPoint, error) {
	server, err := s.getServer(address)
	if err != nil {
		return nil, err
	}
	if hours <= 0 {
		hours = 24
	}

	samples, err := s.statuses.History(server.ID, time.Now().UTC().Add(-time.Duration(hours)*time.Hour))
	if err != nil {
		return nil, err
	}

	points := make([]HistoryPoint, 0, len(samples))
	previous := -1
	for _, sample := range samples {
		point := HistoryPoint{
			Timestamp:     sample.Timestamp,
			PlayersOnline: sample.PlayersOnline,
			LatencyMs:     sample.LatencyMs,
		}
		if server.PlayersMax > 0 {
			point.Occupancy = float64(sample.PlayersOnline) / float64(server.PlayersMax) * 100
		}
		if previous >= 0 {
			point.Delta = sample.PlayersOnline - previous
		}
		previous = sample.PlayersOnline
		points = append(points, point)
	}
	return points, nil
}

// ServerStats summarizes a server's trailing window
type ServerStats struct {
	Hours          int     `json:"hours"`
	SampleCount    int64   `json:"sample_count"`
	PeakPlayers    int     `json:"peak_players"`
	AveragePlayers float64 `json:"average_players"`
	UptimePercent  float64 `json:"uptime_percent"`
}

// Stats computes window statistics for one server. Uptime is estimated from
// sample density: only successful probes produce samples, so the ratio of
// stored samples to the expected cycle count approximates reachability.
func (s *MonitorService) Stats(address string, hours int) (*ServerStats, error) {
	server, err := s.getServer(address)
	if err != nil {
		return nil, err
	}
	if hours <= 0 {
		hours = 24
	}

	agg, err := s.statuses.Aggregate(server.ID, time.Now().UTC().Add(-time.Duration(hours)*time.Hour))
	if err != nil {
		return nil, err
	}

	stats := &ServerStats{
		Hours:          hours,
		SampleCount:    agg.SampleCount,
		PeakPlayers:    agg.PeakPlayers,
		AveragePlayers: agg.AveragePlayers,
	}

	expected := float64(hours) * 3600 / s.cfg.PollInterval.Seconds()
	if expected > 0 {
		stats.UptimePercent = float64(agg.SampleCount) / expected * 100
		if stats.UptimePercent > 100 {
			stats.UptimePercent = 100
		}
	}
	return stats, nil
}

// Events returns a server's newest events
func (s *MonitorService) Events(address string, limit int) ([]models.Event, error) {
	server, err := s.getServer(address)
	if err != nil {
		return nil, err
	}
	if limit <= 0 || limit > 200 {
		limit = 50
	}
	return s.events.Recent(server.ID, limit)
}

// PlayerLists is the presence view of one server
type PlayerLists struct {
	Online          []models.PlayerPresence `json:"online"`
	RecentlyOffline []models.PlayerPresence `json:"recently_offline"`
}

// Players returns who is online now and who was seen recently
func (s *MonitorService) Players(address string) (*PlayerLists, error) {
	server, err := s.getServer(address)
	if err != nil {
		return nil, err
	}

	online, err := s.presences.OnlinePlayers(server.ID)
	if err != nil {
		return nil, err
	}
	offline, err := s.presences.RecentlyOffline(server.ID, 10)
	if err != nil {
		return nil, err
	}
	return &PlayerLists{Online: online, RecentlyOffline: offline}, nil
}

// ActivityHeatmap returns weekday/hour activity buckets for the trailing window
func (s *MonitorService) ActivityHeatmap(address string, days int) ([]repository.HeatmapCell, error) {
	server, err := s.getServer(address)
	if err != nil {
		return nil, err
	}
	if days <= 0 {
		days = 30
	}
	return s.statuses.ActivityHeatmap(server.ID, time.Now().UTC().AddDate(0, 0, -days))
}

// CalendarHeatmap returns daily activity for the trailing window
func (s *MonitorService) CalendarHeatmap(address string, days int) ([]repository.CalendarDay, error) {
	server, err := s.getServer(address)
	if err != nil {
		return nil, err
	}
	if days <= 0 {
		days = 365
	}
	return s.statuses.CalendarHeatmap(server.ID, time.Now().UTC().AddDate(0, 0, -days))
}

// TestConsole validates a console configuration without saving it
func (s *MonitorService) TestConsole(host string, port int, password string) error {
	return console.Test(host, port, password, s.cfg.RCONDialTimeout)
}

// ConsoleCredentials resolves the console credentials for an address.
// Implements the credential lookup the list prober depends on.
func (s *MonitorService) ConsoleCredentials(address string) (probe.Credentials, error) {
	server, err := s.getServer(address)
	if err != nil {
		return probe.Credentials{}, err
	}
	if server.RCONPort == 0 || server.RCONPassword == "" {
		return probe.Credentials{}, ErrConsoleNotConfigured
	}

	host := server.Address
	if idx := strings.Index(host, ":"); idx >= 0 {
		host = host[:idx]
	}
	return probe.Credentials{
		Host:     host,
		Port:     server.RCONPort,
		Password: server.RCONPassword,
	}, nil
}

// ConsoleRunner returns a command runner bound to one server's console.
// Each command dials a fresh session; game servers drop idle console
// connections, so per-command dialing is more robust than keeping one open.
func (s *MonitorService) ConsoleRunner(address string) (console.CommandRunner, error) {
	cred, err := s.ConsoleCredentials(address)
	if err != nil {
		return nil, err
	}

	timeout := s.cfg.RCONDialTimeout
	return console.RunnerFunc(func(ctx context.Context, command string) (string, error) {
		client, err := console.Dial(cred.Host, cred.Port, cred.Password, timeout)
		if err != nil {
			return "", err
		}
		defer client.Close()
		return client.Send(command)
	}), nil
}

// ExecuteCommand runs one console command and returns the cleaned response
func (s *MonitorService) ExecuteCommand(ctx context.Context, address, command string) (string, error) {
	runner, err := s.ConsoleRunner(address)
	if err != nil {
		return "", err
	}

	response, err := runner.Run(ctx, command)
	if err != nil {
		return "", err
	}

	response = strings.TrimSpace(minecraft.StripColorCodes(response))
	if response == "" {
		response = "[no response from server]"
	}
	return response, nil
}

// LogPath returns the live log file for a server, empty when log tailing is
// not configured
func (s *MonitorService) LogPath(server *models.Server) string {
	if server.LogDir == "" {
		return ""
	}
	return filepath.Join(server.LogDir, "logs", "latest.log")
}
