package service

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/blockspy/blockspy/internal/models"
	"github.com/blockspy/blockspy/internal/monitoring"
	"github.com/blockspy/blockspy/internal/probe"
	"github.com/blockspy/blockspy/pkg/config"
	"github.com/blockspy/blockspy/pkg/logger"
)

// PollStore is the slice of the server repository the scheduler needs
type PollStore interface {
	ActiveServers() ([]models.Server, error)
	PausedServers() ([]models.Server, error)
	CommitPoll(server *models.Server, sample *models.StatusSample, events []models.Event) error
	SetPaused(serverID uint, paused bool, event *models.Event) error
}

// PeakSource answers the trailing-window peak question for peak detection
type PeakSource interface {
	PeakSince(serverID uint, since time.Time) (int, error)
}

// SampleMirror receives a copy of every persisted status sample. Used to
// feed the optional time-series store; failures there never affect polling.
type SampleMirror interface {
	WriteSample(server models.Server, sample models.StatusSample)
}

// PollScheduler drives the monitoring loop: it polls all active servers in
// bounded batches on a fixed interval, pauses servers after repeated probe
// failures and periodically re-verifies paused servers.
type PollScheduler struct {
	store      PollStore
	peaks      PeakSource
	presence   *PresenceReconciler
	prober     probe.Prober
	mirror     SampleMirror
	stopChan   chan struct{}
	wg         sync.WaitGroup
	isRunning  bool
	failuresMu sync.Mutex
	failures   map[string]int // consecutive probe failures per address

	batchSize        int
	batchDelay       time.Duration
	pollInterval     time.Duration
	reverifyInterval time.Duration
	probeTimeout     time.Duration
	pauseThreshold   int
}

func NewPollScheduler(store PollStore, peaks PeakSource, presence *PresenceReconciler, prober probe.Prober, cfg *config.Config) *PollScheduler {
	return &PollScheduler{
		store:            store,
		peaks:            peaks,
		presence:         presence,
		prober:           prober,
		stopChan:         make(chan struct{}),
		failures:         make(map[string]int),
		batchSize:        cfg.BatchSize,
		batchDelay:       cfg.BatchDelay,
		pollInterval:     cfg.PollInterval,
		reverifyInterval: cfg.ReverifyInterval,
		probeTimeout:     cfg.ProbeTimeout,
		pauseThreshold:   cfg.PauseFailureThreshold,
	}
}

// SetSampleMirror links an optional secondary sink for status samples
func (s *PollScheduler) SetSampleMirror(mirror SampleMirror) {
	s.mirror = mirror
}

// Start launches the monitor and re-verification loops
func (s *PollScheduler) Start() {
	if s.isRunning {
		return
	}
	s.isRunning = true

	logger.Info("Starting poll scheduler", map[string]interface{}{
		"poll_interval":     s.pollInterval.String(),
		"batch_size":        s.batchSize,
		"reverify_interval": s.reverifyInterval.String(),
	})

	s.wg.Add(2)
	go s.monitorLoop()
	go s.reverifyLoop()
}

// Stop signals both loops and blocks until the in-flight cycle has drained
func (s *PollScheduler) Stop() {
	if !s.isRunning {
		return
	}
	logger.Info("Stopping poll scheduler", nil)
	close(s.stopChan)
	s.wg.Wait()
	s.isRunning = false
	logger.Info("Poll scheduler stopped", nil)
}

func (s *PollScheduler) monitorLoop() {
	defer s.wg.Done()

	ticker := time.NewTicker(s.pollInterval)
	defer ticker.Stop()

	s.runCycle()

	for {
		select {
		case <-s.stopChan:
			return
		case <-ticker.C:
			s.runCycle()
		}
	}
}

// runCycle polls every active server once, in batches of at most batchSize
// with a fixed delay between batches. Servers within a batch are probed
// concurrently; the cycle runs to completion even during shutdown so that
// no server is left with a half-applied poll.
func (s *PollScheduler) runCycle() {
	servers, err := s.store.ActiveServers()
	if err != nil {
		logger.Error("Failed to load active servers", err, nil)
		return
	}
	if len(servers) == 0 {
		return
	}

	started := time.Now()
	var onlineCount, playerTotal int64

	for batchStart := 0; batchStart < len(servers); batchStart += s.batchSize {
		batchEnd := batchStart + s.batchSize
		if batchEnd > len(servers) {
			batchEnd = len(servers)
		}
		batch := servers[batchStart:batchEnd]

		var batchWG sync.WaitGroup
		for i := range batch {
			batchWG.Add(1)
			go func(server models.Server) {
				defer batchWG.Done()
				online, players := s.pollServer(server)
				if online {
					atomic.AddInt64(&onlineCount, 1)
					atomic.AddInt64(&playerTotal, int64(players))
				}
			}(batch[i])
		}
		batchWG.Wait()

		if batchEnd < len(servers) {
			select {
			case <-s.stopChan:
				// Finish the remaining batches without the pacing delay
			case <-time.After(s.batchDelay):
			}
		}
	}

	monitoring.PollCyclesTotal.Inc()
	monitoring.ServersOnline.Set(float64(onlineCount))
	monitoring.PlayersOnline.Set(float64(playerTotal))
	if paused, err := s.store.PausedServers(); err == nil {
		monitoring.ServersPaused.Set(float64(len(paused)))
	}

	logger.Debug("Poll cycle complete", map[string]interface{}{
		"servers":  len(servers),
		"online":   onlineCount,
		"players":  playerTotal,
		"duration": time.Since(started).String(),
	})
}

// pollServer probes one server, persists the outcome atomically and then
// reconciles player presence. Returns whether the server is online and its
// player count.
func (s *PollScheduler) pollServer(server models.Server) (bool, int) {
	now := time.Now().UTC()

	probeStart := time.Now()
	status, err := s.prober.Probe(context.Background(), server.Address, s.probeTimeout)
	monitoring.ProbeDuration.Observe(time.Since(probeStart).Seconds())

	if err != nil {
		monitoring.ProbesTotal.WithLabelValues("failure").Inc()
		logger.Debug("Probe failed", map[string]interface{}{
			"address": server.Address,
			"error":   err.Error(),
		})
		status = nil
	} else {
		monitoring.ProbesTotal.WithLabelValues("success").Inc()
	}

	// Peak lookup happens before the new sample is committed; the strictly
	// greater comparison in Detect depends on that
	peak, peakErr := s.peaks.PeakSince(server.ID, now.Add(-24*time.Hour))
	if peakErr != nil {
		logger.Warn("Peak lookup failed, suppressing peak detection", map[string]interface{}{
			"address": server.Address,
			"error":   peakErr.Error(),
		})
		if status != nil {
			peak = status.PlayersOnline
		}
	}

	updated, events := Detect(server, status, peak, now)

	var sample *models.StatusSample
	if status != nil {
		sample = &models.StatusSample{
			ServerID:      server.ID,
			Timestamp:     now,
			PlayersOnline: status.PlayersOnline,
			LatencyMs:     status.LatencyMs,
		}
	}

	if err := s.store.CommitPoll(&updated, sample, events); err != nil {
		logger.Error("Failed to commit poll", err, map[string]interface{}{
			"address": server.Address,
		})
		return false, 0
	}

	for _, event := range events {
		monitoring.EventsEmittedTotal.WithLabelValues(string(event.Type)).Inc()
		logger.Info("Event detected", map[string]interface{}{
			"address": server.Address,
			"type":    string(event.Type),
			"detail":  event.Detail,
		})
	}

	if sample != nil && s.mirror != nil {
		s.mirror.WriteSample(updated, *sample)
	}

	if status != nil {
		s.clearFailures(server.Address)
		if err := s.presence.Reconcile(server.ID, status.Players, now); err != nil {
			// Presence is reconciled in its own transaction; a failure here
			// leaves the committed poll intact and the set converges on the
			// next cycle
			logger.Error("Presence reconciliation failed", err, map[string]interface{}{
				"address": server.Address,
			})
		}
		return true, status.PlayersOnline
	}

	s.recordFailure(updated)
	return false, 0
}

// recordFailure bumps the consecutive-failure counter for a server and
// pauses it once the threshold is reached
func (s *PollScheduler) recordFailure(server models.Server) {
	s.failuresMu.Lock()
	s.failures[server.Address]++
	count := s.failures[server.Address]
	if count < s.pauseThreshold {
		s.failuresMu.Unlock()
		return
	}
	delete(s.failures, server.Address)
	s.failuresMu.Unlock()

	event := &models.Event{
		ServerID:  server.ID,
		Timestamp: time.Now().UTC(),
		Type:      models.EventServerPaused,
		Detail:    fmt.Sprintf("Monitoring paused after %d consecutive failures.", count),
	}
	if err := s.store.SetPaused(server.ID, true, event); err != nil {
		logger.Error("Failed to pause server", err, map[string]interface{}{
			"address": server.Address,
		})
		return
	}
	monitoring.EventsEmittedTotal.WithLabelValues(string(models.EventServerPaused)).Inc()
	logger.Warn("Server paused after repeated failures", map[string]interface{}{
		"address":  server.Address,
		"failures": count,
	})
}

func (s *PollScheduler) clearFailures(address string) {
	s.failuresMu.Lock()
	delete(s.failures, address)
	s.failuresMu.Unlock()
}

// FailureCount reports the current consecutive-failure count for an address
func (s *PollScheduler) FailureCount(address string) int {
	s.failuresMu.Lock()
	defer s.failuresMu.Unlock()
	return s.failures[address]
}

// reverifyLoop periodically probes paused servers and resumes the ones that
// answer again
func (s *PollScheduler) reverifyLoop() {
	defer s.wg.Done()

	ticker := time.NewTicker(s.reverifyInterval)
	defer ticker.Stop()

	for {
		select {
		case <-s.stopChan:
			return
		case <-ticker.C:
			s.reverifyPaused()
		}
	}
}

func (s *PollScheduler) reverifyPaused() {
	paused, err := s.store.PausedServers()
	if err != nil {
		logger.Error("Failed to load paused servers", err, nil)
		return
	}
	if len(paused) == 0 {
		return
	}

	logger.Info("Re-verifying paused servers", map[string]interface{}{"count": len(paused)})

	for _, server := range paused {
		select {
		case <-s.stopChan:
			return
		default:
		}

		_, err := s.prober.Probe(context.Background(), server.Address, s.probeTimeout)
		if err != nil {
			logger.Debug("Paused server still unreachable", map[string]interface{}{
				"address": server.Address,
				"error":   err.Error(),
			})
			continue
		}

		event := &models.Event{
			ServerID:  server.ID,
			Timestamp: time.Now().UTC(),
			Type:      models.EventServerResumed,
			Detail:    "Server reachable again, monitoring resumed.",
		}
		if err := s.store.SetPaused(server.ID, false, event); err != nil {
			logger.Error("Failed to resume server", err, map[string]interface{}{
				"address": server.Address,
			})
			continue
		}
		s.clearFailures(server.Address)
		monitoring.EventsEmittedTotal.WithLabelValues(string(models.EventServerResumed)).Inc()
		logger.Info("Server resumed after re-verification", map[string]interface{}{
			"address": server.Address,
		})
	}
}
