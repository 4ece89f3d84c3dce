// Package storage holds optional secondary sinks for monitoring data.
package storage

import (
	"time"

	influxdb2 "github.com/influxdata/influxdb-client-go/v2"
	"github.com/influxdata/influxdb-client-go/v2/api"

	"github.com/blockspy/blockspy/internal/models"
	"github.com/blockspy/blockspy/pkg/config"
	"github.com/blockspy/blockspy/pkg/logger"
)

// InfluxDBClient mirrors status samples into a time-series bucket. It is an
// optional sink: polling never depends on it and writes are asynchronous.
type InfluxDBClient struct {
	client   influxdb2.Client
	writeAPI api.WriteAPI
}

// NewInfluxDBClient connects to InfluxDB, or returns nil when the mirror is
// not configured
func NewInfluxDBClient(cfg *config.Config) *InfluxDBClient {
	if cfg.InfluxDBURL == "" || cfg.InfluxDBToken == "" {
		return nil
	}

	client := influxdb2.NewClient(cfg.InfluxDBURL, cfg.InfluxDBToken)
	writeAPI := client.WriteAPI(cfg.InfluxDBOrg, cfg.InfluxDBBucket)

	// Async write errors surface on a channel, not on WritePoint
	go func() {
		for err := range writeAPI.Errors() {
			logger.Warn("InfluxDB write failed", map[string]interface{}{
				"error": err.Error(),
			})
		}
	}()

	logger.Info("InfluxDB sample mirror enabled", map[string]interface{}{
		"url":    cfg.InfluxDBURL,
		"bucket": cfg.InfluxDBBucket,
	})
	return &InfluxDBClient{client: client, writeAPI: writeAPI}
}

// WriteSample mirrors one status sample
func (c *InfluxDBClient) WriteSample(server models.Server, sample models.StatusSample) {
	point := influxdb2.NewPoint(
		"server_status",
		map[string]string{
			"address": server.Address,
		},
		map[string]interface{}{
			"players_online": sample.PlayersOnline,
			"players_max":    server.PlayersMax,
			"latency_ms":     sample.LatencyMs,
		},
		sample.Timestamp,
	)
	c.writeAPI.WritePoint(point)
}

// Close flushes pending writes and shuts the client down
func (c *InfluxDBClient) Close() {
	c.writeAPI.Flush()
	c.client.Close()

	// Give the error drain a moment before the process exits
	time.Sleep(100 * time.Millisecond)
}
