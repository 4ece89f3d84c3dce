package repository

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/blockspy/blockspy/internal/models"
)

func TestPollOwnedFieldsCarryProbeResults(t *testing.T) {
	now := time.Now().UTC()
	server := &models.Server{
		Status:         models.StatusOnline,
		Name:           "My Server",
		Version:        "1.21",
		PlayersOnline:  7,
		PlayersMax:     20,
		LatencyMs:      42,
		Classification: models.ClassOriginal,
		LastCheckedAt:  &now,
	}

	fields := pollOwnedFields(server)

	assert.Equal(t, models.StatusOnline, fields["status"])
	assert.Equal(t, "My Server", fields["name"])
	assert.Equal(t, "1.21", fields["version"])
	assert.Equal(t, 7, fields["players_online"])
	assert.Equal(t, 20, fields["players_max"])
	assert.Equal(t, float64(42), fields["latency_ms"])
	assert.Equal(t, models.ClassOriginal, fields["classification"])
	assert.Equal(t, &now, fields["last_checked_at"])
}

func TestPollOwnedFieldsExcludeOperatorColumns(t *testing.T) {
	server := &models.Server{
		CustomName:   "edited mid-cycle",
		Location:     "EU",
		LogDir:       "/srv/minecraft",
		RCONPort:     25575,
		RCONPassword: "secret",
		Paused:       true,
	}

	fields := pollOwnedFields(server)

	// A poll works from a snapshot taken at cycle start; it must not write
	// back columns an operator may have edited since
	for _, column := range []string{
		"custom_name", "location", "log_dir", "rcon_port", "rcon_password", "paused", "address",
	} {
		assert.NotContains(t, fields, column)
	}
}
