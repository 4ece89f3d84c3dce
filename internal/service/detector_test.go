package service

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/blockspy/blockspy/internal/minecraft"
	"github.com/blockspy/blockspy/internal/models"
	"github.com/blockspy/blockspy/internal/probe"
)

func eventTypes(events []models.Event) []models.EventType {
	types := make([]models.EventType, 0, len(events))
	for _, event := range events {
		types = append(types, event.Type)
	}
	return types
}

func TestDetectServerComesOnline(t *testing.T) {
	now := time.Now().UTC()
	prev := models.Server{Status: models.StatusOffline}
	status := &probe.Status{PlayersOnline: 4, PlayersMax: 20, Version: "1.21"}

	updated, events := Detect(prev, status, 10, now)

	assert.Equal(t, models.StatusOnline, updated.Status)
	assert.Equal(t, 4, updated.PlayersOnline)
	assert.Equal(t, 20, updated.PlayersMax)
	assert.Equal(t, "1.21", updated.Version)
	require.NotNil(t, updated.LastCheckedAt)
	assert.Equal(t, []models.EventType{models.EventServerOnline}, eventTypes(events))
}

func TestDetectFirstPollFromPending(t *testing.T) {
	now := time.Now().UTC()
	prev := models.Server{Status: models.StatusPending}

	updated, events := Detect(prev, &probe.Status{PlayersOnline: 1}, 5, now)

	assert.Equal(t, models.StatusOnline, updated.Status)
	assert.Equal(t, []models.EventType{models.EventServerOnline}, eventTypes(events))
}

func TestDetectServerGoesOffline(t *testing.T) {
	now := time.Now().UTC()
	prev := models.Server{Status: models.StatusOnline, PlayersOnline: 3}

	updated, events := Detect(prev, nil, 5, now)

	assert.Equal(t, models.StatusOffline, updated.Status)
	assert.Equal(t, []models.EventType{models.EventServerOffline}, eventTypes(events))
}

func TestDetectOfflineStaysQuiet(t *testing.T) {
	now := time.Now().UTC()
	prev := models.Server{Status: models.StatusOffline}

	updated, events := Detect(prev, nil, 5, now)

	assert.Equal(t, models.StatusOffline, updated.Status)
	assert.Empty(t, events)
	require.NotNil(t, updated.LastCheckedAt)
}

func TestDetectOnlineStaysQuiet(t *testing.T) {
	now := time.Now().UTC()
	prev := models.Server{Status: models.StatusOnline, Version: "1.21", PlayersOnline: 5}
	status := &probe.Status{PlayersOnline: 5, Version: "1.21"}

	_, events := Detect(prev, status, 10, now)

	assert.Empty(t, events)
}

func TestDetectVersionChange(t *testing.T) {
	now := time.Now().UTC()
	prev := models.Server{Status: models.StatusOnline, Version: "1.20.4"}
	status := &probe.Status{PlayersOnline: 2, Version: "1.21"}

	updated, events := Detect(prev, status, 10, now)

	assert.Equal(t, "1.21", updated.Version)
	assert.Equal(t, []models.EventType{models.EventVersionChanged}, eventTypes(events))
}

func TestDetectVersionChangeNeedsBothSides(t *testing.T) {
	now := time.Now().UTC()

	// First observed version is not a change
	_, events := Detect(models.Server{Status: models.StatusOnline}, &probe.Status{PlayersOnline: 1, Version: "1.21"}, 5, now)
	assert.NotContains(t, eventTypes(events), models.EventVersionChanged)

	// A probe source without version info never triggers a change
	prev := models.Server{Status: models.StatusOnline, Version: "1.21"}
	updated, events := Detect(prev, &probe.Status{PlayersOnline: 1}, 5, now)
	assert.NotContains(t, eventTypes(events), models.EventVersionChanged)
	assert.Equal(t, "1.21", updated.Version)
}

func TestDetectNewPlayerPeak(t *testing.T) {
	now := time.Now().UTC()
	prev := models.Server{Status: models.StatusOnline}

	_, events := Detect(prev, &probe.Status{PlayersOnline: 11}, 10, now)
	assert.Equal(t, []models.EventType{models.EventNewPlayerPeak}, eventTypes(events))

	// Matching the stored peak is not a new record
	_, events = Detect(prev, &probe.Status{PlayersOnline: 10}, 10, now)
	assert.Empty(t, events)
}

func TestDetectPeakFiresOncePerRecord(t *testing.T) {
	now := time.Now().UTC()
	prev := models.Server{Status: models.StatusOnline}

	// The record-setting sample is committed after detection, so the same
	// count on the next cycle compares against the raised peak
	_, events := Detect(prev, &probe.Status{PlayersOnline: 12}, 10, now)
	assert.Equal(t, []models.EventType{models.EventNewPlayerPeak}, eventTypes(events))

	_, events = Detect(prev, &probe.Status{PlayersOnline: 12}, 12, now)
	assert.Empty(t, events)
}

func TestDetectCombinedTransitions(t *testing.T) {
	now := time.Now().UTC()
	prev := models.Server{Status: models.StatusOffline, Version: "1.20.4"}
	status := &probe.Status{PlayersOnline: 15, Version: "1.21"}

	_, events := Detect(prev, status, 10, now)

	assert.Equal(t, []models.EventType{
		models.EventServerOnline,
		models.EventVersionChanged,
		models.EventNewPlayerPeak,
	}, eventTypes(events))
}

func TestDetectUpdatesNameFromDescription(t *testing.T) {
	now := time.Now().UTC()
	prev := models.Server{Status: models.StatusOnline, Name: "old"}
	status := &probe.Status{PlayersOnline: 1, Description: "§aMy §lServer"}

	updated, _ := Detect(prev, status, 5, now)

	assert.Equal(t, "My Server", updated.Name)
}

func TestNextClassificationTerminalIsSticky(t *testing.T) {
	pirated := &probe.Status{
		PlayersOnline: 1,
		Players:       []probe.PlayerSample{{Name: "Steve", UUID: minecraft.OfflineUUID("Steve")}},
	}

	assert.Equal(t, models.ClassOriginal, NextClassification(models.ClassOriginal, pirated))
	assert.Equal(t, models.ClassPirated, NextClassification(models.ClassPirated, nil))
	assert.Equal(t, models.ClassPirated, NextClassification(models.ClassPirated, &probe.Status{PlayersOnline: 0}))
}

func TestNextClassificationEmptyServer(t *testing.T) {
	result := NextClassification(models.ClassHiddenList, &probe.Status{PlayersOnline: 0})
	assert.Equal(t, models.ClassIndeterminate, result)
}

func TestNextClassificationHiddenList(t *testing.T) {
	// Players online but none visible in the sample
	result := NextClassification(models.ClassIndeterminate, &probe.Status{PlayersOnline: 7})
	assert.Equal(t, models.ClassHiddenList, result)

	// Hidden list is re-evaluated: a later sample can still resolve it
	revealed := &probe.Status{
		PlayersOnline: 1,
		Players:       []probe.PlayerSample{{Name: "Steve", UUID: minecraft.OfflineUUID("Steve")}},
	}
	assert.Equal(t, models.ClassPirated, NextClassification(models.ClassHiddenList, revealed))
}

func TestNextClassificationPiratedAndOriginal(t *testing.T) {
	pirated := &probe.Status{
		PlayersOnline: 1,
		Players:       []probe.PlayerSample{{Name: "Alex", UUID: minecraft.OfflineUUID("Alex")}},
	}
	assert.Equal(t, models.ClassPirated, NextClassification(models.ClassIndeterminate, pirated))

	original := &probe.Status{
		PlayersOnline: 1,
		Players:       []probe.PlayerSample{{Name: "Alex", UUID: "069a79f4-44e9-4726-a5be-fca90e38aaf5"}},
	}
	assert.Equal(t, models.ClassOriginal, NextClassification(models.ClassIndeterminate, original))
}

func TestNextClassificationMissingIdentity(t *testing.T) {
	status := &probe.Status{
		PlayersOnline: 1,
		Players:       []probe.PlayerSample{{Name: "Alex"}},
	}
	assert.Equal(t, models.ClassCheckError, NextClassification(models.ClassIndeterminate, status))
}

func TestNextClassificationProbeFailureKeepsCurrent(t *testing.T) {
	assert.Equal(t, models.ClassHiddenList, NextClassification(models.ClassHiddenList, nil))
}
