package service

import (
	"encoding/json"
	"fmt"
	"time"

	"gorm.io/datatypes"

	"github.com/blockspy/blockspy/internal/minecraft"
	"github.com/blockspy/blockspy/internal/models"
	"github.com/blockspy/blockspy/internal/probe"
)

// Detect compares a server's previous snapshot with the outcome of one probe
// and returns the updated record plus the discrete events the transition
// produced. status is nil when the probe failed. peak24h must be the maximum
// player count over the trailing 24h window computed BEFORE the new sample
// is inserted; the new-peak rule depends on that ordering.
//
// Detect is a pure function: it never touches storage.
func Detect(prev models.Server, status *probe.Status, peak24h int, now time.Time) (models.Server, []models.Event) {
	updated := prev
	updated.LastCheckedAt = &now

	var events []models.Event
	record := func(kind models.EventType, detail string, payload map[string]interface{}) {
		event := models.Event{
			ServerID:  prev.ID,
			Timestamp: now,
			Type:      kind,
			Detail:    detail,
		}
		if payload != nil {
			if data, err := json.Marshal(payload); err == nil {
				event.Data = datatypes.JSON(data)
			}
		}
		events = append(events, event)
	}

	if status == nil {
		// Probe failure: the only transition is online -> offline
		if prev.Status == models.StatusOnline {
			record(models.EventServerOffline, "Server went offline.", nil)
		}
		updated.Status = models.StatusOffline
		return updated, events
	}

	if prev.Status != models.StatusOnline {
		record(models.EventServerOnline,
			fmt.Sprintf("Server came online with %d players.", status.PlayersOnline),
			map[string]interface{}{"players_online": status.PlayersOnline})
	}

	if prev.Version != "" && status.Version != "" && status.Version != prev.Version {
		record(models.EventVersionChanged,
			fmt.Sprintf("Version changed from '%s' to '%s'.", prev.Version, status.Version),
			map[string]interface{}{"from": prev.Version, "to": status.Version})
	}

	if status.PlayersOnline > peak24h {
		record(models.EventNewPlayerPeak,
			fmt.Sprintf("New 24h player record: %d players.", status.PlayersOnline),
			map[string]interface{}{"players_online": status.PlayersOnline, "previous_peak": peak24h})
	}

	updated.Status = models.StatusOnline
	updated.PlayersOnline = status.PlayersOnline
	updated.PlayersMax = status.PlayersMax
	updated.LatencyMs = status.LatencyMs
	if status.Version != "" {
		updated.Version = status.Version
	}
	if status.Description != "" {
		updated.Name = minecraft.StripColorCodes(status.Description)
	}
	updated.Classification = NextClassification(prev.Classification, status)

	return updated, events
}

// NextClassification is the transition function for the authentication-mode
// verdict. Terminal values (original, pirated) are invariant under any later
// probe result; every other value is re-evaluated each cycle, including
// hidden_list, so a server that later exposes its sample can still resolve.
func NextClassification(current models.Classification, status *probe.Status) models.Classification {
	if current.Terminal() {
		return current
	}
	if status == nil {
		return current
	}

	if status.PlayersOnline == 0 {
		return models.ClassIndeterminate
	}
	if len(status.Players) == 0 {
		return models.ClassHiddenList
	}

	first := status.Players[0]
	if first.UUID == "" {
		// The probe source did not report an identity token; nothing to
		// compare against, try again next cycle
		return models.ClassCheckError
	}

	if first.UUID == minecraft.OfflineUUID(first.Name) {
		return models.ClassPirated
	}
	return models.ClassOriginal
}
