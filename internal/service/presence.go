package service

import (
	"time"

	"github.com/blockspy/blockspy/internal/minecraft"
	"github.com/blockspy/blockspy/internal/probe"
	"github.com/blockspy/blockspy/pkg/logger"
)

// PresenceStore is the slice of the presence repository the reconciler needs
type PresenceStore interface {
	OnlinePlayerNames(serverID uint) ([]string, error)
	ApplyPresenceDelta(serverID uint, joined []probe.PlayerSample, left []string, now time.Time) error
}

// PresenceReconciler converges the stored who-is-online view of each server
// towards the player sample reported by the latest probe.
type PresenceReconciler struct {
	store PresenceStore
}

func NewPresenceReconciler(store PresenceStore) *PresenceReconciler {
	return &PresenceReconciler{store: store}
}

// Reconcile diffs the probe's player sample against the stored online set and
// applies the delta in one transaction. Names that fail validation are
// dropped before diffing; the sample from a status ping can carry junk
// entries for servers that fake their player list.
func (p *PresenceReconciler) Reconcile(serverID uint, sample []probe.PlayerSample, now time.Time) error {
	observed := make(map[string]probe.PlayerSample, len(sample))
	for _, player := range sample {
		name := minecraft.StripColorCodes(player.Name)
		if !minecraft.IsValidPlayerName(name) {
			logger.Debug("Skipping invalid player name in sample", map[string]interface{}{
				"server_id": serverID,
				"name":      player.Name,
			})
			continue
		}
		player.Name = name
		observed[name] = player
	}

	stored, err := p.store.OnlinePlayerNames(serverID)
	if err != nil {
		return err
	}

	storedSet := make(map[string]bool, len(stored))
	for _, name := range stored {
		storedSet[name] = true
	}

	var joined []probe.PlayerSample
	for name, player := range observed {
		if !storedSet[name] {
			joined = append(joined, player)
		}
	}

	var left []string
	for _, name := range stored {
		if _, ok := observed[name]; !ok {
			left = append(left, name)
		}
	}

	return p.store.ApplyPresenceDelta(serverID, joined, left, now)
}
