package minecraft

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStripColorCodes(t *testing.T) {
	assert.Equal(t, "Hello World", StripColorCodes("§aHello §lWorld"))
	assert.Equal(t, "plain text", StripColorCodes("plain text"))
	assert.Equal(t, "", StripColorCodes("§a§b§c"))
	assert.Equal(t, "A Minecraft Server", StripColorCodes("§eA §6Minecraft §eServer"))
}

func TestIsValidPlayerName(t *testing.T) {
	valid := []string{"Notch", "xX_Herobrine_Xx", "abc", "Player_123", "1234567890123456"}
	for _, name := range valid {
		assert.True(t, IsValidPlayerName(name), name)
	}

	invalid := []string{"", "ab", "12345678901234567", "bad name", "nick!", "ãccent"}
	for _, name := range invalid {
		assert.False(t, IsValidPlayerName(name), name)
	}
}

func TestIsValidAddress(t *testing.T) {
	valid := []string{"mc.hypixel.net", "play.example.com:25565", "192.168.1.10", "10.0.0.1:25565"}
	for _, addr := range valid {
		assert.True(t, IsValidAddress(addr), addr)
	}

	invalid := []string{"", "localhost", "not a host", "http://mc.example.com", "mc.example.com:"}
	for _, addr := range invalid {
		assert.False(t, IsValidAddress(addr), addr)
	}
}

func TestOfflineUUIDIsDeterministic(t *testing.T) {
	first := OfflineUUID("Steve")
	second := OfflineUUID("Steve")
	require.NotEmpty(t, first)
	assert.Equal(t, first, second)
	assert.NotEqual(t, first, OfflineUUID("Alex"))
}

func TestOfflineUUIDHasV3Shape(t *testing.T) {
	id := OfflineUUID("Notch")
	require.Len(t, id, 36)

	// xxxxxxxx-xxxx-3xxx-yxxx-xxxxxxxxxxxx with y in [89ab]
	assert.Equal(t, byte('3'), id[14])
	assert.Contains(t, "89ab", string(id[19]))
}

func TestOfflineUUIDIsCaseSensitive(t *testing.T) {
	// Offline identity derives from the exact name, casing included
	assert.NotEqual(t, OfflineUUID("steve"), OfflineUUID("Steve"))
}
