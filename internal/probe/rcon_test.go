package probe

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseListResponseWithUUIDs(t *testing.T) {
	response := "There are 2 of a max of 20 players online: Alice (D8E5A4B2-1234-3ABC-9DEF-000000000001), Bob (d8e5a4b2-1234-3abc-9def-000000000002)"

	status := parseListResponse(response)

	assert.Equal(t, 2, status.PlayersOnline)
	assert.Equal(t, 20, status.PlayersMax)
	require.Len(t, status.Players, 2)
	assert.Equal(t, "Alice", status.Players[0].Name)
	assert.Equal(t, "d8e5a4b2-1234-3abc-9def-000000000001", status.Players[0].UUID)
	assert.Equal(t, "Bob", status.Players[1].Name)
}

func TestParseListResponseWithoutUUIDs(t *testing.T) {
	response := "There are 3 of a max of 100 players online: Alice, Bob, Carol"

	status := parseListResponse(response)

	assert.Equal(t, 3, status.PlayersOnline)
	assert.Equal(t, 100, status.PlayersMax)
	require.Len(t, status.Players, 3)
	assert.Equal(t, "Carol", status.Players[2].Name)
	assert.Empty(t, status.Players[0].UUID)
}

func TestParseListResponseEmpty(t *testing.T) {
	status := parseListResponse("There are 0 of a max of 20 players online:")

	assert.Equal(t, 0, status.PlayersOnline)
	assert.Equal(t, 20, status.PlayersMax)
	assert.Empty(t, status.Players)
}

func TestParseListResponseSlashVariant(t *testing.T) {
	// Some server builds answer with the compact count format
	status := parseListResponse("There are 5/50 players online: Dave")

	assert.Equal(t, 5, status.PlayersOnline)
	assert.Equal(t, 50, status.PlayersMax)
	require.Len(t, status.Players, 1)
	assert.Equal(t, "Dave", status.Players[0].Name)
}

func TestParseListResponseStripsFormatting(t *testing.T) {
	status := parseListResponse("§aThere are 1 of a max of 10 players online: §bEve")

	assert.Equal(t, 1, status.PlayersOnline)
	require.Len(t, status.Players, 1)
	assert.Equal(t, "Eve", status.Players[0].Name)
}

func TestParseListResponseSkipsJunkEntries(t *testing.T) {
	response := "There are 2 of a max of 20 players online: Alice, not a player!!, Bob"

	status := parseListResponse(response)

	require.Len(t, status.Players, 2)
	assert.Equal(t, "Alice", status.Players[0].Name)
	assert.Equal(t, "Bob", status.Players[1].Name)
}

func TestParseListResponseGarbage(t *testing.T) {
	status := parseListResponse("Unknown command. Type /help for help.")

	assert.Equal(t, 0, status.PlayersOnline)
	assert.Equal(t, 0, status.PlayersMax)
	assert.Empty(t, status.Players)
}
