package probe

import (
	"context"
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/gorcon/rcon"

	"github.com/blockspy/blockspy/internal/minecraft"
)

// Credentials holds the remote-console connection data for one server
type Credentials struct {
	Host     string
	Port     int
	Password string
}

// CredentialSource resolves the console credentials for a monitored address
type CredentialSource interface {
	ConsoleCredentials(address string) (Credentials, error)
}

// ListProber probes servers through their remote console using the
// "list uuids" command. It is the bundled Prober implementation for servers
// that expose RCON; any other status source can replace it behind the
// Prober interface.
type ListProber struct {
	creds CredentialSource
}

// NewListProber creates a prober backed by remote-console credentials
func NewListProber(creds CredentialSource) *ListProber {
	return &ListProber{creds: creds}
}

// Probe queries the server's player list and measures round-trip latency
func (p *ListProber) Probe(ctx context.Context, address string, timeout time.Duration) (*Status, error) {
	cred, err := p.creds.ConsoleCredentials(address)
	if err != nil {
		return nil, fmt.Errorf("no console credentials for %s: %w", address, err)
	}

	conn, err := rcon.Dial(
		fmt.Sprintf("%s:%d", cred.Host, cred.Port),
		cred.Password,
		rcon.SetDialTimeout(timeout),
		rcon.SetDeadline(timeout),
	)
	if err != nil {
		return nil, fmt.Errorf("console connection failed: %w", err)
	}
	defer conn.Close()

	start := time.Now()
	response, err := conn.Execute("list uuids")
	if err != nil {
		return nil, fmt.Errorf("list command failed: %w", err)
	}
	latency := time.Since(start)

	if ctx.Err() != nil {
		return nil, ctx.Err()
	}

	status := parseListResponse(response)
	status.LatencyMs = float64(latency.Milliseconds())
	return status, nil
}

var listHeaderRe = regexp.MustCompile(`There are (\d+) (?:of a max (?:of )?|/)(\d+) players online`)

// playerEntryRe matches "Name" or "Name (uuid)" entries in a list response
var playerEntryRe = regexp.MustCompile(`^([A-Za-z0-9_]+)(?:\s*\(([0-9a-fA-F-]{32,36})\))?$`)

// parseListResponse extracts counts and the player sample from a
// "list"/"list uuids" command response.
// Example: "There are 2 of a max of 20 players online: Alice (uuid), Bob (uuid)"
func parseListResponse(response string) *Status {
	clean := minecraft.StripColorCodes(response)
	status := &Status{}

	matches := listHeaderRe.FindStringSubmatch(clean)
	if len(matches) == 3 {
		status.PlayersOnline, _ = strconv.Atoi(matches[1])
		status.PlayersMax, _ = strconv.Atoi(matches[2])
	}

	// Player entries follow the first colon, comma separated
	if idx := strings.Index(clean, ":"); idx >= 0 {
		for _, entry := range strings.Split(clean[idx+1:], ",") {
			entry = strings.TrimSpace(entry)
			if entry == "" {
				continue
			}
			m := playerEntryRe.FindStringSubmatch(entry)
			if m == nil {
				continue
			}
			status.Players = append(status.Players, PlayerSample{
				Name: m[1],
				UUID: strings.ToLower(m[2]),
			})
		}
	}

	return status
}
