// Package probe defines the status-probe capability the poll scheduler runs
// against. The wire protocol used to query a server is deliberately opaque:
// the engine only sees the Prober interface and its result type.
package probe

import (
	"context"
	"time"
)

// PlayerSample is one player reported by a probe
type PlayerSample struct {
	Name string
	UUID string
}

// Status is the result of one successful probe
type Status struct {
	PlayersOnline int
	PlayersMax    int
	Players       []PlayerSample
	Version       string
	Description   string
	LatencyMs     float64
}

// Prober queries a remote server's live status. Implementations must treat
// every failure as transient: the scheduler records it as offline and retries
// on the next cycle.
type Prober interface {
	Probe(ctx context.Context, address string, timeout time.Duration) (*Status, error)
}

// ProberFunc adapts a function to the Prober interface
type ProberFunc func(ctx context.Context, address string, timeout time.Duration) (*Status, error)

func (f ProberFunc) Probe(ctx context.Context, address string, timeout time.Duration) (*Status, error) {
	return f(ctx, address, timeout)
}
