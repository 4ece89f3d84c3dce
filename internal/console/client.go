// Package console implements the live console bridge: the remote-command
// capability, the log-file tail and the per-session state machine that
// multiplexes both over one duplex connection.
package console

import (
	"context"
	"errors"
	"fmt"
	"net"
	"time"

	"github.com/gorcon/rcon"
)

// Error taxonomy for console connections. Auth failures are surfaced
// distinctly from unreachable ports and are never retried automatically.
var (
	ErrAuth       = errors.New("console authentication failed")
	ErrConnection = errors.New("console connection failed")
)

// Client is an authenticated remote-console session
type Client struct {
	conn *rcon.Conn
}

// Dial opens a remote-console session. The returned error wraps ErrAuth when
// the credential was rejected and ErrConnection for transport failures.
func Dial(host string, port int, password string, timeout time.Duration) (*Client, error) {
	conn, err := rcon.Dial(
		fmt.Sprintf("%s:%d", host, port),
		password,
		rcon.SetDialTimeout(timeout),
		rcon.SetDeadline(timeout),
	)
	if err != nil {
		return nil, classifyDialError(err)
	}
	return &Client{conn: conn}, nil
}

// Send executes one command and returns the raw response text
func (c *Client) Send(command string) (string, error) {
	response, err := c.conn.Execute(command)
	if err != nil {
		return "", fmt.Errorf("command failed: %w", err)
	}
	return response, nil
}

// Close terminates the session
func (c *Client) Close() error {
	return c.conn.Close()
}

// Test validates a console configuration before it is saved: first a plain
// TCP dial to tell a closed port apart from a bad password, then a full
// authenticated handshake with a harmless command.
func Test(host string, port int, password string, timeout time.Duration) error {
	addr := fmt.Sprintf("%s:%d", host, port)

	tcpConn, err := net.DialTimeout("tcp", addr, timeout)
	if err != nil {
		return fmt.Errorf("%w: port %d unreachable or firewalled", ErrConnection, port)
	}
	tcpConn.Close()

	client, err := Dial(host, port, password, timeout)
	if err != nil {
		return err
	}
	defer client.Close()

	if _, err := client.Send("list"); err != nil {
		return fmt.Errorf("%w: %v", ErrConnection, err)
	}
	return nil
}

func classifyDialError(err error) error {
	if errors.Is(err, rcon.ErrAuthFailed) {
		return fmt.Errorf("%w: %v", ErrAuth, err)
	}
	return fmt.Errorf("%w: %v", ErrConnection, err)
}

// CommandRunner executes one console command against a server. The bridge
// uses it so command transport stays swappable in tests.
type CommandRunner interface {
	Run(ctx context.Context, command string) (string, error)
}

// RunnerFunc adapts a function to the CommandRunner interface
type RunnerFunc func(ctx context.Context, command string) (string, error)

func (f RunnerFunc) Run(ctx context.Context, command string) (string, error) {
	return f(ctx, command)
}
