package console

import (
	"context"
	"strings"
	"sync"

	"github.com/blockspy/blockspy/internal/minecraft"
	"github.com/blockspy/blockspy/pkg/logger"
)

// Frame is one outbound console message
type Frame struct {
	Type string `json:"type"`
	Data string `json:"data"`
}

// Frame types of the console session protocol
const (
	FrameLog          = "log"
	FrameStatus       = "status"
	FrameCommandSent  = "rcon_sent"
	FrameCommandReply = "rcon_response"
)

// SessionState tracks where a console session is in its lifecycle
type SessionState int

const (
	StateConnecting SessionState = iota
	StateStreaming
	StateClosed
)

// Conn is the duplex transport a session runs over. ReadCommand blocks until
// the client sends the next raw command line; it returns an error when the
// client disconnects.
type Conn interface {
	ReadCommand() (string, error)
	WriteFrame(Frame) error
}

// SessionConfig describes one console session
type SessionConfig struct {
	Address string
	// LogPath is the file to tail; empty means command-only mode
	LogPath string
	// TailBacklog is how many existing lines are replayed on connect
	TailBacklog int
}

// Session bridges a live log tail and interactive command execution over one
// connection. All writes to the connection happen on the Run goroutine; a
// separate reader goroutine only feeds inbound commands into a channel.
type Session struct {
	cfg    SessionConfig
	conn   Conn
	runner CommandRunner

	mu    sync.Mutex
	state SessionState
}

// NewSession creates a console session over the given transport
func NewSession(cfg SessionConfig, conn Conn, runner CommandRunner) *Session {
	return &Session{
		cfg:    cfg,
		conn:   conn,
		runner: runner,
		state:  StateConnecting,
	}
}

// State returns the session's current lifecycle state
func (s *Session) State() SessionState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

func (s *Session) setState(state SessionState) {
	s.mu.Lock()
	s.state = state
	s.mu.Unlock()
}

// Run drives the session until the client disconnects or ctx is cancelled.
// The tail task and the command loop are independently cancellable; both are
// joined before Run returns, and the file watch is released exactly once.
func (s *Session) Run(ctx context.Context) error {
	defer s.setState(StateClosed)

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	var tailLines <-chan string
	if s.cfg.LogPath != "" {
		tail := NewTail(s.cfg.LogPath, s.cfg.TailBacklog)
		if err := tail.Start(ctx); err != nil {
			logger.Warn("Log tail unavailable, falling back to command-only mode", map[string]interface{}{
				"address": s.cfg.Address,
				"error":   err.Error(),
			})
			if werr := s.conn.WriteFrame(Frame{Type: FrameStatus, Data: "ERROR: " + err.Error()}); werr != nil {
				return werr
			}
		} else {
			tailLines = tail.Lines()
			if err := s.conn.WriteFrame(Frame{Type: FrameStatus, Data: "--- Connected to live console ---"}); err != nil {
				return err
			}
		}
	} else {
		if err := s.conn.WriteFrame(Frame{Type: FrameStatus, Data: "Connected in command-only mode. Live log unavailable."}); err != nil {
			return err
		}
	}

	// Reader goroutine: one command at a time, in receipt order
	commands := make(chan string)
	readErr := make(chan error, 1)
	go func() {
		defer close(commands)
		for {
			command, err := s.conn.ReadCommand()
			if err != nil {
				readErr <- err
				return
			}
			select {
			case commands <- command:
			case <-ctx.Done():
				// Report the cancellation so the closed-commands path in
				// Run never blocks waiting for an error that was not sent
				readErr <- ctx.Err()
				return
			}
		}
	}()

	s.setState(StateStreaming)

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()

		case line, ok := <-tailLines:
			if !ok {
				tailLines = nil
				continue
			}
			if err := s.conn.WriteFrame(Frame{Type: FrameLog, Data: line}); err != nil {
				return err
			}

		case command, ok := <-commands:
			if !ok {
				select {
				case err := <-readErr:
					return err
				case <-ctx.Done():
					return ctx.Err()
				}
			}
			if err := s.handleCommand(ctx, command); err != nil {
				return err
			}
		}
	}
}

// handleCommand acknowledges, executes and answers one command. Execution
// failures are reported in-band and never terminate the session; only a
// transport write error is returned.
func (s *Session) handleCommand(ctx context.Context, command string) error {
	if err := s.conn.WriteFrame(Frame{Type: FrameCommandSent, Data: command}); err != nil {
		return err
	}

	response, err := s.runner.Run(ctx, command)
	if err != nil {
		logger.Error("Console command failed", err, map[string]interface{}{
			"address": s.cfg.Address,
			"command": command,
		})
		return s.conn.WriteFrame(Frame{Type: FrameCommandReply, Data: "ERROR: " + err.Error()})
	}

	response = minecraft.StripColorCodes(response)
	if strings.TrimSpace(response) == "" {
		response = "[no response from server]"
	}
	return s.conn.WriteFrame(Frame{Type: FrameCommandReply, Data: response})
}
