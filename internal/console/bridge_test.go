package console

import (
	"context"
	"errors"
	"io"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// scriptConn feeds a fixed command sequence and records every written frame.
// ReadCommand returns io.EOF once the script is exhausted, which is how a
// client disconnect looks to the session.
type scriptConn struct {
	mu       sync.Mutex
	commands []string
	next     int
	frames   []Frame
}

func (c *scriptConn) ReadCommand() (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.next >= len(c.commands) {
		return "", io.EOF
	}
	command := c.commands[c.next]
	c.next++
	return command, nil
}

func (c *scriptConn) WriteFrame(frame Frame) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.frames = append(c.frames, frame)
	return nil
}

func (c *scriptConn) writtenFrames() []Frame {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]Frame(nil), c.frames...)
}

func echoRunner(response string, err error) CommandRunner {
	return RunnerFunc(func(ctx context.Context, command string) (string, error) {
		return response, err
	})
}

func TestSessionCommandOnlyMode(t *testing.T) {
	conn := &scriptConn{commands: []string{"list"}}
	session := NewSession(SessionConfig{Address: "mc.example.com"}, conn, echoRunner("§aThere are 0 of a max of 20 players online:", nil))

	err := session.Run(context.Background())
	assert.ErrorIs(t, err, io.EOF)
	assert.Equal(t, StateClosed, session.State())

	frames := conn.writtenFrames()
	require.Len(t, frames, 3)
	assert.Equal(t, FrameStatus, frames[0].Type)
	assert.Contains(t, frames[0].Data, "command-only")
	assert.Equal(t, Frame{Type: FrameCommandSent, Data: "list"}, frames[1])
	assert.Equal(t, FrameCommandReply, frames[2].Type)
	assert.Equal(t, "There are 0 of a max of 20 players online:", frames[2].Data)
}

func TestSessionCommandFailureIsReportedInBand(t *testing.T) {
	conn := &scriptConn{commands: []string{"first", "second"}}
	calls := 0
	runner := RunnerFunc(func(ctx context.Context, command string) (string, error) {
		calls++
		if command == "first" {
			return "", errors.New("connection refused")
		}
		return "done", nil
	})
	session := NewSession(SessionConfig{Address: "mc.example.com"}, conn, runner)

	err := session.Run(context.Background())
	assert.ErrorIs(t, err, io.EOF)

	// The failed command answers with an ERROR frame and the session keeps
	// serving the next command
	frames := conn.writtenFrames()
	require.Len(t, frames, 5)
	assert.Equal(t, Frame{Type: FrameCommandSent, Data: "first"}, frames[1])
	assert.Equal(t, FrameCommandReply, frames[2].Type)
	assert.True(t, strings.HasPrefix(frames[2].Data, "ERROR: "), frames[2].Data)
	assert.Equal(t, Frame{Type: FrameCommandSent, Data: "second"}, frames[3])
	assert.Equal(t, Frame{Type: FrameCommandReply, Data: "done"}, frames[4])
	assert.Equal(t, 2, calls)
}

func TestSessionSilentCommandGetsPlaceholder(t *testing.T) {
	conn := &scriptConn{commands: []string{"save-all"}}
	session := NewSession(SessionConfig{Address: "mc.example.com"}, conn, echoRunner("   ", nil))

	err := session.Run(context.Background())
	assert.ErrorIs(t, err, io.EOF)

	frames := conn.writtenFrames()
	require.Len(t, frames, 3)
	assert.Equal(t, "[no response from server]", frames[2].Data)
}

func TestSessionFallsBackWhenLogUnavailable(t *testing.T) {
	missing := filepath.Join(t.TempDir(), "no", "such", "latest.log")
	conn := &scriptConn{commands: []string{"list"}}
	session := NewSession(SessionConfig{
		Address:     "mc.example.com",
		LogPath:     missing,
		TailBacklog: 15,
	}, conn, echoRunner("ok", nil))

	err := session.Run(context.Background())
	assert.ErrorIs(t, err, io.EOF)

	frames := conn.writtenFrames()
	require.NotEmpty(t, frames)
	assert.Equal(t, FrameStatus, frames[0].Type)
	assert.True(t, strings.HasPrefix(frames[0].Data, "ERROR: "), frames[0].Data)

	// Commands still work without the log stream
	assert.Equal(t, Frame{Type: FrameCommandReply, Data: "ok"}, frames[len(frames)-1])
}

func TestSessionStopsWhenCancelledMidCommand(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Two queued commands: while the first executes, the reader goroutine is
	// blocked handing over the second. Cancelling in that window must still
	// end the session instead of deadlocking the teardown.
	conn := &scriptConn{commands: []string{"first", "second"}}
	runner := RunnerFunc(func(ctx context.Context, command string) (string, error) {
		time.Sleep(50 * time.Millisecond)
		cancel()
		return "done", nil
	})
	session := NewSession(SessionConfig{Address: "mc.example.com"}, conn, runner)

	done := make(chan error, 1)
	go func() { done <- session.Run(ctx) }()

	select {
	case err := <-done:
		assert.Error(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("session did not stop after cancellation")
	}
	assert.Equal(t, StateClosed, session.State())
}

func TestSessionStopsOnContextCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	// ReadCommand blocks forever so only the context can end the session
	blocked := make(chan struct{})
	conn := &blockingConn{unblock: blocked}
	session := NewSession(SessionConfig{Address: "mc.example.com"}, conn, echoRunner("", nil))

	err := session.Run(ctx)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, StateClosed, session.State())
	close(blocked)
}

type blockingConn struct {
	mu      sync.Mutex
	frames  []Frame
	unblock chan struct{}
}

func (c *blockingConn) ReadCommand() (string, error) {
	<-c.unblock
	return "", io.EOF
}

func (c *blockingConn) WriteFrame(frame Frame) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.frames = append(c.frames, frame)
	return nil
}
