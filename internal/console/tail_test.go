package console

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeLogFile(t *testing.T, lines int) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "latest.log")
	file, err := os.Create(path)
	require.NoError(t, err)
	defer file.Close()
	for i := 1; i <= lines; i++ {
		fmt.Fprintf(file, "line %d\n", i)
	}
	return path
}

func nextLine(t *testing.T, lines <-chan string) string {
	t.Helper()
	select {
	case line, ok := <-lines:
		require.True(t, ok, "line channel closed early")
		return line
	case <-time.After(3 * time.Second):
		t.Fatal("timed out waiting for a tailed line")
		return ""
	}
}

func TestTailReplaysBacklog(t *testing.T) {
	path := writeLogFile(t, 20)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	tail := NewTail(path, 15)
	require.NoError(t, tail.Start(ctx))

	for i := 6; i <= 20; i++ {
		assert.Equal(t, fmt.Sprintf("line %d", i), nextLine(t, tail.Lines()))
	}
}

func TestTailShortFileReplaysEverything(t *testing.T) {
	path := writeLogFile(t, 3)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	tail := NewTail(path, 15)
	require.NoError(t, tail.Start(ctx))

	for i := 1; i <= 3; i++ {
		assert.Equal(t, fmt.Sprintf("line %d", i), nextLine(t, tail.Lines()))
	}
}

func TestTailDeliversAppendedLines(t *testing.T) {
	path := writeLogFile(t, 2)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	tail := NewTail(path, 15)
	require.NoError(t, tail.Start(ctx))

	nextLine(t, tail.Lines())
	nextLine(t, tail.Lines())

	file, err := os.OpenFile(path, os.O_APPEND|os.O_WRONLY, 0)
	require.NoError(t, err)
	fmt.Fprintln(file, "appended 1")
	fmt.Fprintln(file, "appended 2")
	require.NoError(t, file.Close())

	assert.Equal(t, "appended 1", nextLine(t, tail.Lines()))
	assert.Equal(t, "appended 2", nextLine(t, tail.Lines()))
}

func TestTailClosesChannelOnCancel(t *testing.T) {
	path := writeLogFile(t, 1)
	ctx, cancel := context.WithCancel(context.Background())

	tail := NewTail(path, 15)
	require.NoError(t, tail.Start(ctx))

	nextLine(t, tail.Lines())
	cancel()

	select {
	case _, ok := <-tail.Lines():
		assert.False(t, ok, "expected the line channel to close")
	case <-time.After(3 * time.Second):
		t.Fatal("timed out waiting for the channel to close")
	}
}

func TestTailMissingFile(t *testing.T) {
	tail := NewTail(filepath.Join(t.TempDir(), "missing.log"), 15)
	err := tail.Start(context.Background())
	assert.Error(t, err)
}

func TestReadTrailingLines(t *testing.T) {
	path := writeLogFile(t, 5)
	file, err := os.Open(path)
	require.NoError(t, err)
	defer file.Close()

	lines, size, err := readTrailingLines(file, 3)
	require.NoError(t, err)
	assert.Equal(t, []string{"line 3", "line 4", "line 5"}, lines)
	assert.Greater(t, size, int64(0))
}
