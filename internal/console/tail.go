package console

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/fsnotify/fsnotify"

	"github.com/blockspy/blockspy/pkg/logger"
)

// Tail follows a log file and pushes appended lines to a channel. It reacts
// to filesystem change notifications instead of polling, and guarantees the
// watch handle is released exactly once no matter how the tail ends.
type Tail struct {
	path    string
	backlog int

	lines     chan string
	offset    int64
	remainder string

	closeOnce sync.Once
	watcher   *fsnotify.Watcher
}

// NewTail prepares a tail of the given file. backlog is how many trailing
// lines of existing content are replayed when the tail starts.
func NewTail(path string, backlog int) *Tail {
	return &Tail{
		path:    path,
		backlog: backlog,
		lines:   make(chan string, 64),
	}
}

// Lines returns the channel tailed lines are delivered on. It is closed when
// the tail stops.
func (t *Tail) Lines() <-chan string {
	return t.lines
}

// Start begins tailing until ctx is cancelled. It returns an error only when
// the file cannot be opened or watched; after a successful start all delivery
// happens on the Lines channel.
func (t *Tail) Start(ctx context.Context) error {
	file, err := os.Open(t.path)
	if err != nil {
		return fmt.Errorf("cannot open log file: %w", err)
	}

	backlog, size, err := readTrailingLines(file, t.backlog)
	file.Close()
	if err != nil {
		return fmt.Errorf("cannot read log file: %w", err)
	}
	t.offset = size

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("cannot create file watcher: %w", err)
	}
	// Watch the directory so the handle survives log rotation
	if err := watcher.Add(filepath.Dir(t.path)); err != nil {
		watcher.Close()
		return fmt.Errorf("cannot watch log directory: %w", err)
	}
	t.watcher = watcher

	go t.run(ctx, backlog)
	return nil
}

func (t *Tail) run(ctx context.Context, backlog []string) {
	defer t.release()
	defer close(t.lines)

	for _, line := range backlog {
		select {
		case t.lines <- line:
		case <-ctx.Done():
			return
		}
	}

	for {
		select {
		case <-ctx.Done():
			return

		case event, ok := <-t.watcher.Events:
			if !ok {
				return
			}
			if event.Name != t.path || !event.Has(fsnotify.Write) {
				continue
			}
			t.readAppended(ctx)

		case err, ok := <-t.watcher.Errors:
			if !ok {
				return
			}
			logger.Warn("Log watcher error", map[string]interface{}{
				"path":  t.path,
				"error": err.Error(),
			})
		}
	}
}

// readAppended reads only the bytes written since the last read and emits
// each completed line
func (t *Tail) readAppended(ctx context.Context) {
	file, err := os.Open(t.path)
	if err != nil {
		return
	}
	defer file.Close()

	info, err := file.Stat()
	if err != nil {
		return
	}
	// The file was rotated or truncated: start over from the beginning
	if info.Size() < t.offset {
		t.offset = 0
		t.remainder = ""
	}

	if _, err := file.Seek(t.offset, io.SeekStart); err != nil {
		return
	}

	data, err := io.ReadAll(file)
	if err != nil && len(data) == 0 {
		return
	}
	t.offset += int64(len(data))

	chunk := t.remainder + string(data)
	lines := strings.Split(chunk, "\n")
	// The last element is an unterminated partial line; keep it for later
	t.remainder = lines[len(lines)-1]

	for _, line := range lines[:len(lines)-1] {
		line = strings.TrimRight(line, "\r")
		if line == "" {
			continue
		}
		select {
		case t.lines <- line:
		case <-ctx.Done():
			return
		}
	}
}

// release closes the watch handle exactly once
func (t *Tail) release() {
	t.closeOnce.Do(func() {
		if t.watcher != nil {
			t.watcher.Close()
		}
	})
}

// readTrailingLines returns up to n trailing lines of the file and its size
func readTrailingLines(file *os.File, n int) ([]string, int64, error) {
	var lines []string
	scanner := bufio.NewScanner(file)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		lines = append(lines, scanner.Text())
		if len(lines) > n {
			lines = lines[1:]
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, 0, err
	}

	size, err := file.Seek(0, io.SeekEnd)
	if err != nil {
		return nil, 0, err
	}
	return lines, size, nil
}
