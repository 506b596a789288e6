package scancli

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/blackducksoftware/cli-extension-hub-scan/internal/buildlog"
)

const defaultPollInterval = 500 * time.Millisecond

// Tailer follows the CLI output file while the scan runs and echoes the
// interesting lines to the build console.
type Tailer struct {
	console buildlog.Logger
	poll    time.Duration

	mu     sync.Mutex
	echoed strings.Builder
}

func NewTailer(console buildlog.Logger) *Tailer {
	return &Tailer{console: console, poll: defaultPollInterval}
}

// Echoed returns every line the tailer has sent to the console.
func (t *Tailer) Echoed() string {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.echoed.String()
}

// Follow reads path until done is closed, then drains what is left. Write
// events wake it up early; the poll interval covers file systems that do not
// deliver them.
func (t *Tailer) Follow(ctx context.Context, path string, done <-chan struct{}) error {
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("could not read the CLI output file: %w", err)
	}
	defer f.Close()

	var events <-chan fsnotify.Event
	var watchErrs <-chan error
	if watcher, werr := fsnotify.NewWatcher(); werr == nil {
		defer watcher.Close()
		if werr = watcher.Add(path); werr == nil {
			events, watchErrs = watcher.Events, watcher.Errors
		}
	}

	ticker := time.NewTicker(t.poll)
	defer ticker.Stop()

	r := bufio.NewReader(f)
	var partial string
	for {
		partial, err = t.drain(ctx, r, partial)
		if err != nil {
			return err
		}

		select {
		case <-ctx.Done():
			return nil
		case <-done:
			partial, err = t.drain(ctx, r, partial)
			if err != nil {
				return err
			}
			if partial != "" {
				t.echo(ctx, partial)
			}
			return nil
		case _, ok := <-events:
			if !ok {
				events = nil
			}
		case werr, ok := <-watchErrs:
			if !ok {
				watchErrs = nil
				continue
			}
			t.console.Debug(ctx, "CLI output watcher failed", buildlog.Err(werr))
		case <-ticker.C:
		}
	}
}

// drain echoes every complete line available and returns the trailing
// partial line.
func (t *Tailer) drain(ctx context.Context, r *bufio.Reader, partial string) (string, error) {
	for {
		chunk, err := r.ReadString('\n')
		partial += chunk
		if errors.Is(err, io.EOF) {
			return partial, nil
		}
		if err != nil {
			return partial, fmt.Errorf("could not read the CLI output file: %w", err)
		}
		t.echo(ctx, strings.TrimRight(partial, "\r\n"))
		partial = ""
	}
}

func (t *Tailer) echo(ctx context.Context, line string) {
	switch {
	case strings.Contains(line, "Exception"), strings.Contains(line, "ERROR:"):
		t.console.Error(ctx, line)
	case strings.Contains(line, "WARN:"):
		t.console.Warn(ctx, line)
	case strings.Contains(line, "INFO:"), strings.Contains(line, finishedMarker):
		t.console.Info(ctx, line)
	default:
		return
	}

	t.mu.Lock()
	t.echoed.WriteString(line)
	t.echoed.WriteByte('\n')
	t.mu.Unlock()
}
