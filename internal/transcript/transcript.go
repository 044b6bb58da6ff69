// Package transcript appends every drained library log line to a file and,
// in debug runs, the debug log entries alongside them.
package transcript

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/charmbracelet/x/ansi"

	"github.com/zjrosen/scoutcon/internal/log"
	"github.com/zjrosen/scoutcon/internal/pubsub"
)

// DropCounter reports deliveries lost to a full subscriber buffer.
type DropCounter interface {
	Dropped() uint64
}

// Writer consumes line and log-entry events and appends them, escape
// sequences stripped.
type Writer struct {
	file *os.File
	buf  *bufio.Writer
	done chan struct{}
}

// Start opens path and consumes every source until ctx ends or all
// subscriptions close. A source that returns a nil channel is skipped.
// drops may be nil.
func Start(ctx context.Context, path string, drops DropCounter, sources ...pubsub.Subscriber[string]) (*Writer, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o750); err != nil {
		return nil, fmt.Errorf("create transcript dir: %w", err)
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o600) //nolint:gosec // G304: configured transcript path
	if err != nil {
		return nil, fmt.Errorf("open transcript: %w", err)
	}

	w := &Writer{file: f, buf: bufio.NewWriter(f), done: make(chan struct{})}
	events := merge(ctx, sources)
	go w.consume(events, drops)
	log.Info(log.CatConsole, "transcript started", "path", path, "sources", len(sources))
	return w, nil
}

func merge(ctx context.Context, sources []pubsub.Subscriber[string]) <-chan pubsub.Event[string] {
	out := make(chan pubsub.Event[string], 64)
	var wg sync.WaitGroup
	for _, src := range sources {
		ch := src.Subscribe(ctx)
		if ch == nil {
			continue
		}
		wg.Add(1)
		go func() {
			defer wg.Done()
			for ev := range ch {
				out <- ev
			}
		}()
	}
	go func() {
		wg.Wait()
		close(out)
	}()
	return out
}

func (w *Writer) consume(events <-chan pubsub.Event[string], drops DropCounter) {
	defer close(w.done)

	var reported uint64
	for ev := range events {
		switch ev.Type {
		case pubsub.LogLineEvent:
			if _, err := w.buf.WriteString(ansi.Strip(ev.Payload) + "\n"); err != nil {
				log.ErrorErr(log.CatConsole, "write transcript", err)
				continue
			}
		case pubsub.LogEntryEvent:
			// Errors are not logged; the entry would loop back here.
			_, _ = w.buf.WriteString(strings.TrimRight(ev.Payload, "\n") + "\n")
		default:
			continue
		}
		// Flush once the burst is consumed.
		if len(events) == 0 {
			_ = w.buf.Flush()
		}
		if drops != nil {
			if n := drops.Dropped(); n > reported {
				log.Warn(log.CatConsole, "transcript lines dropped", "total", n)
				reported = n
			}
		}
	}
}

// Close waits for the subscriptions to end, then flushes and closes the
// file. Cancel the context given to Start (or close the brokers) first.
func (w *Writer) Close() error {
	<-w.done
	if err := w.buf.Flush(); err != nil {
		_ = w.file.Close()
		return err
	}
	return w.file.Close()
}
