package transcript

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/zjrosen/scoutcon/internal/pubsub"
)

func TestWriter_AppendsStrippedLines(t *testing.T) {
	path := filepath.Join(t.TempDir(), "logs", "transcript.log")
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o750))
	require.NoError(t, os.WriteFile(path, []byte("previous\n"), 0o600))

	broker := pubsub.NewBrokerWithBuffer[string](16)
	ctx, cancel := context.WithCancel(context.Background())

	w, err := Start(ctx, path, broker, broker)
	require.NoError(t, err)

	broker.Publish(pubsub.LogLineEvent, "\x1b[31mred alert\x1b[0m")
	broker.Publish(pubsub.EventType("other"), "ignored")
	broker.Publish(pubsub.LogLineEvent, "plain")

	cancel()
	require.NoError(t, w.Close())
	broker.Close()

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	require.Equal(t, "previous\nred alert\nplain\n", string(data))
}

func TestWriter_BrokerCloseEndsConsumer(t *testing.T) {
	broker := pubsub.NewBroker[string]()
	w, err := Start(context.Background(), filepath.Join(t.TempDir(), "t.log"), nil, broker)
	require.NoError(t, err)

	broker.Close()
	require.NoError(t, w.Close())
}

func TestWriter_MergesDebugLogEntries(t *testing.T) {
	path := filepath.Join(t.TempDir(), "transcript.log")
	lines := pubsub.NewBrokerWithBuffer[string](16)
	entries := pubsub.NewBrokerWithBuffer[string](16)
	ctx, cancel := context.WithCancel(context.Background())

	w, err := Start(ctx, path, lines, lines, entries)
	require.NoError(t, err)

	lines.Publish(pubsub.LogLineEvent, "from library")
	require.Eventually(t, func() bool {
		data, _ := os.ReadFile(path)
		return string(data) == "from library\n"
	}, time.Second, time.Millisecond)

	entries.Publish(pubsub.LogEntryEvent, "2026-10-19T10:45:00 [INFO] [console] exit requested\n")

	require.Eventually(t, func() bool {
		data, _ := os.ReadFile(path)
		return strings.HasSuffix(string(data), "[console] exit requested\n")
	}, time.Second, time.Millisecond)

	cancel()
	require.NoError(t, w.Close())
}

func TestWriter_SkipsNilSource(t *testing.T) {
	none := pubsub.SubscriberFunc[string](func(context.Context) <-chan pubsub.Event[string] { return nil })
	lines := pubsub.NewBroker[string]()

	w, err := Start(context.Background(), filepath.Join(t.TempDir(), "t.log"), nil, lines, none)
	require.NoError(t, err)

	lines.Close()
	require.NoError(t, w.Close())
}
