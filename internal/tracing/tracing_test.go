package tracing

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"

	"github.com/zjrosen/scoutcon/internal/console"
)

func recorder(t *testing.T) (*tracetest.SpanRecorder, *sdktrace.TracerProvider) {
	t.Helper()
	sr := tracetest.NewSpanRecorder()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(sr))
	t.Cleanup(func() { _ = tp.Shutdown(context.Background()) })
	return sr, tp
}

func attrs(kvs []attribute.KeyValue) map[string]any {
	out := make(map[string]any, len(kvs))
	for _, kv := range kvs {
		out[string(kv.Key)] = kv.Value.AsInterface()
	}
	return out
}

func handler(res *console.Result, err error) console.Handler {
	return console.HandlerFunc(func(context.Context, *console.PendingCommand) (*console.Result, error) {
		return res, err
	})
}

func TestConfig_Validate(t *testing.T) {
	require.NoError(t, DefaultConfig().Validate())

	cfg := DefaultConfig()
	cfg.Enabled = true
	require.Error(t, cfg.Validate(), "file exporter needs a path")

	cfg.FilePath = "/tmp/traces.jsonl"
	require.NoError(t, cfg.Validate())

	cfg.Exporter = "zipkin"
	require.Error(t, cfg.Validate())

	cfg = DefaultConfig()
	cfg.SampleRate = 1.5
	require.Error(t, cfg.Validate())
}

func TestNewProvider_DisabledIsNoop(t *testing.T) {
	p, err := NewProvider(DefaultConfig())
	require.NoError(t, err)
	require.False(t, p.Enabled())
	require.NotNil(t, p.Tracer())
	require.NoError(t, p.Shutdown(context.Background()))
}

func TestNewProvider_FileExporterWritesRecords(t *testing.T) {
	path := filepath.Join(t.TempDir(), "traces", "spans.jsonl")
	p, err := NewProvider(Config{Enabled: true, Exporter: ExporterFile, FilePath: path, SampleRate: 1})
	require.NoError(t, err)
	require.True(t, p.Enabled())

	cmd, _ := console.ParseCommand("/reload ui")
	mw := NewMiddleware(p.Tracer(), "session-1")
	_, err = mw(handler(&console.Result{Success: true, Target: 12}, nil)).Handle(context.Background(), cmd)
	require.NoError(t, err)
	require.NoError(t, p.Shutdown(context.Background()))

	f, err := os.Open(path)
	require.NoError(t, err)
	defer f.Close()

	scanner := bufio.NewScanner(f)
	require.True(t, scanner.Scan())
	var rec SpanRecord
	require.NoError(t, json.Unmarshal(scanner.Bytes(), &rec))
	assert.Equal(t, SpanPrefixCommand+"/reload", rec.Name)
	assert.Equal(t, "OK", rec.Status)
	assert.Equal(t, cmd.ID, rec.Attributes[AttrCommandID])
	assert.InDelta(t, 12, rec.Attributes[AttrTargetPID], 0)
}

func TestNewProvider_UnsupportedExporter(t *testing.T) {
	_, err := NewProvider(Config{Enabled: true, Exporter: "zipkin"})
	require.Error(t, err)
}

func TestMiddleware_NilTracerPassesThrough(t *testing.T) {
	want := &console.Result{Success: true}
	cmd, _ := console.ParseCommand("x")
	got, err := NewMiddleware(nil, "")(handler(want, nil)).Handle(context.Background(), cmd)
	require.NoError(t, err)
	require.Same(t, want, got)
}

func TestMiddleware_RecordsOutcome(t *testing.T) {
	tests := []struct {
		name   string
		res    *console.Result
		err    error
		status codes.Code
		desc   string
	}{
		{name: "success", res: &console.Result{Success: true, Target: 7}, status: codes.Ok},
		{name: "handler error", err: errors.New("boom"), status: codes.Error, desc: "boom"},
		{name: "rejected with reason", res: &console.Result{Err: errors.New("RemoteInterop")}, status: codes.Error, desc: "RemoteInterop"},
		{name: "rejected without reason", res: &console.Result{}, status: codes.Error, desc: "command rejected"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sr, tp := recorder(t)
			cmd, _ := console.ParseCommand("SetProc 7")

			_, _ = NewMiddleware(tp.Tracer("test"), "sess")(handler(tt.res, tt.err)).Handle(context.Background(), cmd)

			spans := sr.Ended()
			require.Len(t, spans, 1)
			span := spans[0]
			require.Equal(t, "console.command.setproc", span.Name())
			require.Equal(t, tt.status, span.Status().Code)
			require.Equal(t, tt.desc, span.Status().Description)

			a := attrs(span.Attributes())
			require.Equal(t, "setproc", a[AttrCommandKeyword])
			require.Equal(t, "SetProc 7", a[AttrCommandInput])
			require.Equal(t, "sess", a[AttrSessionID])
			if tt.res != nil {
				require.Equal(t, int64(tt.res.Target), a[AttrTargetPID])
				require.Equal(t, tt.res.Target == 0, a[AttrBroadcast])
			}
		})
	}
}

func TestFileExporter_ShutdownTwice(t *testing.T) {
	e, err := NewFileExporter(filepath.Join(t.TempDir(), "t.jsonl"))
	require.NoError(t, err)
	require.NoError(t, e.Shutdown(context.Background()))
	require.NoError(t, e.Shutdown(context.Background()))
}
