package console

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"

	"github.com/zjrosen/scoutcon/internal/pubsub"
	"github.com/zjrosen/scoutcon/internal/scout"
	"github.com/zjrosen/scoutcon/internal/scout/scouttest"
	"github.com/zjrosen/scoutcon/internal/session"
)

type fakeScreen struct{ clears int }

func (s *fakeScreen) Clear() { s.clears++ }

type harness struct {
	facility *scouttest.Fake
	sessions *session.Manager
	screen   *fakeScreen
	out      *bytes.Buffer
	console  *Console
	dispatch *Dispatcher
	gate     *Gate
}

func newHarness(t *testing.T, middlewares ...Middleware) *harness {
	t.Helper()
	h := &harness{
		facility: scouttest.New(),
		screen:   &fakeScreen{},
		out:      &bytes.Buffer{},
		gate:     &Gate{},
	}
	out := NewSyncWriter(h.out)
	h.sessions = session.NewManager(h.facility, nil, io.Discard, io.Discard)
	h.dispatch = NewDefaultDispatcher(Builtins{
		Facility: h.facility,
		Sessions: h.sessions,
		Screen:   h.screen,
		Out:      out,
	}, middlewares...)
	h.console = New(Config{
		Dispatcher:   h.dispatch,
		Drainer:      NewDrainer(h.facility, out, nil, 0),
		Out:          out,
		TickInterval: time.Millisecond,
		Gate:         h.gate,
	})
	return h
}

func (h *harness) run(t *testing.T, input string) {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	require.NoError(t, h.console.Run(ctx, strings.NewReader(input)))
}

func TestParseCommand(t *testing.T) {
	tests := []struct {
		line    string
		ok      bool
		keyword string
		args    string
	}{
		{line: "", ok: false},
		{line: "   \t ", ok: false},
		{line: "version", ok: true, keyword: "version"},
		{line: "SetProc 42", ok: true, keyword: "setproc", args: " 42"},
		{line: "  EXIT  ", ok: true, keyword: "exit", args: "  "},
		{line: "/dump Foo Bar", ok: true, keyword: "/dump", args: " Foo Bar"},
	}
	for _, tt := range tests {
		t.Run(tt.line, func(t *testing.T) {
			cmd, ok := ParseCommand(tt.line)
			require.Equal(t, tt.ok, ok)
			if !ok {
				return
			}
			require.Equal(t, tt.keyword, cmd.Keyword)
			require.Equal(t, tt.args, cmd.Args)
			require.Equal(t, tt.line, cmd.Input)
			require.NotEmpty(t, cmd.ID)
		})
	}
}

func TestSlot_PublishWhilePopulated(t *testing.T) {
	var s Slot
	a, _ := ParseCommand("a")
	b, _ := ParseCommand("b")

	done, err := s.Publish(a)
	require.NoError(t, err)
	require.Equal(t, SlotPopulated, s.State())

	_, err = s.Publish(b)
	require.ErrorIs(t, err, ErrSlotBusy)

	var seen *PendingCommand
	require.True(t, s.Cycle(func(cmd *PendingCommand) { seen = cmd }))
	require.Same(t, a, seen)
	require.Equal(t, SlotEmpty, s.State())

	select {
	case <-done:
	default:
		require.Fail(t, "completion not signalled")
	}

	require.False(t, s.Cycle(func(cmd *PendingCommand) { require.Nil(t, cmd) }))
}

func TestSlot_CompletionAfterCallback(t *testing.T) {
	var s Slot
	cmd, _ := ParseCommand("x")
	done, err := s.Publish(cmd)
	require.NoError(t, err)

	s.Cycle(func(*PendingCommand) {
		select {
		case <-done:
			require.Fail(t, "completed before processing finished")
		default:
		}
	})
	<-done
}

func TestSlot_ConcurrentPublishersAtMostOne(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		n := rapid.IntRange(2, 16).Draw(t, "publishers")
		var s Slot
		var wg sync.WaitGroup
		var mu sync.Mutex
		accepted := 0
		for i := 0; i < n; i++ {
			wg.Add(1)
			go func(i int) {
				defer wg.Done()
				cmd, _ := ParseCommand(fmt.Sprintf("cmd%d", i))
				if _, err := s.Publish(cmd); err == nil {
					mu.Lock()
					accepted++
					mu.Unlock()
				}
			}(i)
		}
		wg.Wait()
		if accepted != 1 {
			t.Fatalf("accepted %d commands, want 1", accepted)
		}
	})
}

func TestDispatcher_MiddlewareOrder(t *testing.T) {
	var trail []string
	mw := func(name string) Middleware {
		return func(next Handler) Handler {
			return HandlerFunc(func(ctx context.Context, cmd *PendingCommand) (*Result, error) {
				trail = append(trail, name+">")
				res, err := next.Handle(ctx, cmd)
				trail = append(trail, "<"+name)
				return res, err
			})
		}
	}
	d := NewDispatcher(HandlerFunc(func(context.Context, *PendingCommand) (*Result, error) {
		trail = append(trail, "fallback")
		return &Result{Success: true}, nil
	}), mw("a"))
	d.Use(mw("b"))
	d.RegisterHandler("ping", HandlerFunc(func(context.Context, *PendingCommand) (*Result, error) {
		trail = append(trail, "ping")
		return &Result{Success: true}, nil
	}))

	cmd, _ := ParseCommand("PING")
	_, err := d.Dispatch(context.Background(), cmd)
	require.NoError(t, err)
	require.Equal(t, []string{"a>", "b>", "ping", "<b", "<a"}, trail)

	trail = nil
	_, err = d.Forward(context.Background(), cmd)
	require.NoError(t, err)
	require.Equal(t, []string{"a>", "b>", "fallback", "<b", "<a"}, trail)
}

func TestLoggingMiddleware_PassesThrough(t *testing.T) {
	boom := errors.New("boom")
	h := NewLoggingMiddleware()(HandlerFunc(func(context.Context, *PendingCommand) (*Result, error) {
		return nil, boom
	}))
	cmd, _ := ParseCommand("x")
	_, err := h.Handle(context.Background(), cmd)
	require.ErrorIs(t, err, boom)
}

func TestBuiltins_Forward(t *testing.T) {
	h := newHarness(t)
	h.facility.FailCommands["/bad"] = true

	cmd, _ := ParseCommand("/print Hello World")
	res, err := h.dispatch.Dispatch(context.Background(), cmd)
	require.NoError(t, err)
	require.True(t, res.Success)

	cmd, _ = ParseCommand("/bad")
	res, err = h.dispatch.Dispatch(context.Background(), cmd)
	require.NoError(t, err)
	require.False(t, res.Success)
	require.ErrorIs(t, res.Err, &scout.Error{Code: scout.RemoteInterop})

	require.Equal(t, []string{"/print Hello World", "/bad"}, h.facility.Commands())
	require.Empty(t, h.out.String())
}

func TestBuiltins_SetProc(t *testing.T) {
	h := newHarness(t)
	h.sessions.AttachAll([]int{100, 200})
	ctx := context.Background()

	dispatch := func(line string) *Result {
		cmd, _ := ParseCommand(line)
		res, err := h.dispatch.Dispatch(ctx, cmd)
		require.NoError(t, err)
		return res
	}

	res := dispatch("setproc 200")
	require.True(t, res.Success)
	require.Equal(t, 200, res.Target)
	require.Equal(t, h.facility.ContextForPid(200), h.facility.Active())
	require.Contains(t, h.out.String(), "Setting process context to 200.\n")

	res = dispatch("setproc 999")
	require.False(t, res.Success)
	require.ErrorIs(t, res.Err, session.ErrNotAttached)
	require.Equal(t, scout.NoContext, h.facility.Active())

	dispatch("setproc 100")
	res = dispatch("setproc none")
	require.True(t, res.Success)
	require.Equal(t, scout.NoContext, h.facility.Active())
	require.Contains(t, h.out.String(), "No pid given. Setting context to NULL.\n")

	dispatch("setproc 100")
	dispatch("SETPROC")
	require.Equal(t, scout.NoContext, h.facility.Active())

	require.Empty(t, h.facility.Commands(), "built-ins never reach the library as commands")
}

func TestBuiltins_Clear(t *testing.T) {
	for _, kw := range []string{"cls", "clear", "CLS"} {
		t.Run(kw, func(t *testing.T) {
			h := newHarness(t)
			cmd, _ := ParseCommand(kw)
			res, err := h.dispatch.Dispatch(context.Background(), cmd)
			require.NoError(t, err)
			require.True(t, res.Success)
			require.Equal(t, []string{"clear"}, h.facility.Commands())
			require.Equal(t, 1, h.screen.clears)
		})
	}
}

func TestTermScreen_Clear(t *testing.T) {
	var buf bytes.Buffer
	NewTermScreen(&buf).Clear()
	require.Equal(t, "\x1b[2J\x1b[1;1H", buf.String())
}

func TestDrainer_SplitsLines(t *testing.T) {
	f := scouttest.New()
	var out bytes.Buffer
	broker := pubsub.NewBroker[string]()
	defer broker.Close()
	lines := broker.Subscribe(context.Background())

	d := NewDrainer(f, &out, broker, 0)
	require.Equal(t, 0, d.Drain())

	f.QueueLog("first\r\nsecond\n\nthird")
	require.Equal(t, 4, d.Drain())
	require.Equal(t, "first\nsecond\n\nthird\n", out.String())

	for _, want := range []string{"first", "second", "", "third"} {
		ev := <-lines
		require.Equal(t, pubsub.LogLineEvent, ev.Type)
		require.Equal(t, want, ev.Payload)
	}
}

func TestDrainer_RespectsBufferSize(t *testing.T) {
	f := scouttest.New()
	var out bytes.Buffer
	d := NewDrainer(f, &out, nil, 4)

	f.QueueLog("abcdef\n")
	require.Equal(t, 1, d.Drain())
	require.Equal(t, 1, d.Drain())
	require.Equal(t, "abcd\nef\n", out.String())
}

func TestConsole_RunsCommandsUntilExit(t *testing.T) {
	h := newHarness(t)
	h.facility.OnExecute = func(cmd string) string { return "ran " + cmd + "\n" }

	h.run(t, "version\n\n  \nsetproc\nEXIT\nnever\n")

	require.Equal(t, []string{"version"}, h.facility.Commands())
	require.Equal(t,
		"> ran version\n> > > No pid given. Setting context to NULL.\n> ",
		h.out.String())
	require.Equal(t, SlotEmpty, h.console.Slot().State())
}

func TestConsole_EOFEndsReader(t *testing.T) {
	h := newHarness(t)
	h.run(t, "a\nb")
	require.Equal(t, []string{"a", "b"}, h.facility.Commands())
}

func TestConsole_FinalDrainAfterExit(t *testing.T) {
	h := newHarness(t)
	h.facility.QueueLog("late line\n")
	h.run(t, "exit\n")
	require.Contains(t, h.out.String(), "late line\n")
}

func TestConsole_CancelWhileReaderBlocked(t *testing.T) {
	h := newHarness(t)
	pr, pw := io.Pipe()
	defer pw.Close()

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- h.console.Run(ctx, pr) }()

	_, err := pw.Write([]byte("one\n"))
	require.NoError(t, err)
	require.Eventually(t, func() bool { return len(h.facility.Commands()) == 1 },
		2*time.Second, time.Millisecond)

	cancel()
	select {
	case err := <-done:
		require.ErrorIs(t, err, context.Canceled)
	case <-time.After(2 * time.Second):
		require.Fail(t, "console ignored cancellation")
	}
}

func TestConsole_EachCommandCompletesAfterItsOwnDrain(t *testing.T) {
	rapid.Check(t, func(rt *rapid.T) {
		cmds := rapid.SliceOfN(rapid.StringMatching(`[a-z/]{1,8}( [a-z0-9]{1,4})?`), 0, 8).Draw(rt, "commands")

		var kept []string
		for _, c := range cmds {
			kw, _ := ParseCommand(c)
			switch kw.Keyword {
			case "exit", "setproc", "cls", "clear":
				continue
			}
			kept = append(kept, c)
		}

		h := newHarness(t)
		h.facility.OnExecute = func(cmd string) string { return "out:" + cmd + "\n" }
		h.run(t, strings.Join(append(kept, "exit"), "\n")+"\n")

		want := "> "
		for _, c := range kept {
			want += "out:" + c + "\n> "
		}
		if got := h.out.String(); got != want {
			rt.Fatalf("output mismatch\n got %q\nwant %q", got, want)
		}
		if got := h.facility.Commands(); len(got) != len(kept) {
			rt.Fatalf("executed %d commands, want %d", len(got), len(kept))
		}
	})
}

func TestGate_CloseWaitsForRunningCall(t *testing.T) {
	g := &Gate{}
	inCall := make(chan struct{})
	release := make(chan struct{})
	go g.Do(func() {
		close(inCall)
		<-release
	})
	<-inCall

	closed := make(chan bool, 1)
	go func() { closed <- g.Close(func() bool { return true }) }()

	select {
	case <-closed:
		require.Fail(t, "Close returned while a call was running")
	case <-time.After(20 * time.Millisecond):
	}
	close(release)
	require.True(t, <-closed)
	require.True(t, g.Closed())
	require.False(t, g.Do(func() { require.Fail(t, "ran after close") }))
}

func TestGate_CloseAlwaysCloses(t *testing.T) {
	g := &Gate{}
	require.False(t, g.Close(func() bool { return false }))
	require.True(t, g.Closed())
}

func TestConsole_ClosedGateSkipsLibraryOnCancel(t *testing.T) {
	h := newHarness(t)
	pr, pw := io.Pipe()
	defer pw.Close()

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- h.console.Run(ctx, pr) }()

	_, err := pw.Write([]byte("one\n"))
	require.NoError(t, err)
	require.Eventually(t, func() bool { return len(h.facility.Commands()) == 1 },
		2*time.Second, time.Millisecond)

	require.True(t, h.gate.Close(h.facility.Shutdown))
	h.facility.QueueLog("after shutdown\n")
	cancel()

	select {
	case err := <-done:
		require.ErrorIs(t, err, context.Canceled)
	case <-time.After(2 * time.Second):
		require.Fail(t, "console ignored cancellation")
	}
	require.Zero(t, h.facility.CallsAfterShutdown())
	require.NotContains(t, h.out.String(), "after shutdown")
}

func TestConsole_ClosedGateCompletesPendingCommand(t *testing.T) {
	h := newHarness(t)
	h.gate.Close(func() bool { return true })

	cmd, ok := ParseCommand("/who")
	require.True(t, ok)
	done, err := h.console.Slot().Publish(cmd)
	require.NoError(t, err)

	require.True(t, h.console.loop.Cycle(context.Background()))
	require.Empty(t, h.facility.Commands())
	require.Zero(t, h.facility.Fetches())
	select {
	case <-done:
	default:
		require.Fail(t, "command not completed")
	}
}
