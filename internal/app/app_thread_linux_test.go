package app

import (
	"fmt"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"
	"golang.org/x/sys/unix"

	"github.com/zjrosen/scoutcon/internal/scout"
	"github.com/zjrosen/scoutcon/internal/scout/scouttest"
	"github.com/zjrosen/scoutcon/internal/window"
)

// threadFacility records the OS thread of every thread-sensitive call.
type threadFacility struct {
	*scouttest.Fake

	mu      sync.Mutex
	threads map[int]int
}

func (f *threadFacility) note() {
	tid := unix.Gettid()
	f.mu.Lock()
	f.threads[tid]++
	f.mu.Unlock()
}

func (f *threadFacility) Init() bool { f.note(); return f.Fake.Init() }

func (f *threadFacility) LastError() scout.ErrorCode { f.note(); return f.Fake.LastError() }

func (f *threadFacility) AttachProcess(pid int) scout.Context {
	f.note()
	return f.Fake.AttachProcess(pid)
}

func (f *threadFacility) SetActiveContext(ctx scout.Context) {
	f.note()
	f.Fake.SetActiveContext(ctx)
}

func (f *threadFacility) ExecuteCommand(command string) bool {
	f.note()
	return f.Fake.ExecuteCommand(command)
}

func (f *threadFacility) FetchLogEntries(buf []byte) int {
	f.note()
	return f.Fake.FetchLogEntries(buf)
}

func TestRun_LibraryCallsStayOnOneThread(t *testing.T) {
	var input strings.Builder
	for i := 0; i < 50; i++ {
		fmt.Fprintf(&input, "/cmd %d\n", i)
	}
	input.WriteString("setproc 4242\n/last\nexit\n")

	f := newFixture(t, input.String(), window.Static{{PID: 4242, Title: window.DefaultTitle}})
	tf := &threadFacility{Fake: f.facility, threads: map[int]int{}}
	// Blocks the calling thread so the scheduler has reason to move the
	// goroutine elsewhere.
	f.facility.OnExecute = func(string) string {
		ts := unix.NsecToTimespec(2_000_000)
		_ = unix.Nanosleep(&ts, nil)
		return ""
	}
	f.opts.OpenFacility = func(string, int) (scout.Facility, error) { return tf, nil }

	require.NoError(t, f.run(t))
	require.Len(t, f.facility.Commands(), 51)

	tf.mu.Lock()
	defer tf.mu.Unlock()
	require.Len(t, tf.threads, 1, "library calls ran on %d OS threads", len(tf.threads))
}
