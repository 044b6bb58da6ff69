package window

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"
)

type countingEnum struct {
	windows Static
	visited int
}

func (c *countingEnum) Windows(visit func(Window) bool) error {
	return c.windows.Windows(func(w Window) bool {
		c.visited++
		return visit(w)
	})
}

type failingEnum struct{ err error }

func (f failingEnum) Windows(func(Window) bool) error { return f.err }

func TestNewLocator_DefaultTitle(t *testing.T) {
	require.Equal(t, DefaultTitle, NewLocator(Static{}, "").Title())
	require.Equal(t, "Other", NewLocator(Static{}, "Other").Title())
}

func TestCollect_MatchesExactTitleAndDeduplicates(t *testing.T) {
	l := NewLocator(Static{
		{Handle: 1, PID: 100, Title: DefaultTitle},
		{Handle: 2, PID: 200, Title: "World of Warcraft "},
		{Handle: 3, PID: 300, Title: "world of warcraft"},
		{Handle: 4, PID: 100, Title: DefaultTitle},
		{Handle: 5, PID: 400, Title: DefaultTitle},
	}, "")

	pids, err := l.Collect()
	require.NoError(t, err)
	require.Equal(t, []int{100, 400}, pids)
}

func TestCollect_NoWindows(t *testing.T) {
	pids, err := NewLocator(Static{}, "").Collect()
	require.NoError(t, err)
	require.Empty(t, pids)
}

func TestCollect_PropagatesEnumeratorError(t *testing.T) {
	boom := errors.New("boom")
	_, err := NewLocator(failingEnum{err: boom}, "").Collect()
	require.ErrorIs(t, err, boom)
}

func TestProbe_StopsAtFirstMatch(t *testing.T) {
	enum := &countingEnum{windows: Static{
		{PID: 1, Title: "Launcher"},
		{PID: 42, Title: "Loading"},
		{PID: 42, Title: DefaultTitle},
		{PID: 43, Title: DefaultTitle},
	}}
	l := NewLocator(enum, "")

	p := &Probe{PID: 42}
	require.NoError(t, l.Probe(p))
	require.True(t, p.Found)
	require.Equal(t, 3, enum.visited)
}

func TestProbe_WrongTitleOrPid(t *testing.T) {
	l := NewLocator(Static{
		{PID: 42, Title: "Loading"},
		{PID: 43, Title: DefaultTitle},
	}, "")

	p := &Probe{PID: 42}
	require.NoError(t, l.Probe(p))
	require.False(t, p.Found)
}

func TestCollect_Properties(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		titles := []string{DefaultTitle, "Battle.net", ""}
		n := rapid.IntRange(0, 20).Draw(t, "n")
		var ws Static
		for i := 0; i < n; i++ {
			ws = append(ws, Window{
				Handle: uintptr(i + 1),
				PID:    rapid.IntRange(1, 6).Draw(t, "pid"),
				Title:  rapid.SampledFrom(titles).Draw(t, "title"),
			})
		}

		pids, err := NewLocator(ws, "").Collect()
		if err != nil {
			t.Fatalf("collect: %v", err)
		}

		seen := map[int]bool{}
		for _, pid := range pids {
			if seen[pid] {
				t.Fatalf("pid %d returned twice", pid)
			}
			seen[pid] = true
		}
		for _, w := range ws {
			if w.Title == DefaultTitle && !seen[w.PID] {
				t.Fatalf("pid %d with matching window missing", w.PID)
			}
		}
		for pid := range seen {
			found := false
			for _, w := range ws {
				if w.PID == pid && w.Title == DefaultTitle {
					found = true
				}
			}
			if !found {
				t.Fatalf("pid %d returned without a matching window", pid)
			}
		}
	})
}
