// Package window finds the game client's top-level windows by title.
package window

import (
	"errors"

	"github.com/zjrosen/scoutcon/internal/log"
)

// DefaultTitle is the game client's main window title.
const DefaultTitle = "World of Warcraft"

// ErrUnsupported is returned by the system enumerator off Windows.
var ErrUnsupported = errors.New("window enumeration is only available on windows")

// Window is one top-level window.
type Window struct {
	Handle uintptr
	PID    int
	Title  string
}

// Enumerator walks top-level windows. visit returns false to stop early.
type Enumerator interface {
	Windows(visit func(Window) bool) error
}

// Probe asks whether a window with the target title is owned by PID.
// A probe is created per launch and discarded once Found.
type Probe struct {
	PID   int
	Found bool
}

// Locator matches windows against one exact title.
type Locator struct {
	enum  Enumerator
	title string
}

// NewLocator returns a Locator for title; an empty title means DefaultTitle.
func NewLocator(enum Enumerator, title string) *Locator {
	if title == "" {
		title = DefaultTitle
	}
	return &Locator{enum: enum, title: title}
}

// Title returns the title being matched.
func (l *Locator) Title() string { return l.title }

// Collect returns the distinct pids owning a window with the target title,
// in enumeration order.
func (l *Locator) Collect() ([]int, error) {
	var pids []int
	seen := make(map[int]struct{})
	err := l.enum.Windows(func(w Window) bool {
		if w.Title != l.title {
			return true
		}
		if _, dup := seen[w.PID]; !dup {
			seen[w.PID] = struct{}{}
			pids = append(pids, w.PID)
		}
		return true
	})
	if err != nil {
		return nil, err
	}
	log.Debug(log.CatWindow, "collected windows", "title", l.title, "pids", len(pids))
	return pids, nil
}

// Probe sets p.Found once a matching window owned by p.PID is seen,
// stopping the enumeration at that window.
func (l *Locator) Probe(p *Probe) error {
	return l.enum.Windows(func(w Window) bool {
		if w.PID == p.PID && w.Title == l.title {
			p.Found = true
			return false
		}
		return true
	})
}

// Static is an Enumerator over a fixed list, used in tests and dry runs.
type Static []Window

func (s Static) Windows(visit func(Window) bool) error {
	for _, w := range s {
		if !visit(w) {
			break
		}
	}
	return nil
}
