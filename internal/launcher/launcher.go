// Package launcher starts the game client and waits until its main window
// exists, so the inspection library has something to attach to.
package launcher

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"time"

	"github.com/zjrosen/scoutcon/internal/clock"
	"github.com/zjrosen/scoutcon/internal/log"
	"github.com/zjrosen/scoutcon/internal/window"
)

var (
	ErrPathResolution   = errors.New("resolve executable path")
	ErrPathTooLong      = errors.New("executable path too long")
	ErrSpawn            = errors.New("start process")
	ErrInputIdleTimeout = errors.New("timed out waiting for process input idle")
	ErrWindowTimeout    = errors.New("timed out waiting for game window")
)

// Spawner starts processes. WaitInputIdle blocks until the process has
// finished initializing its message loop or timeout elapses.
type Spawner interface {
	Spawn(path, dir string, args ...string) (pid int, err error)
	WaitInputIdle(pid int, timeout time.Duration) error
}

// Prober reports whether the probed pid owns the target window yet.
type Prober interface {
	Probe(p *window.Probe) error
}

// Options tunes Launch. Zero durations take the defaults below, except
// WindowTimeout where zero means wait forever.
type Options struct {
	Argument         string
	InputIdleTimeout time.Duration
	PollInterval     time.Duration
	WindowTimeout    time.Duration
}

const (
	DefaultArgument         = "-console"
	DefaultInputIdleTimeout = 10 * time.Second
	DefaultPollInterval     = time.Second
)

// Launcher spawns the client and waits for its window.
type Launcher struct {
	spawner Spawner
	prober  Prober
	clock   clock.Clock
	opts    Options
}

// New returns a Launcher. A nil clock uses the real one.
func New(spawner Spawner, prober Prober, clk clock.Clock, opts Options) *Launcher {
	if clk == nil {
		clk = clock.Real()
	}
	if opts.Argument == "" {
		opts.Argument = DefaultArgument
	}
	if opts.InputIdleTimeout <= 0 {
		opts.InputIdleTimeout = DefaultInputIdleTimeout
	}
	if opts.PollInterval <= 0 {
		opts.PollInterval = DefaultPollInterval
	}
	return &Launcher{spawner: spawner, prober: prober, clock: clk, opts: opts}
}

// Launch resolves path, starts it in its own directory with the startup
// argument, and returns the pid once a window with the target title owned
// by that pid exists.
func (l *Launcher) Launch(ctx context.Context, path string) (int, error) {
	exe, err := ResolveExecutable(path)
	if err != nil {
		return 0, err
	}

	log.Info(log.CatLaunch, "starting process", "path", exe, "arg", l.opts.Argument)
	pid, err := l.spawner.Spawn(exe, filepath.Dir(exe), l.opts.Argument)
	if err != nil {
		return 0, fmt.Errorf("%w %s: %w", ErrSpawn, exe, err)
	}

	if err := l.spawner.WaitInputIdle(pid, l.opts.InputIdleTimeout); err != nil {
		return 0, err
	}

	if err := l.waitForWindow(ctx, pid); err != nil {
		return 0, err
	}
	log.Info(log.CatLaunch, "game window found", "pid", pid)
	return pid, nil
}

func (l *Launcher) waitForWindow(ctx context.Context, pid int) error {
	probe := &window.Probe{PID: pid}

	var deadline <-chan time.Time
	if l.opts.WindowTimeout > 0 {
		deadline = l.clock.After(l.opts.WindowTimeout)
	}

	for {
		if err := l.prober.Probe(probe); err != nil {
			return fmt.Errorf("probe window for pid %d: %w", pid, err)
		}
		if probe.Found {
			return nil
		}
		log.Debug(log.CatLaunch, "window not ready", "pid", pid)

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-deadline:
			return fmt.Errorf("%w after %s (pid %d)", ErrWindowTimeout, l.opts.WindowTimeout, pid)
		case <-l.clock.After(l.opts.PollInterval):
		}
	}
}
