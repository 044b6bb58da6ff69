// Package app runs scoutcon end to end: launch or locate the game, attach
// the inspection library, run startup commands, then hand the terminal to
// the interactive console until the operator exits.
package app

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"runtime"
	"time"

	"github.com/google/uuid"

	"github.com/zjrosen/scoutcon/internal/clock"
	"github.com/zjrosen/scoutcon/internal/config"
	"github.com/zjrosen/scoutcon/internal/console"
	"github.com/zjrosen/scoutcon/internal/history"
	"github.com/zjrosen/scoutcon/internal/interrupt"
	"github.com/zjrosen/scoutcon/internal/launcher"
	"github.com/zjrosen/scoutcon/internal/log"
	"github.com/zjrosen/scoutcon/internal/pubsub"
	"github.com/zjrosen/scoutcon/internal/scout"
	"github.com/zjrosen/scoutcon/internal/session"
	"github.com/zjrosen/scoutcon/internal/tracing"
	"github.com/zjrosen/scoutcon/internal/transcript"
	"github.com/zjrosen/scoutcon/internal/ui/styles"
	"github.com/zjrosen/scoutcon/internal/window"
)

var (
	// ErrInit means the library refused to initialize.
	ErrInit = errors.New("could not initialize the library")
	// ErrShutdown means the library reported a failed shutdown.
	ErrShutdown = errors.New("could not shutdown the library")
)

// Options configures one run. Zero-valued hooks use the real system.
type Options struct {
	Config   config.Config
	GamePath string
	Commands []string

	Stdin  io.Reader
	Stdout io.Writer
	Stderr io.Writer

	OpenFacility     func(path string, version int) (scout.Facility, error)
	Enumerator       window.Enumerator
	Spawner          launcher.Spawner
	Clock            clock.Clock
	InstallInterrupt func(interrupt.Handler) (stop func())
}

func (o *Options) setDefaults() {
	if o.Stdin == nil {
		o.Stdin = os.Stdin
	}
	if o.Stdout == nil {
		o.Stdout = os.Stdout
	}
	if o.Stderr == nil {
		o.Stderr = os.Stderr
	}
	if o.OpenFacility == nil {
		o.OpenFacility = scout.Open
	}
	if o.Enumerator == nil {
		o.Enumerator = window.System()
	}
	if o.Spawner == nil {
		o.Spawner = launcher.ExecSpawner{}
	}
	if o.Clock == nil {
		o.Clock = clock.Real()
	}
	if o.InstallInterrupt == nil {
		o.InstallInterrupt = interrupt.Install
	}
}

// Run executes the startup sequence and the console. Configuration and
// launch problems are returned before the library is touched.
//
// The library keeps the active context and last error per OS thread, so Run
// locks its goroutine to one thread and makes every library call from it.
// Only the interrupt handler's shutdown runs elsewhere, behind the gate.
func Run(ctx context.Context, opts Options) error {
	runtime.LockOSThread()
	defer runtime.UnlockOSThread()

	opts.setDefaults()
	cfg := opts.Config
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	palette := styles.New(opts.Stdout)
	sessionID := uuid.NewString()
	log.Info(log.CatConfig, "session starting", "session_id", sessionID, "game", opts.GamePath)

	provider, err := tracing.NewProvider(cfg.Tracing)
	if err != nil {
		return fmt.Errorf("tracing: %w", err)
	}
	defer func() {
		shutdownCtx, done := context.WithTimeout(context.Background(), 5*time.Second)
		defer done()
		if err := provider.Shutdown(shutdownCtx); err != nil {
			log.ErrorErr(log.CatTrace, "flush traces", err)
		}
	}()

	locator := window.NewLocator(opts.Enumerator, cfg.Target.WindowTitle)

	pid := 0
	if opts.GamePath != "" {
		l := launcher.New(opts.Spawner, locator, opts.Clock, launcher.Options{
			Argument:         cfg.Target.LaunchArgument,
			InputIdleTimeout: cfg.Launch.InputIdleTimeout,
			PollInterval:     cfg.Launch.PollInterval,
			WindowTimeout:    cfg.Launch.WindowTimeout,
		})
		pid, err = l.Launch(ctx, opts.GamePath)
		if err != nil {
			return fmt.Errorf("launch %s: %w", opts.GamePath, err)
		}
	}

	facility, err := opts.OpenFacility(cfg.Scout.Library, cfg.Scout.Version)
	if err != nil {
		return err
	}
	catalog := scout.NewErrorCatalog(facility)

	if !facility.Init() {
		err := catalog.Last()
		fmt.Fprintln(opts.Stderr, palette.ErrorLine("Could not initialize the library!"))
		fmt.Fprintf(opts.Stderr, "Last error: %v\n", describe(err))
		return fmt.Errorf("%w: %v", ErrInit, describe(err))
	}

	shutdown := interrupt.Once(facility.Shutdown)
	gate := &console.Gate{}
	stop := opts.InstallInterrupt(func() bool {
		handled := gate.Close(shutdown)
		if handled {
			cancel()
		}
		return handled
	})
	defer stop()

	fmt.Fprintln(opts.Stdout, palette.Banner.Render(fmt.Sprintf("Scout version %d initialized.", facility.Version())))

	sessions := session.NewManager(facility, catalog, opts.Stdout, opts.Stderr)
	gate.Do(func() {
		if pid != 0 {
			sessions.Attach(pid)
		} else {
			pids, err := locator.Collect()
			if err != nil {
				log.ErrorErr(log.CatWindow, "enumerate windows", err)
				fmt.Fprintln(opts.Stderr, palette.Warning.Render(fmt.Sprintf("Could not enumerate windows: %v", err)))
			}
			sessions.AttachAll(pids)
		}

		fmt.Fprintln(opts.Stdout, "Done. Type in exit to stop the program.")
		sessions.SelectDefault()
	})

	if err := runConsole(ctx, opts, facility, catalog, sessions, gate, provider, sessionID, palette); err != nil {
		return err
	}

	if !gate.Close(shutdown) {
		err := catalog.Last()
		fmt.Fprintln(opts.Stderr, palette.ErrorLine("Could not shutdown the library!"))
		fmt.Fprintf(opts.Stderr, "Last error: %v\n", describe(err))
		return fmt.Errorf("%w: %v", ErrShutdown, describe(err))
	}
	log.Info(log.CatConsole, "session ended", "session_id", sessionID)
	return nil
}

func runConsole(
	ctx context.Context,
	opts Options,
	facility scout.Facility,
	catalog *scout.ErrorCatalog,
	sessions *session.Manager,
	gate *console.Gate,
	provider *tracing.Provider,
	sessionID string,
	palette *styles.Palette,
) error {
	cfg := opts.Config
	out := console.NewSyncWriter(opts.Stdout)

	lines := pubsub.NewBroker[string]()
	defer lines.Close()

	if cfg.Console.TranscriptPath != "" {
		subCtx, stopSub := context.WithCancel(ctx)
		sources := []pubsub.Subscriber[string]{lines}
		if log.Enabled() {
			sources = append(sources, pubsub.SubscriberFunc[string](log.Subscribe))
		}
		w, err := transcript.Start(subCtx, cfg.Console.TranscriptPath, lines, sources...)
		if err != nil {
			stopSub()
			log.ErrorErr(log.CatConsole, "transcript disabled", err)
		} else {
			defer func() {
				stopSub()
				if err := w.Close(); err != nil {
					log.ErrorErr(log.CatConsole, "close transcript", err)
				}
			}()
		}
	}

	middlewares := []console.Middleware{
		console.NewLoggingMiddleware(),
		tracing.NewMiddleware(provider.Tracer(), sessionID),
	}
	if store := openHistory(ctx, cfg.History); store != nil {
		defer store.Close() //nolint:errcheck
		middlewares = append(middlewares, history.NewMiddleware(store, sessionID))
	}

	dispatcher := console.NewDefaultDispatcher(console.Builtins{
		Facility: facility,
		Catalog:  catalog,
		Sessions: sessions,
		Screen:   console.NewTermScreen(out),
		Out:      out,
	}, middlewares...)

	for _, line := range opts.Commands {
		fmt.Fprintf(out, "Executing \"%s\"...\n", line)
		cmd, ok := console.ParseCommand(line)
		if !ok {
			continue
		}
		gate.Do(func() {
			if _, err := dispatcher.Forward(ctx, cmd); err != nil {
				log.ErrorErr(log.CatConsole, "startup command", err, "command", line)
			}
		})
	}

	fmt.Fprintln(out, palette.Separator())

	c := console.New(console.Config{
		Dispatcher:   dispatcher,
		Drainer:      console.NewDrainer(facility, out, lines, cfg.Console.LogBufferSize),
		Out:          out,
		Prompt:       cfg.Console.Prompt,
		TickInterval: cfg.Console.TickInterval,
		Clock:        opts.Clock,
		Gate:         gate,
	})
	err := c.Run(ctx, opts.Stdin)
	if err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	return nil
}

func openHistory(ctx context.Context, cfg config.HistoryConfig) *history.Store {
	if !cfg.Enabled {
		return nil
	}
	store, err := history.Open(ctx, cfg.Path)
	if err != nil {
		log.ErrorErr(log.CatHistory, "history disabled", err, "path", cfg.Path)
		return nil
	}
	return store
}

func describe(err error) string {
	if err == nil {
		return scout.Success.String()
	}
	return err.Error()
}
