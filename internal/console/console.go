// Package console runs the interactive operator loop: an input reader
// publishes one command at a time into a slot, and a ticking dispatch loop
// executes it, drains the library log and releases the reader.
package console

import (
	"context"
	"errors"
	"io"
	"sync/atomic"
	"time"

	"github.com/zjrosen/scoutcon/internal/clock"
	"github.com/zjrosen/scoutcon/internal/log"
)

// DefaultPrompt is printed before each line is read.
const DefaultPrompt = "> "

// Config wires a Console.
type Config struct {
	Dispatcher   *Dispatcher
	Drainer      *Drainer
	Out          io.Writer
	Prompt       string
	TickInterval time.Duration
	Clock        clock.Clock
	// Gate guards library calls against a concurrent shutdown. Nil means
	// the console owns an always-open gate.
	Gate *Gate
}

// Console owns the slot shared by the reader and the loop.
type Console struct {
	slot    *Slot
	loop    *Loop
	out     io.Writer
	prompt  string
	running atomic.Bool
}

// New builds a Console from cfg, filling in defaults.
func New(cfg Config) *Console {
	if cfg.Prompt == "" {
		cfg.Prompt = DefaultPrompt
	}
	if cfg.TickInterval <= 0 {
		cfg.TickInterval = DefaultTickInterval
	}
	if cfg.Clock == nil {
		cfg.Clock = clock.Real()
	}
	if cfg.Gate == nil {
		cfg.Gate = &Gate{}
	}

	c := &Console{slot: &Slot{}, out: cfg.Out, prompt: cfg.Prompt}
	c.loop = &Loop{
		slot:       c.slot,
		dispatcher: cfg.Dispatcher,
		drainer:    cfg.Drainer,
		gate:       cfg.Gate,
		clock:      cfg.Clock,
		interval:   cfg.TickInterval,
		running:    &c.running,
	}
	return c
}

// Slot exposes the command slot, mainly for tests.
func (c *Console) Slot() *Slot { return c.slot }

// Run starts the reader on in and runs the dispatch loop on the calling
// goroutine. When the reader ends (exit or EOF) Run joins it and performs
// one last cycle so trailing output is shown. When ctx ends first the
// reader may still be blocked on input and is not waited for. The last
// cycle does nothing if the gate was closed meanwhile.
func (c *Console) Run(ctx context.Context, in io.Reader) error {
	c.running.Store(true)

	reader := &InputReader{
		in:      in,
		out:     c.out,
		prompt:  c.prompt,
		slot:    c.slot,
		running: &c.running,
	}
	readerDone := make(chan struct{})
	go func() {
		defer close(readerDone)
		reader.Run(ctx)
	}()

	err := c.loop.Run(ctx)
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		log.Info(log.CatConsole, "console cancelled", "reason", err.Error())
		c.loop.Cycle(context.WithoutCancel(ctx))
		return err
	}

	<-readerDone
	c.loop.Cycle(ctx)
	return nil
}
