package console

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"sync/atomic"

	"github.com/zjrosen/scoutcon/internal/log"
)

const maxLineSize = 1 << 20

// InputReader reads operator lines and hands them to the slot one at a time.
type InputReader struct {
	in      io.Reader
	out     io.Writer
	prompt  string
	slot    *Slot
	running *atomic.Bool
}

// Run reads until exit, EOF, or ctx ends, then clears the running flag.
// Each published command blocks the reader until the loop completes it.
func (r *InputReader) Run(ctx context.Context) {
	defer r.running.Store(false)

	scanner := bufio.NewScanner(r.in)
	scanner.Buffer(make([]byte, 0, 4096), maxLineSize)

	fmt.Fprint(r.out, r.prompt)
	for scanner.Scan() {
		if ctx.Err() != nil {
			return
		}

		cmd, ok := ParseCommand(scanner.Text())
		if ok {
			if cmd.Keyword == "exit" {
				log.Info(log.CatConsole, "exit requested")
				return
			}
			if !r.submit(ctx, cmd) {
				return
			}
		}
		fmt.Fprint(r.out, r.prompt)
	}
	if err := scanner.Err(); err != nil && !errors.Is(err, io.EOF) {
		log.ErrorErr(log.CatConsole, "read input", err)
	}
	log.Info(log.CatConsole, "input closed")
}

func (r *InputReader) submit(ctx context.Context, cmd *PendingCommand) bool {
	done, err := r.slot.Publish(cmd)
	if err != nil {
		log.ErrorErr(log.CatConsole, "publish command", err, "command_id", cmd.ID)
		return true
	}
	select {
	case <-done:
		return true
	case <-ctx.Done():
		return false
	}
}
