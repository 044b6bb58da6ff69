package console

import (
	"context"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/zjrosen/scoutcon/internal/scout"
	"github.com/zjrosen/scoutcon/internal/session"
)

// Selector changes which attached process commands are aimed at.
type Selector interface {
	Select(pid int) bool
	Broadcast()
	Active() session.Entry
}

// Screen clears the local terminal.
type Screen interface {
	Clear()
}

// Builtins holds what the built-in keywords act on.
type Builtins struct {
	Facility scout.Facility
	Catalog  *scout.ErrorCatalog
	Sessions Selector
	Screen   Screen
	Out      io.Writer
}

// NewDefaultDispatcher returns a dispatcher with setproc, cls and clear
// registered and everything else forwarded to the library verbatim.
func NewDefaultDispatcher(b Builtins, middlewares ...Middleware) *Dispatcher {
	if b.Catalog == nil {
		b.Catalog = scout.NewErrorCatalog(b.Facility)
	}
	d := NewDispatcher(HandlerFunc(b.forward), middlewares...)
	d.RegisterHandler("setproc", HandlerFunc(b.setProc))
	d.RegisterHandler("cls", HandlerFunc(b.clear))
	d.RegisterHandler("clear", HandlerFunc(b.clear))
	return d
}

func (b Builtins) forward(_ context.Context, cmd *PendingCommand) (*Result, error) {
	return b.execute(cmd.Input), nil
}

func (b Builtins) execute(command string) *Result {
	res := &Result{Target: b.Sessions.Active().PID}
	if b.Facility.ExecuteCommand(command) {
		res.Success = true
		return res
	}
	res.Err = b.Catalog.Last()
	return res
}

// setProc selects the process named by the first argument. Anything that
// does not parse as an integer, "none" included, selects broadcast.
func (b Builtins) setProc(_ context.Context, cmd *PendingCommand) (*Result, error) {
	fields := strings.Fields(cmd.Args)
	if len(fields) == 0 {
		b.Sessions.Broadcast()
		fmt.Fprintln(b.Out, "No pid given. Setting context to NULL.")
		return &Result{Success: true}, nil
	}

	pid, err := strconv.Atoi(fields[0])
	if err != nil {
		b.Sessions.Broadcast()
		fmt.Fprintln(b.Out, "No pid given. Setting context to NULL.")
		return &Result{Success: true}, nil
	}

	if !b.Sessions.Select(pid) {
		fmt.Fprintf(b.Out, "No process attached with id %d. Setting context to NULL.\n", pid)
		return &Result{Success: false, Err: fmt.Errorf("pid %d: %w", pid, session.ErrNotAttached)}, nil
	}
	fmt.Fprintf(b.Out, "Setting process context to %d.\n", pid)
	return &Result{Success: true, Target: pid}, nil
}

func (b Builtins) clear(_ context.Context, _ *PendingCommand) (*Result, error) {
	res := b.execute("clear")
	if b.Screen != nil {
		b.Screen.Clear()
	}
	return res, nil
}
