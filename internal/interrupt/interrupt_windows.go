//go:build windows

package interrupt

import (
	"sync"

	"golang.org/x/sys/windows"

	"github.com/zjrosen/scoutcon/internal/log"
)

var (
	kernel32                  = windows.NewLazySystemDLL("kernel32.dll")
	procSetConsoleCtrlHandler = kernel32.NewProc("SetConsoleCtrlHandler")

	// Callback slots are never released, so one callback is registered and
	// the active handler swapped under handlerMu.
	handlerMu   sync.Mutex
	current     Handler
	ctrlHandler = windows.NewCallback(onCtrl)
)

func onCtrl(ctrlType uint32) uintptr {
	handlerMu.Lock()
	h := current
	handlerMu.Unlock()

	log.Info(log.CatConsole, "console control event", "type", ctrlType)
	if h != nil && h() {
		return 1
	}
	return 0
}

// Install registers h as a console control handler. The returned stop
// unregisters it.
func Install(h Handler) (stop func()) {
	handlerMu.Lock()
	current = h
	handlerMu.Unlock()

	if r1, _, err := procSetConsoleCtrlHandler.Call(ctrlHandler, 1); r1 == 0 {
		log.ErrorErr(log.CatConsole, "SetConsoleCtrlHandler", err)
	}
	return func() {
		_, _, _ = procSetConsoleCtrlHandler.Call(ctrlHandler, 0)
		handlerMu.Lock()
		current = nil
		handlerMu.Unlock()
	}
}
