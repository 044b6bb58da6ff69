//go:build !windows

package interrupt

import (
	"os"
	"os/signal"
	"syscall"

	"github.com/zjrosen/scoutcon/internal/log"
)

// Install catches SIGINT and SIGTERM. An unhandled signal is re-raised with
// the default disposition restored. The returned stop removes the handler.
func Install(h Handler) (stop func()) {
	sigs := make(chan os.Signal, 1)
	quit := make(chan struct{})
	signal.Notify(sigs, os.Interrupt, syscall.SIGTERM)

	go func() {
		for {
			select {
			case <-quit:
				return
			case sig := <-sigs:
				log.Info(log.CatConsole, "interrupt received", "signal", sig.String())
				if h() {
					continue
				}
				signal.Reset(sig)
				if s, ok := sig.(syscall.Signal); ok {
					_ = syscall.Kill(os.Getpid(), s)
				}
				return
			}
		}
	}()

	return func() {
		signal.Stop(sigs)
		close(quit)
	}
}
