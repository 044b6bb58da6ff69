package launcher

import (
	"fmt"
	"time"
)

const (
	waitTimeout = 258 // WAIT_TIMEOUT
	waitFailed  = 0xFFFFFFFF
)

// inputIdleResult maps a WaitForInputIdle return value to an error. Every
// non-zero result wraps ErrInputIdleTimeout.
func inputIdleResult(ret uint32, callErr error, pid int, timeout time.Duration) error {
	switch ret {
	case 0:
		return nil
	case waitTimeout:
		return fmt.Errorf("%w after %s (pid %d)", ErrInputIdleTimeout, timeout, pid)
	case waitFailed:
		return fmt.Errorf("%w: wait failed (pid %d): %w", ErrInputIdleTimeout, pid, callErr)
	default:
		return fmt.Errorf("%w: unexpected wait result %d (pid %d)", ErrInputIdleTimeout, ret, pid)
	}
}
