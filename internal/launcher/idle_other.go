//go:build !windows

package launcher

import "time"

// WaitInputIdle is a no-op where processes have no input-idle state.
func (ExecSpawner) WaitInputIdle(int, time.Duration) error { return nil }
