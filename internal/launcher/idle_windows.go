//go:build windows

package launcher

import (
	"fmt"
	"time"

	"golang.org/x/sys/windows"
)

var (
	user32               = windows.NewLazySystemDLL("user32.dll")
	procWaitForInputIdle = user32.NewProc("WaitForInputIdle")
)

// WaitInputIdle waits for the process's first message loop to go idle.
func (ExecSpawner) WaitInputIdle(pid int, timeout time.Duration) error {
	h, err := windows.OpenProcess(windows.SYNCHRONIZE|windows.PROCESS_QUERY_LIMITED_INFORMATION, false, uint32(pid))
	if err != nil {
		return fmt.Errorf("open process %d: %w", pid, err)
	}
	defer windows.CloseHandle(h) //nolint:errcheck

	r1, _, callErr := procWaitForInputIdle.Call(uintptr(h), uintptr(timeout.Milliseconds()))
	return inputIdleResult(uint32(r1), callErr, pid, timeout)
}
