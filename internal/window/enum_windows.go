//go:build windows

package window

import (
	"sync"
	"unsafe"

	"golang.org/x/sys/windows"
)

// titleBufLen bounds GetWindowTextW; longer titles are truncated and will
// not match.
const titleBufLen = 256

var (
	user32             = windows.NewLazySystemDLL("user32.dll")
	procGetWindowTextW = user32.NewProc("GetWindowTextW")

	// EnumWindows callbacks cannot capture state and NewCallback slots are
	// never freed, so one callback serves every walk and the active visitor
	// is swapped in under walkMu.
	walkMu       sync.Mutex
	walkVisit    func(Window) bool
	walkStopped  bool
	walkCallback = windows.NewCallback(enumProc)
)

// System returns the EnumWindows-backed enumerator.
func System() Enumerator { return systemEnumerator{} }

type systemEnumerator struct{}

func (systemEnumerator) Windows(visit func(Window) bool) error {
	walkMu.Lock()
	defer walkMu.Unlock()

	walkVisit, walkStopped = visit, false
	defer func() { walkVisit = nil }()

	err := windows.EnumWindows(walkCallback, nil)
	if walkStopped {
		// EnumWindows reports FALSE when the callback ends the walk.
		return nil
	}
	return err
}

func enumProc(hwnd windows.HWND, _ uintptr) uintptr {
	var pid uint32
	if _, err := windows.GetWindowThreadProcessId(hwnd, &pid); err != nil {
		return 1
	}
	if walkVisit(Window{Handle: uintptr(hwnd), PID: int(pid), Title: windowText(hwnd)}) {
		return 1
	}
	walkStopped = true
	return 0
}

func windowText(hwnd windows.HWND) string {
	var buf [titleBufLen]uint16
	n, _, _ := procGetWindowTextW.Call(uintptr(hwnd), uintptr(unsafe.Pointer(&buf[0])), uintptr(len(buf)))
	if n == 0 {
		return ""
	}
	return windows.UTF16ToString(buf[:n])
}
