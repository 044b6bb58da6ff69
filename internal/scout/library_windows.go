//go:build windows

package scout

import (
	"fmt"
	"unsafe"

	"golang.org/x/sys/windows"

	"github.com/zjrosen/scoutcon/internal/log"
)

// library calls the Scout DLL exports. Booleans come back as a char, so
// only the low byte of r1 is meaningful.
type library struct {
	version int

	init          *windows.LazyProc
	shutdown      *windows.LazyProc
	getVersion    *windows.LazyProc
	lastError     *windows.LazyProc
	errorToString *windows.LazyProc
	attach        *windows.LazyProc
	detach        *windows.LazyProc
	setContext    *windows.LazyProc
	contextForPid *windows.LazyProc
	execute       *windows.LazyProc
	fetchLogs     *windows.LazyProc
}

// Open loads the library at path and resolves every export. version is
// passed to Init.
func Open(path string, version int) (Facility, error) {
	dll := windows.NewLazyDLL(path)
	if err := dll.Load(); err != nil {
		return nil, fmt.Errorf("%w %s: %w", ErrLibrary, path, err)
	}

	lib := &library{
		version:       version,
		init:          dll.NewProc("scoutInit"),
		shutdown:      dll.NewProc("scoutShutdown"),
		getVersion:    dll.NewProc("scoutGetVersion"),
		lastError:     dll.NewProc("scoutGetLastError"),
		errorToString: dll.NewProc("scoutErrorToString"),
		attach:        dll.NewProc("scoutAttachProcess"),
		detach:        dll.NewProc("scoutDetachProcess"),
		setContext:    dll.NewProc("scoutSetProcessContext"),
		contextForPid: dll.NewProc("scoutGetContextForPid"),
		execute:       dll.NewProc("scoutExecuteCommand"),
		fetchLogs:     dll.NewProc("scoutFetchLogEntries"),
	}
	for _, p := range []*windows.LazyProc{
		lib.init, lib.shutdown, lib.getVersion, lib.lastError, lib.errorToString,
		lib.attach, lib.detach, lib.setContext, lib.contextForPid, lib.execute, lib.fetchLogs,
	} {
		if err := p.Find(); err != nil {
			return nil, fmt.Errorf("%w %s: %w", ErrLibrary, path, err)
		}
	}
	log.Debug(log.CatScout, "library loaded", "path", path)
	return lib, nil
}

func truth(r1 uintptr) bool { return r1&0xff != 0 }

func (l *library) Init() bool {
	r1, _, _ := l.init.Call(uintptr(l.version))
	return truth(r1)
}

func (l *library) Shutdown() bool {
	r1, _, _ := l.shutdown.Call()
	return truth(r1)
}

func (l *library) Version() int {
	r1, _, _ := l.getVersion.Call()
	return int(int32(r1))
}

func (l *library) LastError() ErrorCode {
	r1, _, _ := l.lastError.Call()
	return ErrorCode(int32(r1))
}

func (l *library) ErrorString(code ErrorCode) string {
	r1, _, _ := l.errorToString.Call(uintptr(code))
	if r1 == 0 {
		return ""
	}
	return windows.BytePtrToString((*byte)(unsafe.Pointer(r1))) //nolint:govet // pointer to static library string
}

func (l *library) AttachProcess(pid int) Context {
	r1, _, _ := l.attach.Call(uintptr(pid))
	return Context(r1)
}

func (l *library) DetachProcess(ctx Context) bool {
	r1, _, _ := l.detach.Call(uintptr(ctx))
	return truth(r1)
}

func (l *library) SetActiveContext(ctx Context) {
	_, _, _ = l.setContext.Call(uintptr(ctx))
}

func (l *library) ContextForPid(pid int) Context {
	r1, _, _ := l.contextForPid.Call(uintptr(pid))
	return Context(r1)
}

func (l *library) ExecuteCommand(command string) bool {
	p, err := windows.BytePtrFromString(command)
	if err != nil {
		// Embedded NUL: the library would only see the prefix.
		log.Warn(log.CatScout, "command contains NUL", "command", command)
		return false
	}
	r1, _, _ := l.execute.Call(uintptr(unsafe.Pointer(p)))
	return truth(r1)
}

func (l *library) FetchLogEntries(buf []byte) int {
	if len(buf) == 0 {
		return 0
	}
	r1, _, _ := l.fetchLogs.Call(uintptr(unsafe.Pointer(&buf[0])), uintptr(len(buf)))
	n := int(int32(r1))
	if n > len(buf) {
		n = len(buf)
	}
	return n
}
