// Package scout is the boundary to the Scout inspection library. The rest of
// scoutcon only talks to the library through Facility; contexts are opaque
// tokens that are handed back to the library and never dereferenced.
package scout

import (
	"errors"
	"fmt"
)

// APIVersion is the interface version this console was built against.
const APIVersion = 110

// Context identifies one attached process inside the library.
type Context uintptr

// NoContext means "no process selected": commands are broadcast.
const NoContext Context = 0

// Valid reports whether c refers to an attached process.
func (c Context) Valid() bool { return c != NoContext }

// ErrorCode is the library's last-error value.
type ErrorCode int

const (
	Success ErrorCode = iota
	WrongVersion
	NotImplemented
	InvalidArgument
	InvalidProcess
	InvalidHandle
	InsufficientPermission
	NotEnoughMemory
	SystemCall
	WaitTimeout
	WaitIncomplete
	RemoteInterop
	PatternsNotFound
)

var errorCodeNames = [...]string{
	Success:                "Success",
	WrongVersion:           "WrongVersion",
	NotImplemented:         "NotImplemented",
	InvalidArgument:        "InvalidArgument",
	InvalidProcess:         "InvalidProcess",
	InvalidHandle:          "InvalidHandle",
	InsufficientPermission: "InsufficientPermission",
	NotEnoughMemory:        "NotEnoughMemory",
	SystemCall:             "SystemCall",
	WaitTimeout:            "WaitTimeout",
	WaitIncomplete:         "WaitIncomplete",
	RemoteInterop:          "RemoteInterop",
	PatternsNotFound:       "PatternsNotFound",
}

func (c ErrorCode) String() string {
	if c >= 0 && int(c) < len(errorCodeNames) {
		return errorCodeNames[c]
	}
	return fmt.Sprintf("ErrorCode(%d)", int(c))
}

// Facility is the library's surface as the console uses it. The library
// keeps the active context and the last error per OS thread, so every call
// except Shutdown must come from one goroutine locked to its thread with
// runtime.LockOSThread. Shutdown may also come from the interrupt handler.
type Facility interface {
	Init() bool
	Shutdown() bool
	Version() int
	LastError() ErrorCode
	ErrorString(code ErrorCode) string

	AttachProcess(pid int) Context
	DetachProcess(ctx Context) bool
	SetActiveContext(ctx Context)
	ContextForPid(pid int) Context

	ExecuteCommand(command string) bool

	// FetchLogEntries copies pending log text for the active context into
	// buf and returns the number of bytes written. Zero or a negative value
	// means nothing was available or the call failed; the library does not
	// say which.
	FetchLogEntries(buf []byte) int
}

// ErrUnsupportedPlatform is returned by Open where the library cannot be loaded.
var ErrUnsupportedPlatform = errors.New("scout library is only available on windows")

// ErrLibrary wraps failures to load the library or resolve its exports.
var ErrLibrary = errors.New("load scout library")

// Error is the library's last error as a Go error.
type Error struct {
	Code    ErrorCode
	Message string
}

func (e *Error) Error() string {
	if e.Message == "" {
		return e.Code.String()
	}
	return e.Message
}

// Is matches any *Error with the same code.
func (e *Error) Is(target error) bool {
	var other *Error
	if errors.As(target, &other) {
		return other.Code == e.Code
	}
	return false
}

// LastErr reads the facility's last error. It returns nil when the last
// error is Success.
func LastErr(f Facility) error {
	code := f.LastError()
	if code == Success {
		return nil
	}
	return &Error{Code: code, Message: f.ErrorString(code)}
}
