// Package rerr defines rua's error taxonomy: a small set of typed error
// kinds that the CLI maps to specific process exit codes and that the
// errmsg package renders into actionable messages.
package rerr

import (
	"errors"
	"fmt"
)

// Kind identifies one of the nine error categories the core distinguishes.
type Kind int

const (
	// InputError covers malformed names, empty roots, and other
	// caller-supplied data that fails validation before any network or
	// subprocess call is made.
	InputError Kind = iota
	// NotFound covers resolver targets absent from the remote index.
	NotFound
	// RemoteError covers HTTP/transport failures talking to the index.
	RemoteError
	// InventoryError covers package-manager adapter failures.
	InventoryError
	// ReviewAbort covers the user declining at a review/archive menu.
	ReviewAbort
	// BuildFailure covers a non-zero exit from the build tool.
	BuildFailure
	// ArchiveError covers archive open/decompress failures.
	ArchiveError
	// LockContention covers a second instance finding the lock held.
	LockContention
	// SandboxUnavailable covers a failed sandbox smoke test.
	SandboxUnavailable
)

func (k Kind) String() string {
	switch k {
	case InputError:
		return "InputError"
	case NotFound:
		return "NotFound"
	case RemoteError:
		return "RemoteError"
	case InventoryError:
		return "InventoryError"
	case ReviewAbort:
		return "ReviewAbort"
	case BuildFailure:
		return "BuildFailure"
	case ArchiveError:
		return "ArchiveError"
	case LockContention:
		return "LockContention"
	case SandboxUnavailable:
		return "SandboxUnavailable"
	default:
		return "UnknownError"
	}
}

// ExitCode returns the process exit code §6/§7 assign to this kind.
func (k Kind) ExitCode() int {
	switch k {
	case LockContention:
		return 2
	case SandboxUnavailable:
		return 4
	case ReviewAbort:
		return 0
	default:
		return 1
	}
}

// Error is the concrete error type carrying a Kind, an optional
// package/path subject, and a wrapped cause.
type Error struct {
	Kind    Kind
	Subject string // package name, path, or other offending value
	Msg     string
	Cause   error

	// ChildExitCode is the propagated exit status of a failed build
	// tool child process (§6 "child exit codes propagated from
	// build"), set only for BuildFailure errors originating from an
	// *exec.ExitError. Zero means no child exit code applies; use
	// HasChildExitCode to distinguish from a genuine exit(0).
	ChildExitCode    int
	HasChildExitCode bool
}

// WithChildExitCode records the exit code of the child process that
// produced this error, for exitCodeFor to propagate instead of
// falling back to Kind.ExitCode().
func (e *Error) WithChildExitCode(code int) *Error {
	e.ChildExitCode = code
	e.HasChildExitCode = true
	return e
}

func (e *Error) Error() string {
	switch {
	case e.Subject != "" && e.Msg != "":
		return fmt.Sprintf("%s: %s: %s", e.Kind, e.Subject, e.Msg)
	case e.Msg != "":
		return fmt.Sprintf("%s: %s", e.Kind, e.Msg)
	case e.Cause != nil:
		return fmt.Sprintf("%s: %v", e.Kind, e.Cause)
	default:
		return e.Kind.String()
	}
}

func (e *Error) Unwrap() error {
	return e.Cause
}

// New constructs an *Error of the given kind with a formatted message.
func New(kind Kind, format string, args ...any) *Error {
	return &Error{Kind: kind, Msg: fmt.Sprintf(format, args...)}
}

// Wrap constructs an *Error of the given kind wrapping an existing error.
func Wrap(kind Kind, subject string, cause error) *Error {
	return &Error{Kind: kind, Subject: subject, Cause: cause}
}

// As reports whether err (or any error it wraps) is a *Error, and if so
// returns it alongside true — a thin convenience over errors.As.
func As(err error) (*Error, bool) {
	var e *Error
	if errors.As(err, &e) {
		return e, true
	}
	return nil, false
}

// Is reports whether err (or any error it wraps) is a *Error of kind k.
func Is(err error, k Kind) bool {
	e, ok := As(err)
	return ok && e.Kind == k
}
