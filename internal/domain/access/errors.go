package access

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"syscall"
)

// Kind is the stable, caller-facing classification of a failed operation.
type Kind string

const (
	KindNotAbsolute        Kind = "not_absolute"
	KindOutsideWhitelist   Kind = "outside_whitelist"
	KindUnresolvableParent Kind = "unresolvable_parent"
	KindInvalidArgument    Kind = "invalid_argument"

	KindExtensionDenied Kind = "extension_denied"
	KindSizeExceeded    Kind = "size_exceeded"
	KindDeleteDisabled  Kind = "delete_disabled"
	KindProtectedRoot   Kind = "protected_root"

	KindNotFound Kind = "not_found"

	KindDestinationExists Kind = "destination_exists"
	KindDirectoryNotEmpty Kind = "directory_not_empty"
	KindTypeMismatch      Kind = "type_mismatch"

	KindIOFailure Kind = "io_failure"
)

// Class groups kinds into the error families callers branch on.
type Class string

const (
	ClassValidation Class = "validation"
	ClassPolicy     Class = "policy"
	ClassNotFound   Class = "not_found"
	ClassConflict   Class = "conflict"
	ClassIO         Class = "io"
)

// Class returns the error family of k.
func (k Kind) Class() Class {
	switch k {
	case KindNotAbsolute, KindOutsideWhitelist, KindUnresolvableParent, KindInvalidArgument:
		return ClassValidation
	case KindExtensionDenied, KindSizeExceeded, KindDeleteDisabled, KindProtectedRoot:
		return ClassPolicy
	case KindNotFound:
		return ClassNotFound
	case KindDestinationExists, KindDirectoryNotEmpty, KindTypeMismatch:
		return ClassConflict
	default:
		return ClassIO
	}
}

var messages = map[Kind]string{
	KindNotAbsolute:        "path must be absolute",
	KindOutsideWhitelist:   "path is outside the allowed directories",
	KindUnresolvableParent: "path has a parent component that is not a directory",
	KindInvalidArgument:    "invalid argument",
	KindExtensionDenied:    "file extension is not allowed",
	KindSizeExceeded:       "file exceeds the maximum allowed size",
	KindDeleteDisabled:     "delete operations are disabled",
	KindProtectedRoot:      "allowed directory roots cannot be moved or deleted",
	KindNotFound:           "path does not exist",
	KindDestinationExists:  "destination already exists",
	KindDirectoryNotEmpty:  "directory is not empty",
	KindTypeMismatch:       "path has the wrong type for this operation",
	KindIOFailure:          "filesystem operation failed",
}

// Message returns the stable user-facing description of k.
func (k Kind) Message() string {
	if m, ok := messages[k]; ok {
		return m
	}
	return string(k)
}

// Sentinel errors, one per kind, for use with errors.Is.
var (
	ErrNotAbsolute        = &Error{Kind: KindNotAbsolute}
	ErrOutsideWhitelist   = &Error{Kind: KindOutsideWhitelist}
	ErrUnresolvableParent = &Error{Kind: KindUnresolvableParent}
	ErrInvalidArgument    = &Error{Kind: KindInvalidArgument}
	ErrExtensionDenied    = &Error{Kind: KindExtensionDenied}
	ErrSizeExceeded       = &Error{Kind: KindSizeExceeded}
	ErrDeleteDisabled     = &Error{Kind: KindDeleteDisabled}
	ErrProtectedRoot      = &Error{Kind: KindProtectedRoot}
	ErrNotFound           = &Error{Kind: KindNotFound}
	ErrDestinationExists  = &Error{Kind: KindDestinationExists}
	ErrDirectoryNotEmpty  = &Error{Kind: KindDirectoryNotEmpty}
	ErrTypeMismatch       = &Error{Kind: KindTypeMismatch}
	ErrIOFailure          = &Error{Kind: KindIOFailure}
)

// Error is the single error type returned by the access engine and the file
// operation service. Path is always the path the caller supplied, never the
// canonical host path.
type Error struct {
	Kind Kind
	Op   string
	Path string
	// Detail is set for IO failures (the OS error text without a path) and
	// invalid arguments.
	Detail string
	Err    error

	// recorded is set when the validator or policy engine already wrote a
	// denial event for this error.
	recorded bool
}

func (e *Error) Error() string {
	msg := e.Kind.Message()
	if e.Detail != "" {
		msg += ": " + e.Detail
	}
	switch {
	case e.Op != "" && e.Path != "":
		return fmt.Sprintf("%s %s: %s", e.Op, e.Path, msg)
	case e.Op != "":
		return fmt.Sprintf("%s: %s", e.Op, msg)
	default:
		return msg
	}
}

// Is matches any *Error of the same kind, so errors.Is(err, ErrNotFound)
// works regardless of Op and Path.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return t.Kind == e.Kind
}

func (e *Error) Unwrap() error { return e.Err }

// Public returns the message safe to hand back to the caller.
func (e *Error) Public() string {
	if e.Detail != "" {
		return e.Kind.Message() + ": " + e.Detail
	}
	return e.Kind.Message()
}

func newError(kind Kind, op, path string) *Error {
	return &Error{Kind: kind, Op: op, Path: path}
}

func recordedError(kind Kind, op, path string) *Error {
	e := newError(kind, op, path)
	e.recorded = true
	return e
}

// Recorded reports whether err is a denial the access engine has already
// written to the audit trail.
func Recorded(err error) bool {
	var e *Error
	return errors.As(err, &e) && e.recorded
}

// NewError builds an *Error for callers outside the package.
func NewError(kind Kind, op, path string) *Error {
	return newError(kind, op, path)
}

// InvalidArgument reports a malformed parameter. detail is returned to the
// caller, so it must not contain host paths.
func InvalidArgument(op, path, detail string) *Error {
	return &Error{Kind: KindInvalidArgument, Op: op, Path: path, Detail: detail}
}

// KindOf extracts the Kind from err. Errors not produced by this package are
// reported as IO failures.
func KindOf(err error) Kind {
	if err == nil {
		return ""
	}
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindIOFailure
}

// FromOS converts an error returned by the os package into an *Error,
// stripping the host path out of *fs.PathError and *os.LinkError.
func FromOS(op, requested string, err error) *Error {
	if err == nil {
		return nil
	}
	var e *Error
	if errors.As(err, &e) {
		return e
	}
	// ENOTEMPTY also satisfies fs.ErrExist, so it is checked first.
	switch {
	case errors.Is(err, syscall.ENOTEMPTY):
		return &Error{Kind: KindDirectoryNotEmpty, Op: op, Path: requested, Err: err}
	case errors.Is(err, fs.ErrNotExist):
		return &Error{Kind: KindNotFound, Op: op, Path: requested, Err: err}
	case errors.Is(err, fs.ErrExist):
		return &Error{Kind: KindDestinationExists, Op: op, Path: requested, Err: err}
	case errors.Is(err, syscall.ENOTDIR):
		return &Error{Kind: KindUnresolvableParent, Op: op, Path: requested, Err: err}
	}
	return &Error{Kind: KindIOFailure, Op: op, Path: requested, Detail: stripPath(err), Err: err}
}

func stripPath(err error) string {
	var pe *fs.PathError
	if errors.As(err, &pe) {
		return pe.Op + ": " + pe.Err.Error()
	}
	var le *os.LinkError
	if errors.As(err, &le) {
		return le.Op + ": " + le.Err.Error()
	}
	var se *os.SyscallError
	if errors.As(err, &se) {
		return se.Syscall + ": " + se.Err.Error()
	}
	return err.Error()
}
