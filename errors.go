// Package kfs defines the small, ambient surface shared by kernel file
// system drivers: structured errors, the read-only mount/open configuration
// flags, and the capability table a driver registers with the VFS dispatch
// layer.
//
// The FAT16 driver itself lives in the fat16 package; this package only
// holds the vocabulary that driver and its future siblings would share.
package kfs

import (
	"fmt"
	"syscall"
)

// DriverError is a wrapper around a system errno code with an optional,
// progressively-enriched message. It implements error and supports
// errors.Is/errors.Unwrap so callers can test for a specific failure kind
// without string matching.
type DriverError struct {
	ErrnoCode syscall.Errno
	message   string
	cause     error
}

// Error implements the error interface.
func (e *DriverError) Error() string {
	if e.message != "" {
		return e.message
	}
	return e.ErrnoCode.Error()
}

// Unwrap lets errors.Is/errors.As see through to the wrapped cause, if any.
func (e *DriverError) Unwrap() error {
	if e.cause != nil {
		return e.cause
	}
	return e.ErrnoCode
}

// Is reports whether target is a DriverError with the same errno code. This
// lets sentinel values like ErrNotOurFileSystem be compared with errors.Is
// even after WithMessage/Wrap have produced a new instance.
func (e *DriverError) Is(target error) bool {
	other, ok := target.(*DriverError)
	if !ok {
		return false
	}
	return e.ErrnoCode == other.ErrnoCode
}

// WithMessage returns a copy of e with a more specific message, preserving
// the errno code for comparison purposes.
func (e *DriverError) WithMessage(message string) *DriverError {
	return &DriverError{
		ErrnoCode: e.ErrnoCode,
		message:   message,
		cause:     e.cause,
	}
}

// Wrap returns a copy of e that also carries err as its cause, so
// errors.Is(result, err) succeeds in addition to errors.Is(result, e).
func (e *DriverError) Wrap(err error) *DriverError {
	return &DriverError{
		ErrnoCode: e.ErrnoCode,
		message:   fmt.Sprintf("%s: %s", e.Error(), err.Error()),
		cause:     err,
	}
}

// NewDriverError creates a DriverError with a default message derived from
// the errno code.
func NewDriverError(errnoCode syscall.Errno) *DriverError {
	return &DriverError{ErrnoCode: errnoCode, message: errnoCode.Error()}
}

// NewDriverErrorWithMessage creates a DriverError from an errno code with a
// custom message.
func NewDriverErrorWithMessage(errnoCode syscall.Errno, message string) *DriverError {
	return &DriverError{
		ErrnoCode: errnoCode,
		message:   fmt.Sprintf("%s: %s", errnoCode.Error(), message),
	}
}

// The five error kinds every failure surfaced by the fat16 driver reduces
// to, compared with errors.Is.
var (
	// ErrIO covers block-device/stream failures and malformed FAT structures
	// encountered during traversal.
	ErrIO = NewDriverError(syscall.EIO)
	// ErrNoMemory covers allocation failure in any component.
	ErrNoMemory = NewDriverError(syscall.ENOMEM)
	// ErrInvalidArgument covers e.g. asking to load a directory from a
	// non-directory entry.
	ErrInvalidArgument = NewDriverError(syscall.EINVAL)
	// ErrReadOnlyFileSystem covers write or read-write open attempts.
	ErrReadOnlyFileSystem = NewDriverError(syscall.EROFS)
	// ErrNotOurFileSystem covers a BPB signature mismatch during probe. It
	// carries syscall.ENODEV, an errno none of the other kinds use, so a VFS
	// dispatch layer can distinguish "this isn't FAT16, try the next driver"
	// from every other failure.
	ErrNotOurFileSystem = NewDriverError(syscall.ENODEV).WithMessage("not a FAT16 file system")
)
