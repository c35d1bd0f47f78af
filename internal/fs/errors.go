// Package fs implements the FUSE side of versionfs on top of bazil.org/fuse.
//
// This file contains error types and error handling utilities.
package fs

import (
	"errors"
	"fmt"
	"os"
	"syscall"

	"versionfs/internal/logging"
	"versionfs/internal/version"
)

var (
	errLogger = logging.GetLogger().WithPrefix("error")

	// ErrAlreadyExists indicates a create request for the target itself
	ErrAlreadyExists = errors.New("target already exists")

	// ErrNotSupported indicates a request this filesystem never fulfils
	ErrNotSupported = errors.New("operation not supported")
)

// Error wraps filesystem errors with the operation and the name it was
// applied to.
type Error struct {
	Op   string // Operation that failed (e.g., "lookup", "open")
	Path string // Affected name
	Err  error  // Underlying error
}

// Error implements the error interface, providing a formatted error message
func (e *Error) Error() string {
	if e.Path == "" {
		return fmt.Sprintf("operation %s failed: %v", e.Op, e.Err)
	}
	return fmt.Sprintf("operation %s on %s failed: %v", e.Op, e.Path, e.Err)
}

// Unwrap implements error unwrapping for the errors.Is/As functions
func (e *Error) Unwrap() error {
	return e.Err
}

// NewFSError creates a new Error with the given operation, name and cause
func NewFSError(op string, path string, err error) *Error {
	fsErr := &Error{
		Op:   op,
		Path: path,
		Err:  err,
	}
	errLogger.Debug("Created new FSError: %v", fsErr)
	return fsErr
}

// ToFuseError converts an error into the errno replied to the kernel.
// Snapshot failures become EIO; errnos from the passthrough layer are
// returned verbatim.
func ToFuseError(err error) error {
	if err == nil {
		return nil
	}

	errLogger.Trace("Converting error to FUSE error: %v", err)

	var errno syscall.Errno
	switch {
	case errors.Is(err, version.ErrSnapshot):
		return syscall.EIO
	case errors.Is(err, version.ErrNotFound):
		return syscall.ENOENT
	case errors.Is(err, ErrAlreadyExists):
		return syscall.EEXIST
	case errors.Is(err, ErrNotSupported):
		return syscall.ENOSYS
	case errors.As(err, &errno):
		return errno
	case errors.Is(err, os.ErrNotExist):
		return syscall.ENOENT
	case errors.Is(err, os.ErrPermission):
		return syscall.EACCES
	default:
		errLogger.Debug("Unknown error type, returning EIO: %v", err)
		return syscall.EIO
	}
}

// Operation names for consistent logging and error reporting
const (
	OpLookup  = "lookup"
	OpReadDir = "readdir"
	OpOpen    = "open"
	OpRead    = "read"
	OpWrite   = "write"
	OpSeek    = "seek"
	OpRelease = "release"
	OpCreate  = "create"
	OpMknod   = "mknod"
	OpFsync   = "fsync"
	OpSetattr = "setattr"
	OpGetattr = "getattr"
)
