// Package passthrough performs raw, unbuffered I/O against snapshot files.
//
// Two access strategies live here and are kept apart on purpose:
// Session operations are pinned to the descriptor opened for one snapshot,
// while ReadRange always goes through a path chosen by the caller.
package passthrough

import (
	"fmt"

	"versionfs/internal/logging"

	"golang.org/x/sys/unix"
)

var (
	logger = logging.GetLogger().WithPrefix("passthrough")
)

// Session binds one native file descriptor to the snapshot that was
// current when it was opened.
type Session struct {
	fd      int
	path    string
	version uint64
	flags   int
}

// Open opens path with the client's flags and returns a Session owning
// the resulting descriptor.
func Open(path string, flags int, version uint64) (*Session, error) {
	fd, err := openRetry(path, flags|unix.O_CLOEXEC, 0o644)
	if err != nil {
		logger.Debug("open %q (flags %#o) failed: %v", path, flags, err)
		return nil, err
	}

	logger.Trace("Opened fd %d on %q for version %d", fd, path, version)
	return &Session{
		fd:      fd,
		path:    path,
		version: version,
		flags:   flags,
	}, nil
}

// Fd returns the native descriptor
func (s *Session) Fd() int { return s.fd }

// Path returns the snapshot path the session was opened on
func (s *Session) Path() string { return s.path }

// Version returns the snapshot version the session is pinned to
func (s *Session) Version() uint64 { return s.version }

// Flags returns the open flags the client requested
func (s *Session) Flags() int { return s.flags }

// Write writes data at offset directly to the session's descriptor. The
// errno is returned unchanged on failure.
func (s *Session) Write(offset int64, data []byte) (int, error) {
	for {
		n, err := unix.Pwrite(s.fd, data, offset)
		if err == unix.EINTR {
			continue
		}
		if err != nil {
			return 0, err
		}
		logger.Trace("fd %d: wrote %d bytes at %d", s.fd, n, offset)
		return n, nil
	}
}

// Seek repositions the descriptor's offset and returns the new absolute
// offset.
func (s *Session) Seek(offset int64, whence int) (int64, error) {
	off, err := unix.Seek(s.fd, offset, whence)
	if err != nil {
		return 0, err
	}
	return off, nil
}

// Sync flushes the snapshot's data to stable storage.
func (s *Session) Sync() error {
	return unix.Fsync(s.fd)
}

// Release closes the descriptor.
func (s *Session) Release() error {
	logger.Trace("Closing fd %d (version %d)", s.fd, s.version)
	return unix.Close(s.fd)
}

func (s *Session) String() string {
	return fmt.Sprintf("session{fd=%d version=%d path=%q}", s.fd, s.version, s.path)
}

func openRetry(path string, flags int, perm uint32) (int, error) {
	for {
		fd, err := unix.Open(path, flags, perm)
		if err == unix.EINTR {
			continue
		}
		return fd, err
	}
}
