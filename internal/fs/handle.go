package fs

import (
	"context"

	"versionfs/internal/passthrough"

	"bazil.org/fuse"
)

// Handle is an open session on the target. Writes go to the descriptor
// the session was opened with; reads always return the newest snapshot.
type Handle struct {
	fs      *VersionFS
	session *passthrough.Session
}

// Session returns the passthrough session behind the handle
func (h *Handle) Session() *passthrough.Session {
	return h.session
}

// Read implements the HandleReader interface. The handle's own descriptor
// is not used: content comes from the current version by path.
func (h *Handle) Read(_ context.Context, req *fuse.ReadRequest, resp *fuse.ReadResponse) error {
	fileLogger.Trace("read fd=%d offset=%d size=%d", h.session.Fd(), req.Offset, req.Size)

	data, err := h.fs.versions.ReadCurrent(req.Offset, req.Size)
	if err != nil {
		fileLogger.Debug("Failed to read: %v", err)
		return ToFuseError(NewFSError(OpRead, h.fs.versions.Name(), err))
	}

	resp.Data = data
	return nil
}

// Write implements the HandleWriter interface.
func (h *Handle) Write(_ context.Context, req *fuse.WriteRequest, resp *fuse.WriteResponse) error {
	fileLogger.Trace("write fd=%d offset=%d len=%d", h.session.Fd(), req.Offset, len(req.Data))

	n, err := h.session.Write(req.Offset, req.Data)
	if err != nil {
		fileLogger.Debug("Failed to write: %v", err)
		return ToFuseError(NewFSError(OpWrite, h.session.Path(), err))
	}

	resp.Size = n
	return nil
}

// Seek repositions the session's descriptor. The bazil host has no lseek
// request, so the kernel resolves lseek on its own; this is the handle
// level entry point for callers that drive sessions directly.
func (h *Handle) Seek(offset int64, whence int) (int64, error) {
	fileLogger.Trace("seek fd=%d offset=%d whence=%d", h.session.Fd(), offset, whence)

	off, err := h.session.Seek(offset, whence)
	if err != nil {
		return 0, ToFuseError(NewFSError(OpSeek, h.session.Path(), err))
	}
	return off, nil
}

// Release implements the HandleReleaser interface, closing the descriptor.
func (h *Handle) Release(_ context.Context, _ *fuse.ReleaseRequest) error {
	fileLogger.Debug("release %v", h.session)
	h.fs.untrack(h)

	if err := h.session.Release(); err != nil {
		return ToFuseError(NewFSError(OpRelease, h.session.Path(), err))
	}
	return nil
}
