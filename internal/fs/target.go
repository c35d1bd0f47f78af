package fs

import (
	"context"
	"sync"

	"versionfs/internal/logging"
	"versionfs/internal/version"

	"bazil.org/fuse"
	fusefs "bazil.org/fuse/fs"
)

var (
	fileLogger = logging.GetLogger().WithPrefix("file")
)

// Target is the versioned file node.
type Target struct {
	fs *VersionFS

	mu    sync.Mutex
	entry *version.Attributes // set by Lookup, consumed by the first Attr
}

func newTarget(vfs *VersionFS, entry *version.Attributes) *Target {
	return &Target{fs: vfs, entry: entry}
}

// Attr implements the Node interface. Right after Lookup it reports the
// lookup-time attributes; afterwards always those of the current version.
func (t *Target) Attr(_ context.Context, a *fuse.Attr) error {
	t.mu.Lock()
	entry := t.entry
	t.entry = nil
	t.mu.Unlock()

	if entry != nil {
		fileLogger.Trace("getattr target from lookup: size=%d", entry.Size)
		fillAttr(a, *entry)
		return nil
	}

	attrs, err := t.fs.versions.CurrentAttributes()
	if err != nil {
		fileLogger.Debug("getattr target failed: %v", err)
		return ToFuseError(NewFSError(OpGetattr, t.fs.versions.Name(), err))
	}
	fileLogger.Trace("getattr target: version=%d size=%d", t.fs.versions.Version(), attrs.Size)
	fillAttr(a, attrs)
	return nil
}

// Open implements the NodeOpener interface. A write-intent open starts a
// new version; any other open binds to the current one.
func (t *Target) Open(_ context.Context, req *fuse.OpenRequest, resp *fuse.OpenResponse) (fusefs.Handle, error) {
	flags := int(req.Flags)
	fileLogger.Debug("open %q with flags %#o", t.fs.versions.Name(), flags)

	session, err := t.fs.versions.Open(flags)
	if err != nil {
		fileLogger.Error("Failed to open %q: %v", t.fs.versions.Name(), err)
		return nil, ToFuseError(NewFSError(OpOpen, t.fs.versions.Name(), err))
	}

	// Every read and write must reach the passthrough layer.
	resp.Flags |= fuse.OpenDirectIO

	h := &Handle{fs: t.fs, session: session}
	t.fs.track(h)

	fileLogger.Debug("Opened %v", session)
	return h, nil
}

// Setattr implements the NodeSetattrer interface. Requested changes are
// ignored; the reply always carries the current attributes.
func (t *Target) Setattr(_ context.Context, req *fuse.SetattrRequest, resp *fuse.SetattrResponse) error {
	fileLogger.Debug("setattr %q ignored (valid=%v)", t.fs.versions.Name(), req.Valid)

	attrs, err := t.fs.versions.CurrentAttributes()
	if err != nil {
		return ToFuseError(NewFSError(OpSetattr, t.fs.versions.Name(), err))
	}
	fillAttr(&resp.Attr, attrs)
	return nil
}

// Fsync implements the NodeFsyncer interface by syncing every open
// session of the target.
func (t *Target) Fsync(_ context.Context, _ *fuse.FsyncRequest) error {
	fileLogger.Debug("fsync %q", t.fs.versions.Name())
	if err := t.fs.syncAll(); err != nil {
		fileLogger.Error("fsync failed: %v", err)
		return ToFuseError(NewFSError(OpFsync, t.fs.versions.Name(), err))
	}
	return nil
}
