package fs

import (
	"context"

	"versionfs/internal/logging"
	"versionfs/internal/version"

	"bazil.org/fuse"
	fusefs "bazil.org/fuse/fs"
)

var (
	dirLogger = logging.GetLogger().WithPrefix("dir")
)

// Dir is the flat virtual root. Its only child is the target.
type Dir struct {
	fs *VersionFS
}

// Attr implements the Node interface, returning the static root attributes.
func (d *Dir) Attr(_ context.Context, a *fuse.Attr) error {
	dirLogger.Trace("getattr root")
	fillAttr(a, d.fs.versions.RootAttributes())
	return nil
}

// Lookup implements the NodeStringLookuper interface. The returned node
// carries the attributes resolved at lookup time, which may come from
// the previous version if the current snapshot is not on disk.
func (d *Dir) Lookup(_ context.Context, name string) (fusefs.Node, error) {
	dirLogger.Debug("lookup %q (version %d)", name, d.fs.versions.Version())

	attrs, err := d.fs.versions.LookupTarget(version.KindRoot, name)
	if err != nil {
		dirLogger.Debug("Path not found: %q", name)
		return nil, ToFuseError(NewFSError(OpLookup, name, err))
	}

	return newTarget(d.fs, &attrs), nil
}

// ReadDirAll implements the HandleReadDirAller interface. bazil slices
// the result by the kernel's offset itself.
func (d *Dir) ReadDirAll(_ context.Context) ([]fuse.Dirent, error) {
	dirLogger.Debug("readdir root")
	entries, err := d.fs.ListEntries(version.KindRoot.Inode(), 0)
	if err != nil {
		return nil, ToFuseError(NewFSError(OpReadDir, "/", err))
	}
	return entries, nil
}

// Mknod implements the NodeMknoder interface. No node can ever be created:
// the target already exists and nothing else is supported.
func (d *Dir) Mknod(_ context.Context, req *fuse.MknodRequest) (fusefs.Node, error) {
	dirLogger.Debug("mknod %q", req.Name)
	return nil, ToFuseError(NewFSError(OpMknod, req.Name, d.createError(req.Name)))
}

// Create implements the NodeCreater interface with the same rules as Mknod.
func (d *Dir) Create(_ context.Context, req *fuse.CreateRequest, _ *fuse.CreateResponse) (fusefs.Node, fusefs.Handle, error) {
	dirLogger.Debug("create %q (flags %v)", req.Name, req.Flags)
	return nil, nil, ToFuseError(NewFSError(OpCreate, req.Name, d.createError(req.Name)))
}

func (d *Dir) createError(name string) error {
	if name == d.fs.versions.Name() {
		return ErrAlreadyExists
	}
	return ErrNotSupported
}
