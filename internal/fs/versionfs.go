package fs

import (
	"fmt"
	"sync"

	"versionfs/internal/logging"
	"versionfs/internal/version"

	"bazil.org/fuse"
	fusefs "bazil.org/fuse/fs"
	"github.com/hashicorp/go-multierror"
)

var (
	vfsLogger = logging.GetLogger().WithPrefix("vfs")
)

// VersionFS exposes one versioned file in a flat virtual root. Every
// decision about versions is delegated to the version manager; this type
// only adapts it to bazil's node and handle interfaces.
type VersionFS struct {
	versions *version.Manager
	conn     *fuse.Conn
	mu       sync.Mutex           // Protects conn and handles
	handles  map[*Handle]struct{} // Open sessions, for fsync
}

// NewVersionFS creates a filesystem around an initialized manager.
func NewVersionFS(versions *version.Manager) *VersionFS {
	vfsLogger.Info("Creating versioned filesystem for %q", versions.Name())
	vfsLogger.Debug("Snapshot directory: %s", versions.Dir())

	return &VersionFS{
		versions: versions,
		handles:  make(map[*Handle]struct{}),
	}
}

// Root implements the fusefs.FS interface, returning the root directory node.
func (vfs *VersionFS) Root() (fusefs.Node, error) {
	vfsLogger.Trace("Getting root directory node")
	return &Dir{fs: vfs}, nil
}

// Versions returns the underlying version manager
func (vfs *VersionFS) Versions() *version.Manager {
	return vfs.versions
}

func (vfs *VersionFS) track(h *Handle) {
	vfs.mu.Lock()
	defer vfs.mu.Unlock()
	vfs.handles[h] = struct{}{}
}

func (vfs *VersionFS) untrack(h *Handle) {
	vfs.mu.Lock()
	defer vfs.mu.Unlock()
	delete(vfs.handles, h)
}

// OpenHandles returns the number of sessions not yet released
func (vfs *VersionFS) OpenHandles() int {
	vfs.mu.Lock()
	defer vfs.mu.Unlock()
	return len(vfs.handles)
}

// syncAll flushes every open session to stable storage.
func (vfs *VersionFS) syncAll() error {
	vfs.mu.Lock()
	handles := make([]*Handle, 0, len(vfs.handles))
	for h := range vfs.handles {
		handles = append(handles, h)
	}
	vfs.mu.Unlock()

	var errs *multierror.Error
	for _, h := range handles {
		if err := h.session.Sync(); err != nil {
			errs = multierror.Append(errs, fmt.Errorf("version %d: %w", h.session.Version(), err))
		}
	}
	return errs.ErrorOrNil()
}

// Mount mounts the filesystem at mountPoint. Serve must be called to
// answer requests.
func (vfs *VersionFS) Mount(mountPoint string, extra ...fuse.MountOption) error {
	vfsLogger.Info("Mounting versioned filesystem")
	vfsLogger.Debug("Mount point: %s", mountPoint)

	mountOpts := append([]fuse.MountOption{
		fuse.FSName("versionfs"),
		fuse.Subtype("versionfs"),
		fuse.DefaultPermissions(),
	}, extra...)

	c, err := fuse.Mount(mountPoint, mountOpts...)
	if err != nil {
		return fmt.Errorf("mount failed: %w", err)
	}

	vfs.mu.Lock()
	vfs.conn = c
	vfs.mu.Unlock()

	vfsLogger.Info("Filesystem mounted at %s", mountPoint)
	return nil
}

// Serve answers FUSE requests until the filesystem is unmounted.
func (vfs *VersionFS) Serve() error {
	vfs.mu.Lock()
	c := vfs.conn
	vfs.mu.Unlock()
	if c == nil {
		return fmt.Errorf("filesystem is not mounted")
	}

	vfsLogger.Info("Serving filesystem...")
	err := fusefs.Serve(c, vfs)

	vfs.mu.Lock()
	vfs.conn = nil
	vfs.mu.Unlock()

	if closeErr := c.Close(); closeErr != nil {
		vfsLogger.Warn("Closing FUSE connection: %v", closeErr)
	}
	vfsLogger.Debug("FUSE server stopped")
	return err
}

// Unmount cleanly unmounts the filesystem. It is a no-op once serving has
// stopped.
func (vfs *VersionFS) Unmount(mountPoint string) error {
	vfs.mu.Lock()
	mounted := vfs.conn != nil
	vfs.mu.Unlock()
	if !mounted {
		return nil
	}

	vfsLogger.Info("Unmounting filesystem from: %s", mountPoint)
	if err := fuse.Unmount(mountPoint); err != nil {
		vfsLogger.Error("Unmount failed: %v", err)
		return err
	}
	vfsLogger.Info("Unmount completed successfully")
	return nil
}
