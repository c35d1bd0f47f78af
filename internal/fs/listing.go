package fs

import (
	"versionfs/internal/version"

	"bazil.org/fuse"
)

// ListEntries returns the listing of the directory with the given inode,
// skipping the first offset entries. The order is fixed: ".", "..", then
// the target once a version exists.
func (vfs *VersionFS) ListEntries(inode uint64, offset int) ([]fuse.Dirent, error) {
	if kind, ok := version.KindOf(inode); !ok || kind != version.KindRoot {
		return nil, NewFSError(OpReadDir, "", version.ErrNotFound)
	}

	root := version.KindRoot.Inode()
	entries := []fuse.Dirent{
		{Inode: root, Type: fuse.DT_Dir, Name: "."},
		{Inode: root, Type: fuse.DT_Dir, Name: ".."},
	}
	if vfs.versions.Version() > 0 {
		entries = append(entries, fuse.Dirent{
			Inode: version.KindTarget.Inode(),
			Type:  fuse.DT_File,
			Name:  vfs.versions.Name(),
		})
	}

	if offset < 0 {
		offset = 0
	}
	if offset >= len(entries) {
		return []fuse.Dirent{}, nil
	}
	return entries[offset:], nil
}
