package fs

import (
	"time"

	"versionfs/internal/version"

	"bazil.org/fuse"
)

// attrValid is how long the kernel may cache attributes and entries.
const attrValid = time.Second

func fillAttr(a *fuse.Attr, attrs version.Attributes) {
	a.Valid = attrValid
	a.Inode = attrs.Inode()
	a.Size = attrs.Size
	a.Blocks = attrs.Blocks
	a.Atime = attrs.Time
	a.Mtime = attrs.Time
	a.Ctime = attrs.Time
	a.Crtime = attrs.Time
	a.Mode = attrs.Mode
	a.Nlink = attrs.Nlink
	a.Uid = attrs.Uid
	a.Gid = attrs.Gid
	a.BlockSize = attrs.BlockSize
}
