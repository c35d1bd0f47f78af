package version

import (
	"os"
	"time"
)

// Kind enumerates the nodes of the virtual namespace.
type Kind int

const (
	// KindRoot is the single virtual directory
	KindRoot Kind = iota + 1
	// KindTarget is the versioned file
	KindTarget
)

// Inode returns the fixed inode number of the node kind.
func (k Kind) Inode() uint64 {
	return uint64(k)
}

func (k Kind) String() string {
	switch k {
	case KindRoot:
		return "root"
	case KindTarget:
		return "target"
	default:
		return "unknown"
	}
}

// KindOf maps an inode number back to its node kind.
func KindOf(inode uint64) (Kind, bool) {
	switch inode {
	case KindRoot.Inode():
		return KindRoot, true
	case KindTarget.Inode():
		return KindTarget, true
	}
	return 0, false
}

const (
	rootPerm   os.FileMode = 0755
	targetPerm os.FileMode = 0777
	blockSize              = 512
)

// Epoch is the fixed timestamp reported for every node.
var Epoch = time.Unix(0, 0)

// Owner is the uid/gid reported on every node.
type Owner struct {
	Uid uint32
	Gid uint32
}

// Attributes is a derived attribute record. Only Size (and Blocks, which
// follows from it) ever varies.
type Attributes struct {
	Kind      Kind
	Size      uint64
	Blocks    uint64
	Mode      os.FileMode
	Nlink     uint32
	Uid       uint32
	Gid       uint32
	BlockSize uint32
	Time      time.Time
}

// Inode returns the inode number of the node the record describes.
func (a Attributes) Inode() uint64 {
	return a.Kind.Inode()
}

// RootAttributes returns the static record of the virtual directory.
func RootAttributes(owner Owner) Attributes {
	return Attributes{
		Kind:      KindRoot,
		Mode:      os.ModeDir | rootPerm,
		Nlink:     2,
		Uid:       owner.Uid,
		Gid:       owner.Gid,
		BlockSize: blockSize,
		Time:      Epoch,
	}
}

func targetAttributes(owner Owner, size int64) Attributes {
	var sz uint64
	if size > 0 {
		sz = uint64(size)
	}
	return Attributes{
		Kind:      KindTarget,
		Size:      sz,
		Blocks:    (sz + blockSize - 1) / blockSize,
		Mode:      targetPerm,
		Nlink:     1,
		Uid:       owner.Uid,
		Gid:       owner.Gid,
		BlockSize: blockSize,
		Time:      Epoch,
	}
}
