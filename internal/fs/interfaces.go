// internal/fs/interfaces.go

package fs

import (
	"bazil.org/fuse/fs"
)

// Directory is the single virtual root
type Directory interface {
	fs.Node
	fs.NodeStringLookuper
	fs.HandleReadDirAller
	fs.NodeMknoder
	fs.NodeCreater
}

// FileInterface is the versioned target file
type FileInterface interface {
	fs.Node
	fs.NodeOpener
	fs.NodeSetattrer
	fs.NodeFsyncer
}

// FileHandleInterface is an open session on a snapshot
type FileHandleInterface interface {
	fs.Handle
	fs.HandleReader
	fs.HandleWriter
	fs.HandleReleaser
}

var (
	_ fs.FS               = (*VersionFS)(nil)
	_ Directory           = (*Dir)(nil)
	_ FileInterface       = (*Target)(nil)
	_ FileHandleInterface = (*Handle)(nil)
)
