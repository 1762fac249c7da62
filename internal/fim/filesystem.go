package fim

import (
	"io"
	"io/fs"
)

// StatData holds the platform fields of a stat result that fs.FileInfo
// does not expose.
type StatData struct {
	UID   uint32
	GID   uint32
	Inode uint64
	// Mode is the raw st_mode, including the file type bits.
	Mode uint32
}

// FilesystemManager provides the filesystem primitives the scanner needs.
// It abstracts file access to enable testing without touching the real filesystem.
type FilesystemManager interface {
	// Lstat returns info about path without following a final symlink.
	Lstat(path string) (fs.FileInfo, error)

	// Stat follows symlinks.
	Stat(path string) (fs.FileInfo, error)

	// ReadDir returns the names of the entries in a directory.
	ReadDir(path string) ([]string, error)

	// Open opens a file for reading.
	Open(path string) (io.ReadCloser, error)

	// StatData extracts platform fields from info returned by Lstat or Stat.
	StatData(path string, info fs.FileInfo) StatData

	// IsNetwork reports whether path lives on a network filesystem.
	IsNetwork(path string) (bool, error)
}

// OwnerIdentity is a resolved file owner. On POSIX the IDs are decimal
// uid/gid strings; on Windows UID holds the owner SID and GID is empty.
type OwnerIdentity struct {
	UID       string
	UserName  string
	GID       string
	GroupName string
}

// OwnerResolver resolves the owner and group of a file.
type OwnerResolver interface {
	ResolveOwner(path string, st StatData) (OwnerIdentity, error)
}
