//go:build unix

package fs

import (
	"io/fs"
	"syscall"

	"fim-go/internal/fim"
)

// StatData extracts Unix-specific stat data from a FileInfo. If info does
// not carry a *syscall.Stat_t only the mode bits are filled in.
func (m *OSFilesystemManager) StatData(_ string, info fs.FileInfo) fim.StatData {
	stat, ok := info.Sys().(*syscall.Stat_t)
	if !ok {
		return fim.StatData{Mode: posixMode(info.Mode())}
	}

	return fim.StatData{
		UID:   stat.Uid,
		GID:   stat.Gid,
		Inode: uint64(stat.Ino),
		Mode:  uint32(stat.Mode),
	}
}
