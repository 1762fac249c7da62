//go:build linux

package fs

import (
	"fmt"

	"golang.org/x/sys/unix"
)

// networkFilesystems are the statfs magic numbers treated as remote.
var networkFilesystems = map[uint32]string{
	0x6969:     "NFS",
	0xFF534D42: "CIFS",
	0x517B:     "SMB",
	0xFE534D42: "SMB2",
	0x564C:     "NCP",
	0x73757245: "CODA",
	0x5346414F: "AFS",
	0x01021997: "9P",
	0x65735546: "FUSE",
}

// IsNetwork reports whether path is on a network filesystem.
func (m *OSFilesystemManager) IsNetwork(path string) (bool, error) {
	var st unix.Statfs_t
	if err := unix.Statfs(path, &st); err != nil {
		return false, fmt.Errorf("statfs %s: %w", path, err)
	}
	_, ok := networkFilesystems[uint32(st.Type)]
	return ok, nil
}
