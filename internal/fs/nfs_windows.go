//go:build windows

package fs

import (
	"fmt"
	"path/filepath"

	"golang.org/x/sys/windows"
)

// IsNetwork reports whether path is on a remote drive.
func (m *OSFilesystemManager) IsNetwork(path string) (bool, error) {
	root, err := windows.UTF16PtrFromString(filepath.VolumeName(path) + `\`)
	if err != nil {
		return false, fmt.Errorf("converting %s: %w", path, err)
	}
	return windows.GetDriveType(root) == windows.DRIVE_REMOTE, nil
}
