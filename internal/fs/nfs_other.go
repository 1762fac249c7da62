//go:build !linux && !windows

package fs

// IsNetwork always reports false on platforms without a statfs type check.
func (m *OSFilesystemManager) IsNetwork(string) (bool, error) {
	return false, nil
}
