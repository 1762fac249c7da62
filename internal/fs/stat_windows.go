//go:build windows

package fs

import (
	"io/fs"

	"fim-go/internal/fim"
)

// StatData returns a POSIX-style mode for a Windows file. Ownership comes
// from the security descriptor, see WindowsOwnerResolver.
func (m *OSFilesystemManager) StatData(_ string, info fs.FileInfo) fim.StatData {
	return fim.StatData{Mode: posixMode(info.Mode())}
}
