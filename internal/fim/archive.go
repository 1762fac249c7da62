package fim

import "io"

// Archive stores baseline exports off the host.
// All operations stream through io.Reader/io.Writer.
type Archive interface {
	// Put stores a named item for an agent. size is the number of bytes
	// that will be read from r. version is stored alongside the item.
	Put(agentID string, name string, r io.Reader, size int64, version int64) error

	// Get writes a named item for an agent to w.
	Get(agentID string, name string, w io.Writer) error

	// Version returns the stored version of an item, or 0 if it does not exist.
	Version(agentID string, name string) (int64, error)

	// ValidateSetup verifies that the archive is reachable.
	ValidateSetup() error
}
