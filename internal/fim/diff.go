package fim

// DiffStore keeps captured copies of files that have content capture
// enabled.
type DiffStore interface {
	// Capture snapshots the current content of path and returns a textual
	// diff against the previous snapshot. An empty diff means there is
	// nothing to report.
	Capture(path string) (string, error)

	// Delete removes the snapshot of path.
	Delete(path string) error

	// Reconcile deletes every snapshot whose original path is not tracked
	// and returns how many were removed.
	Reconcile(isTracked func(path string) bool) (int, error)
}
