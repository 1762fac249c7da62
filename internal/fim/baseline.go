package fim

// Entry is the baseline record of one monitored path.
type Entry struct {
	Path string
	// Checksum is the stored line: flag prefix followed by the encoded record.
	Checksum   string
	WatchIndex int
}

// BaselineStore maps monitored paths to their last observed state.
// Implementations must be safe for concurrent use and must not hold locks
// across calls.
type BaselineStore interface {
	Get(path string) (Entry, bool)

	// Upsert inserts or replaces the entry for e.Path and returns the entry
	// it replaced, if any.
	Upsert(e Entry) (Entry, bool)

	// Remove deletes path from the store and from the pending deletion set.
	Remove(path string) (Entry, bool)

	// Snapshot returns an independent copy of all entries.
	Snapshot() []Entry

	// ForEach calls fn for every entry until fn returns false. fn runs on a
	// snapshot, so it may call back into the store.
	ForEach(fn func(Entry) bool)

	Len() int

	// BeginCycle records the current key set as the paths that will be
	// reported deleted unless MarkSeen is called for them.
	BeginCycle()

	MarkSeen(path string)

	// Unseen returns the paths not marked since BeginCycle and clears the set.
	Unseen() []string
}
