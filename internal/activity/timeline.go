package activity

// Timeline is the ordered, append-only buffer of entries for the run in flight.
type Timeline struct {
	entries []Entry
}

// Append adds an entry at the end of the timeline.
func (t *Timeline) Append(e Entry) {
	t.entries = append(t.entries, e)
}

// Entries returns a copy of the timeline in arrival order.
func (t *Timeline) Entries() []Entry {
	out := make([]Entry, len(t.entries))
	copy(out, t.entries)
	return out
}

// Len returns the number of entries.
func (t *Timeline) Len() int {
	return len(t.entries)
}

// Reset empties the timeline for the next run.
func (t *Timeline) Reset() {
	t.entries = nil
}
