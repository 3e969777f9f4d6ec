package debugbus

import "sync"

// maxEntries bounds the recorder's ring buffer.
const maxEntries = 50

// Recorder is the canonical bus subscriber: it keeps the most recent entries,
// newest first, capped at maxEntries.
type Recorder struct {
	mu      sync.Mutex
	entries []Entry
}

// NewRecorder creates a recorder and attaches it to the bus.
func NewRecorder(bus *Bus) *Recorder {
	r := &Recorder{}
	bus.Subscribe(r.record)
	return r
}

func (r *Recorder) record(entry Entry) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.entries = append([]Entry{entry}, r.entries...)
	if len(r.entries) > maxEntries {
		r.entries = r.entries[:maxEntries]
	}
}

// Snapshot returns a copy of the retained entries, newest first.
func (r *Recorder) Snapshot() []Entry {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]Entry, len(r.entries))
	copy(out, r.entries)
	return out
}

// Clear drops all retained entries.
func (r *Recorder) Clear() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.entries = nil
}
