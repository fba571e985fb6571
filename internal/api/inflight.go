package api

import "sync"

// Inflight tracks which message ids currently have a download in
// progress, so a caller issuing concurrent DownloadOne requests never
// sends two for the same id. Add before sending, remove on every exit
// path.
type Inflight struct {
	mu  sync.Mutex
	ids map[int64]struct{}
}

// NewInflight creates an empty tracker.
func NewInflight() *Inflight {
	return &Inflight{ids: make(map[int64]struct{})}
}

// Start marks id as in flight. It returns false if a download for the
// id is already running, in which case the caller must not send another.
func (f *Inflight) Start(id int64) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.ids[id]; ok {
		return false
	}
	f.ids[id] = struct{}{}
	return true
}

// Done releases id. Safe to call for ids that are not in flight.
func (f *Inflight) Done(id int64) {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.ids, id)
}

// Active returns the number of in-flight downloads.
func (f *Inflight) Active() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.ids)
}
