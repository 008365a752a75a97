package service

import "sync"

// userLocks hands out one mutex per user ID so turns for the same user
// serialize while unrelated users proceed in parallel. Entries are
// reference-counted and removed once the last holder releases, keeping the
// map bounded by concurrent users rather than all users ever seen.
type userLocks struct {
	mu      sync.Mutex
	entries map[string]*lockEntry
}

type lockEntry struct {
	mu   sync.Mutex
	refs int
}

func newUserLocks() *userLocks {
	return &userLocks{entries: make(map[string]*lockEntry)}
}

// lock blocks until the user's mutex is held and returns the release func.
func (l *userLocks) lock(userID string) func() {
	l.mu.Lock()
	e, ok := l.entries[userID]
	if !ok {
		e = &lockEntry{}
		l.entries[userID] = e
	}
	e.refs++
	l.mu.Unlock()

	e.mu.Lock()

	return func() {
		e.mu.Unlock()
		l.mu.Lock()
		e.refs--
		if e.refs == 0 {
			delete(l.entries, userID)
		}
		l.mu.Unlock()
	}
}
