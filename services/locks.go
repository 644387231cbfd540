package services

import "sync"

// matchLocker serializes operations on a single match within this process.
// Cross-process writers are still caught by the version column on matches.
type matchLocker struct {
	mu    sync.Mutex
	locks map[int]*matchLock
}

type matchLock struct {
	mu   sync.Mutex
	refs int
}

func newMatchLocker() *matchLocker {
	return &matchLocker{locks: make(map[int]*matchLock)}
}

// Lock acquires the per-match mutex and returns the unlock function.
func (l *matchLocker) Lock(matchID int) func() {
	l.mu.Lock()
	entry, ok := l.locks[matchID]
	if !ok {
		entry = &matchLock{}
		l.locks[matchID] = entry
	}
	entry.refs++
	l.mu.Unlock()

	entry.mu.Lock()

	return func() {
		entry.mu.Unlock()
		l.mu.Lock()
		entry.refs--
		if entry.refs == 0 {
			delete(l.locks, matchID)
		}
		l.mu.Unlock()
	}
}
