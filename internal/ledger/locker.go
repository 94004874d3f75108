package ledger

import "sync"

// EntityLocker hands out one mutex per entity id. Entries are reference
// counted and dropped once no caller holds or waits on them. The zero value
// is not usable; call NewEntityLocker.
type EntityLocker struct {
	mu    sync.Mutex
	locks map[string]*entityLock
}

type entityLock struct {
	mu   sync.Mutex
	refs int
}

func NewEntityLocker() *EntityLocker {
	return &EntityLocker{locks: make(map[string]*entityLock)}
}

// Lock blocks until the caller holds entityID's mutex and returns its release func.
func (l *EntityLocker) Lock(entityID string) func() {
	l.mu.Lock()
	el, ok := l.locks[entityID]
	if !ok {
		el = &entityLock{}
		l.locks[entityID] = el
	}
	el.refs++
	l.mu.Unlock()

	el.mu.Lock()

	return func() {
		el.mu.Unlock()

		l.mu.Lock()
		el.refs--
		if el.refs == 0 {
			delete(l.locks, entityID)
		}
		l.mu.Unlock()
	}
}

func (l *EntityLocker) size() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.locks)
}
