package lockmap

import "sync"

// LockMap hands out one mutex per key so that all state mutations for a
// booking are serialized above the database transaction.
type LockMap struct {
	mu    sync.Mutex
	locks map[string]*entry
}

type entry struct {
	mu   sync.Mutex
	refs int
}

func New() *LockMap {
	return &LockMap{locks: make(map[string]*entry)}
}

func (l *LockMap) Lock(key string) {
	l.mu.Lock()
	e, ok := l.locks[key]
	if !ok {
		e = &entry{}
		l.locks[key] = e
	}
	e.refs++
	l.mu.Unlock()

	e.mu.Lock()
}

func (l *LockMap) Unlock(key string) {
	l.mu.Lock()
	e, ok := l.locks[key]
	if ok {
		e.refs--
		if e.refs == 0 {
			delete(l.locks, key)
		}
	}
	l.mu.Unlock()

	if ok {
		e.mu.Unlock()
	}
}

// Do runs fn while holding the key's mutex.
func (l *LockMap) Do(key string, fn func() error) error {
	l.Lock(key)
	defer l.Unlock(key)
	return fn()
}
