package service

import "sync"

// Locker serializes mutations per key (a user id). The single-active
// session, timer and break rules are enforced by reading the user's current
// records and then writing, so two concurrent starts for one user must not
// interleave. Storage gives no exclusivity of its own.
type Locker interface {
	Lock(key string) (unlock func())
}

// UserLocker is an in-process Locker. A deployment with several writer
// processes needs a Locker shared between them instead.
type UserLocker struct {
	mu    sync.Mutex
	locks map[string]*userLock
}

type userLock struct {
	mu   sync.Mutex
	refs int
}

func NewUserLocker() *UserLocker {
	return &UserLocker{locks: make(map[string]*userLock)}
}

func (l *UserLocker) Lock(key string) func() {
	l.mu.Lock()
	ul, ok := l.locks[key]
	if !ok {
		ul = &userLock{}
		l.locks[key] = ul
	}
	ul.refs++
	l.mu.Unlock()

	ul.mu.Lock()
	return func() {
		ul.mu.Unlock()
		l.mu.Lock()
		ul.refs--
		if ul.refs == 0 {
			delete(l.locks, key)
		}
		l.mu.Unlock()
	}
}

// held reports how many keys currently have holders or waiters.
func (l *UserLocker) held() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.locks)
}
