package application

import (
	"sync"

	"github.com/draftea/order-saga/shared/models"
	"github.com/puzpuzpuz/xsync/v3"
)

type sagaLock struct {
	mu   sync.Mutex
	refs int
}

// sagaLocks serializes in-process handling of one saga. Entries are removed
// once no goroutine holds or waits for them.
type sagaLocks struct {
	locks *xsync.MapOf[models.ID, *sagaLock]
}

func newSagaLocks() *sagaLocks {
	return &sagaLocks{
		locks: xsync.NewMapOf[models.ID, *sagaLock](),
	}
}

// Lock blocks until the caller owns id and returns the release function
func (l *sagaLocks) Lock(id models.ID) func() {
	lock, _ := l.locks.Compute(id, func(lock *sagaLock, loaded bool) (*sagaLock, bool) {
		if !loaded {
			lock = &sagaLock{}
		}
		lock.refs++
		return lock, false
	})

	lock.mu.Lock()

	return func() {
		lock.mu.Unlock()
		l.locks.Compute(id, func(lock *sagaLock, loaded bool) (*sagaLock, bool) {
			if !loaded {
				return nil, true
			}
			lock.refs--
			return lock, lock.refs == 0
		})
	}
}

func (l *sagaLocks) size() int {
	return l.locks.Size()
}
