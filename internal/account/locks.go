package account

import "sync"

// Locks serializes mutations of a single account between the reconciliation
// cycle and the interactive command surface. Both sides lock the chat ID
// before a read-modify-write against Storage, which prevents lost updates to
// the cursor and pending set.
type Locks struct {
	mu    sync.Mutex
	locks map[int64]*sync.Mutex
}

// NewLocks returns an empty lock set.
func NewLocks() *Locks {
	return &Locks{
		locks: make(map[int64]*sync.Mutex),
	}
}

func (l *Locks) get(chatID int64) *sync.Mutex {
	l.mu.Lock()
	defer l.mu.Unlock()

	m, ok := l.locks[chatID]
	if !ok {
		m = new(sync.Mutex)
		l.locks[chatID] = m
	}
	return m
}

// Lock acquires the mutex for one chat.
func (l *Locks) Lock(chatID int64) {
	l.get(chatID).Lock()
}

// Unlock releases the mutex for one chat.
func (l *Locks) Unlock(chatID int64) {
	l.get(chatID).Unlock()
}
