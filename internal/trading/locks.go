package trading

import "sync"

// LockSet serializes writers per account. A race between "open new trade" and
// "emergency stop closes all trades" must not leave a trade freshly opened
// and silently un-closed, so every mutating path acquires the account lock.
type LockSet struct {
	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

func NewLockSet() *LockSet {
	return &LockSet{locks: make(map[string]*sync.Mutex)}
}

// Acquire locks the account and returns the release func.
func (ls *LockSet) Acquire(accountID string) func() {
	ls.mu.Lock()
	l, ok := ls.locks[accountID]
	if !ok {
		l = &sync.Mutex{}
		ls.locks[accountID] = l
	}
	ls.mu.Unlock()
	l.Lock()
	return l.Unlock
}
