package service

import "sync"

// AccountLocks serializes mutating operations per account.  Two
// concurrent submissions or penalty applications against the same
// identity take the same mutex and observe a consistent snapshot;
// operations on distinct accounts proceed in parallel.  All
// services mutating account state must share one AccountLocks
// instance, otherwise the serialization guarantee is void.
type AccountLocks struct {
	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

// NewAccountLocks returns an empty lock table.
func NewAccountLocks() *AccountLocks {
	return &AccountLocks{locks: make(map[string]*sync.Mutex)}
}

// Lock acquires the mutex for an identity, creating it on first
// use, and returns the matching unlock function.  Entries are
// never removed: the set of identities is bounded by the account
// table and a mutex is tiny.
func (l *AccountLocks) Lock(identity string) func() {
	l.mu.Lock()
	m, ok := l.locks[identity]
	if !ok {
		m = &sync.Mutex{}
		l.locks[identity] = m
	}
	l.mu.Unlock()
	m.Lock()
	return m.Unlock
}
