package core

import "sync"

// domainLocks serializes workflows per domain. Entries are reference
// counted and dropped when no goroutine holds or waits on them.
type domainLocks struct {
	mu    sync.Mutex
	locks map[string]*domainLock
}

type domainLock struct {
	mu   sync.Mutex
	refs int
}

func newDomainLocks() *domainLocks {
	return &domainLocks{locks: make(map[string]*domainLock)}
}

// Lock blocks until domain is free and returns the matching unlock func.
func (l *domainLocks) Lock(domain string) func() {
	l.mu.Lock()
	dl, ok := l.locks[domain]
	if !ok {
		dl = &domainLock{}
		l.locks[domain] = dl
	}
	dl.refs++
	l.mu.Unlock()

	dl.mu.Lock()
	return func() {
		dl.mu.Unlock()
		l.mu.Lock()
		dl.refs--
		if dl.refs == 0 {
			delete(l.locks, domain)
		}
		l.mu.Unlock()
	}
}
