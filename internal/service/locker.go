package service

import (
	"sync"
)

type refLock struct {
	sync.RWMutex
	refs int
}

// keyedLocker hands out one RWMutex per key and forgets it once nobody
// holds or waits for it.
type keyedLocker struct {
	mu    sync.Mutex
	locks map[string]*refLock
}

func newKeyedLocker() *keyedLocker {
	return &keyedLocker{
		locks: make(map[string]*refLock),
	}
}

func (k *keyedLocker) acquire(key string) *refLock {
	k.mu.Lock()
	defer k.mu.Unlock()

	l, ok := k.locks[key]
	if !ok {
		l = &refLock{}
		k.locks[key] = l
	}

	l.refs++

	return l
}

func (k *keyedLocker) release(key string, l *refLock) {
	k.mu.Lock()
	defer k.mu.Unlock()

	l.refs--
	if l.refs == 0 {
		delete(k.locks, key)
	}
}

func (k *keyedLocker) Lock(key string) (unlock func()) {
	l := k.acquire(key)
	l.Lock()

	return func() {
		l.Unlock()
		k.release(key, l)
	}
}

func (k *keyedLocker) RLock(key string) (unlock func()) {
	l := k.acquire(key)
	l.RLock()

	return func() {
		l.RUnlock()
		k.release(key, l)
	}
}

func (k *keyedLocker) size() int {
	k.mu.Lock()
	defer k.mu.Unlock()

	return len(k.locks)
}
