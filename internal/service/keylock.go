package service

import "sync"

// keyMutex serializes operations per entity key so that unrelated learners
// never contend on a shared lock. Mutexes are created on first use and kept
// for the life of the process; the key space (learners x subjects x types)
// is small enough that reclaiming them is not worth the bookkeeping.
type keyMutex struct {
	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

func newKeyMutex() *keyMutex {
	return &keyMutex{locks: make(map[string]*sync.Mutex)}
}

func (k *keyMutex) Lock(key string) {
	k.mu.Lock()
	lock, ok := k.locks[key]
	if !ok {
		lock = &sync.Mutex{}
		k.locks[key] = lock
	}
	k.mu.Unlock()
	lock.Lock()
}

func (k *keyMutex) Unlock(key string) {
	k.mu.Lock()
	lock := k.locks[key]
	k.mu.Unlock()
	lock.Unlock()
}
