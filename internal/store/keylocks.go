package store

import "sync"

// KeyLocks serializes read-modify-write cycles per key. Callers on
// different keys proceed independently; callers on the same key are
// strictly ordered. One mutex per key, created lazily and never shared
// across unrelated keys.
type KeyLocks struct {
	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

func NewKeyLocks() *KeyLocks {
	return &KeyLocks{locks: make(map[string]*sync.Mutex)}
}

// Lock acquires the mutex for key and returns its unlock func.
//
//	defer locks.Lock(key)()
func (k *KeyLocks) Lock(key string) func() {
	k.mu.Lock()
	l, ok := k.locks[key]
	if !ok {
		l = &sync.Mutex{}
		k.locks[key] = l
	}
	k.mu.Unlock()

	l.Lock()
	return l.Unlock
}
