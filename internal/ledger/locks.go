package ledger

import "sync"

// keyedMutex hands out one mutex per account id. Entries are never removed:
// accounts are never deleted, so the registry grows with the account set and
// a lock acquired for an id is always the same mutex for the lifetime of the
// process.
type keyedMutex struct {
	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

func newKeyedMutex() *keyedMutex {
	return &keyedMutex{locks: make(map[string]*sync.Mutex)}
}

func (k *keyedMutex) get(key string) *sync.Mutex {
	k.mu.Lock()
	defer k.mu.Unlock()
	lock, ok := k.locks[key]
	if !ok {
		lock = &sync.Mutex{}
		k.locks[key] = lock
	}
	return lock
}

// Lock acquires the mutex for key and returns its unlock function.
func (k *keyedMutex) Lock(key string) func() {
	lock := k.get(key)
	lock.Lock()
	return lock.Unlock
}
