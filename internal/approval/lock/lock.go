// Package lock provides per-tenant mutual exclusion for the approval
// workflow. The store's Execute callback already serializes writers within
// one process; the Redis locker extends that guarantee across replicas so
// two concurrent approval attempts, or a compliance toggle racing an
// approval, cannot both proceed.
package lock

import (
	"context"
	"sync"
)

// Locker acquires a named lock. Release must always be called, even when
// the guarded operation fails.
type Locker interface {
	Acquire(ctx context.Context, key string) (release func(), err error)
}

// Memory is a per-key in-process locker.
type Memory struct {
	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

func NewMemory() *Memory {
	return &Memory{locks: make(map[string]*sync.Mutex)}
}

func (m *Memory) Acquire(ctx context.Context, key string) (func(), error) {
	m.mu.Lock()
	keyLock, ok := m.locks[key]
	if !ok {
		keyLock = &sync.Mutex{}
		m.locks[key] = keyLock
	}
	m.mu.Unlock()

	keyLock.Lock()
	return keyLock.Unlock, nil
}
