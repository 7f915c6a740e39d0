// Package locker provides per-resource reader/writer locks keyed by
// canonical resource paths.
//
// The Manager is process-wide shared state by nature, but it is an
// explicitly constructed component injected into the storage engine, so
// tests can instantiate isolated managers per test case.
package locker

import (
	"context"
	"errors"
	"sync"
	"time"

	"golang.org/x/sync/semaphore"
)

// ErrLockTimeout is returned when a bounded lock acquisition expires
// before the lock becomes available.
var ErrLockTimeout = errors.New("lock acquisition timed out")

// maxReaders bounds the number of concurrent readers per lock. A writer
// acquires the full weight, waiting for all readers to drain; the FIFO
// ordering of semaphore.Weighted keeps writers from starving behind a
// stream of new readers.
const maxReaders = 1 << 30

// RWLock is a reader/writer lock with context-aware acquisition.
//
// Any number of readers may hold the lock simultaneously; a writer
// requires exclusive access.
type RWLock struct {
	sem *semaphore.Weighted
}

// NewRWLock creates an unlocked reader/writer lock.
func NewRWLock() *RWLock {
	return &RWLock{sem: semaphore.NewWeighted(maxReaders)}
}

// RLock acquires the lock in shared mode.
func (l *RWLock) RLock(ctx context.Context) error {
	return translate(l.sem.Acquire(ctx, 1))
}

// RUnlock releases a shared hold.
func (l *RWLock) RUnlock() {
	l.sem.Release(1)
}

// Lock acquires the lock in exclusive mode.
func (l *RWLock) Lock(ctx context.Context) error {
	return translate(l.sem.Acquire(ctx, maxReaders))
}

// Unlock releases an exclusive hold.
func (l *RWLock) Unlock() {
	l.sem.Release(maxReaders)
}

func translate(err error) error {
	if errors.Is(err, context.DeadlineExceeded) {
		return ErrLockTimeout
	}
	return err
}

// Manager maps canonical resource paths to reader/writer locks, created
// lazily on first access and retained for the lifetime of the manager.
type Manager struct {
	mu      sync.Mutex
	locks   map[string]*RWLock
	timeout time.Duration // 0 means block indefinitely
}

// NewManager creates an empty lock manager. If timeout is non-zero, every
// acquisition is bounded and surfaces ErrLockTimeout on expiry.
func NewManager(timeout time.Duration) *Manager {
	return &Manager{
		locks:   make(map[string]*RWLock),
		timeout: timeout,
	}
}

func (m *Manager) lock(resource string) *RWLock {
	m.mu.Lock()
	defer m.mu.Unlock()
	l, ok := m.locks[resource]
	if !ok {
		l = NewRWLock()
		m.locks[resource] = l
	}
	return l
}

func (m *Manager) bound(ctx context.Context) (context.Context, context.CancelFunc) {
	if m.timeout <= 0 {
		return ctx, func() {}
	}
	return context.WithTimeout(ctx, m.timeout)
}

// AcquireRead acquires the shared lock for a resource. The returned
// release function must be called exactly once, typically via defer, so
// the lock is released on every exit path.
func (m *Manager) AcquireRead(ctx context.Context, resource string) (release func(), err error) {
	l := m.lock(resource)
	ctx, cancel := m.bound(ctx)
	defer cancel()
	if err := l.RLock(ctx); err != nil {
		return nil, err
	}
	return l.RUnlock, nil
}

// AcquireWrite acquires the exclusive lock for a resource.
func (m *Manager) AcquireWrite(ctx context.Context, resource string) (release func(), err error) {
	l := m.lock(resource)
	ctx, cancel := m.bound(ctx)
	defer cancel()
	if err := l.Lock(ctx); err != nil {
		return nil, err
	}
	return l.Unlock, nil
}
