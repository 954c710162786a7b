package lock

import (
	"context"
	"sync"

	"github.com/google/uuid"
	"github.com/matflow/backend/internal/application/txn"
)

// MemoryLocker serialises stock changes per material inside one process.
// It is suitable for single-instance deployments and tests; use RedisLocker
// when several instances share a database.
type MemoryLocker struct {
	mu    sync.Mutex
	slots map[uuid.UUID]*slot
}

type slot struct {
	sem  chan struct{}
	refs int
}

// NewMemoryLocker creates an empty MemoryLocker
func NewMemoryLocker() *MemoryLocker {
	return &MemoryLocker{slots: make(map[uuid.UUID]*slot)}
}

// Lock acquires every id in sorted order, blocking until all are held or ctx is done
func (l *MemoryLocker) Lock(ctx context.Context, ids []uuid.UUID) (func(), error) {
	ids = txn.SortedUnique(ids)
	held := make([]uuid.UUID, 0, len(ids))
	for _, id := range ids {
		s := l.join(id)
		select {
		case s.sem <- struct{}{}:
			held = append(held, id)
		case <-ctx.Done():
			l.leave(id)
			l.unlock(held)
			return nil, ctx.Err()
		}
	}

	var once sync.Once
	return func() {
		once.Do(func() { l.unlock(held) })
	}, nil
}

// Held returns how many materials currently have a holder or waiter
func (l *MemoryLocker) Held() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.slots)
}

func (l *MemoryLocker) join(id uuid.UUID) *slot {
	l.mu.Lock()
	defer l.mu.Unlock()
	s, ok := l.slots[id]
	if !ok {
		s = &slot{sem: make(chan struct{}, 1)}
		l.slots[id] = s
	}
	s.refs++
	return s
}

func (l *MemoryLocker) leave(id uuid.UUID) {
	l.mu.Lock()
	defer l.mu.Unlock()
	s := l.slots[id]
	s.refs--
	if s.refs == 0 {
		delete(l.slots, id)
	}
}

func (l *MemoryLocker) unlock(ids []uuid.UUID) {
	for i := len(ids) - 1; i >= 0; i-- {
		l.mu.Lock()
		s := l.slots[ids[i]]
		l.mu.Unlock()
		<-s.sem
		l.leave(ids[i])
	}
}

var _ txn.MaterialLocker = (*MemoryLocker)(nil)
