package txn

import (
	"context"
	"sort"

	"github.com/google/uuid"
)

// MaterialLocker serialises stock-moving operations that touch the same
// materials. Lock blocks until every id is held or ctx is done; the returned
// release function must be called exactly once.
type MaterialLocker interface {
	Lock(ctx context.Context, ids []uuid.UUID) (release func(), err error)
}

// NoopLocker relies on the database alone for isolation
type NoopLocker struct{}

// Lock returns immediately
func (NoopLocker) Lock(context.Context, []uuid.UUID) (func(), error) {
	return func() {}, nil
}

// SortedUnique returns ids deduplicated and in a stable order, so that
// lockers always acquire in the same sequence and cannot deadlock.
func SortedUnique(ids []uuid.UUID) []uuid.UUID {
	seen := make(map[uuid.UUID]struct{}, len(ids))
	out := make([]uuid.UUID, 0, len(ids))
	for _, id := range ids {
		if id == uuid.Nil {
			continue
		}
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].String() < out[j].String()
	})
	return out
}
