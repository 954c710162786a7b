package txn

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/matflow/backend/internal/domain/shared"
	"go.uber.org/zap"
)

// DefaultMaxConflictRetries is used when no retry budget is configured
const DefaultMaxConflictRetries = 3

// AtomicRunner runs stock-moving work as one all-or-nothing unit: it locks
// the affected materials, opens a transaction and retries the whole unit when
// an optimistic version check fails. Domain events raised inside are
// published only after a successful commit.
type AtomicRunner struct {
	scope      TransactionScope
	locker     MaterialLocker
	publisher  shared.EventPublisher
	logger     *zap.Logger
	maxRetries int
}

// NewAtomicRunner creates an AtomicRunner. A nil locker falls back to NoopLocker.
func NewAtomicRunner(scope TransactionScope, locker MaterialLocker, logger *zap.Logger) *AtomicRunner {
	if locker == nil {
		locker = NoopLocker{}
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AtomicRunner{
		scope:      scope,
		locker:     locker,
		logger:     logger,
		maxRetries: DefaultMaxConflictRetries,
	}
}

// SetMaxRetries sets how often a unit is retried after a version conflict
func (r *AtomicRunner) SetMaxRetries(n int) {
	if n < 0 {
		n = 0
	}
	r.maxRetries = n
}

// SetEventPublisher sets the publisher used after commit
func (r *AtomicRunner) SetEventPublisher(publisher shared.EventPublisher) {
	r.publisher = publisher
}

// Unit is the state handed to the work function of one attempt
type Unit struct {
	Repos  TransactionalRepositories
	events []shared.DomainEvent
}

// Collect queues the pending events of an aggregate for publication after commit
func (u *Unit) Collect(agg shared.AggregateRoot) {
	u.events = append(u.events, agg.GetDomainEvents()...)
	agg.ClearDomainEvents()
}

// Raise queues events that are not owned by an aggregate
func (u *Unit) Raise(events ...shared.DomainEvent) {
	u.events = append(u.events, events...)
}

// Run executes fn under locks on materialIDs inside a transaction.
func (r *AtomicRunner) Run(ctx context.Context, materialIDs []uuid.UUID, fn func(ctx context.Context, u *Unit) error) error {
	release, err := r.locker.Lock(ctx, SortedUnique(materialIDs))
	if err != nil {
		return fmt.Errorf("acquire material locks: %w", err)
	}
	defer release()

	var unit *Unit
	for attempt := 0; ; attempt++ {
		unit = &Unit{}
		err = r.scope.Execute(ctx, func(repos TransactionalRepositories) error {
			unit.Repos = repos
			return fn(ctx, unit)
		})
		if err == nil {
			break
		}
		if !errors.Is(err, shared.ErrConcurrencyConflict) || attempt >= r.maxRetries {
			return err
		}
		r.logger.Debug("retrying after version conflict",
			zap.Int("attempt", attempt+1),
			zap.Error(err),
		)
	}

	if r.publisher != nil && len(unit.events) > 0 {
		// Publish errors are logged by the event bus, not propagated
		_ = r.publisher.Publish(ctx, unit.events...)
	}
	return nil
}

// Read runs fn inside a transaction without locks or retries
func (r *AtomicRunner) Read(ctx context.Context, fn func(repos TransactionalRepositories) error) error {
	return r.scope.Execute(ctx, fn)
}
