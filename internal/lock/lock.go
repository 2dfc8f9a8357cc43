// Package lock provides per-key mutual exclusion that spans service
// instances. Registrations and bulk certificate issuance take a lock keyed by
// event so that several replicas cannot interleave their checks.
package lock

import (
	"context"
	"errors"
	"fmt"
)

// ErrNotAcquired is returned when a lock could not be taken before the wait
// deadline.
var ErrNotAcquired = errors.New("lock not acquired")

// Unlock releases a held lock.
type Unlock func(ctx context.Context) error

// Locker acquires named locks.
type Locker interface {
	Lock(ctx context.Context, key string) (Unlock, error)
}

// EventKey is the lock key for an event.
func EventKey(eventID int64) string {
	return fmt.Sprintf("lock:event:%d", eventID)
}

// Noop is a Locker that never blocks. It is used when Redis is disabled and
// the store's own row locks are sufficient.
type Noop struct{}

func (Noop) Lock(context.Context, string) (Unlock, error) {
	return func(context.Context) error { return nil }, nil
}
