package store

import (
	"context"
	"fmt"
	"time"
)

// Store is the minimal contract the concurrency primitives need from the shared
// coordination store: atomic single-key operations with millisecond TTLs.
// Release/extend style operations must be a single server-side step, never a
// client-side read followed by a write.
type Store interface {
	// SetIfAbsent writes key=value with a TTL only when the key does not exist.
	// Returns true when this call created the key.
	SetIfAbsent(ctx context.Context, key, value string, ttl time.Duration) (bool, error)

	// Get returns the current value. found is false when the key is absent or expired.
	Get(ctx context.Context, key string) (value string, found bool, err error)

	// CompareAndDelete deletes the key only when its current value equals expected.
	// Returns true when the key was deleted by this call.
	CompareAndDelete(ctx context.Context, key, expected string) (bool, error)

	// CompareAndExpire re-arms the TTL only when the current value equals expected.
	// Returns true when the TTL was applied by this call.
	CompareAndExpire(ctx context.Context, key, expected string, ttl time.Duration) (bool, error)

	// Expire re-arms the TTL unconditionally. Returns false when the key is absent.
	Expire(ctx context.Context, key string, ttl time.Duration) (bool, error)

	// Exists reports whether the key currently exists.
	Exists(ctx context.Context, key string) (bool, error)

	// TTL returns the remaining lifetime of the key, 0 when absent or expired.
	TTL(ctx context.Context, key string) (time.Duration, error)

	// Delete removes the key unconditionally. Admin and test cleanup only.
	Delete(ctx context.Context, key string) error
}

// StoreError 存储层错误，携带底层错误
type StoreError struct {
	Op  string
	Key string
	Err error
}

func (e *StoreError) Error() string {
	return fmt.Sprintf("store %s %s: %s", e.Op, e.Key, e.Err)
}

func (e *StoreError) Unwrap() error {
	return e.Err
}

func newError(op, key string, err error) *StoreError {
	return &StoreError{Op: op, Key: key, Err: err}
}
