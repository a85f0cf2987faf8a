// Package optimistic retries version-checked writes.
package optimistic

import (
	"context"
	"errors"
	"fmt"

	"github.com/okian/kartcup/internal/domain/model"
	"github.com/okian/kartcup/pkg/metrics"
)

// DefaultAttempts is used when a caller passes a non-positive budget.
const DefaultAttempts = 5

// OptimisticLockError reports that every attempt lost to a concurrent writer.
type OptimisticLockError struct {
	Attempts    int
	LastVersion int64
}

func (e *OptimisticLockError) Error() string {
	return fmt.Sprintf("updated by someone else, please refresh (gave up after %d attempts, last version %d)",
		e.Attempts, e.LastVersion)
}

// Is matches model.ErrVersionConflict.
func (e *OptimisticLockError) Is(target error) bool {
	return target == model.ErrVersionConflict
}

// ReadFunc returns the version currently stored.
type ReadFunc func(ctx context.Context) (int64, error)

// WriteFunc attempts a write conditioned on version. It returns an error
// matching model.ErrVersionConflict when the row moved on.
type WriteFunc[T any] func(ctx context.Context, version int64) (T, error)

// UpdateWithRetry runs read then write until the write lands or attempts run
// out. Conflicts retry immediately with a fresh read; any other error is
// returned as is.
func UpdateWithRetry[T any](ctx context.Context, attempts int, read ReadFunc, write WriteFunc[T]) (T, error) {
	return updateWithRetry(ctx, attempts, 0, read, write)
}

// UpdateFromVersion is UpdateWithRetry whose first attempt writes against
// expected instead of reading. Later attempts read fresh state.
func UpdateFromVersion[T any](ctx context.Context, attempts int, expected int64, read ReadFunc, write WriteFunc[T]) (T, error) {
	return updateWithRetry(ctx, attempts, expected, read, write)
}

func updateWithRetry[T any](ctx context.Context, attempts int, expected int64, read ReadFunc, write WriteFunc[T]) (T, error) {
	var zero T
	if attempts <= 0 {
		attempts = DefaultAttempts
	}

	var last int64
	for i := 0; i < attempts; i++ {
		if err := ctx.Err(); err != nil {
			return zero, err
		}

		version := expected
		if i > 0 || expected <= 0 {
			v, err := read(ctx)
			if err != nil {
				return zero, err
			}
			version = v
		}
		last = version

		out, err := write(ctx, version)
		if err == nil {
			return out, nil
		}
		if !errors.Is(err, model.ErrVersionConflict) {
			return zero, err
		}
		metrics.RecordVersionConflict()
	}

	metrics.RecordLockExhausted()
	return zero, &OptimisticLockError{Attempts: attempts, LastVersion: last}
}
