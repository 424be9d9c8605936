// Package numbering allocates human-facing order numbers of the form #<N>.
//
// The next number is derived from the most recently created order. Reading
// that order and inserting the new ones happens while a distributed lock is
// held, and the unique index on order_number rejects anything that slips
// through.
package numbering

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"regexp"
	"slices"
	"strconv"
	"sync"
	"time"

	"github.com/venue-commerce-admin/internal/platform/locking"
)

const (
	// LockKey serializes every allocation across processes
	LockKey = "order-number-allocation"
	// DefaultSequence is assumed when no prior number can be parsed
	DefaultSequence = 1000
)

var (
	// ErrAllocationBusy is returned when the allocation lock could not be obtained in time
	ErrAllocationBusy = errors.New("order number allocation is busy, retry later")
	// ErrLockLost is the cancellation cause seen by fn once the lock could not be extended
	ErrLockLost = errors.New("order numbering lock lost")
)

var digitRun = regexp.MustCompile(`\d+`)

// LatestNumberReader is satisfied by the order repository
type LatestNumberReader interface {
	LatestOrderNumber(ctx context.Context) (string, error)
}

// ParseSequence extracts the last run of digits, or DefaultSequence.
func ParseSequence(orderNumber string) int {
	runs := digitRun.FindAllString(orderNumber, -1)
	if len(runs) == 0 {
		return DefaultSequence
	}
	n, err := strconv.Atoi(runs[len(runs)-1])
	if err != nil {
		return DefaultSequence
	}
	return n
}

// Format renders a sequence value as an order number.
func Format(n int) string {
	return "#" + strconv.Itoa(n)
}

type Allocator struct {
	reader  LatestNumberReader
	locker  locking.Locker
	lockTTL time.Duration
	logger  *slog.Logger
}

func NewAllocator(logger *slog.Logger, reader LatestNumberReader, locker locking.Locker, lockTTL time.Duration) *Allocator {
	return &Allocator{
		reader:  reader,
		locker:  locker,
		lockTTL: lockTTL,
		logger:  logger.With("component", "order_numbering"),
	}
}

// Next returns the number the next created order would get. The lock is
// released on return; writers should use WithNumbers.
func (a *Allocator) Next(ctx context.Context) (string, error) {
	var next string
	err := a.WithNumbers(ctx, 1, func(_ context.Context, numbers []string) error {
		next = numbers[0]
		return nil
	})
	return next, err
}

// WithNumbers holds the allocation lock while fn runs with n consecutive
// numbers. fn is expected to insert the orders with the context it is given
// before returning. The lock is extended every half TTL; if that fails the
// context is cancelled with ErrLockLost.
func (a *Allocator) WithNumbers(ctx context.Context, n int, fn func(ctx context.Context, numbers []string) error) error {
	if n <= 0 {
		return fn(ctx, nil)
	}

	lock, err := a.locker.Obtain(ctx, LockKey, a.lockTTL)
	if err != nil {
		if errors.Is(err, locking.ErrNotObtained) {
			return ErrAllocationBusy
		}
		return fmt.Errorf("failed to lock order numbering: %w", err)
	}
	defer func() {
		if err := lock.Release(context.WithoutCancel(ctx)); err != nil {
			a.logger.Error("Failed to release numbering lock", "error", err)
		}
	}()

	lockCtx, cancel := context.WithCancelCause(ctx)
	defer cancel(nil)
	stop := a.keepAlive(lockCtx, lock, cancel)
	defer stop()

	latest, err := a.reader.LatestOrderNumber(lockCtx)
	if err != nil {
		a.logger.Error("Failed to read latest order number", "error", err)
		return fmt.Errorf("failed to read latest order number: %w", err)
	}

	start := ParseSequence(latest) + 1
	numbers := make([]string, n)
	for i := range numbers {
		numbers[i] = Format(start + i)
	}

	a.logger.Debug("Allocated order numbers", "first", numbers[0], "count", n)
	return fn(lockCtx, numbers)
}

// keepAlive refreshes the lock until the returned stop func is called.
func (a *Allocator) keepAlive(ctx context.Context, lock locking.Lock, lost context.CancelCauseFunc) (stop func()) {
	interval := a.lockTTL / 2
	if interval <= 0 {
		return func() {}
	}

	done := make(chan struct{})
	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-done:
				return
			case <-ctx.Done():
				return
			case <-ticker.C:
				if err := lock.Refresh(ctx, a.lockTTL); err != nil {
					a.logger.Error("Numbering lock could not be extended", "error", err)
					lost(fmt.Errorf("%w: %v", ErrLockLost, err))
					return
				}
			}
		}
	}()

	return func() {
		close(done)
		wg.Wait()
	}
}

// SortChronologically orders items by timestamp, earliest first, keeping the
// input order for equal timestamps.
func SortChronologically[T any](items []T, at func(T) time.Time) {
	slices.SortStableFunc(items, func(a, b T) int {
		return at(a).Compare(at(b))
	})
}
