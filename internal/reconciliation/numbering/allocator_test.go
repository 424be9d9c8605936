package numbering

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/venue-commerce-admin/internal/platform/locking"
)

type fakeReader struct {
	latest string
	err    error
	calls  int
}

func (f *fakeReader) LatestOrderNumber(ctx context.Context) (string, error) {
	f.calls++
	return f.latest, f.err
}

type fakeLock struct {
	released   *int
	refreshed  *atomic.Int32
	refreshErr error
}

func (l fakeLock) Refresh(ctx context.Context, ttl time.Duration) error {
	l.refreshed.Add(1)
	return l.refreshErr
}

func (l fakeLock) Release(ctx context.Context) error {
	*l.released++
	return nil
}

type fakeLocker struct {
	err        error
	refreshErr error
	keys       []string
	released   int
	refreshed  atomic.Int32
}

func (f *fakeLocker) Obtain(ctx context.Context, key string, ttl time.Duration) (locking.Lock, error) {
	if f.err != nil {
		return nil, f.err
	}
	f.keys = append(f.keys, key)
	return fakeLock{released: &f.released, refreshed: &f.refreshed, refreshErr: f.refreshErr}, nil
}

func newTestAllocator(reader *fakeReader, locker *fakeLocker) *Allocator {
	return newTestAllocatorTTL(reader, locker, time.Minute)
}

func newTestAllocatorTTL(reader *fakeReader, locker *fakeLocker, ttl time.Duration) *Allocator {
	return NewAllocator(slog.New(slog.NewTextHandler(io.Discard, nil)), reader, locker, ttl)
}

func TestParseSequence(t *testing.T) {
	tests := []struct {
		in   string
		want int
	}{
		{"#1042", 1042},
		{"", DefaultSequence},
		{"#", DefaultSequence},
		{"SHOP-12-0077", 77},
		{"#99999999999999999999999", DefaultSequence},
		{"legacy", DefaultSequence},
	}

	for _, tc := range tests {
		t.Run(tc.in, func(t *testing.T) {
			assert.Equal(t, tc.want, ParseSequence(tc.in))
		})
	}
}

func TestFormat(t *testing.T) {
	assert.Equal(t, "#1001", Format(1001))
}

func TestNext(t *testing.T) {
	reader, locker := &fakeReader{latest: "#1041"}, &fakeLocker{}

	next, err := newTestAllocator(reader, locker).Next(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "#1042", next)
	assert.Equal(t, []string{LockKey}, locker.keys)
	assert.Equal(t, 1, locker.released)
}

func TestNext_EmptyStoreStartsAfterDefault(t *testing.T) {
	next, err := newTestAllocator(&fakeReader{}, &fakeLocker{}).Next(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "#1001", next)
}

func TestWithNumbers_Consecutive(t *testing.T) {
	reader, locker := &fakeReader{latest: "#1500"}, &fakeLocker{}

	var got []string
	err := newTestAllocator(reader, locker).WithNumbers(context.Background(), 3, func(_ context.Context, numbers []string) error {
		got = numbers
		assert.Equal(t, 0, locker.released, "lock must be held while inserting")
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"#1501", "#1502", "#1503"}, got)
	assert.Equal(t, 1, locker.released)
}

func TestWithNumbers_PropagatesCallbackErrorAndReleases(t *testing.T) {
	locker := &fakeLocker{}
	boom := errors.New("insert failed")

	err := newTestAllocator(&fakeReader{latest: "#1"}, locker).WithNumbers(context.Background(), 1, func(context.Context, []string) error {
		return boom
	})
	assert.ErrorIs(t, err, boom)
	assert.Equal(t, 1, locker.released)
}

func TestWithNumbers_Busy(t *testing.T) {
	reader := &fakeReader{}
	called := false

	err := newTestAllocator(reader, &fakeLocker{err: locking.ErrNotObtained}).WithNumbers(context.Background(), 2, func(context.Context, []string) error {
		called = true
		return nil
	})
	assert.ErrorIs(t, err, ErrAllocationBusy)
	assert.False(t, called)
	assert.Equal(t, 0, reader.calls)
}

func TestWithNumbers_ReadFailure(t *testing.T) {
	locker := &fakeLocker{}

	err := newTestAllocator(&fakeReader{err: errors.New("db down")}, locker).WithNumbers(context.Background(), 1, func(context.Context, []string) error {
		t.Fatal("callback must not run")
		return nil
	})
	assert.ErrorContains(t, err, "failed to read latest order number")
	assert.Equal(t, 1, locker.released)
}

func TestWithNumbers_ExtendsLockWhileRunning(t *testing.T) {
	locker := &fakeLocker{}

	err := newTestAllocatorTTL(&fakeReader{latest: "#7"}, locker, 20*time.Millisecond).WithNumbers(context.Background(), 2, func(ctx context.Context, numbers []string) error {
		time.Sleep(100 * time.Millisecond)
		return ctx.Err()
	})
	require.NoError(t, err)
	assert.GreaterOrEqual(t, locker.refreshed.Load(), int32(2))
	assert.Equal(t, 1, locker.released)

	after := locker.refreshed.Load()
	time.Sleep(50 * time.Millisecond)
	assert.Equal(t, after, locker.refreshed.Load(), "no refresh after return")
}

func TestWithNumbers_ExpiredLockCancelsCallback(t *testing.T) {
	locker := &fakeLocker{refreshErr: locking.ErrNotObtained}

	err := newTestAllocatorTTL(&fakeReader{latest: "#7"}, locker, 20*time.Millisecond).WithNumbers(context.Background(), 1, func(ctx context.Context, numbers []string) error {
		select {
		case <-ctx.Done():
			return context.Cause(ctx)
		case <-time.After(2 * time.Second):
			return errors.New("callback was not cancelled")
		}
	})
	assert.ErrorIs(t, err, ErrLockLost)
	assert.ErrorContains(t, err, locking.ErrNotObtained.Error())
	assert.Equal(t, int32(1), locker.refreshed.Load())
	assert.Equal(t, 1, locker.released)
}

func TestWithNumbers_ZeroSkipsLock(t *testing.T) {
	locker := &fakeLocker{}

	err := newTestAllocator(&fakeReader{}, locker).WithNumbers(context.Background(), 0, func(_ context.Context, numbers []string) error {
		assert.Empty(t, numbers)
		return nil
	})
	require.NoError(t, err)
	assert.Empty(t, locker.keys)
}

func TestSortChronologically(t *testing.T) {
	type ev struct {
		name string
		at   time.Time
	}
	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	items := []ev{
		{"late", base.Add(2 * time.Hour)},
		{"first-tie", base},
		{"early", base.Add(-time.Hour)},
		{"second-tie", base},
	}

	SortChronologically(items, func(e ev) time.Time { return e.at })

	names := make([]string, len(items))
	for i, e := range items {
		names[i] = e.name
	}
	assert.Equal(t, []string{"early", "first-tie", "second-tie", "late"}, names)
}
