package lookahead_test

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iss4e/toolchain/lookahead"
)

func collect[T any](it *lookahead.Iterator[T]) []T {
	var out []T
	for v, ok := it.Next(); ok; v, ok = it.Next() {
		out = append(out, v)
	}
	return out
}

func TestPrefetchPreservesOrder(t *testing.T) {
	src := lookahead.FromSlice([]int{1, 2, 3, 4, 5})
	it := lookahead.Prefetch(context.Background(), src, 2, nil)

	assert.Equal(t, []int{1, 2, 3, 4, 5}, collect(it))
	assert.NoError(t, it.Err())
}

func TestPrefetchEmptySource(t *testing.T) {
	it := lookahead.Prefetch(context.Background(), lookahead.FromSlice[string](nil), 4, nil)

	_, ok := it.Next()
	assert.False(t, ok)
	assert.NoError(t, it.Err())
}

func TestPrefetchSurfacesSourceError(t *testing.T) {
	boom := errors.New("boom")
	calls := 0
	src := func() (int, bool, error) {
		calls++
		if calls > 2 {
			return 0, false, boom
		}
		return calls, true, nil
	}

	it := lookahead.Prefetch(context.Background(), src, 1, nil)
	got := collect(it)

	assert.Equal(t, []int{1, 2}, got)
	assert.ErrorIs(t, it.Err(), boom)
}

func TestPrefetchRunsAhead(t *testing.T) {
	var pulled atomic.Int32
	src := func() (int, bool, error) {
		n := pulled.Add(1)
		if n > 10 {
			return 0, false, nil
		}
		return int(n), true, nil
	}

	it := lookahead.Prefetch(context.Background(), src, 3, nil)
	defer it.Stop()

	// Without any Next call the producer fills the buffer on its own.
	assert.Eventually(t, func() bool {
		return pulled.Load() >= 3
	}, time.Second, 5*time.Millisecond)
}

func TestPrefetchStop(t *testing.T) {
	src := func() (int, bool, error) {
		return 1, true, nil // endless
	}

	it := lookahead.Prefetch(context.Background(), src, 2, nil)
	v, ok := it.Next()
	require.True(t, ok)
	assert.Equal(t, 1, v)

	it.Stop()

	// After Stop the iteration ends and reports cancellation.
	for _, ok := it.Next(); ok; _, ok = it.Next() {
	}
	assert.ErrorIs(t, it.Err(), context.Canceled)
}

func TestPrefetchContextCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	src := func() (int, bool, error) {
		return 1, true, nil // endless
	}

	it := lookahead.Prefetch(ctx, src, 1, nil)
	cancel()

	for _, ok := it.Next(); ok; _, ok = it.Next() {
	}
	assert.ErrorIs(t, it.Err(), context.Canceled)
}
