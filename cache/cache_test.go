package cache

import (
	"errors"
	"strings"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLRUEvictsLeastRecentlyUsed(t *testing.T) {
	c := New[string, int]("test_evict", 2)
	c.Set("a", 1)
	c.Set("b", 2)

	_, ok := c.Get("a")
	require.True(t, ok)

	c.Set("c", 3)
	assert.Equal(t, 2, c.Len())
	_, ok = c.Get("b")
	assert.False(t, ok)
	value, ok := c.Get("a")
	assert.True(t, ok)
	assert.Equal(t, 1, value)

	assert.Equal(t, float64(1), testutil.ToFloat64(evictions.WithLabelValues("test_evict")))
	assert.Equal(t, float64(2), testutil.ToFloat64(hits.WithLabelValues("test_evict")))
	assert.Equal(t, float64(1), testutil.ToFloat64(misses.WithLabelValues("test_evict")))
}

func TestLRUSetUpdatesInPlace(t *testing.T) {
	c := New[string, int]("test_update", 2)
	c.Set("a", 1)
	c.Set("a", 2)
	assert.Equal(t, 1, c.Len())
	value, _ := c.Get("a")
	assert.Equal(t, 2, value)
}

func TestLRUDelete(t *testing.T) {
	c := New[string, int]("test_delete", 0)
	for _, key := range []string{"plan-1@1", "plan-1@2", "plan-2@1"} {
		c.Set(key, 1)
	}

	assert.True(t, c.Delete("plan-2@1"))
	assert.False(t, c.Delete("plan-2@1"))
	assert.Equal(t, 2, c.DeleteFunc(func(key string) bool { return strings.HasPrefix(key, "plan-1@") }))
	assert.Zero(t, c.Len())

	c.Set("x", 1)
	c.Purge()
	assert.Zero(t, c.Len())
}

func TestGetOrComputeSharesOneComputation(t *testing.T) {
	c := New[string, int]("test_compute", 4)
	var calls atomic.Int32
	release := make(chan struct{})

	var wg sync.WaitGroup
	results := make([]int, 8)
	for i := range results {
		wg.Add(1)
		go func() {
			defer wg.Done()
			value, err := c.GetOrCompute("k", func() (int, error) {
				calls.Add(1)
				<-release
				return 42, nil
			})
			assert.NoError(t, err)
			results[i] = value
		}()
	}
	close(release)
	wg.Wait()

	for _, value := range results {
		assert.Equal(t, 42, value)
	}
	assert.LessOrEqual(t, calls.Load(), int32(len(results)))
	value, ok := c.Get("k")
	assert.True(t, ok)
	assert.Equal(t, 42, value)

	before := calls.Load()
	_, err := c.GetOrCompute("k", func() (int, error) {
		calls.Add(1)
		return 0, nil
	})
	require.NoError(t, err)
	assert.Equal(t, before, calls.Load())
}

func TestGetOrComputeDoesNotCacheErrors(t *testing.T) {
	c := New[string, int]("test_errors", 4)
	boom := errors.New("boom")

	_, err := c.GetOrCompute("k", func() (int, error) { return 0, boom })
	assert.ErrorIs(t, err, boom)
	assert.Zero(t, c.Len())

	value, err := c.GetOrCompute("k", func() (int, error) { return 7, nil })
	require.NoError(t, err)
	assert.Equal(t, 7, value)
}
