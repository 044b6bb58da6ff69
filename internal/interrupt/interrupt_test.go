package interrupt

import (
	"sync"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestOnce_RunsOnceAndSharesResult(t *testing.T) {
	var calls atomic.Int32
	shutdown := Once(func() bool {
		calls.Add(1)
		return true
	})

	var wg sync.WaitGroup
	results := make([]bool, 16)
	for i := range results {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			results[i] = shutdown()
		}(i)
	}
	wg.Wait()

	require.Equal(t, int32(1), calls.Load())
	for _, r := range results {
		require.True(t, r)
	}
}

func TestOnce_FailureIsSticky(t *testing.T) {
	calls := 0
	shutdown := Once(func() bool {
		calls++
		return false
	})
	require.False(t, shutdown())
	require.False(t, shutdown())
	require.Equal(t, 1, calls)
}
