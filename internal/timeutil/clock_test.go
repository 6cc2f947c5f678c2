package timeutil_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/verifai/automcp/internal/timeutil"
)

func TestNowMillisStrictlyIncreasing(t *testing.T) {
	clock := timeutil.NewClock()

	prev := clock.NowMillis()
	for i := 0; i < 1000; i++ {
		next := clock.NowMillis()
		require.Greater(t, next, prev, "timestamps must be strictly increasing")
		prev = next
	}
}

func TestNowMillisConcurrentUnique(t *testing.T) {
	clock := timeutil.NewClock()

	const workers = 8
	const perWorker = 200
	results := make(chan int64, workers*perWorker)
	done := make(chan struct{})

	for w := 0; w < workers; w++ {
		go func() {
			for i := 0; i < perWorker; i++ {
				results <- clock.NowMillis()
			}
			done <- struct{}{}
		}()
	}
	for w := 0; w < workers; w++ {
		<-done
	}
	close(results)

	seen := make(map[int64]bool, workers*perWorker)
	for ts := range results {
		require.False(t, seen[ts], "duplicate timestamp %d", ts)
		seen[ts] = true
	}
}
