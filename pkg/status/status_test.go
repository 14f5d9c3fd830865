package status

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"pgregory.net/rapid"
)

func TestZeroValue(t *testing.T) {
	var s Status
	assert.Equal(t, Snapshot{}, s.Snapshot())
	assert.False(t, s.Canceled())
}

func TestCancel(t *testing.T) {
	var s Status
	s.Cancel()
	s.Cancel()
	assert.True(t, s.Canceled())
	assert.True(t, s.Snapshot().Canceled)
}

func TestConcurrentBlocksAreNeverTorn(t *testing.T) {
	const n = 10000
	var s Status
	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		for i := 0; i < n; i++ {
			s.AddBlocks(1)
			s.IncCompletedSync()
		}
	}()

	var last int64
	for last < n {
		v := s.BlocksTransferred()
		if v < last || v > n {
			t.Fatalf("observed %d after %d", v, last)
		}
		last = v
	}
	wg.Wait()
	assert.EqualValues(t, n, s.BlocksTransferred())
	assert.EqualValues(t, n, s.CompletedSynchronously())
}

func TestConcurrentWriters(t *testing.T) {
	var s Status
	var wg sync.WaitGroup
	for w := 0; w < 8; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := 0; i < 1000; i++ {
				s.IncCompletedAsync()
				s.AddWaitTicks(2)
				s.AddIssueTicks(3)
			}
		}()
	}
	wg.Wait()
	snap := s.Snapshot()
	assert.EqualValues(t, 8000, snap.CompletedAsync)
	assert.EqualValues(t, 16000, snap.WaitTicks)
	assert.EqualValues(t, 24000, snap.IssueTicks)
}

func TestAccumulatorsSum(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		var s Status
		adds := rapid.SliceOf(rapid.Int64Range(0, 1<<20)).Draw(t, "adds")
		var want int64
		for _, a := range adds {
			s.AddBlocks(a)
			s.AddIssueTicks(a)
			want += a
		}
		if s.BlocksTransferred() != want || s.IssueTicks() != want {
			t.Fatalf("got blocks=%d issue=%d, want %d", s.BlocksTransferred(), s.IssueTicks(), want)
		}
	})
}
