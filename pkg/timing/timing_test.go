package timing

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTicksMonotonic(t *testing.T) {
	a := Ticks()
	time.Sleep(2 * time.Millisecond)
	b := Ticks()
	assert.Greater(t, b, a)
	assert.GreaterOrEqual(t, TicksToDuration(b-a), 2*time.Millisecond)
}

func TestFrequencyStable(t *testing.T) {
	f := Frequency()
	require.Positive(t, f)
	assert.Equal(t, f, Frequency())
	assert.Equal(t, time.Second, TicksToDuration(f))
	assert.Equal(t, 3*time.Second/2, TicksToDuration(f+f/2))
}

func TestStopwatchZero(t *testing.T) {
	var sw Stopwatch
	assert.False(t, sw.IsRunning())
	assert.Zero(t, sw.Elapsed())
	assert.Zero(t, sw.ElapsedMilliseconds())
}

func TestStopwatchAccumulates(t *testing.T) {
	var sw Stopwatch
	sw.Start()
	time.Sleep(5 * time.Millisecond)
	sw.Stop()
	first := sw.Elapsed()
	assert.GreaterOrEqual(t, first, 5*time.Millisecond)

	time.Sleep(5 * time.Millisecond)
	assert.Equal(t, first, sw.Elapsed(), "stopped watch must not advance")

	sw.Start()
	time.Sleep(5 * time.Millisecond)
	sw.Stop()
	assert.GreaterOrEqual(t, sw.Elapsed(), first+5*time.Millisecond)

	sw.Reset()
	assert.Zero(t, sw.Elapsed())
}

func TestStopwatchDoubleStartIgnored(t *testing.T) {
	sw := StartNew()
	time.Sleep(3 * time.Millisecond)
	sw.Start()
	sw.Stop()
	assert.GreaterOrEqual(t, sw.Elapsed(), 3*time.Millisecond)
}

func TestStopwatchConcurrentReaders(t *testing.T) {
	sw := StartNew()
	var wg sync.WaitGroup
	for i := 0; i < 4; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			var last time.Duration
			for j := 0; j < 1000; j++ {
				e := sw.Elapsed()
				if e < last {
					t.Errorf("elapsed went backwards: %v < %v", e, last)
					return
				}
				last = e
			}
		}()
	}
	wg.Wait()
	sw.Stop()
}
