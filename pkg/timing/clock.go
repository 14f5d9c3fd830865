// Package timing provides the high-resolution tick clock used to account
// issue and wait time, and the stopwatches that time benchmark phases.
package timing

import (
	"sync"
	"time"
)

// frequency is calibrated once per process.
var frequency = sync.OnceValue(func() int64 {
	f := clockFrequency()
	if f <= 0 {
		return int64(time.Second)
	}
	return f
})

// Ticks returns the current value of the monotonic tick counter.
func Ticks() int64 { return clockTicks() }

// Frequency is the number of ticks per second.
func Frequency() int64 { return frequency() }

// TicksToDuration converts a tick count to wall time.
func TicksToDuration(ticks int64) time.Duration {
	f := frequency()
	if f == int64(time.Second) {
		return time.Duration(ticks)
	}
	sec := ticks / f
	rem := ticks % f
	return time.Duration(sec)*time.Second + time.Duration(rem*int64(time.Second)/f)
}

// Since returns ticks elapsed since start.
func Since(start int64) int64 { return clockTicks() - start }
