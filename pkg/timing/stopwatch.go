package timing

import (
	"sync/atomic"
	"time"
)

// Stopwatch accumulates elapsed ticks across Start/Stop pairs. One goroutine
// drives it while any number read it; a read racing Stop may briefly lag.
type Stopwatch struct {
	running atomic.Bool
	started atomic.Int64
	total   atomic.Int64
}

// StartNew returns a running Stopwatch.
func StartNew() *Stopwatch {
	sw := &Stopwatch{}
	sw.Start()
	return sw
}

func (sw *Stopwatch) Start() {
	if sw.running.Load() {
		return
	}
	sw.started.Store(Ticks())
	sw.running.Store(true)
}

func (sw *Stopwatch) Stop() {
	if !sw.running.Load() {
		return
	}
	d := Since(sw.started.Load())
	sw.running.Store(false)
	sw.total.Add(d)
}

func (sw *Stopwatch) Reset() {
	sw.running.Store(false)
	sw.total.Store(0)
}

func (sw *Stopwatch) IsRunning() bool { return sw.running.Load() }

// ElapsedTicks includes the current interval when running.
func (sw *Stopwatch) ElapsedTicks() int64 {
	t := sw.total.Load()
	if sw.running.Load() {
		t += Since(sw.started.Load())
	}
	return t
}

func (sw *Stopwatch) Elapsed() time.Duration {
	return TicksToDuration(sw.ElapsedTicks())
}

func (sw *Stopwatch) ElapsedMilliseconds() int64 {
	return sw.Elapsed().Milliseconds()
}
