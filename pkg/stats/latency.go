// Package stats records per-block transfer latency.
package stats

import (
	"sync"
	"time"

	"github.com/HdrHistogram/hdrhistogram-go"
)

const (
	minTrackable = 1          // 1us
	maxTrackable = 3600000000 // 1 hour in us
	sigFigs      = 3
)

// Latency is a mergeable latency histogram in microseconds. It is safe for
// concurrent use by the workers of an asynchronous transfer.
type Latency struct {
	mu   sync.Mutex
	hist *hdrhistogram.Histogram
}

func NewLatency() *Latency {
	return &Latency{hist: hdrhistogram.New(minTrackable, maxTrackable, sigFigs)}
}

// Record adds one sample. Out of range values are clamped.
func (l *Latency) Record(d time.Duration) {
	us := d.Microseconds()
	if us < minTrackable {
		us = minTrackable
	} else if us > maxTrackable {
		us = maxTrackable
	}
	l.mu.Lock()
	_ = l.hist.RecordValue(us)
	l.mu.Unlock()
}

// Merge folds other into l.
func (l *Latency) Merge(other *Latency) {
	if other == nil || other == l {
		return
	}
	other.mu.Lock()
	snap := hdrhistogram.Import(other.hist.Export())
	other.mu.Unlock()

	l.mu.Lock()
	l.hist.Merge(snap)
	l.mu.Unlock()
}

// Quantile returns the latency at q, where q is in [0, 1].
func (l *Latency) Quantile(q float64) time.Duration {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.hist.TotalCount() == 0 {
		return 0
	}
	// ValueAtQuantile(0) is the lowest bucket, not the smallest sample.
	if q <= 0 {
		return time.Duration(l.hist.Min()) * time.Microsecond
	}
	return time.Duration(l.hist.ValueAtQuantile(q*100)) * time.Microsecond
}

func (l *Latency) Mean() time.Duration {
	l.mu.Lock()
	defer l.mu.Unlock()
	return time.Duration(l.hist.Mean() * float64(time.Microsecond))
}

func (l *Latency) Max() time.Duration {
	l.mu.Lock()
	defer l.mu.Unlock()
	return time.Duration(l.hist.Max()) * time.Microsecond
}

func (l *Latency) Count() int64 {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.hist.TotalCount()
}

// Summary is the report form of a Latency.
type Summary struct {
	Count int64         `json:"count"`
	Mean  time.Duration `json:"mean_ns"`
	P50   time.Duration `json:"p50_ns"`
	P99   time.Duration `json:"p99_ns"`
	Max   time.Duration `json:"max_ns"`
}

func (l *Latency) Summary() Summary {
	if l == nil {
		return Summary{}
	}
	return Summary{
		Count: l.Count(),
		Mean:  l.Mean(),
		P50:   l.Quantile(0.50),
		P99:   l.Quantile(0.99),
		Max:   l.Max(),
	}
}
