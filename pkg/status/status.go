// Package status holds the progress record shared between a running
// transfer routine and the goroutines observing it.
package status

import "sync/atomic"

// Status is written by the transfer routine and read concurrently by
// pollers. Every field is atomic; accumulators only grow.
type Status struct {
	canceled       atomic.Bool
	blocks         atomic.Int64
	completedSync  atomic.Int64
	completedAsync atomic.Int64
	issueTicks     atomic.Int64
	waitTicks      atomic.Int64
}

// Snapshot is a plain copy of a Status at one instant. Fields are read one
// at a time, so a snapshot taken mid-transfer may mix adjacent updates.
type Snapshot struct {
	Canceled               bool
	BlocksTransferred      int64
	CompletedSynchronously int64
	CompletedAsync         int64
	IssueTicks             int64
	WaitTicks              int64
}

// Cancel asks the routine to stop before its next block.
func (s *Status) Cancel() { s.canceled.Store(true) }

func (s *Status) Canceled() bool { return s.canceled.Load() }

func (s *Status) AddBlocks(n int64) { s.blocks.Add(n) }

func (s *Status) BlocksTransferred() int64 { return s.blocks.Load() }

func (s *Status) IncCompletedSync()  { s.completedSync.Add(1) }
func (s *Status) IncCompletedAsync() { s.completedAsync.Add(1) }

func (s *Status) CompletedSynchronously() int64  { return s.completedSync.Load() }
func (s *Status) CompletedAsynchronously() int64 { return s.completedAsync.Load() }

// AddIssueTicks accumulates time spent submitting reads and writes.
func (s *Status) AddIssueTicks(ticks int64) { s.issueTicks.Add(ticks) }

// AddWaitTicks accumulates time spent waiting for completions.
func (s *Status) AddWaitTicks(ticks int64) { s.waitTicks.Add(ticks) }

func (s *Status) IssueTicks() int64 { return s.issueTicks.Load() }
func (s *Status) WaitTicks() int64  { return s.waitTicks.Load() }

func (s *Status) Snapshot() Snapshot {
	return Snapshot{
		Canceled:               s.canceled.Load(),
		BlocksTransferred:      s.blocks.Load(),
		CompletedSynchronously: s.completedSync.Load(),
		CompletedAsync:         s.completedAsync.Load(),
		IssueTicks:             s.issueTicks.Load(),
		WaitTicks:              s.waitTicks.Load(),
	}
}
