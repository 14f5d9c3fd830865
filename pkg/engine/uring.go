//go:build linux

package engine

import (
	"errors"
	"fmt"
	"os"
	"syscall"

	"github.com/godzie44/go-uring/uring"

	"github.com/runningwild/iobench/pkg/config"
	"github.com/runningwild/iobench/pkg/status"
	"github.com/runningwild/iobench/pkg/timing"
)

// runUring keeps up to MaxOutstanding reads or writes queued on an io_uring
// instance. Submission is issue time and completion waits are wait time.
func runUring(f *os.File, t Transfer, st *status.Status) error {
	qd := t.MaxOutstanding

	// Deferred in this order so the ring is torn down before the slab
	// that in-flight requests point into is unmapped.
	slab, release, err := alignedBuffer(t.BlockSize * qd)
	if err != nil {
		return err
	}
	defer release()

	ring, err := uring.New(uint32(qd))
	if err != nil {
		return fmt.Errorf("%w: io_uring setup: %w", ErrAsyncUnavailable, err)
	}
	defer ring.Close()

	fill := newFiller(t.Data, 0)
	order := newBlockOrder(t.AccessPattern, t.Blocks)

	freeSlots := make([]int, qd)
	for i := range freeSlots {
		freeSlots[i] = i
	}
	nextFree := qd
	inFlight := 0
	exhausted := false
	offsets := make([]int64, qd)
	startTicks := make([]int64, qd)

	for {
		queued := 0
		for !exhausted && nextFree > 0 && !st.Canceled() {
			block, ok := order.Next()
			if !ok {
				exhausted = true
				break
			}
			nextFree--
			slot := freeSlots[nextFree]
			off := int64(block) * int64(t.BlockSize)
			buf := slab[slot*t.BlockSize : (slot+1)*t.BlockSize]

			var op uring.Operation
			if t.Operation == config.Write {
				fill.fill(buf, off)
				op = uring.Write(f.Fd(), buf, uint64(off))
			} else {
				op = uring.Read(f.Fd(), buf, uint64(off))
			}
			if err := ring.QueueSQE(op, 0, uint64(slot)); err != nil {
				return fmt.Errorf("queue sqe: %w", err)
			}
			offsets[slot] = off
			startTicks[slot] = timing.Ticks()
			queued++
		}

		if queued > 0 {
			start := timing.Ticks()
			for {
				_, err = ring.Submit()
				if !isEINTR(err) {
					break
				}
			}
			st.AddIssueTicks(timing.Since(start))
			if err != nil {
				return fmt.Errorf("io_uring submit: %w", err)
			}
			inFlight += queued
		}

		if inFlight == 0 {
			return nil
		}

		waitStart := timing.Ticks()
		var cqe *uring.CQEvent
		for {
			cqe, err = ring.WaitCQEvents(1)
			if !isEINTR(err) {
				break
			}
		}
		st.AddWaitTicks(timing.Since(waitStart))
		if err != nil {
			return fmt.Errorf("io_uring wait: %w", err)
		}

		done := timing.Ticks()
		for cqe != nil {
			slot := int(cqe.UserData)
			res := cqe.Res
			ring.SeenCQE(cqe)
			inFlight--
			freeSlots[nextFree] = slot
			nextFree++

			if res < 0 {
				return fmt.Errorf("%s at offset %d: %w", opName(t.Operation), offsets[slot], syscall.Errno(-res))
			}
			if int(res) != t.BlockSize {
				return fmt.Errorf("short %s at offset %d: %w", opName(t.Operation), offsets[slot], syscall.EIO)
			}
			record(t.Latency, done-startTicks[slot])
			if t.Operation == config.Read && t.Verify {
				if err := verifyCounter(slab[slot*t.BlockSize:(slot+1)*t.BlockSize], offsets[slot]); err != nil {
					return err
				}
			}
			st.IncCompletedAsync()
			st.AddBlocks(1)

			cqe, _ = ring.PeekCQE()
		}
	}
}

func isEINTR(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, syscall.EINTR) {
		return true
	}
	var sysErr *os.SyscallError
	if errors.As(err, &sysErr) {
		return sysErr.Err == syscall.EINTR
	}
	return false
}
