//go:build linux

package engine

import (
	"fmt"
	"os"
	"syscall"
	"unsafe"

	"golang.org/x/sys/unix"

	"github.com/runningwild/iobench/pkg/config"
	"github.com/runningwild/iobench/pkg/status"
	"github.com/runningwild/iobench/pkg/timing"
)

const (
	iocbCmdPread  = 0
	iocbCmdPwrite = 1
)

// Kernel structures (64-bit layout, x86_64 and arm64).
type iocb struct {
	Data      uint64
	Key       uint32
	RwFlags   uint32
	OpCode    uint16
	ReqPrio   int16
	Fd        uint32
	Buf       uint64
	NBytes    uint64
	Offset    int64
	Reserved2 uint64
	Flags     uint32
	ResFd     uint32
}

type ioEvent struct {
	Data uint64
	Obj  uint64
	Res  int64
	Res2 int64
}

// runLibAIO drives the transfer through the kernel AIO interface with one
// context of MaxOutstanding slots. Submission is issue time and
// io_getevents is wait time.
func runLibAIO(f *os.File, t Transfer, st *status.Status) error {
	qd := t.MaxOutstanding

	slab, release, err := alignedBuffer(t.BlockSize * qd)
	if err != nil {
		return err
	}
	defer release()

	// io_destroy waits for outstanding requests, so it must run before
	// release.
	var ctxID uint64
	if _, _, errno := unix.Syscall(unix.SYS_IO_SETUP, uintptr(qd), uintptr(unsafe.Pointer(&ctxID)), 0); errno != 0 {
		return fmt.Errorf("%w: io_setup: %w", ErrAsyncUnavailable, errno)
	}
	defer unix.Syscall(unix.SYS_IO_DESTROY, uintptr(ctxID), 0, 0)

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
	iocbs := make([]iocb, qd)
	iocbPtrs := make([]*iocb, qd)
	events := make([]ioEvent, qd)
	opcode := uint16(iocbCmdPread)
	if t.Operation == config.Write {
		opcode = iocbCmdPwrite
	}

	for {
		submit := 0
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
			if t.Operation == config.Write {
				fill.fill(buf, off)
			}

			cb := &iocbs[slot]
			*cb = iocb{
				Data:   uint64(slot),
				OpCode: opcode,
				Fd:     uint32(f.Fd()),
				Buf:    uint64(uintptr(unsafe.Pointer(&buf[0]))),
				NBytes: uint64(t.BlockSize),
				Offset: off,
			}
			offsets[slot] = off
			iocbPtrs[submit] = cb
			submit++
		}

		if submit > 0 {
			start := timing.Ticks()
			for i := 0; i < submit; i++ {
				startTicks[iocbPtrs[i].Data] = start
			}
			n, _, errno := unix.Syscall(unix.SYS_IO_SUBMIT, uintptr(ctxID), uintptr(submit), uintptr(unsafe.Pointer(&iocbPtrs[0])))
			st.AddIssueTicks(timing.Since(start))
			if errno != 0 {
				return fmt.Errorf("io_submit: %w", errno)
			}
			if int(n) != submit {
				return fmt.Errorf("io_submit submitted %d of %d: %w", n, submit, unix.EAGAIN)
			}
			inFlight += submit
		}

		if inFlight == 0 {
			return nil
		}

		waitStart := timing.Ticks()
		n, _, errno := unix.Syscall6(unix.SYS_IO_GETEVENTS, uintptr(ctxID), 1, uintptr(qd), uintptr(unsafe.Pointer(&events[0])), 0, 0)
		st.AddWaitTicks(timing.Since(waitStart))
		if errno != 0 {
			if errno == syscall.EINTR {
				continue
			}
			return fmt.Errorf("io_getevents: %w", errno)
		}

		done := timing.Ticks()
		for i := 0; i < int(n); i++ {
			evt := events[i]
			slot := int(evt.Data)
			inFlight--
			freeSlots[nextFree] = slot
			nextFree++

			if evt.Res < 0 {
				return fmt.Errorf("%s at offset %d: %w", opName(t.Operation), offsets[slot], syscall.Errno(-evt.Res))
			}
			if int(evt.Res) != t.BlockSize {
				return fmt.Errorf("short %s at offset %d: %w", opName(t.Operation), offsets[slot], unix.EIO)
			}
			record(t.Latency, done-startTicks[slot])
			if t.Operation == config.Read && t.Verify {
				if err := verifyCounter(slab[slot*t.BlockSize:(slot+1)*t.BlockSize], offsets[slot]); err != nil {
					return err
				}
			}
			st.IncCompletedAsync()
			st.AddBlocks(1)
		}
	}
}
