package engine

import (
	"context"
	"fmt"
	"io"
	"os"

	"golang.org/x/sync/errgroup"

	"github.com/runningwild/iobench/pkg/config"
	"github.com/runningwild/iobench/pkg/stats"
	"github.com/runningwild/iobench/pkg/status"
	"github.com/runningwild/iobench/pkg/timing"
)

// Native is the Routine backed by the operating system.
type Native struct {
	kind string
}

// New returns the native routine using the named asynchronous engine
// (config.EnginePool, config.EngineUring or config.EngineLibAIO).
func New(kind string) *Native {
	if kind == "" {
		kind = config.EnginePool
	}
	return &Native{kind: kind}
}

func (n *Native) Kind() string { return n.kind }

func (n *Native) Open(path string, opts OpenOptions) (*os.File, error) {
	return openFile(path, opts)
}

func (n *Native) DisableLocalBuffering(f *os.File, async bool) error {
	return disableLocalBuffering(f, async)
}

func (n *Native) EnableRemotePrefetch(f *os.File, async bool) error {
	return enableRemotePrefetch(f, async)
}

func (n *Native) PreallocateZeroed(f *os.File, size int64, async bool) error {
	return preallocateZeroed(f, size)
}

func (n *Native) SetValidDataLength(f *os.File, size int64) error {
	return setValidDataLength(f, size)
}

func (n *Native) Flush(f *os.File) error {
	return f.Sync()
}

// RunSynchronous transfers one block at a time from a single buffer. Every
// transfer completes before the call returns, so all of it counts as issue
// time.
func (n *Native) RunSynchronous(f *os.File, t Transfer, st *status.Status) error {
	if err := t.validate(); err != nil {
		return err
	}
	buf, release, err := alignedBuffer(t.BlockSize)
	if err != nil {
		return err
	}
	defer release()

	fill := newFiller(t.Data, 0)
	order := newBlockOrder(t.AccessPattern, t.Blocks)
	for !st.Canceled() {
		block, ok := order.Next()
		if !ok {
			break
		}
		off := int64(block) * int64(t.BlockSize)
		if t.Operation == config.Write {
			fill.fill(buf, off)
		}

		start := timing.Ticks()
		err := transferAt(f, t.Operation, buf, off)
		elapsed := timing.Since(start)
		st.AddIssueTicks(elapsed)
		record(t.Latency, elapsed)
		if err != nil {
			return fmt.Errorf("%s block %d: %w", opName(t.Operation), block, err)
		}
		if t.Operation == config.Read && t.Verify {
			if err := verifyCounter(buf, off); err != nil {
				return err
			}
		}
		st.IncCompletedSync()
		st.AddBlocks(1)
	}
	return nil
}

// RunAsynchronous keeps up to t.MaxOutstanding transfers in flight using the
// configured engine.
func (n *Native) RunAsynchronous(f *os.File, t Transfer, st *status.Status) error {
	if err := t.validate(); err != nil {
		return err
	}
	if t.MaxOutstanding <= 0 {
		t.MaxOutstanding = 1
	}
	switch n.kind {
	case config.EngineUring:
		return runUring(f, t, st)
	case config.EngineLibAIO:
		return runLibAIO(f, t, st)
	case config.EnginePool:
		return runPool(f, t, st)
	default:
		return fmt.Errorf("unknown async engine %q", n.kind)
	}
}

type job struct {
	block int
	off   int64
}

// runPool hands blocks to MaxOutstanding goroutines, each with its own
// aligned buffer. A token bucket bounds the transfers in flight; time spent
// waiting for a token or for the final completions is wait time.
func runPool(f *os.File, t Transfer, st *status.Status) error {
	qd := t.MaxOutstanding
	tokens := make(chan struct{}, qd)
	for i := 0; i < qd; i++ {
		tokens <- struct{}{}
	}
	jobs := make(chan job)

	g, ctx := errgroup.WithContext(context.Background())
	for i := 0; i < qd; i++ {
		buf, release, err := alignedBuffer(t.BlockSize)
		if err != nil {
			close(jobs)
			_ = g.Wait()
			return err
		}
		fill := newFiller(t.Data, uint64(i)+1)
		g.Go(func() error {
			defer release()
			for j := range jobs {
				if t.Operation == config.Write {
					fill.fill(buf, j.off)
				}
				start := timing.Ticks()
				err := transferAt(f, t.Operation, buf, j.off)
				record(t.Latency, timing.Since(start))
				if err != nil {
					return fmt.Errorf("%s block %d: %w", opName(t.Operation), j.block, err)
				}
				if t.Operation == config.Read && t.Verify {
					if err := verifyCounter(buf, j.off); err != nil {
						return err
					}
				}
				st.IncCompletedAsync()
				st.AddBlocks(1)
				tokens <- struct{}{}
			}
			return nil
		})
	}

	order := newBlockOrder(t.AccessPattern, t.Blocks)
dispatch:
	for !st.Canceled() {
		block, ok := order.Next()
		if !ok {
			break
		}
		waitStart := timing.Ticks()
		select {
		case <-tokens:
		case <-ctx.Done():
			break dispatch
		}
		st.AddWaitTicks(timing.Since(waitStart))

		issueStart := timing.Ticks()
		select {
		case jobs <- job{block: block, off: int64(block) * int64(t.BlockSize)}:
		case <-ctx.Done():
			break dispatch
		}
		st.AddIssueTicks(timing.Since(issueStart))
	}
	close(jobs)

	waitStart := timing.Ticks()
	err := g.Wait()
	st.AddWaitTicks(timing.Since(waitStart))
	return err
}

func transferAt(f *os.File, op config.Operation, buf []byte, off int64) error {
	var n int
	var err error
	if op == config.Write {
		n, err = f.WriteAt(buf, off)
	} else {
		n, err = f.ReadAt(buf, off)
	}
	if err == io.EOF || (err == nil && n < len(buf)) {
		return fmt.Errorf("short %s at offset %d (%d of %d bytes): %w", opName(op), off, n, len(buf), io.ErrUnexpectedEOF)
	}
	return err
}

func opName(op config.Operation) string {
	if op == config.Write {
		return "write"
	}
	return "read"
}

func record(l *stats.Latency, ticks int64) {
	if l != nil {
		l.Record(timing.TicksToDuration(ticks))
	}
}
