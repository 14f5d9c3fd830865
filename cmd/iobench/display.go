package main

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/runningwild/iobench/pkg/benchmark"
	"github.com/runningwild/iobench/pkg/config"
)

const pollInterval = 500 * time.Millisecond

type display struct {
	out     io.Writer
	bench   *benchmark.Benchmark
	instant bool
}

func (d *display) poll(ctx context.Context) {
	ticker := time.NewTicker(pollInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			d.render()
		}
	}
}

func mib(bytes float64) float64 { return bytes / config.MiB }

func ms(d time.Duration) string { return fmt.Sprintf("%d ms", d.Milliseconds()) }

func (d *display) render() {
	b := d.bench
	cfg := b.Config()
	w := d.out

	fmt.Fprintf(w, "\n%s: %s %s of %s\n", cfg.Name, cfg.AccessPattern, cfg.Operation, cfg.FilePath)
	if cfg.FilePerBlock {
		fmt.Fprintf(w, "  Size:              %.1f MiB per file (%d files)\n",
			mib(float64(b.BytesTotal())), cfg.Blocks)
	} else {
		fmt.Fprintf(w, "  Size:              %.1f MiB (%d blocks of %d KiB)\n",
			mib(float64(b.BytesTotal())), cfg.Blocks, cfg.BlockSizeBytes/config.KiB)
	}
	fmt.Fprintf(w, "  Transferred:       %.1f MiB, %d blocks (%.1f%%)\n",
		mib(float64(b.BytesTransferred())), b.BlocksTransferred(), b.PercentComplete()*100)
	fmt.Fprintf(w, "  Issue time:        %s\n", ms(b.IssueTime()))
	fmt.Fprintf(w, "  Wait time:         %s\n", ms(b.WaitTime()))
	fmt.Fprintf(w, "  Transfer time:     %s\n", ms(b.TransferTime()))
	fmt.Fprintf(w, "  Create file time:  %s\n", ms(b.CreateFileTime()))
	fmt.Fprintf(w, "  Preallocation:     %s\n", ms(b.PreallocationTime()))
	fmt.Fprintf(w, "  Completed:         %d sync, %d async\n", b.CompletedSynchronously(), b.CompletedAsynchronously())

	avg := b.AverageBytesPerSec()
	fmt.Fprintf(w, "  Average goodput:   %.2f MiB/s (%.2f Mbit/s)\n", mib(avg), avg*8/1e6)

	if !d.instant {
		return
	}
	if !b.InstantCountersReady() {
		fmt.Fprintln(w, "  Instant goodput:   Loading perf counters...")
		return
	}
	rate, err := b.InstantBytesPerSec()
	if err != nil {
		fmt.Fprintf(w, "  Instant goodput:   unavailable (%v)\n", err)
		return
	}
	fmt.Fprintf(w, "  Instant goodput:   %.2f MiB/s (%.2f Mbit/s)\n", mib(rate), rate*8/1e6)
}
