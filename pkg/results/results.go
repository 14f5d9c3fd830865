// Package results appends benchmark runs to a tab-separated results file
// and writes JSON reports.
package results

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/runningwild/iobench/pkg/benchmark"
	"github.com/runningwild/iobench/pkg/config"
)

var Header = []string{
	"Tag",
	"Access Pattern",
	"Operation",
	"Multi-file",
	"Blocks",
	"BlockSizeKB",
	"AsyncMax",
	"Read Verified",
	"Async",
	"NoBuffering",
	"WriteThrough",
	"DisableLocalBuffering",
	"Preallocated",
	"ReadWriteFile (ms)",
	"Wait CompPort (ms)",
	"Transfer Wall (ms)",
	"CreateFile (ms)",
	"Preallocation (ms)",
}

// Row is one finished run.
type Row struct {
	Tag               string
	Config            config.Config
	IssueTime         time.Duration
	WaitTime          time.Duration
	TransferTime      time.Duration
	CreateFileTime    time.Duration
	PreallocationTime time.Duration
}

// FromBenchmark captures the timings of a finished run.
func FromBenchmark(tag string, b *benchmark.Benchmark) Row {
	return Row{
		Tag:               tag,
		Config:            b.Config(),
		IssueTime:         b.IssueTime(),
		WaitTime:          b.WaitTime(),
		TransferTime:      b.TransferTime(),
		CreateFileTime:    b.CreateFileTime(),
		PreallocationTime: b.PreallocationTime(),
	}
}

func pick(cond bool, yes, no string) string {
	if cond {
		return yes
	}
	return no
}

func ms(d time.Duration) string { return strconv.FormatInt(d.Milliseconds(), 10) }

// Record renders r in Header order.
func (r Row) Record() []string {
	c := r.Config
	verified := "N/A"
	if c.IsRead() {
		verified = pick(c.ReadVerify, "Verified", "Unverified")
	}
	prealloc := "N/A"
	if c.IsWrite() {
		prealloc = strconv.FormatBool(c.Preallocation != config.PreallocNone)
	}
	return []string{
		strings.ReplaceAll(r.Tag, "\t", " "),
		c.AccessPattern.String(),
		c.Operation.String(),
		strconv.FormatBool(c.FilePerBlock),
		strconv.Itoa(c.Blocks),
		strconv.Itoa(c.BlockSizeBytes / config.KiB),
		strconv.Itoa(c.AsyncMaxOutstanding),
		verified,
		pick(c.Asynchronous, "Async", "Sync"),
		pick(c.NoBuffering, "NoBuffering", "Buffering"),
		pick(c.WriteThrough, "WriteThrough", "NoWriteThrough"),
		pick(c.DisableLocalBuffering, "DisableLocalBuffering", "N/A"),
		prealloc,
		ms(r.IssueTime),
		ms(r.WaitTime),
		ms(r.TransferTime),
		ms(r.CreateFileTime),
		ms(r.PreallocationTime),
	}
}

// Append adds r to the results file at path, writing the header first when
// the file is new or empty.
func Append(path string, r Row) error {
	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_APPEND, 0644)
	if err != nil {
		return err
	}
	defer f.Close()

	fi, err := f.Stat()
	if err != nil {
		return err
	}

	w := csv.NewWriter(f)
	w.Comma = '\t'
	if fi.Size() == 0 {
		if err := w.Write(Header); err != nil {
			return err
		}
	}
	if err := w.Write(r.Record()); err != nil {
		return err
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return fmt.Errorf("write results %s: %w", path, err)
	}
	return f.Close()
}

// WriteReport writes rep as indented JSON.
func WriteReport(path string, rep benchmark.Report) error {
	data, err := json.MarshalIndent(rep, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal report: %w", err)
	}
	return os.WriteFile(path, data, 0644)
}
