// Package engine implements the native transfer routine: opening the target
// file with the requested caching behaviour, the file-system control
// requests, preallocation, and the synchronous and asynchronous block loops.
package engine

import (
	"errors"
	"fmt"
	"os"

	"github.com/runningwild/iobench/pkg/config"
	"github.com/runningwild/iobench/pkg/stats"
	"github.com/runningwild/iobench/pkg/status"
)

// OpenOptions describes how the target file is opened. Reads open the file
// if it exists and create it otherwise; writes always start from an empty
// file opened exclusively where the platform supports share modes.
type OpenOptions struct {
	Read           bool
	Async          bool
	NoBuffering    bool
	WriteThrough   bool
	SequentialHint bool
	RandomHint     bool
}

// Transfer is one pass over the blocks of an open file.
type Transfer struct {
	Operation      config.Operation
	AccessPattern  config.AccessPattern
	Verify         bool
	Blocks         int
	BlockSize      int
	Data           config.WriteData
	MaxOutstanding int
	Latency        *stats.Latency // optional
}

func (t Transfer) validate() error {
	if t.Blocks <= 0 {
		return fmt.Errorf("invalid block count: %d", t.Blocks)
	}
	if t.BlockSize <= 0 || t.BlockSize%8 != 0 {
		return fmt.Errorf("invalid block size: %d", t.BlockSize)
	}
	return nil
}

// Routine is everything the benchmark needs from the platform. Run methods
// stop before the next block once st is canceled and return an error that
// wraps a syscall.Errno on failure.
type Routine interface {
	Open(path string, opts OpenOptions) (*os.File, error)
	DisableLocalBuffering(f *os.File, async bool) error
	EnableRemotePrefetch(f *os.File, async bool) error
	PreallocateZeroed(f *os.File, size int64, async bool) error
	SetValidDataLength(f *os.File, size int64) error
	Flush(f *os.File) error
	RunSynchronous(f *os.File, t Transfer, st *status.Status) error
	RunAsynchronous(f *os.File, t Transfer, st *status.Status) error
}

// ErrAsyncUnavailable is wrapped by asynchronous engines that cannot be set
// up on this kernel or platform.
var ErrAsyncUnavailable = errors.New("asynchronous engine unavailable")

// VerifyError reports the first word of a read block that does not hold the
// expected counter value. It unwraps to ErrnoVerify.
type VerifyError struct {
	Offset int64
	Want   uint64
	Got    uint64
}

func (e *VerifyError) Error() string {
	return fmt.Sprintf("data verification failed at offset %d: want %#x, got %#x", e.Offset, e.Want, e.Got)
}

func (e *VerifyError) Unwrap() error { return ErrnoVerify }
