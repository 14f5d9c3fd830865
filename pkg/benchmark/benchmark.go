// Package benchmark runs one timed transfer against a file and derives
// throughput and phase timings from it while it runs.
package benchmark

import (
	"context"
	"errors"
	"fmt"
	"os"
	"sync/atomic"
	"time"

	"go.uber.org/multierr"
	"go.uber.org/zap"

	"github.com/runningwild/iobench/pkg/config"
	"github.com/runningwild/iobench/pkg/engine"
	"github.com/runningwild/iobench/pkg/privilege"
	"github.com/runningwild/iobench/pkg/sampler"
	"github.com/runningwild/iobench/pkg/stats"
	"github.com/runningwild/iobench/pkg/status"
	"github.com/runningwild/iobench/pkg/timing"
)

// State is the lifecycle position of a Benchmark.
type State int32

const (
	StateCreated State = iota
	StateRunning
	StateCompleted
	StateCanceled
	StateFaulted
)

func (s State) String() string {
	switch s {
	case StateCreated:
		return "Created"
	case StateRunning:
		return "Running"
	case StateCompleted:
		return "Completed"
	case StateCanceled:
		return "Canceled"
	case StateFaulted:
		return "Faulted"
	default:
		return fmt.Sprintf("State(%d)", int32(s))
	}
}

// Options carries the collaborators of a Benchmark. Zero values select the
// native implementations.
type Options struct {
	Logger  *zap.Logger
	Routine engine.Routine
	// AcquirePrivilege is called when the configuration uses unzeroed
	// preallocation.
	AcquirePrivilege func() error
	// InstantCounters starts the instant-throughput sampler.
	InstantCounters bool
	Sampler         *sampler.Sampler
}

// Benchmark owns one run of a configuration. Its accessors may be polled
// from any goroutine while the run is in progress.
type Benchmark struct {
	cfg     config.Config
	logger  *zap.Logger
	routine engine.Routine
	sampler *sampler.Sampler

	st      status.Status
	state   atomic.Int32
	started atomic.Bool
	latency *stats.Latency

	wall     timing.Stopwatch
	create   timing.Stopwatch
	prealloc timing.Stopwatch
	transfer timing.Stopwatch
}

// New binds a Benchmark to a copy of cfg, which should already be valid.
// Unzeroed preallocation acquires the manage-volume privilege here, so a
// missing privilege is reported before anything runs.
func New(cfg config.Config, opts Options) (*Benchmark, error) {
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}
	if opts.Routine == nil {
		opts.Routine = engine.New(cfg.AsyncEngine)
	}
	if opts.AcquirePrivilege == nil {
		opts.AcquirePrivilege = privilege.AcquireManageVolume
	}
	if opts.Sampler == nil {
		opts.Sampler = sampler.Default
	}

	if cfg.Preallocation == config.PreallocUnzeroed {
		if err := opts.AcquirePrivilege(); err != nil {
			return nil, &Error{
				Kind: KindPrivilege,
				Msg:  "Unable to acquire the manage-volume privilege",
				Help: helpPrivilege,
				Err:  err,
			}
		}
	}
	if opts.InstantCounters {
		opts.Sampler.Enable()
	}

	return &Benchmark{
		cfg:     cfg,
		logger:  opts.Logger.With(zap.String("benchmark", cfg.Name)),
		routine: opts.Routine,
		sampler: opts.Sampler,
		latency: stats.NewLatency(),
	}, nil
}

// Task is a started run.
type Task struct {
	done  chan struct{}
	state State
	err   error
}

// Done is closed when the run reaches a terminal state.
func (t *Task) Done() <-chan struct{} { return t.done }

// Wait blocks until the run ends and returns its terminal state. The error
// is non-nil only for StateFaulted.
func (t *Task) Wait() (State, error) {
	<-t.done
	return t.state, t.err
}

// Start launches the run on its own goroutine. Canceling ctx asks the
// transfer to stop before its next block; a ctx canceled at any point before
// the run is observed finished yields StateCanceled, even when every block
// was transferred. A run error takes precedence over cancellation.
func (b *Benchmark) Start(ctx context.Context) (*Task, error) {
	if !b.started.CompareAndSwap(false, true) {
		return nil, ErrAlreadyStarted
	}
	task := &Task{done: make(chan struct{})}

	if ctx.Err() != nil {
		b.st.Cancel()
		b.finish(task, StateCanceled, nil)
		return task, nil
	}

	b.state.Store(int32(StateRunning))
	b.logger.Debug("benchmark started", zap.String("path", b.cfg.FilePath))
	stop := context.AfterFunc(ctx, b.st.Cancel)
	go func() {
		err := b.run()
		stop()
		switch {
		case err != nil:
			b.finish(task, StateFaulted, err)
		case ctx.Err() != nil:
			b.finish(task, StateCanceled, nil)
		default:
			b.finish(task, StateCompleted, nil)
		}
	}()
	return task, nil
}

func (b *Benchmark) finish(task *Task, s State, err error) {
	task.state, task.err = s, err
	b.state.Store(int32(s))
	b.logger.Debug("benchmark finished", zap.Stringer("state", s), zap.Error(err))
	close(task.done)
}

func (b *Benchmark) State() State { return State(b.state.Load()) }

func (b *Benchmark) Config() config.Config { return b.cfg }

func (b *Benchmark) run() error {
	b.wall.Start()
	defer b.wall.Stop()
	if b.cfg.FilePerBlock {
		return b.runFilePerBlock()
	}
	return b.runSingleFile()
}

func (b *Benchmark) runSingleFile() error {
	f, err := b.open(b.cfg.FilePath)
	if err != nil {
		return err
	}
	err = b.controlRequests(f)
	if err == nil {
		err = b.preallocate(f)
	}
	if err == nil {
		err = b.transferFile(f, b.cfg.Blocks)
	}
	return b.close(f, err)
}

// runFilePerBlock writes or reads Blocks files of one block each, named
// <path>.<index>. Create time accumulates over every open.
func (b *Benchmark) runFilePerBlock() error {
	for i := 0; i < b.cfg.Blocks && !b.st.Canceled(); i++ {
		f, err := b.open(fmt.Sprintf("%s.%d", b.cfg.FilePath, i))
		if err != nil {
			return err
		}
		err = b.controlRequests(f)
		if err == nil {
			err = b.transferFile(f, 1)
		}
		if err := b.close(f, err); err != nil {
			return err
		}
	}
	return nil
}

func (b *Benchmark) openOptions() engine.OpenOptions {
	opts := engine.OpenOptions{
		Read:         b.cfg.IsRead(),
		Async:        b.cfg.Asynchronous,
		NoBuffering:  b.cfg.NoBuffering,
		WriteThrough: b.cfg.WriteThrough,
	}
	if !b.cfg.NoOperationHints {
		opts.RandomHint = b.cfg.AccessPattern == config.Random
		opts.SequentialHint = !opts.RandomHint
	}
	return opts
}

func (b *Benchmark) open(path string) (*os.File, error) {
	b.create.Start()
	f, err := b.routine.Open(path, b.openOptions())
	b.create.Stop()
	if err != nil {
		return nil, &Error{Kind: KindOpen, Msg: "Unable to open " + path, Help: helpOpen, Err: err}
	}
	b.logger.Debug("opened", zap.String("path", path))
	return f, nil
}

// close keeps err first; a close failure is appended to it.
func (b *Benchmark) close(f *os.File, err error) error {
	if cerr := f.Close(); cerr != nil {
		return multierr.Append(err, b.ioError("Close", cerr))
	}
	return err
}

func (b *Benchmark) controlRequests(f *os.File) error {
	if b.cfg.DisableLocalBuffering {
		if err := b.routine.DisableLocalBuffering(f, b.cfg.Asynchronous); err != nil {
			return &Error{Kind: KindControl, Msg: "Unable to disable local buffering", Help: helpControl, Err: err}
		}
	}
	if b.cfg.RemotePrefetch {
		if err := b.routine.EnableRemotePrefetch(f, b.cfg.Asynchronous); err != nil {
			return &Error{Kind: KindControl, Msg: "Unable to enable remote prefetch", Help: helpControl, Err: err}
		}
	}
	return nil
}

func (b *Benchmark) preallocate(f *os.File) error {
	size := b.cfg.FileSizeBytes()
	switch b.cfg.Preallocation {
	case config.PreallocZeroed:
		b.prealloc.Start()
		err := b.routine.PreallocateZeroed(f, size, b.cfg.Asynchronous)
		b.prealloc.Stop()
		if err != nil {
			return &Error{Kind: KindPreallocation, Msg: "Unable to preallocate the file", Help: helpIO, Err: err}
		}
	case config.PreallocUnzeroed:
		b.prealloc.Start()
		err := b.routine.SetValidDataLength(f, size)
		b.prealloc.Stop()
		if err != nil {
			return &Error{Kind: KindPreallocation, Msg: "Unable to set the valid data length", Help: helpValidData, Err: err}
		}
	default:
		return nil
	}
	b.logger.Debug("preallocated", zap.Int64("bytes", size), zap.Stringer("mode", b.cfg.Preallocation))
	return nil
}

// transferFile times exactly one routine call, plus the flush of written
// data unless SkipFlush is set.
func (b *Benchmark) transferFile(f *os.File, blocks int) error {
	t := engine.Transfer{
		Operation:      b.cfg.Operation,
		AccessPattern:  b.cfg.AccessPattern,
		Verify:         b.cfg.ReadVerify,
		Blocks:         blocks,
		BlockSize:      b.cfg.BlockSizeBytes,
		Data:           b.cfg.WriteData,
		MaxOutstanding: b.cfg.AsyncMaxOutstanding,
		Latency:        b.latency,
	}

	b.transfer.Start()
	defer b.transfer.Stop()

	var err error
	if b.cfg.Asynchronous {
		err = b.routine.RunAsynchronous(f, t, &b.st)
	} else {
		err = b.routine.RunSynchronous(f, t, &b.st)
	}
	if err != nil {
		return b.ioError(b.cfg.Operation.String(), err)
	}
	if b.cfg.IsWrite() && !b.cfg.SkipFlush {
		if err := b.routine.Flush(f); err != nil {
			return b.ioError("Flush", err)
		}
	}
	return nil
}

func (b *Benchmark) ioError(op string, err error) error {
	code := Errno(err)
	if b.cfg.ReadVerify && code == engine.ErrnoVerify {
		return &Error{Kind: KindVerification, Msg: "Data verification failed", Help: helpVerify, Err: err}
	}
	return &Error{
		Kind: KindIO,
		Msg:  fmt.Sprintf("%s failed with OS error 0x%X", op, uint32(code)),
		Help: helpIO,
		Err:  err,
	}
}

// Status returns a copy of the progress counters.
func (b *Benchmark) Status() status.Snapshot { return b.st.Snapshot() }

func (b *Benchmark) BlocksTransferred() int64 { return b.st.BlocksTransferred() }

func (b *Benchmark) BytesTransferred() int64 {
	return b.st.BlocksTransferred() * int64(b.cfg.BlockSizeBytes)
}

// BytesTotal is the size of the target file. In file-per-block mode that
// is a single block.
func (b *Benchmark) BytesTotal() int64 { return b.cfg.FileSizeBytes() }

// BytesPlanned is the amount the whole run transfers, over every file.
func (b *Benchmark) BytesPlanned() int64 {
	return int64(b.cfg.Blocks) * int64(b.cfg.BlockSizeBytes)
}

func (b *Benchmark) CompletedSynchronously() int64  { return b.st.CompletedSynchronously() }
func (b *Benchmark) CompletedAsynchronously() int64 { return b.st.CompletedAsynchronously() }

// PercentComplete is the fraction of configured blocks transferred. It is
// not clamped.
func (b *Benchmark) PercentComplete() float64 {
	if b.cfg.Blocks <= 0 {
		return 0
	}
	return float64(b.st.BlocksTransferred()) / float64(b.cfg.Blocks)
}

// AverageBytesPerSec is measured over the transfer phase, or over the whole
// run in file-per-block mode where opening files is part of the work.
func (b *Benchmark) AverageBytesPerSec() float64 {
	sw := &b.transfer
	if b.cfg.FilePerBlock {
		sw = &b.wall
	}
	ms := sw.ElapsedMilliseconds()
	if ms == 0 {
		return 0
	}
	return float64(b.BytesTransferred()) * 1000 / float64(ms)
}

// InstantBytesPerSec reads the process-wide sampler.
func (b *Benchmark) InstantBytesPerSec() (float64, error) {
	return b.sampler.BytesPerSec()
}

func (b *Benchmark) InstantCountersReady() bool { return b.sampler.Ready() }

func (b *Benchmark) IssueTime() time.Duration {
	return timing.TicksToDuration(b.st.IssueTicks())
}

func (b *Benchmark) WaitTime() time.Duration {
	return timing.TicksToDuration(b.st.WaitTicks())
}

func (b *Benchmark) TransferTime() time.Duration      { return b.transfer.Elapsed() }
func (b *Benchmark) WallTime() time.Duration          { return b.wall.Elapsed() }
func (b *Benchmark) PreallocationTime() time.Duration { return b.prealloc.Elapsed() }
func (b *Benchmark) CreateFileTime() time.Duration    { return b.create.Elapsed() }

// Latency is the per-block latency histogram. It is complete once the run
// has finished.
func (b *Benchmark) Latency() *stats.Latency { return b.latency }

// Describe renders err for the operator: the failure, then its help text.
func Describe(err error) (msg, help string) {
	var be *Error
	if errors.As(err, &be) {
		return fmt.Sprintf("%s issue: %s", be.Kind, be.Error()), be.Help
	}
	return "Unexpected issue: " + err.Error(), ""
}
