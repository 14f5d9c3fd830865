package benchmark

import (
	"os"
	"sync"

	"github.com/runningwild/iobench/pkg/engine"
	"github.com/runningwild/iobench/pkg/status"
)

// fakeRoutine opens real files but simulates transfers.
type fakeRoutine struct {
	mu     sync.Mutex
	opened []string
	calls  []string

	openErr     error
	controlErr  error
	preallocErr error
	runErr      error
	flushErr    error

	// onBlock, when set, runs before each block.
	onBlock func(i int, st *status.Status)
	// afterBlocks, when set, is waited on once every block is counted.
	afterBlocks chan struct{}
	// started is closed when the first run call begins.
	started     chan struct{}
	startedOnce sync.Once
}

func (r *fakeRoutine) note(call string) {
	r.mu.Lock()
	r.calls = append(r.calls, call)
	r.mu.Unlock()
}

func (r *fakeRoutine) Calls() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.calls...)
}

func (r *fakeRoutine) Open(path string, opts engine.OpenOptions) (*os.File, error) {
	r.note("open")
	if r.openErr != nil {
		return nil, r.openErr
	}
	r.mu.Lock()
	r.opened = append(r.opened, path)
	r.mu.Unlock()
	return os.OpenFile(path, os.O_RDWR|os.O_CREATE, 0644)
}

func (r *fakeRoutine) DisableLocalBuffering(f *os.File, async bool) error {
	r.note("disable-local-buffering")
	return r.controlErr
}

func (r *fakeRoutine) EnableRemotePrefetch(f *os.File, async bool) error {
	r.note("remote-prefetch")
	return r.controlErr
}

func (r *fakeRoutine) PreallocateZeroed(f *os.File, size int64, async bool) error {
	r.note("prealloc-zeroed")
	return r.preallocErr
}

func (r *fakeRoutine) SetValidDataLength(f *os.File, size int64) error {
	r.note("set-valid-data")
	return r.preallocErr
}

func (r *fakeRoutine) Flush(f *os.File) error {
	r.note("flush")
	return r.flushErr
}

func (r *fakeRoutine) run(t engine.Transfer, st *status.Status, async bool) error {
	if r.started != nil {
		r.startedOnce.Do(func() { close(r.started) })
	}
	for i := 0; i < t.Blocks; i++ {
		if r.onBlock != nil {
			r.onBlock(i, st)
		}
		if r.runErr != nil {
			return r.runErr
		}
		if st.Canceled() {
			return nil
		}
		st.AddIssueTicks(10)
		if async {
			st.AddWaitTicks(5)
			st.IncCompletedAsync()
		} else {
			st.IncCompletedSync()
		}
		st.AddBlocks(1)
	}
	if r.afterBlocks != nil {
		<-r.afterBlocks
	}
	return nil
}

func (r *fakeRoutine) RunSynchronous(f *os.File, t engine.Transfer, st *status.Status) error {
	r.note("run-sync")
	return r.run(t, st, false)
}

func (r *fakeRoutine) RunAsynchronous(f *os.File, t engine.Transfer, st *status.Status) error {
	r.note("run-async")
	return r.run(t, st, true)
}
