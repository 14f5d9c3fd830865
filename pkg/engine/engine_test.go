package engine

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/runningwild/iobench/pkg/config"
	"github.com/runningwild/iobench/pkg/stats"
	"github.com/runningwild/iobench/pkg/status"
)

const (
	testBlocks    = 64
	testBlockSize = 16 * 1024
)

func transfer(op config.Operation, pattern config.AccessPattern) Transfer {
	return Transfer{
		Operation:      op,
		AccessPattern:  pattern,
		Verify:         op == config.Read,
		Blocks:         testBlocks,
		BlockSize:      testBlockSize,
		MaxOutstanding: 8,
		Latency:        stats.NewLatency(),
	}
}

// writeThenRead writes the file through one routine call and reads it back
// with verification through another. O_DIRECT is left off because tmpfs
// rejects it.
func writeThenRead(t *testing.T, kind string, async bool, pattern config.AccessPattern) {
	t.Helper()
	r := New(kind)
	path := filepath.Join(t.TempDir(), "target.bin")

	run := func(f *os.File, tr Transfer, st *status.Status) error {
		if async {
			return r.RunAsynchronous(f, tr, st)
		}
		return r.RunSynchronous(f, tr, st)
	}

	f, err := r.Open(path, OpenOptions{Async: async, SequentialHint: pattern == config.Sequential, RandomHint: pattern == config.Random})
	require.NoError(t, err)
	var wst status.Status
	err = run(f, transfer(config.Write, pattern), &wst)
	if errors.Is(err, ErrAsyncUnavailable) {
		f.Close()
		t.Skipf("%s unavailable: %v", kind, err)
	}
	require.NoError(t, err)
	require.NoError(t, r.Flush(f))
	require.NoError(t, f.Close())
	assert.EqualValues(t, testBlocks, wst.BlocksTransferred())

	fi, err := os.Stat(path)
	require.NoError(t, err)
	assert.EqualValues(t, testBlocks*testBlockSize, fi.Size())

	f, err = r.Open(path, OpenOptions{Read: true, Async: async})
	require.NoError(t, err)
	defer f.Close()
	var rst status.Status
	rt := transfer(config.Read, pattern)
	require.NoError(t, run(f, rt, &rst))

	snap := rst.Snapshot()
	assert.EqualValues(t, testBlocks, snap.BlocksTransferred)
	if async {
		assert.EqualValues(t, testBlocks, snap.CompletedAsync)
		assert.Zero(t, snap.CompletedSynchronously)
	} else {
		assert.EqualValues(t, testBlocks, snap.CompletedSynchronously)
		assert.Zero(t, snap.CompletedAsync)
	}
	assert.Positive(t, snap.IssueTicks)
	assert.EqualValues(t, testBlocks, rt.Latency.Count())
}

func TestSynchronousSequential(t *testing.T) {
	writeThenRead(t, config.EnginePool, false, config.Sequential)
}

func TestSynchronousRandom(t *testing.T) {
	writeThenRead(t, config.EnginePool, false, config.Random)
}

func TestPoolAsync(t *testing.T) {
	writeThenRead(t, config.EnginePool, true, config.Random)
}

func TestUringAsync(t *testing.T) {
	writeThenRead(t, config.EngineUring, true, config.Sequential)
}

func TestLibAIOAsync(t *testing.T) {
	writeThenRead(t, config.EngineLibAIO, true, config.Random)
}

func TestVerificationFailure(t *testing.T) {
	for _, async := range []bool{false, true} {
		r := New(config.EnginePool)
		path := filepath.Join(t.TempDir(), "zeros.bin")
		require.NoError(t, os.WriteFile(path, make([]byte, testBlocks*testBlockSize), 0644))

		f, err := r.Open(path, OpenOptions{Read: true})
		require.NoError(t, err)
		var st status.Status
		tr := transfer(config.Read, config.Sequential)
		if async {
			err = r.RunAsynchronous(f, tr, &st)
		} else {
			err = r.RunSynchronous(f, tr, &st)
		}
		f.Close()

		// Only the first word of a zeroed file matches its counter.
		var ve *VerifyError
		require.ErrorAs(t, err, &ve, "async=%v", async)
		assert.ErrorIs(t, err, ErrnoVerify)
	}
}

// A verification failure returns while other reads are still queued on the
// ring or context; teardown has to drain them before the slab goes away.
func TestKernelQueueVerificationFailureWithReadsInFlight(t *testing.T) {
	for _, kind := range []string{config.EngineUring, config.EngineLibAIO} {
		t.Run(kind, func(t *testing.T) {
			r := New(kind)
			path := filepath.Join(t.TempDir(), "zeros.bin")
			require.NoError(t, os.WriteFile(path, make([]byte, testBlocks*testBlockSize), 0644))

			for i := 0; i < 3; i++ {
				f, err := r.Open(path, OpenOptions{Read: true, Async: true})
				require.NoError(t, err)
				tr := transfer(config.Read, config.Sequential)
				tr.MaxOutstanding = 32
				var st status.Status
				err = r.RunAsynchronous(f, tr, &st)
				f.Close()
				if errors.Is(err, ErrAsyncUnavailable) {
					t.Skipf("%s unavailable: %v", kind, err)
				}
				assert.ErrorIs(t, err, ErrnoVerify)
				assert.Less(t, st.BlocksTransferred(), int64(testBlocks))
			}
			writeThenRead(t, kind, true, config.Sequential)
		})
	}
}

func TestShortReadFails(t *testing.T) {
	r := New(config.EnginePool)
	path := filepath.Join(t.TempDir(), "short.bin")
	require.NoError(t, os.WriteFile(path, make([]byte, testBlockSize), 0644))

	f, err := r.Open(path, OpenOptions{Read: true})
	require.NoError(t, err)
	defer f.Close()
	tr := transfer(config.Read, config.Sequential)
	tr.Verify = false
	var st status.Status
	err = r.RunSynchronous(f, tr, &st)
	require.Error(t, err)
	assert.EqualValues(t, 1, st.BlocksTransferred())
}

func TestCanceledBeforeRunTransfersNothing(t *testing.T) {
	for _, async := range []bool{false, true} {
		r := New(config.EnginePool)
		f, err := r.Open(filepath.Join(t.TempDir(), "c.bin"), OpenOptions{})
		require.NoError(t, err)
		var st status.Status
		st.Cancel()
		if async {
			err = r.RunAsynchronous(f, transfer(config.Write, config.Sequential), &st)
		} else {
			err = r.RunSynchronous(f, transfer(config.Write, config.Sequential), &st)
		}
		f.Close()
		require.NoError(t, err)
		assert.Zero(t, st.BlocksTransferred())
	}
}

func TestPreallocation(t *testing.T) {
	r := New(config.EnginePool)
	path := filepath.Join(t.TempDir(), "prealloc.bin")
	f, err := r.Open(path, OpenOptions{})
	require.NoError(t, err)
	defer f.Close()

	const size = 1 << 20
	require.NoError(t, r.PreallocateZeroed(f, size, false))
	fi, err := f.Stat()
	require.NoError(t, err)
	assert.GreaterOrEqual(t, fi.Size(), int64(size)-1)

	require.NoError(t, r.SetValidDataLength(f, 2*size))
	fi, err = f.Stat()
	require.NoError(t, err)
	assert.EqualValues(t, 2*size, fi.Size())
}

func TestUnknownEngine(t *testing.T) {
	r := New("spdk")
	f, err := r.Open(filepath.Join(t.TempDir(), "u.bin"), OpenOptions{})
	require.NoError(t, err)
	defer f.Close()
	var st status.Status
	assert.ErrorContains(t, r.RunAsynchronous(f, transfer(config.Write, config.Sequential), &st), "unknown async engine")
}

func TestInvalidTransfer(t *testing.T) {
	r := New("")
	assert.Equal(t, config.EnginePool, r.Kind())
	var st status.Status
	tr := transfer(config.Write, config.Sequential)
	tr.Blocks = 0
	assert.Error(t, r.RunSynchronous(nil, tr, &st))
}
