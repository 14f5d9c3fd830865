package engine

import (
	"errors"
	"fmt"
	"os"

	"golang.org/x/sys/unix"
)

func openFile(path string, opts OpenOptions) (*os.File, error) {
	flags := os.O_RDONLY | os.O_CREATE
	if !opts.Read {
		flags = os.O_RDWR | os.O_CREATE | os.O_TRUNC
	}
	if opts.NoBuffering {
		flags |= unix.O_DIRECT
	}
	if opts.WriteThrough {
		flags |= unix.O_DSYNC
	}
	f, err := os.OpenFile(path, flags, 0644)
	if err != nil {
		return nil, err
	}

	// Hints are advisory; a filesystem that ignores them is not an error.
	fd := int(f.Fd())
	switch {
	case opts.RandomHint:
		_ = unix.Fadvise(fd, 0, 0, unix.FADV_RANDOM)
	case opts.SequentialHint:
		_ = unix.Fadvise(fd, 0, 0, unix.FADV_SEQUENTIAL)
	}
	return f, nil
}

// disableLocalBuffering switches the open file to direct I/O and drops
// whatever the page cache already holds for it.
func disableLocalBuffering(f *os.File, async bool) error {
	fd := int(f.Fd())
	fl, err := unix.FcntlInt(f.Fd(), unix.F_GETFL, 0)
	if err != nil {
		return os.NewSyscallError("fcntl", err)
	}
	if _, err := unix.FcntlInt(f.Fd(), unix.F_SETFL, fl|unix.O_DIRECT); err != nil {
		return os.NewSyscallError("fcntl", err)
	}
	if err := unix.Fadvise(fd, 0, 0, unix.FADV_DONTNEED); err != nil {
		return os.NewSyscallError("fadvise", err)
	}
	return nil
}

func enableRemotePrefetch(f *os.File, async bool) error {
	if err := unix.Fadvise(int(f.Fd()), 0, 0, unix.FADV_WILLNEED); err != nil {
		return os.NewSyscallError("fadvise", err)
	}
	return nil
}

// preallocateZeroed reserves size bytes with fallocate, or on filesystems
// without it extends the file by writing its last page.
func preallocateZeroed(f *os.File, size int64) error {
	err := unix.Fallocate(int(f.Fd()), 0, 0, size)
	if err == nil {
		return nil
	}
	if !errors.Is(err, unix.EOPNOTSUPP) && !errors.Is(err, unix.ENOSYS) {
		return os.NewSyscallError("fallocate", err)
	}
	return writeLastPage(f, size)
}

func setValidDataLength(f *os.File, size int64) error {
	if err := f.Truncate(size); err != nil {
		return fmt.Errorf("set valid data length: %w", err)
	}
	return nil
}
