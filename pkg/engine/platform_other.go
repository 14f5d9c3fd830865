//go:build !linux && !windows

package engine

import (
	"errors"
	"fmt"
	"os"
)

func openFile(path string, opts OpenOptions) (*os.File, error) {
	flags := os.O_RDONLY | os.O_CREATE
	if !opts.Read {
		flags = os.O_RDWR | os.O_CREATE | os.O_TRUNC
	}
	if opts.WriteThrough {
		flags |= os.O_SYNC
	}
	return os.OpenFile(path, flags, 0644)
}

func disableLocalBuffering(f *os.File, async bool) error {
	return fmt.Errorf("disable local buffering: %w", errors.ErrUnsupported)
}

func enableRemotePrefetch(f *os.File, async bool) error {
	return fmt.Errorf("remote prefetch: %w", errors.ErrUnsupported)
}

func preallocateZeroed(f *os.File, size int64) error {
	return writeLastPage(f, size)
}

func setValidDataLength(f *os.File, size int64) error {
	return f.Truncate(size)
}
