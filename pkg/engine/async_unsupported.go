//go:build !linux

package engine

import (
	"fmt"
	"os"

	"github.com/runningwild/iobench/pkg/status"
)

func runUring(f *os.File, t Transfer, st *status.Status) error {
	return fmt.Errorf("%w: io_uring is only supported on Linux", ErrAsyncUnavailable)
}

func runLibAIO(f *os.File, t Transfer, st *status.Status) error {
	return fmt.Errorf("%w: libaio is only supported on Linux", ErrAsyncUnavailable)
}
