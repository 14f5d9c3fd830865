//go:build unix

package engine

import (
	"fmt"

	"golang.org/x/sys/unix"
)

// alignedBuffer returns an anonymous mapping, which is page aligned as
// O_DIRECT transfers require.
func alignedBuffer(size int) ([]byte, func(), error) {
	buf, err := unix.Mmap(-1, 0, size, unix.PROT_READ|unix.PROT_WRITE, unix.MAP_ANON|unix.MAP_PRIVATE)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to allocate aligned memory: %w", err)
	}
	return buf, func() { _ = unix.Munmap(buf) }, nil
}
