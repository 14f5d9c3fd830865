package engine

import (
	"fmt"
	"unsafe"

	"golang.org/x/sys/windows"
)

// alignedBuffer returns VirtualAlloc memory, which is page aligned as
// unbuffered transfers require.
func alignedBuffer(size int) ([]byte, func(), error) {
	addr, err := windows.VirtualAlloc(0, uintptr(size), windows.MEM_COMMIT|windows.MEM_RESERVE, windows.PAGE_READWRITE)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to allocate aligned memory: %w", err)
	}
	buf := unsafe.Slice((*byte)(unsafe.Pointer(addr)), size)
	return buf, func() { _ = windows.VirtualFree(addr, 0, windows.MEM_RELEASE) }, nil
}
