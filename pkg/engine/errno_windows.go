package engine

import "golang.org/x/sys/windows"

// ErrnoVerify is the OS error code reported when read verification fails.
const ErrnoVerify = windows.ERROR_CRC
