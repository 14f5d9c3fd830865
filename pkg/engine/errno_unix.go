//go:build !windows

package engine

import "golang.org/x/sys/unix"

// ErrnoVerify is the OS error code reported when read verification fails.
const ErrnoVerify = unix.EBADMSG
