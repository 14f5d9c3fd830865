package benchmark

import (
	"errors"
	"fmt"
	"syscall"
)

// Kind classifies a fatal benchmark failure.
type Kind int

const (
	KindPrivilege Kind = iota + 1
	KindOpen
	KindControl
	KindPreallocation
	KindIO
	KindVerification
)

func (k Kind) String() string {
	switch k {
	case KindPrivilege:
		return "Privilege"
	case KindOpen:
		return "Open"
	case KindControl:
		return "Control"
	case KindPreallocation:
		return "Preallocation"
	case KindIO:
		return "IO"
	case KindVerification:
		return "Verification"
	default:
		return fmt.Sprintf("Kind(%d)", int(k))
	}
}

var (
	// ErrVerificationFailed matches any *Error of KindVerification.
	ErrVerificationFailed = errors.New("data verification failed")
	ErrAlreadyStarted     = errors.New("benchmark already started")
)

// Error is a fatal failure with a remediation hint for the operator.
type Error struct {
	Kind Kind
	Msg  string
	Help string
	Err  error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return e.Msg + ": " + e.Err.Error()
	}
	return e.Msg
}

func (e *Error) Unwrap() error { return e.Err }

func (e *Error) Is(target error) bool {
	return target == ErrVerificationFailed && e.Kind == KindVerification
}

// Errno returns the OS error code carried by err, or 0.
func Errno(err error) syscall.Errno {
	var errno syscall.Errno
	if errors.As(err, &errno) {
		return errno
	}
	return 0
}

const (
	helpPrivilege = "Fast preallocation needs the manage-volume privilege. Run elevated, or grant the account " +
		"the \"Perform volume maintenance tasks\" right."

	helpValidData = "Fast preallocation needs the manage-volume privilege on this machine and, for a file on a " +
		"remote volume, on the server that hosts the volume. The remote file system may not support it at all."

	helpControl = "Disabling local buffering and remote prefetch only work on files hosted on a remote (SMB) volume."

	helpOpen = "Check that the directory exists and that no other process holds the file open."

	helpIO = "The operating system rejected a read or write. The error code identifies the cause."

	helpVerify = "Data read back did not match the counter pattern. Write the file with counter data before " +
		"reading it with verification."
)
