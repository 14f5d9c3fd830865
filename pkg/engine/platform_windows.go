package engine

import (
	"fmt"
	"os"
	"unsafe"

	"golang.org/x/sys/windows"
)

// Redirector control codes understood by SMB client volumes.
const (
	ioctlDisableLocalBuffering = 0x140390
	ioctlRemotePrefetch        = 0x1401C4
	remotePrefetchArgument     = 0x1607
)

var (
	ntdll               = windows.NewLazySystemDLL("ntdll.dll")
	procNtFsControlFile = ntdll.NewProc("NtFsControlFile")

	kernel32             = windows.NewLazySystemDLL("kernel32.dll")
	procSetFileValidData = kernel32.NewProc("SetFileValidData")
)

// Overlapped handles are not used: asynchronous transfers are driven by
// goroutines over positional reads and writes.
func openFile(path string, opts OpenOptions) (*os.File, error) {
	name, err := windows.UTF16PtrFromString(path)
	if err != nil {
		return nil, err
	}

	access := uint32(windows.GENERIC_READ)
	share := uint32(windows.FILE_SHARE_READ)
	disposition := uint32(windows.OPEN_ALWAYS)
	if !opts.Read {
		access |= windows.GENERIC_WRITE
		share = 0
		disposition = windows.CREATE_ALWAYS
	}

	attrs := uint32(windows.FILE_ATTRIBUTE_NORMAL)
	if opts.NoBuffering {
		attrs |= windows.FILE_FLAG_NO_BUFFERING
	}
	if opts.WriteThrough {
		attrs |= windows.FILE_FLAG_WRITE_THROUGH
	}
	switch {
	case opts.RandomHint:
		attrs |= windows.FILE_FLAG_RANDOM_ACCESS
	case opts.SequentialHint:
		attrs |= windows.FILE_FLAG_SEQUENTIAL_SCAN
	}

	h, err := windows.CreateFile(name, access, share, nil, disposition, attrs, 0)
	if err != nil {
		return nil, &os.PathError{Op: "CreateFile", Path: path, Err: err}
	}
	return os.NewFile(uintptr(h), path), nil
}

func fsControl(f *os.File, code uint32, in []byte) error {
	var iosb windows.IO_STATUS_BLOCK
	var inPtr uintptr
	if len(in) > 0 {
		inPtr = uintptr(unsafe.Pointer(&in[0]))
	}
	r, _, _ := procNtFsControlFile.Call(
		f.Fd(), 0, 0, 0,
		uintptr(unsafe.Pointer(&iosb)),
		uintptr(code),
		inPtr, uintptr(len(in)),
		0, 0,
	)
	if st := windows.NTStatus(r); st != windows.STATUS_SUCCESS {
		return os.NewSyscallError("NtFsControlFile", st.Errno())
	}
	return nil
}

func disableLocalBuffering(f *os.File, async bool) error {
	return fsControl(f, ioctlDisableLocalBuffering, nil)
}

func enableRemotePrefetch(f *os.File, async bool) error {
	arg := uint32(remotePrefetchArgument)
	in := unsafe.Slice((*byte)(unsafe.Pointer(&arg)), unsafe.Sizeof(arg))
	return fsControl(f, ioctlRemotePrefetch, in)
}

func preallocateZeroed(f *os.File, size int64) error {
	return writeLastPage(f, size)
}

// setValidDataLength extends the file and marks its whole length valid
// without zeroing, which needs the manage-volume privilege.
func setValidDataLength(f *os.File, size int64) error {
	if err := f.Truncate(size); err != nil {
		return fmt.Errorf("set end of file: %w", err)
	}
	r, _, err := procSetFileValidData.Call(f.Fd(), uintptr(size))
	if r == 0 {
		return os.NewSyscallError("SetFileValidData", err)
	}
	return nil
}
