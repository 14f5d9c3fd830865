package privilege

import (
	"errors"
	"fmt"
	"syscall"
	"unsafe"

	"golang.org/x/sys/windows"
)

const seManageVolumeName = "SeManageVolumePrivilege"

var (
	advapi32                  = windows.NewLazySystemDLL("advapi32.dll")
	procAdjustTokenPrivileges = advapi32.NewProc("AdjustTokenPrivileges")
)

func enableManageVolume() error {
	var token windows.Token
	err := windows.OpenProcessToken(windows.CurrentProcess(),
		windows.TOKEN_ADJUST_PRIVILEGES|windows.TOKEN_QUERY, &token)
	if err != nil {
		return fmt.Errorf("open process token: %w", err)
	}
	defer token.Close()

	name, err := windows.UTF16PtrFromString(seManageVolumeName)
	if err != nil {
		return err
	}
	var luid windows.LUID
	if err := windows.LookupPrivilegeValue(nil, name, &luid); err != nil {
		return fmt.Errorf("lookup %s: %w", seManageVolumeName, err)
	}

	tp := windows.Tokenprivileges{PrivilegeCount: 1}
	tp.Privileges[0] = windows.LUIDAndAttributes{Luid: luid, Attributes: windows.SE_PRIVILEGE_ENABLED}
	r, _, callErr := procAdjustTokenPrivileges.Call(
		uintptr(token), 0, uintptr(unsafe.Pointer(&tp)), uintptr(unsafe.Sizeof(tp)), 0, 0)
	return adjustResult(r, callErr)
}

// adjustResult interprets the return value and last error of one
// AdjustTokenPrivileges call. The call succeeds even when the privilege is
// not held, reporting ERROR_NOT_ALL_ASSIGNED as its last error.
func adjustResult(r uintptr, callErr error) error {
	var errno syscall.Errno
	errors.As(callErr, &errno)
	if r == 0 {
		if errno == 0 {
			errno = syscall.EINVAL
		}
		return fmt.Errorf("adjust token privileges: %w", errno)
	}
	if errno == windows.ERROR_NOT_ALL_ASSIGNED {
		return fmt.Errorf("%s is not held by this account: %w", seManageVolumeName, errno)
	}
	return nil
}
