package config

import (
	"fmt"
	"path/filepath"

	"golang.org/x/sys/windows"
)

func isRemoteFilesystem(path string) (bool, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return false, err
	}
	vol := filepath.VolumeName(abs)
	if len(vol) != 2 || vol[1] != ':' {
		return false, nil
	}
	root, err := windows.UTF16PtrFromString(vol + `\`)
	if err != nil {
		return false, err
	}
	switch windows.GetDriveType(root) {
	case windows.DRIVE_REMOTE:
		return true, nil
	case windows.DRIVE_NO_ROOT_DIR, windows.DRIVE_UNKNOWN:
		return false, fmt.Errorf("path %s is rooted on a drive that is not ready", path)
	default:
		return false, nil
	}
}
