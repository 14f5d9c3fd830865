package config

import (
	"errors"
	"os"
	"path/filepath"

	"golang.org/x/sys/unix"
)

// statfs magic numbers of filesystems whose data lives on another host.
var remoteMagic = map[uint32]string{
	0x6969:     "nfs",
	0x517b:     "smb",
	0xfe534d42: "smb2",
	0xff534d42: "cifs",
	0x564c:     "ncp",
	0x73757245: "coda",
	0x00c36400: "ceph",
	0x47504653: "gpfs",
	0x0bd00bd0: "lustre",
}

func isRemoteFilesystem(path string) (bool, error) {
	target := path
	if _, err := os.Stat(target); errors.Is(err, os.ErrNotExist) {
		target = filepath.Dir(path)
	}
	var st unix.Statfs_t
	if err := unix.Statfs(target, &st); err != nil {
		if errors.Is(err, unix.ENOENT) || errors.Is(err, unix.ENOTDIR) {
			return false, nil
		}
		return false, &os.PathError{Op: "statfs", Path: target, Err: err}
	}
	_, remote := remoteMagic[uint32(st.Type)]
	return remote, nil
}
