//go:build !linux && !windows

package config

func isRemoteFilesystem(path string) (bool, error) {
	return false, nil
}
