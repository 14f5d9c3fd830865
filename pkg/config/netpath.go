package config

import "strings"

// IsNetworkPath reports whether path lives on a remote filesystem. UNC
// paths are always remote; otherwise the platform is consulted.
func IsNetworkPath(path string) (bool, error) {
	if isUNC(path) {
		return true, nil
	}
	return isRemoteFilesystem(path)
}

func isUNC(path string) bool {
	return strings.HasPrefix(path, `\\`) || strings.HasPrefix(path, "//")
}
