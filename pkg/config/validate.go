package config

import (
	"errors"
	"math/bits"
	"os"
	"path/filepath"
	"strings"

	"go.uber.org/multierr"
	"go.uber.org/zap"
)

const issuePrefix = "Configuration issue: "

// validation collects every failed rule instead of stopping at the first.
type validation struct {
	logger *zap.Logger
	issues []string
}

func (v *validation) failIf(cond bool, msg string) {
	if !cond {
		return
	}
	v.issues = append(v.issues, msg)
	v.logger.Error(issuePrefix + msg)
}

// Validate checks every rule independently, logging each violation, and
// reports whether the configuration can be run. The error is non-nil only
// when a rule could not be evaluated at all.
func (c *Config) Validate(logger *zap.Logger) (bool, error) {
	issues, err := c.validate(logger)
	return len(issues) == 0, err
}

// Check is Validate for callers that want the issues as an error.
func (c *Config) Check(logger *zap.Logger) error {
	issues, err := c.validate(logger)
	if err != nil {
		return err
	}
	var combined error
	for _, issue := range issues {
		combined = multierr.Append(combined, errors.New(issue))
	}
	return combined
}

func (c *Config) validate(logger *zap.Logger) ([]string, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	v := &validation{logger: logger}

	v.failIf(strings.TrimSpace(c.FilePath) == "",
		"Invalid file path.")

	v.failIf(c.Operation != Read && c.Operation != Write,
		"Operation must be read or write.")
	v.failIf(c.AccessPattern != Sequential && c.AccessPattern != Random,
		"Access pattern must be sequential or random.")
	v.failIf(c.Preallocation < PreallocNone || c.Preallocation > PreallocUnzeroed,
		"Preallocation must be none, zeroed or unzeroed.")
	v.failIf(c.WriteData != CounterData && c.WriteData != RandomData,
		"Write data must be counter or random.")

	v.failIf(c.FilePerBlock && c.AccessPattern != Sequential,
		"Multi-file operations must use sequential access pattern.")
	v.failIf(c.FilePerBlock && c.Asynchronous,
		"Multi-file operations can not be asynchronous.")
	v.failIf(c.FilePerBlock && c.Preallocation != PreallocNone,
		"Multi-file operations can not use preallocation.")

	v.failIf(c.AccessPattern == Random && !validRandomBlocks(c.Blocks),
		"Random access operations must use a block count that is between 4 and 65536 and is a power of 2.")

	v.failIf(c.AsyncMaxOutstanding < MinOutstanding || c.AsyncMaxOutstanding > MaxOutstanding,
		"Max outstanding asynchronous transfers must be between 1 and 256.")
	v.failIf(c.Blocks <= 0,
		"Block count must be >0.")
	v.failIf(c.BlockSizeBytes < MinBlockSize || c.BlockSizeBytes > MaxBlockSize,
		"Block size must be between 4kB and 8MB.")
	v.failIf(c.BlockSizeBytes%BlockSizeAlignment != 0,
		"Block size must be a multiple of 4kB.")

	v.failIf(!isValidPath(c.FilePath),
		"Path must be to an existing file or a new file to create in an existing directory.")

	switch c.AsyncEngine {
	case EnginePool, EngineUring, EngineLibAIO:
	default:
		v.failIf(true, "Async engine must be one of pool, uring or libaio.")
	}

	if c.RemotePrefetch {
		logger.Warn(`Experimental option "RemotePrefetch" is in use.`)
	}

	if c.NoBuffering && strings.TrimSpace(c.FilePath) != "" {
		remote, err := IsNetworkPath(c.FilePath)
		if err != nil {
			return v.issues, err
		}
		if remote {
			logger.Warn("Network transfer with no-buffering option. Performance will not be optimal.",
				zap.String("path", c.FilePath))
		}
	}

	return v.issues, nil
}

func validRandomBlocks(n int) bool {
	return n >= MinRandomBlocks && n <= MaxRandomBlocks && bits.OnesCount(uint(n)) == 1
}

// isValidPath accepts an existing file or a new file in an existing
// directory. Directories themselves are rejected.
func isValidPath(path string) bool {
	if path == "" {
		return false
	}
	if fi, err := os.Stat(path); err == nil && fi.IsDir() {
		return false
	}
	fi, err := os.Stat(filepath.Dir(path))
	return err == nil && fi.IsDir()
}
