package main

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"go.uber.org/multierr"
	"go.uber.org/zap"

	"github.com/runningwild/iobench/pkg/benchmark"
)

const crashDumpName = "iobench-exception.txt"

func crashDumpPath() string {
	return filepath.Join(os.TempDir(), crashDumpName)
}

// reportFailure logs every error err carries with its help text.
func reportFailure(logger *zap.Logger, err error) {
	for _, e := range multierr.Errors(err) {
		msg, help := benchmark.Describe(e)
		logger.Error(msg)
		if help != "" {
			logger.Info("Help info: " + help)
		}
	}
}

// appendCrashDump appends a timestamped record of err to path.
func appendCrashDump(path string, err error) (string, error) {
	f, ferr := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_APPEND, 0644)
	if ferr != nil {
		return path, ferr
	}
	defer f.Close()

	var werr error
	write := func(format string, args ...any) {
		_, e := fmt.Fprintf(f, format, args...)
		werr = multierr.Append(werr, e)
	}
	write("==== %s ====\n", time.Now().Format(time.RFC3339))
	for _, e := range multierr.Errors(err) {
		msg, help := benchmark.Describe(e)
		write("%s\n", msg)
		if help != "" {
			write("Help info: %s\n", help)
		}
		write("%#v\n", e)
	}
	write("\n")
	return path, multierr.Append(werr, f.Close())
}
