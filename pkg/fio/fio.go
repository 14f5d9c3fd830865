// Package fio renders a configuration as an equivalent fio job file, so a
// run can be cross-checked with fio.
package fio

import (
	"fmt"
	"strings"

	"github.com/runningwild/iobench/pkg/config"
)

// GenerateJob creates fio job file content for cfg.
func GenerateJob(cfg config.Config) string {
	var sb strings.Builder

	sb.WriteString("[global]\n")

	// Engine mapping
	switch {
	case !cfg.Asynchronous:
		sb.WriteString("ioengine=psync\n")
	case cfg.AsyncEngine == config.EngineUring:
		sb.WriteString("ioengine=io_uring\n")
	case cfg.AsyncEngine == config.EngineLibAIO:
		sb.WriteString("ioengine=libaio\n")
	default:
		// Goroutine pool: one job per outstanding transfer.
		sb.WriteString("ioengine=psync\n")
	}

	if cfg.FilePerBlock {
		sb.WriteString(fmt.Sprintf("directory=%s\n", dirOf(cfg.FilePath)))
		sb.WriteString(fmt.Sprintf("nrfiles=%d\n", cfg.Blocks))
		sb.WriteString("file_service_type=sequential\n")
	} else {
		sb.WriteString(fmt.Sprintf("filename=%s\n", cfg.FilePath))
	}
	sb.WriteString(fmt.Sprintf("bs=%d\n", cfg.BlockSizeBytes))
	sb.WriteString(fmt.Sprintf("size=%d\n", cfg.FileSizeBytes()))

	if cfg.NoBuffering {
		sb.WriteString("direct=1\n")
	} else {
		sb.WriteString("direct=0\n")
	}
	if cfg.WriteThrough {
		sb.WriteString("sync=dsync\n")
	}

	rw := "read"
	if cfg.IsWrite() {
		rw = "write"
	}
	if cfg.AccessPattern == config.Random {
		rw = "rand" + rw
	}
	sb.WriteString(fmt.Sprintf("rw=%s\n", rw))

	if cfg.IsWrite() {
		if !cfg.SkipFlush {
			sb.WriteString("end_fsync=1\n")
		}
		switch cfg.Preallocation {
		case config.PreallocNone:
			sb.WriteString("fallocate=none\n")
		default:
			sb.WriteString("fallocate=native\n")
		}
	} else if cfg.ReadVerify {
		// fio cannot check iobench's counter layout.
		sb.WriteString("# read verification not exported\n")
	}

	// Concurrency
	iodepth, numjobs := 1, 1
	if cfg.Asynchronous {
		if cfg.AsyncEngine == config.EngineUring || cfg.AsyncEngine == config.EngineLibAIO {
			iodepth = cfg.AsyncMaxOutstanding
		} else {
			numjobs = cfg.AsyncMaxOutstanding
		}
	}
	sb.WriteString(fmt.Sprintf("numjobs=%d\n", numjobs))
	sb.WriteString(fmt.Sprintf("iodepth=%d\n", iodepth))
	if numjobs > 1 {
		sb.WriteString("group_reporting\n")
	}

	sb.WriteString(fmt.Sprintf("\n[%s]\n", jobName(cfg.Name)))
	return sb.String()
}

func dirOf(path string) string {
	i := strings.LastIndexAny(path, `/\`)
	if i < 0 {
		return "."
	}
	if i == 0 {
		return path[:1]
	}
	return path[:i]
}

func jobName(name string) string {
	name = strings.Map(func(r rune) rune {
		switch r {
		case '[', ']', '\n', '\r':
			return -1
		case ' ', '\t':
			return '_'
		}
		return r
	}, name)
	if name == "" {
		return "iobench_job"
	}
	return name
}
