package main

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/runningwild/iobench/pkg/config"
)

type flags struct {
	configFile  string
	writeConfig string

	op             string
	async          bool
	asyncEngine    string
	maxOutstanding int
	blocks         int
	blockSizeKiB   int
	fileSizeMiB    int

	disableLocalBuffering bool
	noBuffering           bool
	readVerify            bool
	randomFill            bool
	writeThrough          bool
	skipFlush             bool
	remotePrefetch        bool
	noHints               bool
	prealloc              bool
	fastPrealloc          bool

	tag          string
	results      string
	jsonReport   string
	metricsAddr  string
	perfCounters bool
	verbose      bool
}

func (f *flags) bind(cmd *cobra.Command) {
	d := config.Default()
	fs := cmd.PersistentFlags()
	fs.StringVar(&f.configFile, "config", "", "Load the configuration from this YAML file instead of flags")
	fs.StringVar(&f.writeConfig, "write-config", "", "Save the resulting configuration to this YAML file")

	fs.StringVar(&f.op, "op", "sw", "Operation code: sw, sr, rw, rr, fw or fr")
	fs.BoolVar(&f.async, "async", false, "Keep several transfers in flight")
	fs.StringVar(&f.asyncEngine, "async-engine", d.AsyncEngine, "Asynchronous engine: pool, uring or libaio")
	fs.IntVar(&f.maxOutstanding, "max-outstanding", d.AsyncMaxOutstanding, "Maximum asynchronous transfers in flight")
	fs.IntVar(&f.blocks, "blocks", d.Blocks, "Number of blocks (files, for fw/fr)")
	fs.IntVar(&f.blockSizeKiB, "block-size", d.BlockSizeBytes/config.KiB, "Block size in KiB")
	fs.IntVar(&f.fileSizeMiB, "file-size", 0, "File size in MiB; derives --blocks")

	fs.BoolVar(&f.disableLocalBuffering, "disable-local-buffering", false, "Disable client-side caching of a remote file")
	fs.BoolVar(&f.noBuffering, "no-buffering", false, "Bypass the operating system cache")
	fs.BoolVar(&f.readVerify, "read-verify", false, "Check that read data holds the counter pattern")
	fs.BoolVar(&f.randomFill, "random-fill", false, "Write random data instead of the counter pattern")
	fs.BoolVar(&f.writeThrough, "write-through", false, "Complete writes only once they reach stable storage")
	fs.BoolVar(&f.skipFlush, "skip-flush", false, "Do not flush written data at the end of the transfer")
	fs.BoolVar(&f.remotePrefetch, "remote-prefetch", false, "Ask a remote volume to prefetch the file (experimental)")
	fs.BoolVar(&f.noHints, "no-hints", false, "Do not pass access pattern hints when opening the file")
	fs.BoolVar(&f.prealloc, "prealloc", false, "Preallocate the file with zeroes before writing")
	fs.BoolVar(&f.fastPrealloc, "fast-prealloc", false, "Preallocate without zeroing (needs the manage-volume privilege)")

	fs.StringVar(&f.tag, "tag", "", "Name of the run, recorded in the results file")
	fs.StringVar(&f.results, "results", "", "Append a row to this tab-separated results file")
	fs.StringVar(&f.jsonReport, "json-report", "", "Write a JSON report to this file")
	fs.StringVar(&f.metricsAddr, "metrics-addr", "", "Serve Prometheus metrics on this address while running")
	fs.BoolVar(&f.perfCounters, "perf-counters", false, "Show instant goodput from the OS process counters")
	fs.BoolVarP(&f.verbose, "verbose", "v", false, "Debug logging")
}

// applyOp sets the access pattern, direction and file layout for an
// operation code.
func applyOp(b *config.Builder, code string, blocks int) error {
	switch strings.ToLower(code) {
	case "rr":
		b.Randomly().Read()
	case "rw":
		b.Randomly().Write()
	case "sr":
		b.Sequentially().Read()
	case "sw":
		b.Sequentially().Write()
	case "fr":
		b.Sequentially().Read().Many(blocks)
	case "fw":
		b.Sequentially().Write().Many(blocks)
	default:
		return fmt.Errorf("unknown operation code %q", code)
	}
	return nil
}

// load determines the config source (file or flags) and returns the
// configuration. A positional path overrides the file's target.
func (f *flags) load(cmd *cobra.Command, args []string) (config.Config, error) {
	if f.configFile != "" {
		cfg, err := config.Load(f.configFile)
		if err != nil {
			return config.Config{}, fmt.Errorf("failed to load config file: %w", err)
		}
		if len(args) > 0 {
			cfg.FilePath = args[0]
		}
		return *cfg, nil
	}

	if len(args) == 0 {
		return config.Config{}, errors.New("a target file path is required")
	}
	changed := cmd.Flags().Changed
	if changed("file-size") && changed("blocks") {
		return config.Config{}, errors.New("--file-size and --blocks are mutually exclusive")
	}
	if f.prealloc && f.fastPrealloc {
		return config.Config{}, errors.New("--prealloc and --fast-prealloc are mutually exclusive")
	}

	b := config.NewBuilder().
		File(args[0]).
		Blocks(f.blocks).
		WithBlockSize(f.blockSizeKiB * config.KiB).
		MaxOutstanding(f.maxOutstanding).
		Engine(f.asyncEngine)
	if f.tag != "" {
		b.Named(f.tag)
	}
	if err := applyOp(b, f.op, f.blocks); err != nil {
		return config.Config{}, err
	}

	if changed("file-size") {
		blocks, err := blocksForFileSize(f.fileSizeMiB, f.blockSizeKiB)
		if err != nil {
			return config.Config{}, err
		}
		b.Blocks(blocks)
	}

	if f.async {
		b.Asynchronously()
	}
	if f.readVerify {
		b.Verified()
	}
	if f.randomFill {
		b.RandomFill()
	}
	if f.noBuffering {
		b.NoBuffering()
	}
	if f.writeThrough {
		b.WriteThrough()
	}
	if f.skipFlush {
		b.SkipFlush()
	}
	if f.prealloc {
		b.Preallocated()
	}
	if f.fastPrealloc {
		b.FastPreallocated()
	}

	cfg := b.Build()
	cfg.DisableLocalBuffering = f.disableLocalBuffering
	cfg.RemotePrefetch = f.remotePrefetch
	cfg.NoOperationHints = f.noHints
	return cfg, nil
}

func blocksForFileSize(fileMiB, blockKiB int) (int, error) {
	if fileMiB <= 0 {
		return 0, fmt.Errorf("invalid file size: %d MiB", fileMiB)
	}
	if blockKiB <= 0 {
		return 0, fmt.Errorf("invalid block size: %d KiB", blockKiB)
	}
	size := int64(fileMiB) * config.MiB
	block := int64(blockKiB) * config.KiB
	if size%block != 0 {
		return 0, fmt.Errorf("file size %d MiB is not a multiple of the %d KiB block size", fileMiB, blockKiB)
	}
	return int(size / block), nil
}
