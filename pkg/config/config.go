package config

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// AccessPattern selects how blocks are addressed within the target file.
type AccessPattern uint32

const (
	Sequential AccessPattern = 1
	Random     AccessPattern = 2
)

func (a AccessPattern) String() string {
	switch a {
	case Sequential:
		return "Sequential"
	case Random:
		return "Random"
	default:
		return fmt.Sprintf("AccessPattern(%d)", uint32(a))
	}
}

func (a AccessPattern) MarshalText() ([]byte, error) {
	return []byte(strings.ToLower(a.String())), nil
}

func (a *AccessPattern) UnmarshalText(b []byte) error {
	switch strings.ToLower(string(b)) {
	case "sequential", "seq":
		*a = Sequential
	case "random", "rand":
		*a = Random
	default:
		return fmt.Errorf("unknown access pattern %q", b)
	}
	return nil
}

// Operation is the transfer direction.
type Operation uint32

const (
	Write Operation = 1
	Read  Operation = 2
)

func (o Operation) String() string {
	switch o {
	case Write:
		return "Write"
	case Read:
		return "Read"
	default:
		return fmt.Sprintf("Operation(%d)", uint32(o))
	}
}

func (o Operation) MarshalText() ([]byte, error) {
	return []byte(strings.ToLower(o.String())), nil
}

func (o *Operation) UnmarshalText(b []byte) error {
	switch strings.ToLower(string(b)) {
	case "write":
		*o = Write
	case "read":
		*o = Read
	default:
		return fmt.Errorf("unknown operation %q", b)
	}
	return nil
}

// Preallocation controls whether the file is extended to its final size
// before the transfer starts.
type Preallocation int

const (
	PreallocNone Preallocation = iota
	// PreallocZeroed extends the file with zero-filled content.
	PreallocZeroed
	// PreallocUnzeroed sets the valid data length directly. Content is
	// undefined until written and the manage-volume privilege is required.
	PreallocUnzeroed
)

func (p Preallocation) String() string {
	switch p {
	case PreallocNone:
		return "none"
	case PreallocZeroed:
		return "zeroed"
	case PreallocUnzeroed:
		return "unzeroed"
	default:
		return fmt.Sprintf("Preallocation(%d)", int(p))
	}
}

func (p Preallocation) MarshalText() ([]byte, error) {
	return []byte(p.String()), nil
}

func (p *Preallocation) UnmarshalText(b []byte) error {
	switch strings.ToLower(string(b)) {
	case "", "none":
		*p = PreallocNone
	case "zeroed":
		*p = PreallocZeroed
	case "unzeroed", "fast":
		*p = PreallocUnzeroed
	default:
		return fmt.Errorf("unknown preallocation %q", b)
	}
	return nil
}

// WriteData selects the content written to each block.
type WriteData int

const (
	// CounterData writes the 64-bit record index of every word, which is
	// what read verification expects.
	CounterData WriteData = iota
	RandomData
)

func (w WriteData) String() string {
	if w == RandomData {
		return "random"
	}
	return "counter"
}

func (w WriteData) MarshalText() ([]byte, error) {
	return []byte(w.String()), nil
}

func (w *WriteData) UnmarshalText(b []byte) error {
	switch strings.ToLower(string(b)) {
	case "", "counter":
		*w = CounterData
	case "random":
		*w = RandomData
	default:
		return fmt.Errorf("unknown write data type %q", b)
	}
	return nil
}

// Async engine names accepted in AsyncEngine.
const (
	EnginePool   = "pool"
	EngineUring  = "uring"
	EngineLibAIO = "libaio"
)

const (
	KiB = 1024
	MiB = 1024 * KiB

	MinBlockSize       = 4 * KiB
	MaxBlockSize       = 8 * MiB
	BlockSizeAlignment = 4 * KiB

	MinRandomBlocks = 4
	MaxRandomBlocks = 65536

	MinOutstanding = 1
	MaxOutstanding = 256
)

// Config holds every parameter of a single benchmark run.
type Config struct {
	Name          string        `yaml:"name"`
	AccessPattern AccessPattern `yaml:"access_pattern"`
	Operation     Operation     `yaml:"operation"`
	FilePath      string        `yaml:"file_path"`
	FilePerBlock  bool          `yaml:"file_per_block"`

	Blocks              int  `yaml:"blocks"`
	BlockSizeBytes      int  `yaml:"block_size_bytes"`
	AsyncMaxOutstanding int  `yaml:"async_max_outstanding"`
	ReadVerify          bool `yaml:"read_verify"`

	Asynchronous          bool   `yaml:"asynchronous"`
	AsyncEngine           string `yaml:"async_engine"` // "pool", "uring" or "libaio"
	DisableLocalBuffering bool   `yaml:"disable_local_buffering"`
	NoBuffering           bool   `yaml:"no_buffering"`
	WriteThrough          bool   `yaml:"write_through"`
	SkipFlush             bool   `yaml:"skip_flush"`
	RemotePrefetch        bool   `yaml:"remote_prefetch"` // experimental
	NoOperationHints      bool   `yaml:"no_operation_hints"`

	Preallocation Preallocation `yaml:"preallocation"`
	WriteData     WriteData     `yaml:"write_data"`
}

// Default returns a configuration for a 1 GiB sequential, synchronous write.
func Default() Config {
	return Config{
		Name:                "Untitled",
		AccessPattern:       Sequential,
		Operation:           Write,
		Blocks:              1024,
		BlockSizeBytes:      1 * MiB,
		AsyncMaxOutstanding: 8,
		AsyncEngine:         EnginePool,
		Preallocation:       PreallocNone,
		WriteData:           CounterData,
	}
}

func (c *Config) IsRead() bool  { return c.Operation == Read }
func (c *Config) IsWrite() bool { return c.Operation == Write }

// FileSizeBytes is the size of the target file, or of each block file in
// file-per-block mode.
func (c *Config) FileSizeBytes() int64 {
	if c.FilePerBlock {
		return int64(c.BlockSizeBytes)
	}
	return int64(c.Blocks) * int64(c.BlockSizeBytes)
}

// Load reads a YAML configuration. Fields absent from the file keep their
// Default values.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	cfg := Default()
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	if cfg.AsyncEngine == "" {
		cfg.AsyncEngine = EnginePool
	}
	return &cfg, nil
}

// Save writes cfg as YAML.
func Save(path string, cfg *Config) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}
