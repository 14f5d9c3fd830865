package config

// Builder assembles a Config through chained setters, starting from Default.
//
//	cfg := config.NewBuilder().File(p).Randomly().Read().Blocks(4096).Verified().Build()
type Builder struct {
	cfg Config
}

func NewBuilder() *Builder {
	return &Builder{cfg: Default()}
}

// From starts a Builder from an existing configuration.
func From(cfg Config) *Builder {
	return &Builder{cfg: cfg}
}

func (b *Builder) Named(name string) *Builder {
	b.cfg.Name = name
	return b
}

func (b *Builder) File(path string) *Builder {
	b.cfg.FilePath = path
	return b
}

func (b *Builder) Read() *Builder {
	b.cfg.Operation = Read
	return b
}

func (b *Builder) Write() *Builder {
	b.cfg.Operation = Write
	return b
}

func (b *Builder) Sequentially() *Builder {
	b.cfg.AccessPattern = Sequential
	return b
}

func (b *Builder) Randomly() *Builder {
	b.cfg.AccessPattern = Random
	return b
}

func (b *Builder) Synchronously() *Builder {
	b.cfg.Asynchronous = false
	return b
}

func (b *Builder) Asynchronously() *Builder {
	b.cfg.Asynchronous = true
	return b
}

func (b *Builder) Blocks(n int) *Builder {
	b.cfg.Blocks = n
	return b
}

func (b *Builder) WithBlockSize(bytes int) *Builder {
	b.cfg.BlockSizeBytes = bytes
	return b
}
func (b *Builder) MaxOutstanding(n int) *Builder {
	b.cfg.AsyncMaxOutstanding = n
	return b
}

func (b *Builder) Engine(name string) *Builder {
	b.cfg.AsyncEngine = name
	return b
}

func (b *Builder) Verified() *Builder {
	b.cfg.ReadVerify = true
	return b
}

func (b *Builder) RandomFill() *Builder {
	b.cfg.WriteData = RandomData
	return b
}

func (b *Builder) NoBuffering() *Builder {
	b.cfg.NoBuffering = true
	return b
}

func (b *Builder) WriteThrough() *Builder {
	b.cfg.WriteThrough = true
	return b
}

func (b *Builder) SkipFlush() *Builder {
	b.cfg.SkipFlush = true
	return b
}

func (b *Builder) Preallocated() *Builder {
	b.cfg.Preallocation = PreallocZeroed
	return b
}

func (b *Builder) FastPreallocated() *Builder {
	b.cfg.Preallocation = PreallocUnzeroed
	return b
}

// One targets a single file.
func (b *Builder) One() *Builder {
	b.cfg.FilePerBlock = false
	return b
}

// Many writes or reads count files of one block each.
func (b *Builder) Many(count int) *Builder {
	b.cfg.FilePerBlock = true
	b.cfg.Blocks = count
	return b
}

func (b *Builder) Build() Config { return b.cfg }
