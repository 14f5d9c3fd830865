// Package sampler reports this process's instantaneous I/O throughput from
// the operating system's per-process counters.
package sampler

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/shirou/gopsutil/v4/process"
)

var (
	ErrNotEnabled = errors.New("instant counters are not enabled")
	ErrNotReady   = errors.New("instant counters are still loading")
)

// Counters are cumulative totals since the process started.
type Counters struct {
	Ops   uint64
	Bytes uint64
}

// Source reads the current Counters.
type Source func() (Counters, error)

// Finder locates the counter source; it may be slow.
type Finder func() (Source, error)

type baseline struct {
	set   bool
	value uint64
	at    time.Time
}

// Sampler turns cumulative counters into rates between successive queries.
type Sampler struct {
	enabled atomic.Bool
	ready   atomic.Bool

	mu      sync.Mutex
	find    Finder
	source  Source
	initErr error
	bytes   baseline
	ops     baseline
	now     func() time.Time
}

// Default samples the current process.
var Default = New(FindSelf)

func New(find Finder) *Sampler {
	return &Sampler{find: find, now: time.Now}
}

// Enable starts locating the counters on a background goroutine. Only the
// first call has any effect.
func (s *Sampler) Enable() {
	if s.enabled.Load() {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.enabled.Load() {
		return
	}
	s.enabled.Store(true)
	go s.initialize()
}

func (s *Sampler) initialize() {
	src, err := s.find()
	s.mu.Lock()
	s.source, s.initErr = src, err
	s.mu.Unlock()
	s.ready.Store(true)
}

func (s *Sampler) Enabled() bool { return s.enabled.Load() }

// Ready reports whether initialization has finished. A failed
// initialization is reported by the next query.
func (s *Sampler) Ready() bool { return s.ready.Load() }

// BytesPerSec returns the byte rate since the previous BytesPerSec call.
// The first call after initialization returns 0.
func (s *Sampler) BytesPerSec() (float64, error) {
	return s.rate(&s.bytes, func(c Counters) uint64 { return c.Bytes })
}

// OpsPerSec returns the operation rate since the previous OpsPerSec call.
func (s *Sampler) OpsPerSec() (float64, error) {
	return s.rate(&s.ops, func(c Counters) uint64 { return c.Ops })
}

func (s *Sampler) rate(b *baseline, pick func(Counters) uint64) (float64, error) {
	if !s.enabled.Load() {
		return 0, ErrNotEnabled
	}
	if !s.ready.Load() {
		return 0, ErrNotReady
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.initErr != nil {
		return 0, s.initErr
	}
	c, err := s.source()
	if err != nil {
		return 0, err
	}
	v, now := pick(c), s.now()
	prev := *b
	*b = baseline{set: true, value: v, at: now}
	if !prev.set || v < prev.value {
		return 0, nil
	}
	dt := now.Sub(prev.at).Seconds()
	if dt <= 0 {
		return 0, nil
	}
	return float64(v-prev.value) / dt, nil
}

// FindSelf enumerates the system's processes, keeps those running this
// executable, and picks the one with this process's pid.
func FindSelf() (Source, error) {
	exe, err := os.Executable()
	if err != nil {
		return nil, err
	}
	image := imageName(exe)
	pid := int32(os.Getpid())

	procs, err := process.Processes()
	if err != nil {
		return nil, fmt.Errorf("enumerate processes: %w", err)
	}
	for _, p := range procs {
		name, err := p.Name()
		if err != nil || !sameImage(imageName(name), image) {
			continue
		}
		if p.Pid == pid {
			return processSource(p), nil
		}
	}
	return nil, fmt.Errorf("no %s process instance with pid %d", image, pid)
}

func processSource(p *process.Process) Source {
	return func() (Counters, error) {
		io, err := p.IOCounters()
		if err != nil {
			return Counters{}, err
		}
		return Counters{
			Ops:   io.ReadCount + io.WriteCount,
			Bytes: io.ReadBytes + io.WriteBytes,
		}, nil
	}
}

func imageName(path string) string {
	return strings.TrimSuffix(filepath.Base(path), ".exe")
}

// Linux truncates process names to 15 bytes.
const commLen = 15

func sameImage(name, image string) bool {
	if name == image {
		return true
	}
	return len(name) == commLen && strings.HasPrefix(image, name)
}
