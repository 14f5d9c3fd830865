// Package privilege enables the process privilege needed to set a file's
// valid data length without zeroing it.
package privilege

import "sync"

// Guard runs an acquisition at most once and remembers its result,
// including failure, for the life of the process.
type Guard struct {
	mu      sync.Mutex
	done    bool
	err     error
	acquire func() error
}

func NewGuard(acquire func() error) *Guard {
	return &Guard{acquire: acquire}
}

// Acquire runs the acquisition on first call and returns its result to
// every caller.
func (g *Guard) Acquire() error {
	g.mu.Lock()
	defer g.mu.Unlock()
	if !g.done {
		g.err = g.acquire()
		g.done = true
	}
	return g.err
}

// Acquired reports whether acquisition has run and succeeded.
func (g *Guard) Acquired() bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.done && g.err == nil
}

var manageVolume = NewGuard(enableManageVolume)

// AcquireManageVolume enables the manage-volume privilege for this process.
// On systems without such a privilege it always succeeds.
func AcquireManageVolume() error {
	return manageVolume.Acquire()
}
