package engine

import (
	"math/bits"

	"github.com/runningwild/iobench/pkg/config"
)

// Tap positions of maximal-length Fibonacci LFSRs, indexed by register width.
var lfsrTaps = [...][]uint{
	2:  {0, 1},
	3:  {0, 1},
	4:  {0, 1},
	5:  {0, 2},
	6:  {0, 1},
	7:  {0, 1},
	8:  {0, 2, 3, 4},
	9:  {0, 4},
	10: {0, 3},
	11: {0, 2},
	12: {0, 1, 2, 8},
	13: {0, 1, 2, 5},
	14: {0, 1, 2, 12},
	15: {0, 1},
	16: {0, 2, 3, 5},
}

const lfsrSeed = 0xBEEF

// lfsr walks every non-zero state of a width-bit register once.
type lfsr struct {
	width uint
	taps  []uint
	seed  uint32
	state uint32
	done  bool
}

func newLFSR(width uint) *lfsr {
	seed := uint32(lfsrSeed) & (1<<width - 1)
	return &lfsr{width: width, taps: lfsrTaps[width], seed: seed, state: seed}
}

// next returns the following state. The seed itself comes last.
func (l *lfsr) next() (uint32, bool) {
	if l.done {
		return 0, false
	}
	var bit uint32
	for _, s := range l.taps {
		bit ^= (l.state >> s) & 1
	}
	l.state = l.state>>1 | bit<<(l.width-1)
	if l.state == l.seed {
		l.done = true
	}
	return l.state, true
}

// blockOrder yields block indices in the order a transfer visits them.
type blockOrder struct {
	blocks int
	pos    int
	lfsr   *lfsr
}

// newBlockOrder returns a sequential walk, or for random access a
// permutation that starts at block 0 and visits every block exactly once.
// Random access requires a power-of-two count in [4, 65536].
func newBlockOrder(pattern config.AccessPattern, blocks int) *blockOrder {
	o := &blockOrder{blocks: blocks}
	if pattern == config.Random && blocks >= config.MinRandomBlocks &&
		blocks <= config.MaxRandomBlocks && bits.OnesCount(uint(blocks)) == 1 {
		o.lfsr = newLFSR(uint(bits.TrailingZeros(uint(blocks))))
	}
	return o
}

func (o *blockOrder) Next() (int, bool) {
	if o.pos >= o.blocks {
		return 0, false
	}
	o.pos++
	switch {
	case o.lfsr == nil:
		return o.pos - 1, true
	case o.pos == 1:
		return 0, true
	}
	v, ok := o.lfsr.next()
	return int(v), ok
}
