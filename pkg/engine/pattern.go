package engine

import (
	"encoding/binary"
	"math/rand/v2"

	"github.com/runningwild/iobench/pkg/config"
	"github.com/runningwild/iobench/pkg/timing"
)

// filler writes block content. Counter data stores, in every 8-byte word,
// the word's index in the file (offset / 8), little-endian.
type filler struct {
	data config.WriteData
	rng  *rand.Rand
}

func newFiller(data config.WriteData, stream uint64) *filler {
	f := &filler{data: data}
	if data == config.RandomData {
		f.rng = rand.New(rand.NewPCG(uint64(timing.Ticks()), stream))
	}
	return f
}

func (f *filler) fill(buf []byte, offset int64) {
	if f.data == config.RandomData {
		for p := 0; p+8 <= len(buf); p += 8 {
			binary.LittleEndian.PutUint64(buf[p:], f.rng.Uint64())
		}
		return
	}
	fillCounter(buf, offset)
}

func fillCounter(buf []byte, offset int64) {
	rec := uint64(offset / 8)
	for p := 0; p+8 <= len(buf); p += 8 {
		binary.LittleEndian.PutUint64(buf[p:], rec)
		rec++
	}
}

// verifyCounter checks buf, read from offset, against the counter layout.
func verifyCounter(buf []byte, offset int64) error {
	rec := uint64(offset / 8)
	for p := 0; p+8 <= len(buf); p += 8 {
		if got := binary.LittleEndian.Uint64(buf[p:]); got != rec {
			return &VerifyError{Offset: offset + int64(p), Want: rec, Got: got}
		}
		rec++
	}
	return nil
}
