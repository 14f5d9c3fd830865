package engine

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/runningwild/iobench/pkg/config"
)

func TestRandomOrderIsPermutation(t *testing.T) {
	for width := 2; width <= 16; width++ {
		blocks := 1 << width
		order := newBlockOrder(config.Random, blocks)
		seen := make([]bool, blocks)
		count := 0
		for {
			b, ok := order.Next()
			if !ok {
				break
			}
			require.Less(t, b, blocks, "width %d", width)
			require.False(t, seen[b], "width %d: block %d visited twice", width, b)
			seen[b] = true
			count++
		}
		assert.Equal(t, blocks, count, "width %d", width)
	}
}

func TestRandomOrderStartsAtZero(t *testing.T) {
	order := newBlockOrder(config.Random, 64)
	b, ok := order.Next()
	require.True(t, ok)
	assert.Zero(t, b)

	second, _ := order.Next()
	assert.NotEqual(t, 1, second, "random order should not be sequential")
}

func TestSequentialOrder(t *testing.T) {
	order := newBlockOrder(config.Sequential, 5)
	var got []int
	for {
		b, ok := order.Next()
		if !ok {
			break
		}
		got = append(got, b)
	}
	assert.Equal(t, []int{0, 1, 2, 3, 4}, got)
}

func TestLFSRDeterministic(t *testing.T) {
	a, b := newBlockOrder(config.Random, 1024), newBlockOrder(config.Random, 1024)
	for i := 0; i < 1024; i++ {
		x, _ := a.Next()
		y, _ := b.Next()
		require.Equal(t, x, y)
	}
}
