package interleave

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"
)

func TestBuildPermutation_IsBijection(t *testing.T) {
	for _, nu := range []int{2, 4, 6} {
		perm := BuildPermutation(nu)
		seen := make(map[int]bool, len(perm))
		for _, idx := range perm {
			assert.False(t, seen[idx], "nu=%d: index %d produced twice", nu, idx)
			seen[idx] = true
			assert.GreaterOrEqual(t, idx, 0)
			assert.Less(t, idx, blockBits(nu))
		}
		assert.Len(t, seen, blockBits(nu))
	}
}

func TestProcess_EmitsWholeBlocksOnly(t *testing.T) {
	bi := NewBitInterleaver(4)
	block := blockBits(4)

	in := make([]byte, block+10)
	out := bi.Process(in)
	assert.Len(t, out, block/4)

	out2 := bi.Process(make([]byte, 0))
	assert.Empty(t, out2)
}

func TestProcess_SymbolWidthMatchesNu(t *testing.T) {
	rapid.Check(t, func(rt *rapid.T) {
		nu := rapid.SampledFrom([]int{2, 4, 6}).Draw(rt, "nu")
		bi := NewBitInterleaver(nu)
		block := blockBits(nu)
		nBlocks := rapid.IntRange(1, 3).Draw(rt, "nBlocks")

		in := make([]byte, nBlocks*block)
		for i := range in {
			in[i] = byte(rapid.IntRange(0, 1).Draw(rt, "bit"))
		}
		out := bi.Process(in)
		require.Len(rt, out, nBlocks*block/nu)
		for _, sym := range out {
			assert.Zero(rt, int(sym)&^((1<<uint(nu))-1), "symbol must fit in nu bits")
		}
	})
}

func TestReset_DiscardsPartialBlock(t *testing.T) {
	bi := NewBitInterleaver(2)
	bi.Process(make([]byte, 10))
	assert.Equal(t, 10, bi.filled)
	bi.Reset()
	assert.Zero(t, bi.filled)
}
