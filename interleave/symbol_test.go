package interleave

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"hackdvbs/consts"
)

func TestNewSymbolInterleaver_HIsBijection(t *testing.T) {
	for mode, m := range consts.OFDMModes {
		si := NewSymbolInterleaver(m.DataCells, m.CarrierBit)
		seen := make(map[int]bool, m.DataCells)
		for _, v := range si.h {
			assert.False(t, seen[v], "mode %d: H(q) repeats value %d", mode, v)
			seen[v] = true
		}
		assert.Len(t, seen, m.DataCells, "mode %d: H must cover every value in [0,nMax)", mode)
	}
}

func TestProcess_AlternatesEvenOddPerCall(t *testing.T) {
	mode := consts.OFDMModes[2048]
	si := NewSymbolInterleaver(mode.DataCells, mode.CarrierBit)
	require.True(t, si.evenSymbol)
	si.Process(make([]byte, mode.DataCells))
	assert.False(t, si.evenSymbol)
	si.Process(make([]byte, mode.DataCells))
	assert.True(t, si.evenSymbol)
}

func TestProcess_RejectsWrongLength(t *testing.T) {
	mode := consts.OFDMModes[2048]
	si := NewSymbolInterleaver(mode.DataCells, mode.CarrierBit)
	assert.Panics(t, func() {
		si.Process(make([]byte, 1))
	})
}

func TestProcess_RoundTripsThroughHAndInverse(t *testing.T) {
	mode := consts.OFDMModes[2048]
	si := NewSymbolInterleaver(mode.DataCells, mode.CarrierBit)
	require.True(t, si.evenSymbol)

	in := make([]byte, mode.DataCells)
	for i := range in {
		in[i] = byte(i % 251)
	}

	permuted := si.Process(in) // uses H (even)
	restored := make([]byte, mode.DataCells)
	for q := 0; q < mode.DataCells; q++ {
		restored[q] = permuted[si.h[q]]
	}
	assert.Equal(t, in, restored)
}
