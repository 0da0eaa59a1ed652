package puncture

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"

	"hackdvbs/consts"
)

func TestNew_RejectsUnknownRate(t *testing.T) {
	_, err := New(99)
	assert.Error(t, err)
}

func TestProcess_Rate34MatchesSpecExample(t *testing.T) {
	p, err := New(34)
	require.NoError(t, err)
	in := []byte{1, 1, 0, 1, 1, 0, 1, 0, 1, 0, 1, 1}
	out := p.Process(in)
	assert.Equal(t, []byte{1, 1, 1, 1, 1, 0, 0, 1}, out)
}

func TestProcess_OutputLengthMatchesFormula(t *testing.T) {
	rapid.Check(t, func(rt *rapid.T) {
		rateCode := rapid.SampledFrom([]int{12, 23, 34, 56, 78}).Draw(rt, "rate")
		p, err := New(rateCode)
		require.NoError(rt, err)
		rate := consts.PuncturerRates[rateCode]

		n := rapid.IntRange(0, 500).Draw(rt, "n")
		in := make([]byte, n)
		out := p.Process(in)
		assert.Len(rt, out, (n/rate.KIn)*rate.KOut)
	})
}

func TestProcess_BuffersPartialWindowAcrossCalls(t *testing.T) {
	p, err := New(23)
	require.NoError(t, err)
	out1 := p.Process([]byte{1, 1})
	assert.Empty(t, out1)
	out2 := p.Process([]byte{0, 1})
	assert.Equal(t, []byte{1, 1, 1}, out2)
}

func TestReset_DiscardsPartialWindow(t *testing.T) {
	p, err := New(34)
	require.NoError(t, err)
	p.Process([]byte{1, 0, 1})
	p.Reset()
	assert.Empty(t, p.window)
}
