package mapper

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"
)

func TestNew_RejectsUnknownQAMMapping(t *testing.T) {
	_, err := New(8, 1)
	assert.Error(t, err)
}

func TestNew_RejectsInvalidAlpha(t *testing.T) {
	_, err := New(16, 3)
	assert.Error(t, err)
}

func TestMap_AverageEnergyIsUnity(t *testing.T) {
	for _, qam := range []int{4, 16, 64} {
		m, err := New(qam, 1)
		require.NoError(t, err)

		nu := m.Nu()
		n := 1 << uint(nu)
		points := make([]byte, n)
		for i := range points {
			points[i] = byte(i)
		}
		out := m.Map(points)

		var sumSq float64
		for _, c := range out {
			sumSq += real(c)*real(c) + imag(c)*imag(c)
		}
		mean := sumSq / float64(n)
		assert.InDelta(t, 1.0, mean, 1e-9, "qammapping=%d: mean constellation energy must be unity", qam)
	}
}

func TestMap_NuMatchesQAMMapping(t *testing.T) {
	cases := map[int]int{4: 2, 16: 4, 64: 6}
	for qam, nu := range cases {
		m, err := New(qam, 1)
		require.NoError(t, err)
		assert.Equal(t, nu, m.Nu())
	}
}

func TestMap_OneElementPerInputSymbol(t *testing.T) {
	rapid.Check(t, func(rt *rapid.T) {
		qam := rapid.SampledFrom([]int{4, 16, 64}).Draw(rt, "qam")
		m, err := New(qam, 1)
		require.NoError(rt, err)

		n := rapid.IntRange(0, 100).Draw(rt, "n")
		in := make([]byte, n)
		out := m.Map(in)
		require.Len(rt, out, n)
		for _, c := range out {
			assert.False(rt, math.IsNaN(real(c)) || math.IsNaN(imag(c)))
		}
	})
}
