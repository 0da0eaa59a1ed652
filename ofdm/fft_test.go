package ofdm

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// naiveInverse computes the unnormalised inverse DFT directly, as a
// reference for the radix-2 plan.
func naiveInverse(src []complex128) []complex128 {
	n := len(src)
	dst := make([]complex128, n)
	for k := 0; k < n; k++ {
		var sum complex128
		for j := 0; j < n; j++ {
			theta := 2 * math.Pi * float64(k) * float64(j) / float64(n)
			sum += src[j] * complex(math.Cos(theta), math.Sin(theta))
		}
		dst[k] = sum
	}
	return dst
}

func TestNewPlan_RejectsNonPowerOfTwo(t *testing.T) {
	_, err := newPlan(100)
	assert.Error(t, err)
}

func TestPlanInverse_MatchesNaiveDFT(t *testing.T) {
	const n = 16
	src := make([]complex128, n)
	for i := range src {
		src[i] = complex(float64(i%5)-2, float64((i*3)%7)-3)
	}

	p, err := newPlan(n)
	require.NoError(t, err)

	got := make([]complex128, n)
	require.NoError(t, p.inverse(got, src))

	want := naiveInverse(src)
	for i := range got {
		assert.InDelta(t, real(want[i]), real(got[i]), 1e-9, "bin %d", i)
		assert.InDelta(t, imag(want[i]), imag(got[i]), 1e-9, "bin %d", i)
	}
}

func TestPlanInverse_DCOnlyBinIsConstant(t *testing.T) {
	const n = 64
	src := make([]complex128, n)
	src[0] = complex(3, 0)

	p, err := newPlan(n)
	require.NoError(t, err)

	got := make([]complex128, n)
	require.NoError(t, p.inverse(got, src))

	for i, v := range got {
		assert.InDelta(t, 3.0, real(v), 1e-9, "sample %d", i)
		assert.InDelta(t, 0.0, imag(v), 1e-9, "sample %d", i)
	}
}

func TestPlanInverse_RejectsWrongLength(t *testing.T) {
	p, err := newPlan(8)
	require.NoError(t, err)

	err = p.inverse(make([]complex128, 4), make([]complex128, 8))
	assert.Error(t, err)
}
