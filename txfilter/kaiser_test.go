package txfilter

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew_RejectsEvenTapCount(t *testing.T) {
	_, err := New(0.2, 10, 40)
	assert.Error(t, err)
}

func TestNew_RejectsCutoffOutOfRange(t *testing.T) {
	_, err := New(0.6, 11, 40)
	assert.Error(t, err)
}

func TestNew_TapsAreSymmetric(t *testing.T) {
	f, err := New(0.2, 21, 50)
	require.NoError(t, err)
	n := len(f.taps)
	for i := 0; i < n/2; i++ {
		assert.InDelta(t, f.taps[i], f.taps[n-1-i], 1e-12, "linear-phase FIR must have symmetric taps")
	}
}

func TestNew_TapsSumToUnity(t *testing.T) {
	f, err := New(0.15, 31, 60)
	require.NoError(t, err)
	var sum float64
	for _, tap := range f.taps {
		sum += tap
	}
	assert.InDelta(t, 1.0, sum, 1e-9, "DC gain must be normalised to 1")
}

func TestProcess_PreservesBlockLength(t *testing.T) {
	f, err := New(0.2, 15, 40)
	require.NoError(t, err)
	in := make([]complex128, 100)
	for i := range in {
		in[i] = complex(1, 0)
	}
	out := f.Process(in)
	assert.Len(t, out, len(in))
}

func TestProcess_DCInputConvergesToDCGain(t *testing.T) {
	f, err := New(0.2, 21, 50)
	require.NoError(t, err)
	in := make([]complex128, 200)
	for i := range in {
		in[i] = complex(1, 0)
	}
	out := f.Process(in)
	// After the filter's group delay, a constant input should settle near
	// unity gain given the tap normalisation.
	assert.InDelta(t, 1.0, real(out[len(out)-1]), 1e-6)
}

func TestReset_ClearsHistory(t *testing.T) {
	f, err := New(0.2, 15, 40)
	require.NoError(t, err)
	f.Process([]complex128{1, 1, 1})
	f.Reset()
	for _, s := range f.state {
		assert.Zero(t, s)
	}
}
