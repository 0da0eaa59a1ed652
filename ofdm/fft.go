package ofdm

import (
	"fmt"
	"math"
	"math/bits"
)

// plan is a self-contained radix-2 decimation-in-time FFT, used instead of
// a third-party transform: spec.md 9 sanctions "any standard out-of-place
// size-N inverse FFT... the system does not rely on a specific library",
// and every OFDM mode's FFT size (2048/4096/8192) is a power of two, so a
// plain iterative Cooley-Tukey butterfly needs no mixed-radix fallback.
// The pack's own FFT-adjacent code (algo-dsp/pw_convoverb) only evidences
// a real-to-complex transform (NewPlanReal32/PlanRealT); the OFDM spectrum
// here is not Hermitian-symmetric (independent data on positive and
// negative carriers), so that real-valued pair can't serve this stage
// regardless, and no complex-to-complex constructor is actually retrieved
// anywhere in the pack to depend on instead.
type plan struct {
	n       int
	bitrev  []int
	twiddle []complex128 // twiddle[k] = exp(-2*pi*i*k/n), k=0..n/2-1
}

func newPlan(n int) (*plan, error) {
	if n <= 0 || n&(n-1) != 0 {
		return nil, fmt.Errorf("ofdm: fft size %d is not a power of two", n)
	}
	logN := bits.TrailingZeros(uint(n))

	bitrev := make([]int, n)
	for i := 0; i < n; i++ {
		bitrev[i] = int(bits.Reverse(uint(i)) >> (bits.UintSize - logN))
	}

	twiddle := make([]complex128, n/2)
	for k := 0; k < n/2; k++ {
		theta := -2 * math.Pi * float64(k) / float64(n)
		twiddle[k] = complex(math.Cos(theta), math.Sin(theta))
	}

	return &plan{n: n, bitrev: bitrev, twiddle: twiddle}, nil
}

// inverse performs the unnormalised inverse FFT (frequency to time domain)
// used to synthesise one OFDM symbol from its active-carrier spectrum. Not
// normalised by n: the modulator applies its own output-power scale factor
// across the whole block, so an extra 1/n here would just be folded into
// that scale.
func (pl *plan) inverse(dst, src []complex128) error {
	n := pl.n
	if len(src) != n || len(dst) != n {
		return fmt.Errorf("ofdm: fft expected length %d, got src=%d dst=%d", n, len(src), len(dst))
	}

	for i, rev := range pl.bitrev {
		dst[i] = src[rev]
	}

	for size := 2; size <= n; size <<= 1 {
		half := size / 2
		stride := n / size
		for start := 0; start < n; start += size {
			for j := 0; j < half; j++ {
				w := pl.twiddle[j*stride]
				// Forward-transform twiddles rotate by -2*pi*k/n; the
				// inverse transform conjugates them to rotate by +2*pi*k/n.
				w = complex(real(w), -imag(w))
				even := dst[start+j]
				odd := dst[start+j+half] * w
				dst[start+j] = even + odd
				dst[start+j+half] = even - odd
			}
		}
	}
	return nil
}
