// Package resample implements stage 11 of the DVB-T1 transmit chain: a
// fractional-rate interpolator that retimes the OFDM modulator's output to
// an arbitrary DAC sample rate using a Stern-Brocot rational approximation
// of the rate ratio and a Blackman-windowed-sinc polyphase filter.
package resample

import (
	"fmt"
	"math"
)

const filterOrder = 4 // number of FIR taps minus one, matches the OFDM precorrection's reference order

// Resampler holds the rational rate approximation, the precomputed
// polyphase filter taps, and the sliding input register that carries
// history across Process calls.
type Resampler struct {
	inRate, outRate float64

	outSize, inSize int // Stern-Brocot approximation of outRate/inRate, capped denominator

	basepoint []int     // per output sample, index of the input sample it centres on
	taps      []float64 // taps[k*outSize+j], k=0..filterOrder

	reg    []complex128 // length inSize+filterOrder+1; [0:filterOrder+1] is history from the previous block
	offset int
}

// New builds a Resampler converting from inRate to outRate, both in Hz. A
// maximum denominator of 2000 bounds how exact the rational approximation
// can be, the same bound the original interpolator used.
func New(inRate, outRate float64) (*Resampler, error) {
	if inRate <= 0 || outRate <= 0 {
		return nil, fmt.Errorf("resample: rates must be positive, got in=%g out=%g", inRate, outRate)
	}

	r := &Resampler{inRate: inRate, outRate: outRate}
	r.outSize, r.inSize = sternBrocot(outRate/inRate, 2000)
	if r.outSize == 0 || r.inSize == 0 {
		return nil, fmt.Errorf("resample: could not approximate rate ratio %g", outRate/inRate)
	}

	r.reg = make([]complex128, r.inSize+filterOrder+1)
	r.basepoint = make([]int, r.outSize)
	for j := range r.basepoint {
		r.basepoint[j] = int(math.Floor(inRate * (float64(j) / outRate)))
	}

	dtBase := (1.0 / inRate) / 100.0
	hBase := blackmanSinc(1.0/inRate, dtBase, filterOrder)

	r.taps = make([]float64, r.outSize*(filterOrder+1))
	for k := 0; k <= filterOrder; k++ {
		for j := 0; j < r.outSize; j++ {
			t := float64(j)/outRate - float64(r.basepoint[j]-k)/inRate
			r.taps[k*r.outSize+j] = interpResponse(hBase, dtBase, t)
		}
	}
	return r, nil
}

// Reset clears the history register and restarts the block alignment.
func (r *Resampler) Reset() {
	for i := range r.reg {
		r.reg[i] = 0
	}
	r.offset = 0
}

// Process retimes a stream of complex samples, returning as many output
// samples as complete input blocks allow; leftover input is buffered for
// the next call.
func (r *Resampler) Process(in []complex128) []complex128 {
	out := make([]complex128, 0, len(in)*r.outSize/max(1, r.inSize))
	effBase := filterOrder + 1
	for _, s := range in {
		r.reg[effBase+r.offset] = s
		r.offset++
		if r.offset != r.inSize {
			continue
		}
		r.offset = 0
		for j := 0; j < r.outSize; j++ {
			currbp := r.basepoint[j]
			var acc complex128
			for k := 0; k <= filterOrder; k++ {
				acc += r.reg[effBase+currbp-k] * complex(r.taps[k*r.outSize+j], 0)
			}
			out = append(out, acc)
		}
		copy(r.reg[:filterOrder+1], r.reg[len(r.reg)-(filterOrder+1):])
	}
	return out
}

func max(a, b int) int {
	if a > b {
		return a
	}
	return b
}

func sinc(x float64) float64 {
	if x == 0 {
		return 1
	}
	return math.Sin(x) / x
}

func blackmanSinc(t, dt float64, order int) []float64 {
	n0 := int(math.Floor(t / dt))
	n := (order + 1) * n0
	const a0, a1, a2 = 7938.0 / 18608.0, 9240.0 / 18608.0, 1430.0 / 18608.0
	h := make([]float64, n)
	for i := 0; i < n; i++ {
		w := a0 - a1*math.Cos(2*math.Pi*float64(i)/float64(n-1)) + a2*math.Cos(4*math.Pi*float64(i)/float64(n-1))
		h[i] = w * sinc(math.Pi*(float64(i)-float64(n)/2)*dt/t)
	}
	return h
}

// interpResponse linearly interpolates the tabulated base response h
// (sampled at interval dt) at time t, returning 0 outside its support.
func interpResponse(h []float64, dt, t float64) float64 {
	if t < 0 || t >= float64(len(h))*dt {
		return 0
	}
	n0 := int(math.Floor(t / dt))
	h0 := h[n0]
	h1 := 0.0
	if n0 != len(h)-1 {
		h1 = h[n0+1]
	}
	return h0 + ((h1-h0)/dt)*(t-float64(n0)*dt)
}

// sternBrocot finds integers num,den <= N approximating x = num/den by
// walking the Stern-Brocot tree, the same bounded mediant search the
// original interpolator used.
func sternBrocot(x float64, n int) (num, den int) {
	a, b := 0, 1
	c, d := 1, 0
	for b <= n && d <= n {
		mediant := float64(a+c) / float64(b+d)
		if x == mediant {
			if b+d <= n {
				return a + c, b + d
			} else if d > b {
				return c, d
			}
			return a, b
		} else if x > mediant {
			a += c
			b += d
		} else {
			c += a
			d += b
		}
	}
	if b > n {
		return c, d
	}
	return a, b
}
