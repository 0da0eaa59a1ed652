// Package interleave implements the three interleaving stages of the DVB-T1
// transmit chain: the outer Forney convolutional interleaver (stage 3), the
// inner bit interleaver (stage 6) and the symbol interleaver (stage 7).
package interleave

import "hackdvbs/consts"

// ConvInterleaver is the Forney (I=12, M=17) convolutional byte interleaver.
// Branch j holds a ring buffer of length j*M; branch 0 is a direct
// pass-through. Input and output counts are equal per call; the delay is
// absorbed into the branches' initial (zero) fill.
type ConvInterleaver struct {
	rings   [consts.ConvInterleaveBranches][]byte // rings[j] has length j*consts.ConvInterleaveUnit
	writeAt [consts.ConvInterleaveBranches]int
	n       int // global input-index counter
}

// NewConvInterleaver allocates the 12 delay branches, zero-filled. Per the
// open question in spec.md 9, a future revision could pre-seed these with a
// documented PRBS instead of zeros; this implementation uses the spec's
// default (zero fill, with the resulting start-up transient in the first
// consts.ConvInterleaveDelay output bytes).
func NewConvInterleaver() *ConvInterleaver {
	ci := &ConvInterleaver{}
	for j := 1; j < consts.ConvInterleaveBranches; j++ {
		ci.rings[j] = make([]byte, j*consts.ConvInterleaveUnit)
	}
	return ci
}

// Reset clears all branch contents and counters, re-introducing the
// start-up transient.
func (ci *ConvInterleaver) Reset() {
	for j := 1; j < consts.ConvInterleaveBranches; j++ {
		clear(ci.rings[j])
		ci.writeAt[j] = 0
	}
	ci.n = 0
}

// Process runs one byte at a time through the round-robin branch selected
// by j = n mod 12, returning one output byte per input byte.
func (ci *ConvInterleaver) Process(in []byte) []byte {
	out := make([]byte, len(in))
	for i, b := range in {
		j := ci.n % consts.ConvInterleaveBranches
		if j == 0 {
			out[i] = b
		} else {
			ring := ci.rings[j]
			idx := ci.writeAt[j]
			out[i] = ring[idx]
			ring[idx] = b
			ci.writeAt[j] = (idx + 1) % len(ring)
		}
		ci.n++
	}
	return out
}
