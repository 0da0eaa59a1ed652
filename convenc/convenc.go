// Package convenc implements stage 4 of the DVB-T1 transmit chain: the
// rate-1/2, constraint-length-7 inner convolutional encoder (G1=171_8,
// G2=133_8).
package convenc

import (
	"hackdvbs/consts"
	"hackdvbs/utils"
)

// parityTable[x] is the parity of popcount(x), precomputed once so encoding
// a byte never has to count bits on the hot path.
var parityTable [256]byte

func init() {
	for x := 0; x < 256; x++ {
		parityTable[x] = utils.Parity(uint16(x))
	}
}

// Encoder holds the shift register that survives across calls: the current
// input bit plus the six previous ones.
type Encoder struct {
	register byte // low ConvEncoderConstraintLen bits significant
}

// New creates an Encoder with a zeroed register.
func New() *Encoder { return &Encoder{} }

// Reset clears the shift register.
func (e *Encoder) Reset() { e.register = 0 }

// Process encodes a byte stream MSB-first, emitting 16 output bits (two
// interleaved polynomial outputs per input bit) per input byte.
func (e *Encoder) Process(in []byte) []byte {
	out := make([]byte, len(in)*16)
	o := 0
	const mask = (1 << consts.ConvEncoderConstraintLen) - 1
	for _, b := range in {
		for bit := 7; bit >= 0; bit-- {
			inBit := (b >> uint(bit)) & 1
			e.register = ((e.register << 1) | inBit) & mask
			out[o] = parityTable[e.register&consts.ConvEncoderG1]
			out[o+1] = parityTable[e.register&consts.ConvEncoderG2]
			o += 2
		}
	}
	return out
}
