// Package rs implements stage 2 of the DVB-T1 transmit chain: the shortened
// systematic Reed-Solomon (204,188) encoder over GF(256).
package rs

import (
	"fmt"

	"hackdvbs/consts"
)

// Encoder holds the precomputed generator feedback coefficients and the
// partial-packet carry used to resume across calls that don't land on a
// packet boundary.
type Encoder struct {
	generator [16]byte // feedback coefficients for the 16-byte parity register

	pending []byte // bytes of an in-flight TS packet, < TSPacketSize long
}

// New builds an Encoder from the module-scope generator polynomial.
func New() *Encoder {
	return &Encoder{generator: consts.RSGeneratorFeedback()}
}

// Reset discards any partial packet held across calls.
func (e *Encoder) Reset() {
	e.pending = e.pending[:0]
}

// Process consumes TS-sized message bytes and emits RS codewords. Input may
// span partial packets across calls; a trailing partial packet is retained
// until completed by a later call, matching consts.RSPacketSize*floor((in+offset)/TSPacketSize).
func (e *Encoder) Process(in []byte) ([]byte, error) {
	buf := append(e.pending, in...)
	nPackets := len(buf) / consts.TSPacketSize
	out := make([]byte, 0, nPackets*consts.RSPacketSize)
	for p := 0; p < nPackets; p++ {
		msg := buf[p*consts.TSPacketSize : (p+1)*consts.TSPacketSize]
		cw, err := e.Encode(msg)
		if err != nil {
			return nil, err
		}
		out = append(out, cw...)
	}
	e.pending = append(e.pending[:0], buf[nPackets*consts.TSPacketSize:]...)
	return out, nil
}

// Encode computes the 204-byte systematic codeword for one 188-byte TS
// packet: the parity is the remainder of message(x)*x^16 mod g(x), found by
// a 16-byte feedback shift register seeded from the generator coefficients.
func (e *Encoder) Encode(message []byte) ([]byte, error) {
	if len(message) != consts.TSPacketSize {
		return nil, fmt.Errorf("rs: message must be %d bytes, got %d", consts.TSPacketSize, len(message))
	}
	out := make([]byte, consts.RSPacketSize)
	copy(out, message)

	var parity [consts.RSParitySize]byte
	for _, mb := range message {
		feedback := mb ^ parity[0]
		copy(parity[:], parity[1:])
		parity[consts.RSParitySize-1] = 0
		if feedback != 0 {
			for j := 0; j < consts.RSParitySize; j++ {
				parity[j] ^= consts.GFMul(e.generator[j], feedback)
			}
		}
	}
	copy(out[consts.TSPacketSize:], parity[:])
	return out, nil
}
