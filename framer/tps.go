package framer

// tpsBCHGenerator is the generator polynomial for the (67,53) shortened BCH
// code protecting the TPS payload, expressed MSB-first with the implicit
// leading 1 (degree 14): g(x) = x^14+x^9+x^8+x^6+x^5+x^4+x^2+x+1 (ETSI EN
// 300 744 Annex A).
var tpsBCHGenerator = []byte{1, 0, 0, 0, 0, 1, 1, 0, 1, 1, 1, 0, 1, 1, 1}

const tpsParityBits = 14
const tpsPayloadBits = 53
const tpsFrameBits = 68 // s0 + 53 payload + 14 parity

// bchParity computes the 14-bit remainder of payload(x)*x^14 mod g(x) over
// GF(2), the systematic BCH parity for the 53-bit TPS payload.
func bchParity(payload []byte) []byte {
	reg := make([]byte, tpsPayloadBits+tpsParityBits)
	copy(reg, payload)
	for i := 0; i < tpsPayloadBits; i++ {
		if reg[i] == 0 {
			continue
		}
		for j, g := range tpsBCHGenerator {
			reg[i+j] ^= g
		}
	}
	return reg[tpsPayloadBits:]
}

// codeRateTPS maps a coderate option (12,23,34,56,78) to its 3-bit TPS code.
func codeRateTPS(rate int) []byte {
	switch rate {
	case 12:
		return []byte{0, 0, 0}
	case 23:
		return []byte{0, 0, 1}
	case 34:
		return []byte{0, 1, 0}
	case 56:
		return []byte{0, 1, 1}
	case 78:
		return []byte{1, 0, 0}
	}
	return []byte{0, 0, 0}
}

func constellationTPS(qamMapping int) []byte {
	switch qamMapping {
	case 4:
		return []byte{0, 0}
	case 16:
		return []byte{0, 1}
	case 64:
		return []byte{1, 0}
	}
	return []byte{0, 0}
}

func guardIntervalTPS(delta int) []byte {
	switch delta {
	case 32:
		return []byte{0, 0}
	case 16:
		return []byte{0, 1}
	case 8:
		return []byte{1, 0}
	case 4:
		return []byte{1, 1}
	}
	return []byte{0, 0}
}

func transmissionModeTPS(ofdmMode int) []byte {
	switch ofdmMode {
	case 2048:
		return []byte{0, 0}
	case 8192:
		return []byte{0, 1}
	case 4096:
		return []byte{1, 0}
	}
	return []byte{0, 0}
}

func bitsOf(v uint, n int) []byte {
	out := make([]byte, n)
	for i := 0; i < n; i++ {
		out[i] = byte((v >> uint(n-1-i)) & 1)
	}
	return out
}

// buildTPSFrame assembles the 68-bit TPS stream for one DVB-T frame
// (s0..s67): a fixed initial bit, the 53-bit payload (sync word, length
// indicator, frame number and the signalled transmission parameters,
// cell-id when enabled, zero-padded reserved bits) and its 14-bit BCH
// parity.
func (f *Framer) buildTPSFrame(frameNumber int) []byte {
	sync := uint(0x35EE)
	if frameNumber%2 != 0 {
		sync = 0xCA11
	}
	payload := make([]byte, 0, tpsPayloadBits)
	payload = append(payload, bitsOf(sync, 16)...)
	payload = append(payload, bitsOf(0x17, 6)...) // length indicator
	payload = append(payload, bitsOf(uint(frameNumber), 2)...)
	payload = append(payload, constellationTPS(f.cfg.QAMMapping)...)
	payload = append(payload, bitsOf(0, 3)...) // hierarchy code: non-hierarchical
	payload = append(payload, codeRateTPS(f.cfg.HPCodeRate)...)
	payload = append(payload, codeRateTPS(f.cfg.LPCodeRate)...)
	payload = append(payload, guardIntervalTPS(f.cfg.DeltaMode)...)
	payload = append(payload, transmissionModeTPS(f.cfg.OFDMMode)...)

	if f.cfg.CellID >= 0 {
		payload = append(payload, 1)
		payload = append(payload, bitsOf(uint(f.cfg.CellID)&0x1FFF, 13)...)
	} else {
		payload = append(payload, 0)
		payload = append(payload, bitsOf(0, 13)...)
	}

	if len(payload) != tpsPayloadBits {
		// Defensive only: field widths above are constructed to sum to 53;
		// a mismatch here would be a programming error, not bad input.
		panic("framer: TPS payload width mismatch")
	}

	frame := make([]byte, 0, tpsFrameBits)
	frame = append(frame, 0) // s0, fixed initial bit
	frame = append(frame, payload...)
	frame = append(frame, bchParity(payload)...)
	return frame
}

// differentialEncode XORs each bit with the previous transmitted bit,
// carrying `prev` in from the last frame so the stream is continuous across
// frame boundaries.
func differentialEncode(bits []byte, prev byte) ([]byte, byte) {
	out := make([]byte, len(bits))
	last := prev
	for i, b := range bits {
		v := b ^ last
		out[i] = v
		last = v
	}
	return out, last
}
