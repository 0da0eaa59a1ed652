// Package framer implements stage 9 of the DVB-T1 transmit chain: it
// consumes the QAM data-cell stream and assembles each OFDM symbol's K
// frequency-domain cells, inserting continual pilots, scattered pilots and
// the differentially-encoded TPS carriers around the data.
package framer

import (
	"fmt"

	"hackdvbs/consts"
)

// Config holds the signalled transmission parameters the framer must both
// place pilots/TPS for and encode into the TPS stream itself.
type Config struct {
	QAMMapping int // 4, 16 or 64
	HPCodeRate int // 12, 23, 34, 56 or 78
	LPCodeRate int // only meaningful in hierarchical mode; carried for TPS completeness
	OFDMMode   int // 2048, 4096 or 8192
	DeltaMode  int // guard interval ratio denominator: 32, 16, 8 or 4
	CellID     int // -1 disables the cell-id TPS field
	Debug      bool
}

// Framer holds the per-mode carrier tables and the running state (block
// index within the frame, frame number within the superframe, TPS bit
// stream and differential-encoding carry) needed to place cells correctly
// across calls.
type Framer struct {
	cfg  Config
	mode consts.OFDMMode

	contPilot map[int]bool
	tpsPos    map[int]bool
	pilotPRBS []byte // w_k, length K, frozen for the life of the Framer

	blockIndex  int // 0..67 within the current frame
	frameNumber int // 0..3 within the current superframe
	tpsBits     []byte
	tpsPrevBit  byte
}

// New creates a Framer for the given mode and signalled parameters.
func New(cfg Config) (*Framer, error) {
	mode, ok := consts.OFDMModes[cfg.OFDMMode]
	if !ok {
		return nil, fmt.Errorf("framer: unsupported OFDM mode %d", cfg.OFDMMode)
	}

	f := &Framer{cfg: cfg, mode: mode}
	f.contPilot = toSet(consts.ContinualPilots(cfg.OFDMMode))
	f.tpsPos = toSet(consts.TPSPositions(cfg.OFDMMode))
	f.pilotPRBS = buildPilotPRBS(mode.ActiveK)
	f.Reset()
	return f, nil
}

func toSet(positions []int) map[int]bool {
	set := make(map[int]bool, len(positions))
	for _, p := range positions {
		set[p] = true
	}
	return set
}

// buildPilotPRBS generates w_k for k=0..K-1 from the 1+x^2+x^11 generator
// polynomial, seeded all-ones, as spec.md 4.9 describes. It is computed once
// and reused for every symbol: only cell *role* (continual/scattered/TPS/
// data) changes symbol to symbol, not the pilot value at a given carrier.
// The raw register's first output bit is always 1 from the all-ones seed;
// the sequence is complemented so that w_0=0 (carrier 0, a continual pilot,
// carries +4/3 as spec.md 8's worked example requires), which is still a
// valid maximal-length sequence since the complement of one is another.
func buildPilotPRBS(k int) []byte {
	const regBits = 11
	reg := (1 << regBits) - 1
	w := make([]byte, k)
	for i := 0; i < k; i++ {
		w[i] = byte(reg&1) ^ 1
		fb := ((reg >> 0) ^ (reg >> 2)) & 1
		reg = ((reg >> 1) | (fb << uint(regBits-1))) & ((1 << uint(regBits)) - 1)
	}
	return w
}

// pilotValue returns the boosted-power BPSK pilot constellation point at
// carrier k, 4/3 the amplitude of a normalised QAM data cell.
func (f *Framer) pilotValue(k int) complex128 {
	const boost = 4.0 / 3.0
	if f.pilotPRBS[k] == 0 {
		return complex(boost, 0)
	}
	return complex(-boost, 0)
}

// isScatteredPilot implements the k mod 12 == 3*(blockIndex mod 4) rule.
func isScatteredPilot(k, blockIndex int) bool {
	return k%12 == 3*(blockIndex%4)
}

// Reset returns the framer to the start of a superframe: block index 0,
// frame number 0, and a fresh differential-encoding carry.
func (f *Framer) Reset() {
	f.blockIndex = 0
	f.frameNumber = 0
	f.tpsPrevBit = 0
	f.tpsBits = nil
}

// Process consumes exactly N_max data cells (one mapper symbol's worth) and
// returns the K cells of one OFDM symbol, with pilots and TPS carriers
// inserted around them. It advances the block/frame/superframe state for
// the next call.
func (f *Framer) Process(data []complex128) ([]complex128, error) {
	if len(data) != f.mode.DataCells {
		return nil, fmt.Errorf("framer: expected %d data cells, got %d", f.mode.DataCells, len(data))
	}

	if f.blockIndex == 0 {
		raw := f.buildTPSFrame(f.frameNumber)
		encoded, last := differentialEncode(raw, f.tpsPrevBit)
		f.tpsBits = encoded
		f.tpsPrevBit = last
	}

	out := make([]complex128, f.mode.ActiveK)
	di := 0
	for k := 0; k < f.mode.ActiveK; k++ {
		switch {
		case f.tpsPos[k]:
			out[k] = f.tpsCellValue()
		case f.contPilot[k] || isScatteredPilot(k, f.blockIndex):
			out[k] = f.pilotValue(k)
		default:
			if di >= len(data) {
				return nil, fmt.Errorf("framer: data cells exhausted before carrier grid filled")
			}
			out[k] = data[di]
			di++
		}
	}
	if di != len(data) {
		return nil, fmt.Errorf("framer: %d data cells unused after filling carrier grid", len(data)-di)
	}

	f.blockIndex++
	if f.blockIndex >= consts.OFDMSymbolsPerFrame {
		f.blockIndex = 0
		f.frameNumber = (f.frameNumber + 1) % consts.OFDMFramesPerSuper
	}
	return out, nil
}

// tpsCellValue returns the unit-power BPSK point for the current block's
// TPS bit, shared by every TPS carrier in the symbol.
func (f *Framer) tpsCellValue() complex128 {
	if f.tpsBits[f.blockIndex] == 0 {
		return complex(1, 0)
	}
	return complex(-1, 0)
}
