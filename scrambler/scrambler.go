// Package scrambler implements stage 1 of the DVB-T1 transmit chain: TS
// energy dispersal via the 1+x^14+x^15 PRBS, re-seeded every 8 TS packets.
package scrambler

import (
	"fmt"
	"log"
	"time"

	"hackdvbs/consts"
)

// Scrambler holds the resumable per-call state: the byte offset within the
// current 8-packet group and an optional periodic bitrate report.
type Scrambler struct {
	Debug          bool
	ReportInterval time.Duration

	groupOffset int // 0..consts.ScramblerGroupLen-1, position within the current 8-packet group
	doneBytes   int64
	lastReport  time.Time
}

// New creates a Scrambler. reportInterval of 0 disables the periodic
// bitrate log.
func New(reportInterval time.Duration, debug bool) *Scrambler {
	s := &Scrambler{Debug: debug, ReportInterval: reportInterval}
	s.Reset()
	return s
}

// Reset re-aligns the scrambler to the start of a group, exactly as if a
// sync byte had just been observed at input offset 0.
func (s *Scrambler) Reset() {
	s.groupOffset = 0
	s.lastReport = time.Now()
	s.doneBytes = 0
}

// Process scrambles a stream of TS packets (each consts.TSPacketSize bytes,
// starting with 0x47). It returns one output octet per input octet. Any
// packet whose first byte is not the sync byte is logged and the group
// alignment is not disturbed: the stage resynchronises on the next observed
// sync byte at the start of the next consts.TSPacketSize-sized chunk.
func (s *Scrambler) Process(in []byte) ([]byte, error) {
	if len(in)%consts.TSPacketSize != 0 {
		return nil, fmt.Errorf("scrambler: input length %d is not a multiple of %d", len(in), consts.TSPacketSize)
	}
	out := make([]byte, len(in))
	for p := 0; p < len(in); p += consts.TSPacketSize {
		packet := in[p : p+consts.TSPacketSize]
		if packet[0] != consts.TSSyncByte {
			log.Printf("scrambler: lost TS sync at packet offset %d, resynchronising", p)
		}
		s.processPacket(packet, out[p:p+consts.TSPacketSize])
	}
	s.doneBytes += int64(len(in))
	s.maybeReport()
	return out, nil
}

func (s *Scrambler) processPacket(in, out []byte) {
	packetIndex := s.groupOffset / consts.TSPacketSize

	if packetIndex == 0 {
		out[0] = consts.InvertedSync
	} else {
		out[0] = consts.TSSyncByte
	}

	for i := 1; i < consts.TSPacketSize; i++ {
		// Absolute position within the group is groupOffset+i; the PRBS
		// table holds the mask for positions 1..ScramblerCycleLen (the
		// register is reset, not clocked, at position 0).
		maskIdx := s.groupOffset + i - 1
		out[i] = in[i] ^ consts.ScramblerPRBS[maskIdx]
	}

	s.groupOffset += consts.TSPacketSize
	if s.groupOffset >= consts.ScramblerGroupLen {
		s.groupOffset = 0
	}
}

func (s *Scrambler) maybeReport() {
	if s.ReportInterval <= 0 {
		return
	}
	elapsed := time.Since(s.lastReport)
	if elapsed < s.ReportInterval {
		return
	}
	mbps := 8.0 * float64(s.doneBytes) / elapsed.Seconds() / 1e6
	if s.Debug {
		log.Printf("scrambler: current TS bitrate %.3f Mbps", mbps)
	}
	s.lastReport = time.Now()
	s.doneBytes = 0
}
