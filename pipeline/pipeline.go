// Package pipeline wires the twelve DVB-T1 transmit-chain stages into a
// single byte-stream-in, IQ-samples-out component, owning the buffering
// needed where neighbouring stages disagree on unit size (whole TS packets,
// bits packed one per octet, nu-bit symbols, or whole OFDM carrier groups).
package pipeline

import (
	"fmt"
	"time"

	"hackdvbs/consts"
	"hackdvbs/convenc"
	"hackdvbs/framer"
	"hackdvbs/interleave"
	"hackdvbs/mapper"
	"hackdvbs/ofdm"
	"hackdvbs/puncture"
	"hackdvbs/resample"
	"hackdvbs/rs"
	"hackdvbs/scrambler"
	"hackdvbs/txfilter"
)

// defaultStopbandHz matches original_source's Dvbt1FilterComponent default
// "stopband" parameter value, used when shaping is enabled (ShapingAtten >
// 0) but no explicit stopband edge is configured.
const defaultStopbandHz = 4.0e6

// Config gathers every signalled transmission parameter across all twelve
// stages, the way a single XML parameter set configured the original
// per-component IRIS graph.
type Config struct {
	QAMMapping         int  // 4, 16 or 64
	HPCodeRate         int  // 12, 23, 34, 56 or 78; drives the (non-hierarchical) puncturer
	LPCodeRate         int  // carried into TPS signalling only; unused without hierarchical modulation
	OFDMMode           int  // 2048, 4096 or 8192
	DeltaMode          int  // 32, 16, 8 or 4
	CellID             int  // -1 disables the TPS cell-id field
	HierarchyMode      int  // 0, 1, 2 or 4; only 0 (non-hierarchical) is implemented
	InDepthInterleaver bool // reserved; must be false

	OutPower      float64
	DACSampleRate float64
	PowerFile     string
	PowerInterval time.Duration

	ResampleOutRate float64 // 0 disables the fractional resampler

	Stopband     float64 // Hz; shaping filter's stopband edge, relative to centre frequency
	ShapingAtten float64 // dB; 0 disables shaping (spec.md 4.12)

	ScramblerReportInterval time.Duration
	Debug                   bool
}

// Pipeline owns one instance of every transmit-chain stage plus the
// buffers needed to bridge their differing unit sizes.
type Pipeline struct {
	cfg  Config
	mode consts.OFDMMode

	scrambler *scrambler.Scrambler
	rs        *rs.Encoder
	convInt   *interleave.ConvInterleaver
	convEnc   *convenc.Encoder
	punc      *puncture.Puncturer
	bitInt    *interleave.BitInterleaver
	symInt    *interleave.SymbolInterleaver
	mapper    *mapper.Mapper
	framer    *framer.Framer
	ofdm      *ofdm.Modulator
	resampler *resample.Resampler
	shaper    *txfilter.Filter

	tsBuf     []byte // TS bytes awaiting a full consts.TSPacketSize packet
	symbolBuf []byte // nu-bit symbol octets awaiting a full nMax batch
}

// New wires every stage from cfg. Stages are constructed in transmit-chain
// order so a configuration error is reported against the earliest stage it
// affects.
func New(cfg Config) (*Pipeline, error) {
	mode, ok := consts.OFDMModes[cfg.OFDMMode]
	if !ok {
		return nil, fmt.Errorf("pipeline: unsupported OFDM mode %d", cfg.OFDMMode)
	}
	switch cfg.HierarchyMode {
	case 0:
	case 1, 2, 4:
		return nil, fmt.Errorf("pipeline: hierarchymode %d is reserved and not implemented", cfg.HierarchyMode)
	default:
		return nil, fmt.Errorf("pipeline: invalid hierarchymode %d", cfg.HierarchyMode)
	}
	if cfg.InDepthInterleaver {
		return nil, fmt.Errorf("pipeline: indepthinterleaver is reserved and must be false")
	}

	punc, err := puncture.New(cfg.HPCodeRate)
	if err != nil {
		return nil, fmt.Errorf("pipeline: %w", err)
	}

	mp, err := mapper.New(cfg.QAMMapping, 1)
	if err != nil {
		return nil, fmt.Errorf("pipeline: %w", err)
	}

	fr, err := framer.New(framer.Config{
		QAMMapping: cfg.QAMMapping,
		HPCodeRate: cfg.HPCodeRate,
		LPCodeRate: cfg.LPCodeRate,
		OFDMMode:   cfg.OFDMMode,
		DeltaMode:  cfg.DeltaMode,
		CellID:     cfg.CellID,
		Debug:      cfg.Debug,
	})
	if err != nil {
		return nil, fmt.Errorf("pipeline: %w", err)
	}

	om, err := ofdm.New(ofdm.Config{
		OFDMMode:      cfg.OFDMMode,
		DeltaMode:     cfg.DeltaMode,
		OutPower:      cfg.OutPower,
		DACSampleRate: cfg.DACSampleRate,
		PowerFile:     cfg.PowerFile,
		PowerInterval: cfg.PowerInterval,
		Debug:         cfg.Debug,
	})
	if err != nil {
		return nil, fmt.Errorf("pipeline: %w", err)
	}

	p := &Pipeline{
		cfg:       cfg,
		mode:      mode,
		scrambler: scrambler.New(cfg.ScramblerReportInterval, cfg.Debug),
		rs:        rs.New(),
		convInt:   interleave.NewConvInterleaver(),
		convEnc:   convenc.New(),
		punc:      punc,
		bitInt:    interleave.NewBitInterleaver(mp.Nu()),
		symInt:    interleave.NewSymbolInterleaver(mode.DataCells, mode.CarrierBit),
		mapper:    mp,
		framer:    fr,
		ofdm:      om,
	}

	if cfg.ResampleOutRate > 0 {
		r, err := resample.New(consts.DefaultDACSampleRate, cfg.ResampleOutRate)
		if err != nil {
			return nil, fmt.Errorf("pipeline: %w", err)
		}
		p.resampler = r
	}
	if cfg.ShapingAtten > 0 {
		stopband := cfg.Stopband
		if stopband <= 0 {
			stopband = defaultStopbandHz
		}
		sampleRate := cfg.ResampleOutRate
		if sampleRate <= 0 {
			sampleRate = cfg.DACSampleRate
		}
		if sampleRate <= 0 {
			sampleRate = consts.DefaultDACSampleRate
		}
		f, err := txfilter.Design(stopband, cfg.ShapingAtten, sampleRate, consts.DefaultDACSampleRate, mode.ActiveK, mode.FFTSize)
		if err != nil {
			return nil, fmt.Errorf("pipeline: %w", err)
		}
		p.shaper = f
	}

	return p, nil
}

// Reset restores every stage to its power-up state, matching a geometry
// change (OFDM mode, delta mode, or code rate) the way the original
// components' parameterHasChanged triggered a destroy+setup cycle.
func (p *Pipeline) Reset() {
	p.scrambler.Reset()
	p.rs.Reset()
	p.convInt.Reset()
	p.convEnc.Reset()
	p.punc.Reset()
	p.bitInt.Reset()
	p.symInt.Reset()
	p.mapper.Reset()
	p.framer.Reset()
	p.ofdm.Reset()
	if p.resampler != nil {
		p.resampler.Reset()
	}
	if p.shaper != nil {
		p.shaper.Reset()
	}
	p.symbolBuf = p.symbolBuf[:0]
	p.tsBuf = p.tsBuf[:0]
}

// Close releases any background resources the stages own (currently just
// the OFDM power-loading reload goroutine).
func (p *Pipeline) Close() {
	p.ofdm.Close()
}

// Process pushes a chunk of MPEG-TS bytes through the full transmit chain
// and returns the resulting IQ samples (after optional resampling and
// shaping). The chunk need not align to any stage's natural unit size;
// partial units are buffered internally.
func (p *Pipeline) Process(tsBytes []byte) ([]complex128, error) {
	p.tsBuf = append(p.tsBuf, tsBytes...)
	nPackets := len(p.tsBuf) / consts.TSPacketSize
	aligned := p.tsBuf[:nPackets*consts.TSPacketSize]

	scrambled, err := p.scrambler.Process(aligned)
	if err != nil {
		return nil, fmt.Errorf("pipeline: scrambler: %w", err)
	}
	rsEncoded, err := p.rs.Process(scrambled)
	if err != nil {
		return nil, fmt.Errorf("pipeline: rs: %w", err)
	}
	interleaved := p.convInt.Process(rsEncoded)
	coded := p.convEnc.Process(interleaved)
	punctured := p.punc.Process(coded)
	symbols := p.bitInt.Process(punctured)

	p.symbolBuf = append(p.symbolBuf, symbols...)

	var out []complex128
	nMax := p.mode.DataCells
	for len(p.symbolBuf) >= nMax {
		batch := p.symbolBuf[:nMax]

		permuted := p.symInt.Process(batch)
		dataCells := p.mapper.Map(permuted)

		activeCells, err := p.framer.Process(dataCells)
		if err != nil {
			return nil, fmt.Errorf("pipeline: framer: %w", err)
		}
		samples, err := p.ofdm.Process(activeCells)
		if err != nil {
			return nil, fmt.Errorf("pipeline: ofdm: %w", err)
		}
		if p.resampler != nil {
			samples = p.resampler.Process(samples)
		}
		if p.shaper != nil {
			samples = p.shaper.Process(samples)
		}
		out = append(out, samples...)

		copy(p.symbolBuf, p.symbolBuf[nMax:])
		p.symbolBuf = p.symbolBuf[:len(p.symbolBuf)-nMax]
	}

	consumed := nPackets * consts.TSPacketSize
	copy(p.tsBuf, p.tsBuf[consumed:])
	p.tsBuf = p.tsBuf[:len(p.tsBuf)-consumed]
	return out, nil
}
