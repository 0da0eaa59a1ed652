// Package consts holds the immutable, module-scope tables shared by the
// DVB-T1 transmit chain: TS/RS packet geometry, GF(256) arithmetic and the
// RS generator, the scrambler PRBS, OFDM-mode and puncturer-rate tables,
// and pilot/TPS carrier tables.
package consts

const (
	TSPacketSize    = 188
	RSPacketSize    = 204
	RSParitySize    = RSPacketSize - TSPacketSize
	TSSyncByte      = 0x47
	InvertedSync    = 0xB8
	TSSyncGroupSize = 8 // TS packets per scrambler PRBS cycle

	// Forney convolutional interleaver: I branches, unit depth M.
	ConvInterleaveBranches = 12
	ConvInterleaveUnit     = RSPacketSize / ConvInterleaveBranches // M = 17
	ConvInterleaveDelay    = ConvInterleaveBranches * (ConvInterleaveBranches - 1) * ConvInterleaveUnit / 2

	// Inner convolutional encoder: rate 1/2, constraint length 7.
	ConvEncoderConstraintLen = 7
	ConvEncoderG1            = 0171 // octal 171 = 1111001
	ConvEncoderG2            = 0133 // octal 133 = 1011011
)

// OFDMMode describes the per-mode geometry (2K/4K/8K), indexed by FFT size.
type OFDMMode struct {
	FFTSize    int // N_FFT
	ActiveK    int // K, active carriers
	DataCells  int // N_max, data cells per symbol
	TPSCarrier int // TPS cell count
	CarrierBit int // N_bit, FFT address width for the symbol interleaver
}

var OFDMModes = map[int]OFDMMode{
	2048: {FFTSize: 2048, ActiveK: 1705, DataCells: 1512, TPSCarrier: 17, CarrierBit: 11},
	4096: {FFTSize: 4096, ActiveK: 3409, DataCells: 3024, TPSCarrier: 34, CarrierBit: 12},
	8192: {FFTSize: 8192, ActiveK: 6817, DataCells: 6048, TPSCarrier: 68, CarrierBit: 13},
}

const (
	OFDMSymbolsPerFrame  = 68
	OFDMFramesPerSuper   = 4
	DefaultDACSampleRate = 64e6 / 7 // ~9.142857 Msps, the ETSI reference rate
)

// PuncturerRate describes one of the five selectable code rates.
type PuncturerRate struct {
	KIn, KOut int
	Selected  []int // 0-based indices into the k_in window that survive
}

var PuncturerRates = map[int]PuncturerRate{
	12: {KIn: 2, KOut: 2, Selected: []int{0, 1}},
	23: {KIn: 4, KOut: 3, Selected: []int{0, 1, 3}},
	34: {KIn: 6, KOut: 4, Selected: []int{0, 1, 3, 4}},
	56: {KIn: 10, KOut: 6, Selected: []int{0, 1, 3, 4, 7, 8}},
	78: {KIn: 14, KOut: 8, Selected: []int{0, 1, 3, 5, 7, 8, 11, 12}},
}
