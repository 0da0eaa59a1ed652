package pipeline

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"hackdvbs/consts"
)

func tsPacket(n int) []byte {
	buf := make([]byte, n*consts.TSPacketSize)
	for p := 0; p < n; p++ {
		buf[p*consts.TSPacketSize] = consts.TSSyncByte
	}
	return buf
}

func TestNew_RejectsUnknownOFDMMode(t *testing.T) {
	cfg := Default()
	cfg.OFDMMode = 1234
	_, err := New(cfg)
	assert.Error(t, err)
}

func TestNew_RejectsUnknownCodeRate(t *testing.T) {
	cfg := Default()
	cfg.HPCodeRate = 99
	_, err := New(cfg)
	assert.Error(t, err)
}

func TestNew_RejectsReservedHierarchyMode(t *testing.T) {
	for _, mode := range []int{1, 2, 4} {
		cfg := Default()
		cfg.HierarchyMode = mode
		_, err := New(cfg)
		assert.Error(t, err, "hierarchymode %d", mode)
	}
}

func TestNew_RejectsInvalidHierarchyMode(t *testing.T) {
	cfg := Default()
	cfg.HierarchyMode = 3
	_, err := New(cfg)
	assert.Error(t, err)
}

func TestNew_RejectsInDepthInterleaver(t *testing.T) {
	cfg := Default()
	cfg.InDepthInterleaver = true
	_, err := New(cfg)
	assert.Error(t, err)
}

func TestProcess_ProducesNoSamplesBelowOneOFDMSymbolWorthOfInput(t *testing.T) {
	cfg := Default()
	p, err := New(cfg)
	require.NoError(t, err)
	defer p.Close()

	out, err := p.Process(tsPacket(1))
	require.NoError(t, err)
	assert.Empty(t, out, "a single TS packet cannot fill one OFDM symbol's worth of data cells")
}

func TestProcess_EmitsWholeOFDMSymbolsOnceEnoughDataAccumulates(t *testing.T) {
	cfg := Default()
	p, err := New(cfg)
	require.NoError(t, err)
	defer p.Close()

	mode := consts.OFDMModes[cfg.OFDMMode]
	symbolLen := mode.FFTSize + mode.FFTSize/cfg.DeltaMode

	var total []complex128
	for i := 0; i < 4000 && len(total) == 0; i++ {
		out, err := p.Process(tsPacket(50))
		require.NoError(t, err)
		total = append(total, out...)
	}

	require.NotEmpty(t, total, "expected at least one OFDM symbol to be emitted")
	assert.Zero(t, len(total)%symbolLen, "output must be a whole number of OFDM symbols")
}

func TestProcess_BuffersPartialTSPackets(t *testing.T) {
	cfg := Default()
	p, err := New(cfg)
	require.NoError(t, err)
	defer p.Close()

	full := tsPacket(1)
	out1, err := p.Process(full[:100])
	require.NoError(t, err)
	assert.Empty(t, out1)

	_, err = p.Process(full[100:])
	require.NoError(t, err)
}

func TestReset_ClearsAllStageState(t *testing.T) {
	cfg := Default()
	p, err := New(cfg)
	require.NoError(t, err)
	defer p.Close()

	_, err = p.Process(tsPacket(50))
	require.NoError(t, err)

	p.Reset()
	assert.Empty(t, p.tsBuf)
	assert.Empty(t, p.symbolBuf)
}
