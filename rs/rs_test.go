package rs

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"

	"hackdvbs/consts"
)

func TestEncode_IsSystematic(t *testing.T) {
	e := New()
	msg := make([]byte, consts.TSPacketSize)
	for i := range msg {
		msg[i] = byte(i * 7)
	}
	cw, err := e.Encode(msg)
	require.NoError(t, err)
	assert.Equal(t, msg, cw[:consts.TSPacketSize])
	assert.Len(t, cw, consts.RSPacketSize)
}

func TestEncode_RejectsWrongLength(t *testing.T) {
	e := New()
	_, err := e.Encode(make([]byte, 10))
	assert.Error(t, err)
}

func TestEncode_CodewordIsRootOfGenerator(t *testing.T) {
	rapid.Check(t, func(rt *rapid.T) {
		e := New()
		msg := rapid.SliceOfN(rapid.Byte(), consts.TSPacketSize, consts.TSPacketSize).Draw(rt, "msg")
		cw, err := e.Encode(msg)
		require.NoError(rt, err)

		for i := 0; i < consts.RSParitySize; i++ {
			root := consts.GFExp[i]
			var acc byte
			power := byte(1)
			for j := len(cw) - 1; j >= 0; j-- {
				acc ^= consts.GFMul(cw[j], power)
				power = consts.GFMul(power, root)
			}
			assert.Equal(rt, byte(0), acc, "codeword must vanish at alpha^%d", i)
		}
	})
}

func TestProcess_BuffersPartialPackets(t *testing.T) {
	e := New()
	msg := make([]byte, consts.TSPacketSize)
	out1, err := e.Process(msg[:100])
	require.NoError(t, err)
	assert.Empty(t, out1)

	out2, err := e.Process(msg[100:])
	require.NoError(t, err)
	assert.Len(t, out2, consts.RSPacketSize)
}
