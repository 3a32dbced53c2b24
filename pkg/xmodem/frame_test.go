package xmodem

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFrameEncodeHeaderByBlockSize(t *testing.T) {
	f := frame{header: BlockSizeCRC.header(), seqLow: 1, payload: make(Block, 128)}
	encoded := f.encode()
	assert.Equal(t, ctlSOH, encoded[0])

	f.header = BlockSize1K.header()
	encoded = f.encode()
	assert.Equal(t, ctlSTX, encoded[0])
}

func TestFrameEncodeSeqComp(t *testing.T) {
	f := frame{header: ctlSOH, seqLow: 1, payload: make(Block, 128)}
	encoded := f.encode()
	assert.Equal(t, byte(1), encoded[1])
	assert.Equal(t, byte(0xFE), encoded[2])
	assert.True(t, seqCompValid(encoded[1], encoded[2]))
}

func TestFrameEncodeCRC(t *testing.T) {
	payload := make(Block, 128)
	for i := range payload {
		payload[i] = 0x41
	}
	f := frame{header: ctlSOH, seqLow: 1, payload: payload}
	encoded := f.encode()
	hi := encoded[len(encoded)-2]
	lo := encoded[len(encoded)-1]
	assert.Equal(t, byte(0xA7), hi)
	assert.Equal(t, byte(0xD3), lo)
	assert.True(t, crcValid(payload, hi, lo))
}

func TestCrcValidRejectsBitFlip(t *testing.T) {
	payload := make(Block, 128)
	for i := range payload {
		payload[i] = 0x41
	}
	f := frame{header: ctlSOH, seqLow: 1, payload: payload}
	encoded := f.encode()
	hi := encoded[len(encoded)-2]
	lo := encoded[len(encoded)-1]

	corrupted := make(Block, len(payload))
	copy(corrupted, payload)
	corrupted[0] ^= 0x01

	assert.False(t, crcValid(corrupted, hi, lo))
}

func TestSeqCompValid(t *testing.T) {
	assert.True(t, seqCompValid(1, 0xFE))
	assert.True(t, seqCompValid(0, 0xFF))
	assert.False(t, seqCompValid(1, 0xFD))
}

func TestBlockSizeFromHeader(t *testing.T) {
	size, ok := blockSizeFromHeader(ctlSOH)
	assert.True(t, ok)
	assert.Equal(t, BlockSizeCRC, size)

	size, ok = blockSizeFromHeader(ctlSTX)
	assert.True(t, ok)
	assert.Equal(t, BlockSize1K, size)

	_, ok = blockSizeFromHeader(ctlACK)
	assert.False(t, ok)
}
