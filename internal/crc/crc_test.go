package crc

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCcittSingle(t *testing.T) {
	crc := CRC16(0)
	crc.Single(10)
	assert.EqualValues(t, 0xA14A, crc)
}

func TestSum16EmptyIsZero(t *testing.T) {
	assert.EqualValues(t, 0, Sum16(nil))
}

func TestSum16FullBlockOf0x41(t *testing.T) {
	payload := make([]byte, 128)
	for i := range payload {
		payload[i] = 0x41
	}
	assert.EqualValues(t, 0x1CCE, Sum16(payload))
}

func TestWriteMatchesSingle(t *testing.T) {
	var viaWrite CRC16
	viaWrite.Write([]byte{1, 2, 3, 4, 5})

	var viaSingle CRC16
	for _, b := range []byte{1, 2, 3, 4, 5} {
		viaSingle.Single(b)
	}
	assert.Equal(t, viaSingle, viaWrite)
}
