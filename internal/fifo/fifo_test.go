package fifo

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestWriteThenReadByte(t *testing.T) {
	f := New(8)
	n := f.Write([]byte{1, 2, 3})
	assert.Equal(t, 3, n)

	b, ok := f.ReadByte()
	assert.True(t, ok)
	assert.EqualValues(t, 1, b)

	assert.Equal(t, 2, f.Occupied())
}

func TestReadByteEmpty(t *testing.T) {
	f := New(4)
	_, ok := f.ReadByte()
	assert.False(t, ok)
}

func TestWriteStopsAtCapacity(t *testing.T) {
	f := New(4) // 3 usable slots
	n := f.Write([]byte{1, 2, 3, 4, 5})
	assert.Equal(t, 3, n)
	assert.Equal(t, 0, f.Space())
}

func TestWrapsAround(t *testing.T) {
	f := New(4)
	f.Write([]byte{1, 2, 3})
	f.ReadByte()
	f.ReadByte()
	n := f.Write([]byte{4, 5})
	assert.Equal(t, 2, n)

	var got []byte
	for {
		b, ok := f.ReadByte()
		if !ok {
			break
		}
		got = append(got, b)
	}
	assert.Equal(t, []byte{3, 4, 5}, got)
}

func TestReset(t *testing.T) {
	f := New(4)
	f.Write([]byte{1, 2})
	f.Reset()
	assert.Equal(t, 0, f.Occupied())
}
