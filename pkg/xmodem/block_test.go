package xmodem

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
)

type sliceSource struct {
	chunks [][]byte
	i      int
}

func (s *sliceSource) ReadBlock(size BlockSize) (Block, bool, error) {
	if s.i >= len(s.chunks) {
		return nil, false, nil
	}
	chunk := s.chunks[s.i]
	s.i++
	if len(chunk) == int(size) {
		return Block(chunk), true, nil
	}
	return padBlock(chunk, size), true, nil
}

func TestLoadSequenceEmpty(t *testing.T) {
	seq, err := loadSequence(&sliceSource{}, BlockSizeCRC)
	assert.NoError(t, err)
	assert.False(t, seq.HasMore())
}

func TestLoadSequencePadsShortFinal(t *testing.T) {
	seq, err := loadSequence(&sliceSource{chunks: [][]byte{{1, 2, 3}}}, BlockSizeCRC)
	assert.NoError(t, err)
	assert.True(t, seq.HasMore())
	block := seq.Current()
	assert.Len(t, block, 128)
	assert.Equal(t, Block{1, 2, 3}, block[:3])
	for _, b := range block[3:] {
		assert.Equal(t, byte(0x1A), b)
	}
	seq.Advance()
	assert.False(t, seq.HasMore())
}

type errSource struct{ err error }

func (s errSource) ReadBlock(BlockSize) (Block, bool, error) { return nil, false, s.err }

func TestLoadSequencePropagatesError(t *testing.T) {
	boom := errors.New("boom")
	_, err := loadSequence(errSource{err: boom}, BlockSizeCRC)
	assert.Equal(t, boom, err)
}

func TestSequenceFlush(t *testing.T) {
	seq := &Sequence{}
	seq.Append(Block{1, 2})
	seq.Append(Block{3, 4})
	sink := &memSink{}
	assert.NoError(t, seq.Flush(sink))
	assert.Equal(t, []byte{1, 2, 3, 4}, sink.data)
}

type memSink struct{ data []byte }

func (m *memSink) WriteBlock(b Block) error {
	m.data = append(m.data, b...)
	return nil
}
