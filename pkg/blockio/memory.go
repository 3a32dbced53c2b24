package blockio

import "github.com/samsamfire/goxmodem/pkg/xmodem"

// MemorySource serves fixed-size, PAD-terminated blocks out of an
// in-memory byte slice; used by tests.
type MemorySource struct {
	data   []byte
	offset int
}

// NewMemorySource wraps data for reading.
func NewMemorySource(data []byte) *MemorySource {
	return &MemorySource{data: data}
}

// ReadBlock implements xmodem.Source.
func (s *MemorySource) ReadBlock(size xmodem.BlockSize) (xmodem.Block, bool, error) {
	if s.offset >= len(s.data) {
		return nil, false, nil
	}
	end := s.offset + int(size)
	if end > len(s.data) {
		end = len(s.data)
	}
	chunk := s.data[s.offset:end]
	s.offset = end
	if len(chunk) == int(size) {
		block := make(xmodem.Block, size)
		copy(block, chunk)
		return block, true, nil
	}
	block := make(xmodem.Block, size)
	copy(block, chunk)
	for i := len(chunk); i < int(size); i++ {
		block[i] = 0x1A
	}
	return block, true, nil
}

// MemorySink accumulates accepted blocks into a growing byte slice.
type MemorySink struct {
	Data []byte
}

// WriteBlock implements xmodem.Sink.
func (s *MemorySink) WriteBlock(b xmodem.Block) error {
	s.Data = append(s.Data, b...)
	return nil
}
