// Package blockio binds pkg/xmodem's Source/Sink interfaces to local
// files and in-memory buffers. Neither is part of the protocol core
// (spec.md §1 lists file system access as an external collaborator); this
// package is the concrete adapter a CLI front end wires in.
package blockio

import (
	"bufio"
	"io"
	"os"

	log "github.com/sirupsen/logrus"

	"github.com/samsamfire/goxmodem/pkg/xmodem"
)

// FileSource reads fixed-size blocks from a local file, padding the
// final short block with PAD as spec.md §4.2 requires.
type FileSource struct {
	r *bufio.Reader
	f *os.File
}

// OpenFileSource opens path for reading.
func OpenFileSource(path string) (*FileSource, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	return &FileSource{r: bufio.NewReader(f), f: f}, nil
}

// Close releases the underlying file.
func (s *FileSource) Close() error {
	return s.f.Close()
}

// ReadBlock implements xmodem.Source.
func (s *FileSource) ReadBlock(size xmodem.BlockSize) (xmodem.Block, bool, error) {
	buf := make([]byte, int(size))
	n, err := io.ReadFull(s.r, buf)
	switch {
	case err == nil:
		return xmodem.Block(buf), true, nil
	case err == io.EOF:
		return nil, false, nil
	case err == io.ErrUnexpectedEOF:
		for i := n; i < len(buf); i++ {
			buf[i] = 0x1A
		}
		return xmodem.Block(buf), true, nil
	default:
		return nil, false, err
	}
}

// FileSink writes accepted blocks to a local file in order, concatenated
// verbatim. Per spec.md §4.2 the final block may carry trailing PAD
// bytes from send-side padding. FileSink does not know which block is
// the last one: it warns for every block that ends in PAD and still
// writes it unchanged.
type FileSink struct {
	w *bufio.Writer
	f *os.File
}

// CreateFileSink creates (truncating) path for writing.
func CreateFileSink(path string) (*FileSink, error) {
	f, err := os.Create(path)
	if err != nil {
		return nil, err
	}
	return &FileSink{w: bufio.NewWriter(f), f: f}, nil
}

// WriteBlock implements xmodem.Sink.
func (s *FileSink) WriteBlock(b xmodem.Block) error {
	if n := trailingPadCount(b); n > 0 {
		log.Warnf("[BLOCKIO] block has %d trailing PAD (0x1A) byte(s); writing as-is", n)
	}
	_, err := s.w.Write(b)
	return err
}

// Close flushes and closes the underlying file.
func (s *FileSink) Close() error {
	if err := s.w.Flush(); err != nil {
		return err
	}
	return s.f.Close()
}

func trailingPadCount(b xmodem.Block) int {
	n := 0
	for i := len(b) - 1; i >= 0 && b[i] == 0x1A; i-- {
		n++
	}
	return n
}
