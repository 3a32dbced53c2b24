package xmodem

import "github.com/samsamfire/goxmodem/internal/crc"

// frame is the on-wire unit: header, sequence byte, one's-complement
// sequence byte, payload, CRC-16/CCITT big-endian.
type frame struct {
	header  byte
	seqLow  byte
	payload Block
}

// encode packs a frame ready for a single WriteBytes call.
func (f frame) encode() []byte {
	out := make([]byte, 0, 3+len(f.payload)+2)
	out = append(out, f.header, f.seqLow, 0xFF-f.seqLow)
	out = append(out, f.payload...)
	sum := crc.Sum16(f.payload)
	out = append(out, byte(sum>>8), byte(sum))
	return out
}

// seqCompValid reports whether seqLow/seqComp satisfy the one's
// complement invariant from spec.md §3.
func seqCompValid(seqLow, seqComp byte) bool {
	return seqLow+seqComp == 0xFF
}

// crcValid recomputes the CRC over payload and compares it to the
// declared hi/lo bytes.
func crcValid(payload Block, hi, lo byte) bool {
	sum := crc.Sum16(payload)
	return byte(sum>>8) == hi && byte(sum) == lo
}
