package xmodem

import "errors"

// Error kinds from spec.md §7. A CRC mismatch is handled locally (NAK and
// retry) and has no error value here; every error below surfaces as
// session Failure.
var (
	ErrChannel         = errors.New("xmodem: channel error")
	ErrCancelled       = errors.New("xmodem: cancelled by caller")
	ErrIndicateTimeout = errors.New("xmodem: no response to indicate (C)")
	ErrXferTimeout     = errors.New("xmodem: transfer timed out")
	ErrSeqCheck        = errors.New("xmodem: sequence/complement check failed")
	ErrPeerCancelled   = errors.New("xmodem: peer sent CAN")
	ErrSource          = errors.New("xmodem: could not load block source")
	ErrAllocation      = errors.New("xmodem: could not buffer received block")
	ErrMixedBlockSize  = errors.New("xmodem: header disagrees with session block size")
)
