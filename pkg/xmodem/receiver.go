package xmodem

import (
	"context"
	"log/slog"
	"time"

	log "github.com/sirupsen/logrus"
)

type receiverState uint8

const (
	receiverInitial receiverState = iota
	receiverIndicate
	receiverWait
	receiverHdrRcv
	receiverPktNumRcv
	receiverDataRcv
	receiverAckXmt
	receiverNakXmt
	receiverCanXmt
	receiverSuccess
	receiverFailure
)

// previous-state markers used only to steer AckXmt's successor, per
// spec.md §4.5 ("pseudo-previous markers").
type ackOrigin uint8

const (
	ackFromData ackOrigin = iota
	ackFromTerm
	ackFromCanc
)

// Receiver drives the receive side of an XMODEM-CRC/1K session. It locks
// its block size on the first header byte it sees.
type Receiver struct {
	channel  Channel
	cancel   CancelFunc
	tunables Tunables
	logger   *slog.Logger

	state    receiverState
	previous receiverState
	ackFrom  ackOrigin

	mode      BlockSize
	modeKnown bool

	seqLow        byte
	seqComp       byte
	payload       []byte
	payloadFilled int
	crcHi, crcLo  byte

	lastAcceptedSeq byte
	seq             *Sequence

	indicateRetries int
	xferRetries     int

	failErr error
	result  Result
}

func newReceiver(channel Channel, cancel CancelFunc, tunables Tunables, logger *slog.Logger) *Receiver {
	if cancel == nil {
		cancel = alwaysContinue
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Receiver{
		channel:         channel,
		cancel:          cancel,
		tunables:        tunables.withDefaults(),
		logger:          logger,
		state:           receiverInitial,
		lastAcceptedSeq: 0xFF, // sentinel, never produced by a valid first frame (SeqLow=1)
		seq:             &Sequence{},
	}
}

func (r *Receiver) run(ctx context.Context, sink Sink) (Result, error) {
	for {
		if ctx.Err() != nil {
			return r.result, ctx.Err()
		}
		switch r.state {
		case receiverInitial:
			r.indicateRetries = r.tunables.IndicateRetries
			r.state = receiverIndicate
		case receiverIndicate:
			r.stepIndicate()
		case receiverWait:
			r.stepWait()
		case receiverHdrRcv:
			r.stepHdrRcv()
		case receiverPktNumRcv:
			r.stepPktNumRcv()
		case receiverDataRcv:
			r.stepDataRcv()
		case receiverAckXmt:
			r.stepAckXmt()
		case receiverNakXmt:
			r.stepNakXmt()
		case receiverCanXmt:
			r.stepCanXmt()
		case receiverSuccess:
			if err := r.seq.Flush(sink); err != nil {
				return r.result, err
			}
			log.Debug("[RECEIVER] session complete, success")
			return r.result, nil
		case receiverFailure:
			log.WithError(r.failErr).Debug("[RECEIVER] session complete, failure")
			return r.result, r.failErr
		}
	}
}

func (r *Receiver) fail(err error) {
	r.failErr = err
	r.state = receiverFailure
}

func (r *Receiver) stepIndicate() {
	if err := r.channel.WriteBytes([]byte{ctlC}); err != nil {
		log.WithError(err).Error("[RECEIVER] write C failed")
		r.fail(ErrChannel)
		return
	}
	log.Debug("[RECEIVER][TX] C")
	r.previous = receiverIndicate
	r.state = receiverWait
}

func (r *Receiver) stepWait() {
	if !r.cancel() {
		r.state = receiverCanXmt
		return
	}

	b, res := r.channel.ReadByte()
	switch res {
	case ReadError:
		log.Error("[RECEIVER] channel read error")
		r.fail(ErrChannel)
		return
	case ReadEmpty:
		r.handleWaitTimeout()
		return
	}

	switch b {
	case ctlSOH, ctlSTX:
		size, _ := blockSizeFromHeader(b)
		if !r.modeKnown {
			r.mode = size
			r.modeKnown = true
			r.logger.Info("xmodem block size locked", slog.Int("block_size", int(size)))
		} else if r.mode != size {
			log.Error("[RECEIVER] header disagrees with session block size")
			r.failErr = ErrMixedBlockSize
			r.state = receiverCanXmt
			return
		}
		r.payload = make([]byte, int(r.mode))
		r.payloadFilled = 0
		r.xferRetries = r.tunables.PktXferRetries
		r.state = receiverHdrRcv
	case ctlEOT:
		r.ackFrom = ackFromTerm
		r.state = receiverAckXmt
	case ctlCAN:
		r.ackFrom = ackFromCanc
		r.state = receiverAckXmt
	default:
		// Ignore anything else, stay in Wait.
	}
}

func (r *Receiver) handleWaitTimeout() {
	switch r.previous {
	case receiverIndicate:
		r.indicateRetries--
		if r.indicateRetries <= 0 {
			log.Error("[RECEIVER] timed out waiting for sender")
			r.fail(ErrIndicateTimeout)
			return
		}
		if r.indicateRetries%r.tunables.IndicateMultiplication == 0 {
			r.state = receiverIndicate
			return
		}
		time.Sleep(r.tunables.IndicateTimeout)
	case receiverAckXmt, receiverNakXmt:
		r.xferRetries--
		if r.xferRetries <= 0 {
			log.Error("[RECEIVER] transfer timed out")
			r.fail(ErrXferTimeout)
			return
		}
		time.Sleep(r.tunables.PktXferTimeout)
	default:
		time.Sleep(r.tunables.PktXferTimeout)
	}
}

// readWithRetry reads one byte with the same timeout/retry discipline as
// Wait, used while assembling a frame's seq/complement/payload/CRC bytes
// (the header byte itself is read in Wait). It
// returns ok=false once the state has transitioned away (failure or
// cancel) and the caller should stop assembling.
func (r *Receiver) readWithRetry() (b byte, ok bool) {
	for {
		if !r.cancel() {
			r.state = receiverCanXmt
			return 0, false
		}
		got, res := r.channel.ReadByte()
		switch res {
		case ReadError:
			log.Error("[RECEIVER] channel read error")
			r.fail(ErrChannel)
			return 0, false
		case ReadGot:
			r.xferRetries = r.tunables.PktXferRetries
			return got, true
		case ReadEmpty:
			r.xferRetries--
			if r.xferRetries <= 0 {
				log.Error("[RECEIVER] transfer timed out mid-frame")
				r.fail(ErrXferTimeout)
				return 0, false
			}
			time.Sleep(r.tunables.PktXferTimeout)
		}
	}
}

func (r *Receiver) stepHdrRcv() {
	seqLow, ok := r.readWithRetry()
	if !ok {
		return
	}
	seqComp, ok := r.readWithRetry()
	if !ok {
		return
	}
	r.seqLow = seqLow
	r.seqComp = seqComp
	r.state = receiverPktNumRcv
}

func (r *Receiver) stepPktNumRcv() {
	for r.payloadFilled < len(r.payload) {
		b, ok := r.readWithRetry()
		if !ok {
			return
		}
		r.payload[r.payloadFilled] = b
		r.payloadFilled++
	}
	r.state = receiverDataRcv
}

func (r *Receiver) stepDataRcv() {
	hi, ok := r.readWithRetry()
	if !ok {
		return
	}
	lo, ok := r.readWithRetry()
	if !ok {
		return
	}
	r.crcHi, r.crcLo = hi, lo

	if !crcValid(r.payload, hi, lo) {
		log.Warnf("[RECEIVER] CRC mismatch on seq=%d", r.seqLow)
		r.result.NAKsSent++
		r.state = receiverNakXmt
		return
	}
	if !seqCompValid(r.seqLow, r.seqComp) {
		log.Error("[RECEIVER] sequence/complement check failed")
		r.failErr = ErrSeqCheck
		r.state = receiverCanXmt
		return
	}

	if r.seqLow != r.lastAcceptedSeq {
		r.seq.Append(Block(r.payload))
		r.lastAcceptedSeq = r.seqLow
		r.result.BlocksReceived++
	} else {
		log.Warnf("[RECEIVER] duplicate seq=%d, ACKed but dropped", r.seqLow)
		r.result.DuplicatesSeen++
	}
	r.ackFrom = ackFromData
	r.state = receiverAckXmt
}

func (r *Receiver) stepAckXmt() {
	if err := r.channel.WriteBytes([]byte{ctlACK}); err != nil {
		log.WithError(err).Error("[RECEIVER] write ACK failed")
		r.fail(ErrChannel)
		return
	}
	log.Debug("[RECEIVER][TX] ACK")
	switch r.ackFrom {
	case ackFromTerm:
		r.state = receiverSuccess
	case ackFromCanc:
		r.failErr = ErrPeerCancelled
		r.state = receiverFailure
	default:
		r.previous = receiverAckXmt
		r.state = receiverWait
	}
}

func (r *Receiver) stepNakXmt() {
	if err := r.channel.WriteBytes([]byte{ctlNAK}); err != nil {
		log.WithError(err).Error("[RECEIVER] write NAK failed")
		r.fail(ErrChannel)
		return
	}
	log.Debug("[RECEIVER][TX] NAK")
	r.previous = receiverNakXmt
	r.state = receiverWait
}

func (r *Receiver) stepCanXmt() {
	_ = r.channel.WriteBytes([]byte{ctlCAN})
	log.Warn("[RECEIVER][TX] CAN")
	if r.failErr == nil {
		r.failErr = ErrCancelled
	}
	r.state = receiverFailure
}
