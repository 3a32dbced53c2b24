package xmodem

import (
	"context"
	"log/slog"
	"time"

	log "github.com/sirupsen/logrus"
)

type senderState uint8

const (
	senderInitial senderState = iota
	senderWait
	senderDataXmt
	senderEotXmt
	senderCanXmt
	senderSuccess
	senderFailure
)

// Sender drives the transmit side of an XMODEM-CRC/1K session (spec.md
// §4.4). It is single-use: construct one per session via newSender.
type Sender struct {
	channel  Channel
	cancel   CancelFunc
	tunables Tunables
	size     BlockSize
	logger   *slog.Logger

	state    senderState
	previous senderState

	seq      *Sequence
	seqIndex byte

	indicateRetries int
	xferRetries     int

	failErr error
	result  Result
}

func newSender(channel Channel, cancel CancelFunc, size BlockSize, tunables Tunables, logger *slog.Logger) *Sender {
	if cancel == nil {
		cancel = alwaysContinue
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Sender{
		channel:  channel,
		cancel:   cancel,
		tunables: tunables.withDefaults(),
		size:     size,
		logger:   logger,
		state:    senderInitial,
		previous: senderInitial,
	}
}

// run drives the FSM to completion and returns the session Result.
func (s *Sender) run(ctx context.Context, src Source) (Result, error) {
	for {
		if ctx.Err() != nil {
			return s.result, ctx.Err()
		}
		switch s.state {
		case senderInitial:
			s.stepInitial(src)
		case senderWait:
			s.stepWait()
		case senderDataXmt:
			s.stepDataXmt()
		case senderEotXmt:
			s.stepEotXmt()
		case senderCanXmt:
			s.stepCanXmt()
		case senderSuccess:
			log.Debug("[SENDER] session complete, success")
			return s.result, nil
		case senderFailure:
			log.WithError(s.failErr).Debug("[SENDER] session complete, failure")
			return s.result, s.failErr
		}
	}
}

func (s *Sender) fail(err error) {
	s.failErr = err
	s.state = senderFailure
}

func (s *Sender) stepInitial(src Source) {
	seq, err := loadSequence(src, s.size)
	if err != nil {
		log.WithError(err).Error("[SENDER] could not load block source")
		s.failErr = ErrSource
		s.state = senderFailure
		return
	}
	s.seq = seq
	s.indicateRetries = s.tunables.IndicateRetries
	s.previous = senderInitial
	s.state = senderWait
	s.logger.Info("xmodem session starting", slog.Int("blocks_staged", len(seq.blocks)))
}

func (s *Sender) stepWait() {
	if !s.cancel() {
		s.state = senderCanXmt
		return
	}

	b, res := s.channel.ReadByte()
	switch res {
	case ReadError:
		log.Error("[SENDER] channel read error")
		s.fail(ErrChannel)
		return
	case ReadEmpty:
		s.handleWaitTimeout()
		return
	}

	switch b {
	case ctlC:
		if s.previous == senderInitial {
			s.seqIndex = 1
			if !s.seq.HasMore() {
				log.Debug("[SENDER] got indicate C, nothing to send")
				s.state = senderEotXmt
				return
			}
			log.Debug("[SENDER] got indicate C, starting transfer")
			s.state = senderDataXmt
		} else if s.previous == senderDataXmt {
			log.Debug("[SENDER] late indicate C, resending current block")
			s.state = senderDataXmt
		}
	case ctlACK:
		switch s.previous {
		case senderDataXmt:
			s.seq.Advance()
			s.seqIndex++ // wraps 256 -> 0 by virtue of byte arithmetic
			if s.seq.HasMore() {
				s.result.BlocksSent++
				s.state = senderDataXmt
			} else {
				s.result.BlocksSent++
				s.state = senderEotXmt
			}
		case senderEotXmt:
			s.state = senderSuccess
		}
	case ctlNAK:
		log.Debug("[SENDER] NAK, resending block")
		s.result.NAKsReceived++
		s.state = senderDataXmt
	case ctlCAN:
		log.Warn("[SENDER] peer sent CAN")
		s.fail(ErrPeerCancelled)
	default:
		// Ignore anything else, stay in Wait.
	}
}

func (s *Sender) handleWaitTimeout() {
	switch s.previous {
	case senderInitial:
		s.indicateRetries--
		if s.indicateRetries <= 0 {
			log.Error("[SENDER] timed out waiting for indicate")
			s.fail(ErrIndicateTimeout)
			return
		}
		time.Sleep(s.tunables.IndicateTimeout)
	case senderDataXmt:
		s.xferRetries--
		if s.xferRetries <= 0 {
			log.Error("[SENDER] transfer timed out")
			s.fail(ErrXferTimeout)
			return
		}
		time.Sleep(s.tunables.PktXferTimeout)
	default:
		time.Sleep(s.tunables.PktXferTimeout)
	}
}

func (s *Sender) stepDataXmt() {
	f := frame{
		header:  s.size.header(),
		seqLow:  s.seqIndex,
		payload: s.seq.Current(),
	}
	if err := s.channel.WriteBytes(f.encode()); err != nil {
		log.WithError(err).Error("[SENDER] write failed")
		s.fail(ErrChannel)
		return
	}
	log.Debugf("[SENDER][TX] DATA seq=%d", s.seqIndex)
	s.xferRetries = s.tunables.PktXferRetries
	s.previous = senderDataXmt
	s.state = senderWait
}

func (s *Sender) stepEotXmt() {
	if err := s.channel.WriteBytes([]byte{ctlEOT}); err != nil {
		log.WithError(err).Error("[SENDER] write EOT failed")
		s.fail(ErrChannel)
		return
	}
	log.Debug("[SENDER][TX] EOT")
	s.previous = senderEotXmt
	s.state = senderWait
}

func (s *Sender) stepCanXmt() {
	_ = s.channel.WriteBytes([]byte{ctlCAN})
	log.Warn("[SENDER][TX] CAN, cancelling")
	s.fail(ErrCancelled)
}
