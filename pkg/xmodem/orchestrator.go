// Package xmodem implements the CORE of the XMODEM-CRC / XMODEM-1K
// file-transfer protocol: the Sender and Receiver finite state machines,
// frame codec, CRC-16/CCITT, and block staging. It consumes an abstract
// Channel, Source/Sink, and cancellation predicate; binding those to a
// real serial port or local file is the job of pkg/channel and
// pkg/blockio.
package xmodem

import (
	"context"
	"log/slog"
	"time"
)

// Result is returned by Transmit and Receive on every path, success or
// failure, so the caller (typically a CLI) can report session counters.
type Result struct {
	BlocksSent     int
	BlocksReceived int
	DuplicatesSeen int
	NAKsSent       int
	NAKsReceived   int
	Elapsed        time.Duration
}

// Transmit runs the Sender FSM to completion: it loads seq fully from
// src, then drives the handshake/data/EOT sequence over channel until
// Success or Failure. size is fixed for the whole session.
//
// logger carries structured per-session fields (role, block size, and
// the outcome) over the package's package-level logrus trace output; a
// nil logger falls back to slog.Default().
func Transmit(ctx context.Context, channel Channel, src Source, size BlockSize, cancel CancelFunc, tunables Tunables, logger *slog.Logger) (Result, error) {
	if logger == nil {
		logger = slog.Default()
	}
	logger = logger.With(slog.String("role", "sender"), slog.Int("block_size", int(size)))
	start := timeNow()
	sender := newSender(channel, cancel, size, tunables, logger)
	result, err := sender.run(ctx, src)
	result.Elapsed = timeSince(start)
	logger.Info("xmodem session finished",
		slog.Int("blocks_sent", result.BlocksSent),
		slog.Int("naks_received", result.NAKsReceived),
		slog.Duration("elapsed", result.Elapsed),
		slog.Any("err", err))
	return result, err
}

// Receive runs the Receiver FSM to completion: it emits the initial C,
// assembles and acks/naks frames, and on Success flushes the assembled
// sequence to sink in order.
//
// logger carries structured per-session fields the same way Transmit's
// does; a nil logger falls back to slog.Default().
func Receive(ctx context.Context, channel Channel, sink Sink, cancel CancelFunc, tunables Tunables, logger *slog.Logger) (Result, error) {
	if logger == nil {
		logger = slog.Default()
	}
	logger = logger.With(slog.String("role", "receiver"))
	start := timeNow()
	receiver := newReceiver(channel, cancel, tunables, logger)
	result, err := receiver.run(ctx, sink)
	result.Elapsed = timeSince(start)
	logger.Info("xmodem session finished",
		slog.Int("blocks_received", result.BlocksReceived),
		slog.Int("duplicates_seen", result.DuplicatesSeen),
		slog.Int("naks_sent", result.NAKsSent),
		slog.Duration("elapsed", result.Elapsed),
		slog.Any("err", err))
	return result, err
}

// timeNow/timeSince are indirected so tests can stub them if needed;
// production code just forwards to the time package.
var timeNow = time.Now
var timeSince = time.Since
