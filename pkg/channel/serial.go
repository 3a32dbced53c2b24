// Package channel provides concrete bindings of pkg/xmodem.Channel: a
// real serial port (Serial), a TCP stream (TCP), and an in-memory pair
// for tests and demos (Loopback). None of these are part of the XMODEM
// protocol core; they are the "external collaborator" the core's Channel
// interface is designed against (spec.md §6).
package channel

import (
	"time"

	log "github.com/sirupsen/logrus"
	"go.bug.st/serial"

	"github.com/samsamfire/goxmodem/internal/fifo"
	"github.com/samsamfire/goxmodem/pkg/xmodem"
)

// pollInterval is the bounded wait spec.md §4.3 requires of ReadByte
// when no byte is pending: "on the order of tens of ms".
const pollInterval = 20 * time.Millisecond

const readChunkSize = 256

// Serial binds pkg/xmodem.Channel to a real serial port via
// go.bug.st/serial, the library the rest of the example pack uses for
// device-facing serial I/O.
type Serial struct {
	port serial.Port
	buf  *fifo.Fifo
	read [readChunkSize]byte
}

// SerialConfig exposes the baud/parity/stop-bits the core deliberately
// has no opinion on (spec.md §1, OUT OF SCOPE).
type SerialConfig struct {
	BaudRate int
	DataBits int
	Parity   serial.Parity
	StopBits serial.StopBits
}

// DefaultSerialConfig is 8N1 at 115200 baud, XMODEM's usual default.
func DefaultSerialConfig() SerialConfig {
	return SerialConfig{BaudRate: 115200, DataBits: 8, Parity: serial.NoParity, StopBits: serial.OneStopBit}
}

// OpenSerial opens portName (e.g. "/dev/ttyUSB0", "COM3") with cfg.
func OpenSerial(portName string, cfg SerialConfig) (*Serial, error) {
	mode := &serial.Mode{
		BaudRate: cfg.BaudRate,
		DataBits: cfg.DataBits,
		Parity:   cfg.Parity,
		StopBits: cfg.StopBits,
	}
	port, err := serial.Open(portName, mode)
	if err != nil {
		return nil, err
	}
	if err := port.SetReadTimeout(pollInterval); err != nil {
		port.Close()
		return nil, err
	}
	log.Infof("[SERIAL] opened %s at %d baud", portName, cfg.BaudRate)
	return &Serial{port: port, buf: fifo.New(readChunkSize + 1)}, nil
}

// Close releases the underlying port.
func (s *Serial) Close() error {
	return s.port.Close()
}

// ReadByte implements xmodem.Channel. It serves bytes out of a small
// ring buffer refilled from the OS in chunk-sized reads, so the
// "effectively returns immediately with zero bytes if none are pending,
// otherwise at least one byte" semantic of spec.md §9 holds regardless
// of how many bytes the driver handed back at once.
func (s *Serial) ReadByte() (byte, xmodem.ReadResult) {
	if b, ok := s.buf.ReadByte(); ok {
		return b, xmodem.ReadGot
	}
	n, err := s.port.Read(s.read[:])
	if err != nil {
		log.WithError(err).Error("[SERIAL] read error")
		return 0, xmodem.ReadError
	}
	if n == 0 {
		return 0, xmodem.ReadEmpty
	}
	s.buf.Write(s.read[:n])
	b, ok := s.buf.ReadByte()
	if !ok {
		return 0, xmodem.ReadEmpty
	}
	return b, xmodem.ReadGot
}

// WriteBytes implements xmodem.Channel.
func (s *Serial) WriteBytes(buf []byte) error {
	_, err := s.port.Write(buf)
	if err != nil {
		log.WithError(err).Error("[SERIAL] write error")
	}
	return err
}
