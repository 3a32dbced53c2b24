package channel

import (
	"net"
	"time"

	log "github.com/sirupsen/logrus"

	"github.com/samsamfire/goxmodem/pkg/xmodem"
)

// TCP binds pkg/xmodem.Channel to a net.Conn, grounded on the teacher
// pack's virtual CAN bus loopback-over-TCP adapter: a short read
// deadline turns a blocking stream into the poll-and-report-empty
// semantic the FSMs require.
type TCP struct {
	conn net.Conn
	read [1]byte
}

// NewTCP wraps an already-connected net.Conn (e.g. from net.Dial or a
// net.Listener.Accept).
func NewTCP(conn net.Conn) *TCP {
	return &TCP{conn: conn}
}

// DialTCP connects to addr and wraps the resulting connection.
func DialTCP(addr string) (*TCP, error) {
	conn, err := net.Dial("tcp", addr)
	if err != nil {
		return nil, err
	}
	return NewTCP(conn), nil
}

func (t *TCP) ReadByte() (byte, xmodem.ReadResult) {
	_ = t.conn.SetReadDeadline(time.Now().Add(pollInterval))
	n, err := t.conn.Read(t.read[:])
	if err != nil {
		if netErr, ok := err.(net.Error); ok && netErr.Timeout() {
			return 0, xmodem.ReadEmpty
		}
		log.WithError(err).Error("[TCP] read error")
		return 0, xmodem.ReadError
	}
	if n == 0 {
		return 0, xmodem.ReadEmpty
	}
	return t.read[0], xmodem.ReadGot
}

func (t *TCP) WriteBytes(buf []byte) error {
	_ = t.conn.SetWriteDeadline(time.Now().Add(5 * time.Second))
	_, err := t.conn.Write(buf)
	if err != nil {
		log.WithError(err).Error("[TCP] write error")
	}
	return err
}

// Close closes the underlying connection.
func (t *TCP) Close() error {
	return t.conn.Close()
}
