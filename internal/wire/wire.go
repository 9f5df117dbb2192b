// Package wire handles reading and writing length-prefixed JSON envelopes
// over a net.Conn.
//
// Frame format:
//
//	[ 4-byte big-endian length ][ length bytes of UTF-8 JSON envelope ]
//
// One envelope per frame, no compression, no multiplexing. Frames are
// strictly sequential per direction; any error from this package means the
// connection is broken and must not be reused.
package wire

import (
	"bufio"
	"encoding/binary"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"time"

	"github.com/clipflow/clipflow/internal/content"
)

// MaxFrameSize is the largest frame we will read or write (10 MB). Large
// enough for any image the codec emits, small enough to bound memory per
// connection.
const MaxFrameSize = 10_000_000

const writeDeadline = 30 * time.Second

var (
	// ErrInvalidLength reports a length prefix of zero or above MaxFrameSize.
	// Nothing beyond the 4-byte prefix has been consumed.
	ErrInvalidLength = errors.New("wire: invalid frame length")

	// ErrTruncated reports a stream that closed before a full frame arrived.
	ErrTruncated = errors.New("wire: truncated frame")

	// ErrMalformed reports a frame whose body failed to deserialize.
	ErrMalformed = errors.New("wire: malformed envelope")
)

// Conn wraps a net.Conn with buffered length-prefixed JSON framing.
type Conn struct {
	conn net.Conn
	br   *bufio.Reader
}

// New wraps conn for envelope traffic.
func New(conn net.Conn) *Conn {
	return &Conn{
		conn: conn,
		br:   bufio.NewReaderSize(conn, 64*1024),
	}
}

// Close closes the underlying connection.
func (c *Conn) Close() error { return c.conn.Close() }

// RemoteAddr returns the remote network address.
func (c *Conn) RemoteAddr() net.Addr { return c.conn.RemoteAddr() }

// WriteEnvelope serializes env and writes one frame. Any failure, including a
// partial write, means the connection is broken; callers must not retry on
// the same stream.
func (c *Conn) WriteEnvelope(env content.Envelope) error {
	body, err := json.Marshal(env)
	if err != nil {
		return fmt.Errorf("wire: encode: %w", err)
	}
	if len(body) > MaxFrameSize {
		return fmt.Errorf("%w: %d bytes", ErrInvalidLength, len(body))
	}

	frame := make([]byte, 4+len(body))
	binary.BigEndian.PutUint32(frame[:4], uint32(len(body)))
	copy(frame[4:], body)

	_ = c.conn.SetWriteDeadline(time.Now().Add(writeDeadline))
	_, err = c.conn.Write(frame)
	_ = c.conn.SetWriteDeadline(time.Time{})
	if err != nil {
		return fmt.Errorf("wire: write: %w", err)
	}
	return nil
}

// ReadEnvelope reads one frame and deserializes it. Returns io.EOF when the
// peer closes cleanly between frames.
func (c *Conn) ReadEnvelope() (content.Envelope, error) {
	var env content.Envelope

	var prefix [4]byte
	if _, err := io.ReadFull(c.br, prefix[:]); err != nil {
		if errors.Is(err, io.EOF) {
			return env, io.EOF
		}
		return env, fmt.Errorf("%w: %v", ErrTruncated, err)
	}

	n := binary.BigEndian.Uint32(prefix[:])
	if n == 0 || n > MaxFrameSize {
		return env, fmt.Errorf("%w: %d", ErrInvalidLength, n)
	}

	body := make([]byte, n)
	if _, err := io.ReadFull(c.br, body); err != nil {
		return env, fmt.Errorf("%w: %v", ErrTruncated, err)
	}

	if err := json.Unmarshal(body, &env); err != nil {
		return env, fmt.Errorf("%w: %v", ErrMalformed, err)
	}
	return env, nil
}
