package wire

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"net"
	"strings"
	"time"
)

// LineReader accumulates CRLF-terminated lines off a net.Conn, preserving
// any bytes read past the line boundary across calls (lines may arrive
// split across TCP segments, possibly with a deadline expiring mid-line).
// It is not safe for concurrent use.
type LineReader struct {
	conn    net.Conn
	br      *bufio.Reader
	pending []byte
}

// NewLineReader wraps conn in a buffered, CRLF-aware line reader.
func NewLineReader(conn net.Conn) *LineReader {
	return &LineReader{
		conn: conn,
		br:   bufio.NewReader(conn),
	}
}

// ReadLine reads a single CRLF-terminated line, strips the line terminator,
// and decodes it (UTF-8 with CP1252 fallback). deadline is applied to the
// underlying socket via SetReadDeadline; a zero deadline disables the
// timeout.
//
// A deadline expiring with no line read returns ErrTimeout. A peer close
// (io.EOF with no bytes accumulated, or mid-line) returns ErrLostConnection.
//
// Bytes read before the line terminator arrives are never discarded: on
// error (timeout or otherwise) whatever was read is appended to an
// internal pending buffer and prefixed onto the next call's read, so a
// line split across calls by an expiring deadline is reassembled rather
// than losing its already-arrived prefix.
func (l *LineReader) ReadLine(deadline time.Time) (string, error) {
	if err := l.conn.SetReadDeadline(deadline); err != nil {
		return "", fmt.Errorf("wire: set read deadline: %w", err)
	}

	raw, err := l.br.ReadString('\n')
	if len(raw) > 0 {
		l.pending = append(l.pending, raw...)
	}
	if err != nil {
		return "", classifyReadErr(err)
	}

	line := strings.TrimRight(string(l.pending), "\r\n")
	l.pending = nil
	return Decode([]byte(line)), nil
}

// classifyReadErr turns a raw bufio/net read error into a wire sentinel.
func classifyReadErr(err error) error {
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return fmt.Errorf("%w", ErrTimeout)
	}
	if errors.Is(err, io.EOF) {
		return fmt.Errorf("%w", ErrLostConnection)
	}
	return fmt.Errorf("wire: read line: %w", err)
}
