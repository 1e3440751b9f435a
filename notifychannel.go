package zino

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"strconv"
	"strings"
	"time"

	"github.com/zinolib/gozino/internal/wire"
)

// notification is one parsed record from the push channel.
type notification struct {
	ID   int
	Type string
	Info string
}

// notifyChannel owns the notification-port TCP socket. Polling is
// non-blocking with respect to the caller's timeout: a read that does not
// complete within it is not an error, it simply means no update arrived.
type notifyChannel struct {
	conn    net.Conn
	br      *bufio.Reader
	pending []byte
	tied    bool
	log     *slog.Logger
	server  string
	port    int
}

func newNotifyChannel(server string, port int, log *slog.Logger) *notifyChannel {
	return &notifyChannel{log: log, server: server, port: port}
}

// connect dials the notification port, applies keepalive, and reads the
// server-issued 40-hex session key.
func (n *notifyChannel) connect(ctx context.Context, connectTimeout, timeout time.Duration) (string, error) {
	d := net.Dialer{Timeout: connectTimeout}
	addr := net.JoinHostPort(n.server, strconv.Itoa(n.port))
	conn, err := d.DialContext(ctx, "tcp", addr)
	if err != nil {
		return "", fmt.Errorf("dial notification channel %s: %w", addr, err)
	}
	if err := wire.ApplyKeepalive(conn, wire.DefaultKeepalive); err != nil {
		n.log.Warn("keepalive not applied", "error", err)
	}

	n.conn = conn
	n.br = bufio.NewReader(conn)

	if err := n.conn.SetReadDeadline(deadlineFrom(ctx, timeout)); err != nil {
		return "", fmt.Errorf("set read deadline: %w", err)
	}
	raw, err := n.br.ReadString('\n')
	if len(raw) > 0 {
		n.pending = append(n.pending, raw...)
	}
	if err != nil {
		return "", fmt.Errorf("read session key: %w", classifyNotifyErr(err))
	}
	line := strings.TrimRight(string(n.pending), "\r\n")
	n.pending = nil

	fields := strings.Fields(line)
	if len(fields) < 1 || len(fields[0]) != 40 {
		return "", fmt.Errorf("malformed session key %q: %w", line, ErrProtocol)
	}
	return fields[0], nil
}

// markTied records that ntie has succeeded on the request channel. The
// channel must not be considered usable until this has been called.
func (n *notifyChannel) markTied() { n.tied = true }

func (n *notifyChannel) ready() bool { return n.conn != nil && n.tied }

func (n *notifyChannel) close() error {
	if n.conn == nil {
		return nil
	}
	if err := n.conn.Close(); err != nil && !errors.Is(err, net.ErrClosed) {
		return err
	}
	return nil
}

// poll performs at most one read attempt bounded by timeout, returning a
// parsed notification or (nil, nil) if nothing arrived within it. A read
// timeout is not an error here — it is the normal "no data" outcome. Bytes
// read before a timeout (a notification line split across TCP segments)
// are retained in n.pending and prefixed onto the next successful read,
// rather than discarded.
func (n *notifyChannel) poll(ctx context.Context, timeout time.Duration) (*notification, error) {
	if n.conn == nil {
		return nil, ErrNotConnected
	}

	if err := n.conn.SetReadDeadline(deadlineFrom(ctx, timeout)); err != nil {
		return nil, fmt.Errorf("set read deadline: %w", err)
	}

	raw, err := n.br.ReadString('\n')
	if len(raw) > 0 {
		n.pending = append(n.pending, raw...)
	}
	if err != nil {
		if isTimeoutErr(err) {
			return nil, nil
		}
		return nil, classifyNotifyErr(err)
	}
	line := wire.Decode([]byte(strings.TrimRight(string(n.pending), "\r\n")))
	n.pending = nil

	fields := strings.SplitN(line, " ", 3)
	if len(fields) < 2 {
		return nil, fmt.Errorf("malformed notification %q: %w", line, ErrProtocol)
	}
	id, err := strconv.Atoi(fields[0])
	if err != nil {
		return nil, fmt.Errorf("malformed notification id %q: %w", line, ErrProtocol)
	}
	info := ""
	if len(fields) == 3 {
		info = fields[2]
	}
	return &notification{ID: id, Type: fields[1], Info: info}, nil
}

func isTimeoutErr(err error) bool {
	var netErr net.Error
	return errors.As(err, &netErr) && netErr.Timeout()
}

// classifyNotifyErr maps a read failure to the public taxonomy: a timeout
// becomes ErrTimeout, and any other read failure (EOF, reset, closed)
// means the peer connection is gone.
func classifyNotifyErr(err error) error {
	if isTimeoutErr(err) {
		return fmt.Errorf("%w: %w", ErrTimeout, err)
	}
	return newLostConnection(err)
}
