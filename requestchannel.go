package zino

import (
	"context"
	"crypto/sha1" //nolint:gosec // G505: SHA1 is mandated by the wire protocol, not chosen by us
	"errors"
	"fmt"
	"log/slog"
	"net"
	"strconv"
	"strings"
	"time"

	"github.com/zinolib/gozino/internal/wire"
)

// channelState is the request channel's connection lifecycle.
type channelState int

const (
	stateDisconnected channelState = iota
	stateConnected
	stateAuthenticated
	stateClosed
)

// requestChannel owns the request-port TCP socket and speaks the
// authenticated command/reply protocol. One outstanding request at a time;
// callers must not interleave commands on the same channel.
type requestChannel struct {
	conn      *wire.Conn
	raw       net.Conn
	state     channelState
	log       *slog.Logger
	server    string
	port      int
	challenge string
}

func newRequestChannel(server string, port int, log *slog.Logger) *requestChannel {
	return &requestChannel{state: stateDisconnected, log: log, server: server, port: port}
}

// connect dials the request port, applies keepalive, and reads the server
// greeting, extracting the 40-hex authentication challenge.
func (c *requestChannel) connect(ctx context.Context, connectTimeout time.Duration, timeout time.Duration) (string, error) {
	d := net.Dialer{Timeout: connectTimeout}
	addr := net.JoinHostPort(c.server, strconv.Itoa(c.port))
	conn, err := d.DialContext(ctx, "tcp", addr)
	if err != nil {
		return "", fmt.Errorf("dial request channel %s: %w", addr, err)
	}
	if err := wire.ApplyKeepalive(conn, wire.DefaultKeepalive); err != nil {
		c.log.Warn("keepalive not applied", "error", err)
	}

	c.raw = conn
	c.conn = wire.NewConn(conn)
	c.state = stateConnected

	resp, err := c.conn.ReadResponse(deadlineFrom(ctx, timeout))
	if err != nil {
		c.state = stateDisconnected
		return "", fmt.Errorf("read greeting: %w", translateWireErr(err))
	}
	if resp.Code != wire.CodeOK {
		c.state = stateDisconnected
		return "", fmt.Errorf("unexpected greeting %d %s: %w", resp.Code, resp.Text, ErrProtocol)
	}

	fields := strings.Fields(resp.Text)
	if len(fields) < 1 {
		return "", fmt.Errorf("greeting missing challenge: %w", ErrProtocol)
	}
	c.challenge = fields[0]
	return c.challenge, nil
}

// lastChallenge returns the challenge read at connect time, for a caller
// authenticating separately from Connect.
func (c *requestChannel) lastChallenge() (string, error) {
	if c.challenge == "" {
		return "", fmt.Errorf("no challenge recorded: %w", ErrNotConnected)
	}
	return c.challenge, nil
}

// authenticate computes the SHA1 challenge/response token and issues the
// "user" command.
func (c *requestChannel) authenticate(ctx context.Context, timeout time.Duration, challenge, username, password string) error {
	if c.state != stateConnected {
		return fmt.Errorf("authenticate: %w", ErrNotConnected)
	}

	sum := sha1.Sum([]byte(challenge + " " + password)) //nolint:gosec // G401: protocol-mandated
	token := fmt.Sprintf("%x", sum)

	cmd := fmt.Sprintf("user %s %s  -", username, token)
	resp, err := c.do(ctx, cmd, timeout)
	if err != nil {
		return fmt.Errorf("authenticate: %w", err)
	}
	if resp.Code != wire.CodeOK {
		return fmt.Errorf("authenticate rejected: %d %s: %w", resp.Code, resp.Text, ErrAuthentication)
	}

	c.state = stateAuthenticated
	return nil
}

// close shuts down the underlying socket. Idempotent.
func (c *requestChannel) close() error {
	if c.raw == nil {
		c.state = stateClosed
		return nil
	}
	err := c.raw.Close()
	c.state = stateClosed
	if errors.Is(err, net.ErrClosed) {
		return nil
	}
	return err
}

func (c *requestChannel) connected() bool {
	return c.state == stateConnected || c.state == stateAuthenticated
}

// do sends a command and reads its response, translating wire-level errors
// into the public sentinel taxonomy.
func (c *requestChannel) do(ctx context.Context, cmd string, timeout time.Duration) (*wire.Response, error) {
	if !c.connected() {
		return nil, ErrNotConnected
	}
	deadline := deadlineFrom(ctx, timeout)
	if err := c.conn.Send(cmd, deadline); err != nil {
		return nil, translateWireErr(err)
	}
	resp, err := c.conn.ReadResponse(deadline)
	if err != nil {
		return nil, translateWireErr(err)
	}
	return resp, nil
}

func deadlineFrom(ctx context.Context, timeout time.Duration) time.Time {
	deadline := time.Now().Add(timeout)
	if ctxDeadline, ok := ctx.Deadline(); ok && ctxDeadline.Before(deadline) {
		return ctxDeadline
	}
	return deadline
}

func translateWireErr(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, wire.ErrLostConnection):
		return newLostConnection(err)
	case errors.Is(err, wire.ErrTimeout):
		return fmt.Errorf("%w: %w", ErrTimeout, err)
	default:
		return fmt.Errorf("%w: %w", ErrProtocol, err)
	}
}

// -------------------------------------------------------------------------
// Command surface
// -------------------------------------------------------------------------

// caseIDs issues "caseids" and parses the 304 block into integer ids.
// Non-digit lines are skipped rather than failing the whole response.
func (c *requestChannel) caseIDs(ctx context.Context, timeout time.Duration) ([]int, error) {
	resp, err := c.do(ctx, "caseids", timeout)
	if err != nil {
		return nil, err
	}
	if resp.Code != wire.CodeIDList {
		return nil, fmt.Errorf("caseids: unexpected code %d: %w", resp.Code, ErrProtocol)
	}
	ids := make([]int, 0, len(resp.Lines))
	for _, line := range resp.Lines {
		n, err := strconv.Atoi(strings.TrimSpace(line))
		if err != nil {
			continue
		}
		ids = append(ids, n)
	}
	return ids, nil
}

// getAttrs issues "getattrs <id>" and returns the raw attr:value lines.
func (c *requestChannel) getAttrs(ctx context.Context, timeout time.Duration, id int) ([]string, error) {
	resp, err := c.do(ctx, fmt.Sprintf("getattrs %d", id), timeout)
	if err != nil {
		return nil, err
	}
	if resp.Code >= 500 {
		return nil, fmt.Errorf("getattrs %d: %s: %w", id, resp.Text, ErrProtocol)
	}
	if resp.Code != wire.CodeAttributes {
		return nil, fmt.Errorf("getattrs %d: unexpected code %d: %w", id, resp.Code, ErrProtocol)
	}
	return resp.Lines, nil
}

// getHist issues "gethist <id>" and returns the raw 301 block.
func (c *requestChannel) getHist(ctx context.Context, timeout time.Duration, id int) ([]string, error) {
	resp, err := c.do(ctx, fmt.Sprintf("gethist %d", id), timeout)
	if err != nil {
		return nil, err
	}
	if resp.Code != wire.CodeHistoryEntries {
		return nil, fmt.Errorf("gethist %d: unexpected code %d: %w", id, resp.Code, ErrProtocol)
	}
	return resp.Lines, nil
}

// getLog issues "getlog <id>" and returns the raw 300 block.
func (c *requestChannel) getLog(ctx context.Context, timeout time.Duration, id int) ([]string, error) {
	resp, err := c.do(ctx, fmt.Sprintf("getlog %d", id), timeout)
	if err != nil {
		return nil, err
	}
	if resp.Code != wire.CodeLogEntries {
		return nil, fmt.Errorf("getlog %d: unexpected code %d: %w", id, resp.Code, ErrProtocol)
	}
	return resp.Lines, nil
}

// addHist issues "addhist <id>  -", then the dot-terminated message payload.
func (c *requestChannel) addHist(ctx context.Context, timeout time.Duration, id int, message string) error {
	resp, err := c.do(ctx, fmt.Sprintf("addhist %d  -", id), timeout)
	if err != nil {
		return err
	}
	if resp.Code != wire.CodeContinuation {
		return fmt.Errorf("addhist %d: unexpected code %d: %w", id, resp.Code, ErrProtocol)
	}

	deadline := deadlineFrom(ctx, timeout)
	if err := c.conn.Send(message+"\r\n\r\n.", deadline); err != nil {
		return translateWireErr(err)
	}
	resp, err = c.conn.ReadResponse(deadline)
	if err != nil {
		return translateWireErr(err)
	}
	if resp.Code != wire.CodeOK {
		return fmt.Errorf("addhist %d: payload rejected %d %s: %w", id, resp.Code, resp.Text, ErrProtocol)
	}
	return nil
}

// setState issues "setstate <id> <state>". A 5xx mentioning "reopen"
// surfaces as ErrEventClosed; other 5xx as ErrProtocol.
func (c *requestChannel) setState(ctx context.Context, timeout time.Duration, id int, state AdmState) error {
	resp, err := c.do(ctx, fmt.Sprintf("setstate %d %s", id, state), timeout)
	if err != nil {
		return err
	}
	if resp.Code == wire.CodeOK {
		return nil
	}
	if strings.Contains(strings.ToLower(resp.Text), "reopen") {
		return fmt.Errorf("setstate %d: %s: %w", id, resp.Text, ErrEventClosed)
	}
	return fmt.Errorf("setstate %d: %d %s: %w", id, resp.Code, resp.Text, ErrProtocol)
}

// clearFlap issues "clearflap <router> <ifindex>".
func (c *requestChannel) clearFlap(ctx context.Context, timeout time.Duration, router string, ifindex int) error {
	resp, err := c.do(ctx, fmt.Sprintf("clearflap %s %d", router, ifindex), timeout)
	if err != nil {
		return err
	}
	if resp.Code != wire.CodeOK {
		return fmt.Errorf("clearflap %s/%d: %d %s: %w", router, ifindex, resp.Code, resp.Text, ErrProtocol)
	}
	return nil
}

// pollRtr issues "pollrtr <router>".
func (c *requestChannel) pollRtr(ctx context.Context, timeout time.Duration, router string) error {
	resp, err := c.do(ctx, fmt.Sprintf("pollrtr %s", router), timeout)
	if err != nil {
		return err
	}
	if resp.Code != wire.CodeOK {
		return fmt.Errorf("pollrtr %s: %d %s: %w", router, resp.Code, resp.Text, ErrProtocol)
	}
	return nil
}

// pollIntf issues "pollintf <router> <ifindex>".
func (c *requestChannel) pollIntf(ctx context.Context, timeout time.Duration, router string, ifindex int) error {
	resp, err := c.do(ctx, fmt.Sprintf("pollintf %s %d", router, ifindex), timeout)
	if err != nil {
		return err
	}
	if resp.Code != wire.CodeOK {
		return fmt.Errorf("pollintf %s/%d: %d %s: %w", router, ifindex, resp.Code, resp.Text, ErrProtocol)
	}
	return nil
}

// ntie binds a notification session key to this authenticated request
// channel.
func (c *requestChannel) ntie(ctx context.Context, timeout time.Duration, key string) error {
	resp, err := c.do(ctx, fmt.Sprintf("ntie %s", key), timeout)
	if err != nil {
		return err
	}
	if resp.Code != wire.CodeOK {
		return fmt.Errorf("ntie: %d %s: %w", resp.Code, resp.Text, ErrProtocol)
	}
	return nil
}
