//go:build linux

package wire

import (
	"fmt"
	"net"

	"golang.org/x/sys/unix"
)

// ApplyKeepalive enables TCP keepalive on conn with the Linux-specific
// TCP_KEEPIDLE/TCP_KEEPINTVL/TCP_KEEPCNT socket options, set directly via
// the raw file descriptor the way rawsock_linux.go configures BFD sockets
// through syscall.RawConn.Control.
func ApplyKeepalive(conn net.Conn, cfg KeepaliveConfig) error {
	tcpConn, ok := conn.(*net.TCPConn)
	if !ok {
		return nil
	}

	if err := tcpConn.SetKeepAlive(true); err != nil {
		return fmt.Errorf("wire: enable keepalive: %w", err)
	}

	raw, err := tcpConn.SyscallConn()
	if err != nil {
		return fmt.Errorf("wire: raw conn: %w", err)
	}

	var sockErr error
	err = raw.Control(func(fd uintptr) {
		//nolint:gosec // G115: fd uintptr->int is safe; kernel FDs are always small positive integers.
		intFD := int(fd)
		sockErr = setKeepaliveOpts(intFD, cfg)
	})
	if err != nil {
		return fmt.Errorf("wire: raw conn control: %w", err)
	}
	return sockErr
}

func setKeepaliveOpts(fd int, cfg KeepaliveConfig) error {
	idleSecs := int(cfg.Idle.Seconds())
	if idleSecs < 1 {
		idleSecs = 1
	}
	intervalSecs := int(cfg.Interval.Seconds())
	if intervalSecs < 1 {
		intervalSecs = 1
	}

	if err := unix.SetsockoptInt(fd, unix.IPPROTO_TCP, unix.TCP_KEEPIDLE, idleSecs); err != nil {
		return fmt.Errorf("set TCP_KEEPIDLE: %w", err)
	}
	if err := unix.SetsockoptInt(fd, unix.IPPROTO_TCP, unix.TCP_KEEPINTVL, intervalSecs); err != nil {
		return fmt.Errorf("set TCP_KEEPINTVL: %w", err)
	}
	if err := unix.SetsockoptInt(fd, unix.IPPROTO_TCP, unix.TCP_KEEPCNT, cfg.Count); err != nil {
		return fmt.Errorf("set TCP_KEEPCNT: %w", err)
	}
	return nil
}
